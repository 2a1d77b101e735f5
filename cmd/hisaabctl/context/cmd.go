// Package contextcmd implements the `hisaabctl context` commands.
package contextcmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hisaabdost/backend/cmd/hisaabctl/shared"
	"github.com/hisaabdost/backend/internal/app"
	"github.com/hisaabdost/backend/internal/auth"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
)

// Command implements `hisaabctl context`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	email    string
	groupID  string
	personal bool
}

// New creates the context command with its show and set subcommands.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "context",
		Short: "Inspect or change a user's active context",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	c.cmd.PersistentFlags().StringVar(&c.email, "email", "", "Email of the user")
	_ = c.cmd.MarkPersistentFlagRequired("email")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active context and memberships",
		Args:  cobra.NoArgs,
		RunE:  c.show,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Switch the active context",
		Args:  cobra.NoArgs,
		RunE:  c.set,
	}
	set.Flags().StringVar(&c.groupID, "group", "", "Group to switch to")
	set.Flags().BoolVar(&c.personal, "personal", false, "Switch to the personal context")
	set.MarkFlagsMutuallyExclusive("group", "personal")
	set.MarkFlagsOneRequired("group", "personal")

	c.cmd.AddCommand(show, set)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) userID(cmd *cobra.Command, a *app.App) (string, error) {
	u, err := a.Store.GetUserByEmail(cmd.Context(), auth.NormalizeEmail(c.email))
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("no user with email %s", c.email)
	}
	return u.ID, nil
}

func (c *Command) show(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	userID, err := c.userID(cmd, a)
	if err != nil {
		return err
	}
	return report(cmd, a, userID)
}

func (c *Command) set(cmd *cobra.Command, _ []string) error {
	a, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	userID, err := c.userID(cmd, a)
	if err != nil {
		return err
	}

	switcher := a.Sessions.Session(userID).Switcher
	if c.personal {
		err = switcher.SwitchToPersonal(cmd.Context())
	} else {
		err = switcher.SwitchToGroup(cmd.Context(), c.groupID)
	}
	if errors.Is(err, scope.ErrNotMember) {
		return fmt.Errorf("%s is not an active member of group %s", c.email, c.groupID)
	}
	if err != nil {
		return err
	}
	return report(cmd, a, userID)
}

func report(cmd *cobra.Command, a *app.App, userID string) error {
	ctx := cmd.Context()
	store := a.Sessions.Session(userID).Store

	active, err := store.ActiveContext(ctx)
	if err != nil {
		return err
	}
	groups, err := store.Memberships(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeActive(out, active, groups)
	if len(groups) == 0 {
		fmt.Fprintln(out, "Memberships: none")
		return nil
	}
	fmt.Fprintln(out, "Memberships:")
	for _, g := range groups {
		marker := " "
		if active.Mode == scope.Group && active.GroupID == g.ID {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %s  %s\n", marker, g.ID, g.Name)
	}
	return nil
}

func writeActive(out io.Writer, active scope.Context, groups []*models.Group) {
	if active.Mode != scope.Group {
		fmt.Fprintln(out, "Active context: personal")
		return
	}
	name := "unknown group"
	for _, g := range groups {
		if g.ID == active.GroupID {
			name = g.Name
		}
	}
	fmt.Fprintf(out, "Active context: group %s (%s)\n", active.GroupID, name)
}
