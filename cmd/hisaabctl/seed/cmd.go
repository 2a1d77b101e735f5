// Package seedcmd implements the `hisaabctl seed` command.
package seedcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hisaabdost/backend/cmd/hisaabctl/shared"
	"github.com/hisaabdost/backend/internal/auth"
	"github.com/hisaabdost/backend/internal/seed"
)

// Command implements `hisaabctl seed`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the seed command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import users, groups and records from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	fixture, err := seed.Load(file)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	a, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	seeder := seed.New(a.Store, auth.NewPasswordAuthenticator(a.Store), a.Sessions.Invalidator())
	sum, err := seeder.Apply(cmd.Context(), fixture)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d groups, %d memberships, %d records.\n",
		sum.Users, sum.Groups, sum.Memberships, sum.Records)
	return nil
}
