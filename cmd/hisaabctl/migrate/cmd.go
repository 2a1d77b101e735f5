// Package migratecmd implements the `hisaabctl migrate` command.
package migratecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hisaabdost/backend/cmd/hisaabctl/shared"
	"github.com/hisaabdost/backend/internal/storage/sqlite"
)

// Command implements `hisaabctl migrate`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the migrate command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	cfg, err := c.ctx.Config()
	if err != nil {
		return err
	}
	// Opening the store applies pending migrations.
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date.\n", cfg.DBPath)
	return nil
}
