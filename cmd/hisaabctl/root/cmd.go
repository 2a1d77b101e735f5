// Package rootcmd wires the root cobra.Command for the hisaabctl binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	contextcmd "github.com/hisaabdost/backend/cmd/hisaabctl/context"
	migratecmd "github.com/hisaabdost/backend/cmd/hisaabctl/migrate"
	seedcmd "github.com/hisaabdost/backend/cmd/hisaabctl/seed"
	"github.com/hisaabdost/backend/cmd/hisaabctl/shared"
)

// New creates and returns the root cobra.Command for the admin CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "hisaabctl",
		Short:         "Administration tool for the Hisaab Dost backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(&ctx.DBPath, "db", "", "Database path (default: $DB_PATH or ./data/hisaab.db)")
	root.PersistentFlags().StringVar(&ctx.LogLevel, "log-level", "", "Log level: debug | info | warn | error (default: $LOG_LEVEL)")

	root.AddCommand(
		migratecmd.New(ctx).Cmd(),
		seedcmd.New(ctx).Cmd(),
		contextcmd.New(ctx).Cmd(),
	)

	return root
}
