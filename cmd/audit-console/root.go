package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	actor  string
	driver string
	dsn    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "audit-console",
		Short:         "Inspect and record workspace activity logs",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.actor, "actor", "", "User id the command runs as")
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "Database driver override (sqlite, postgres)")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "Database DSN override")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newLogCmd(opts),
		newListCmd(opts),
		newCountCmd(opts),
		newAdminListCmd(opts),
		newStatsCmd(opts),
	)
	return cmd
}

// withApp boots the runtime for a single command invocation.
func withApp(cmd *cobra.Command, opts *rootOptions, run func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := newApp(ctx, *opts)
	if err != nil {
		return err
	}
	defer app.Close()
	return run(app.AsActor(ctx, opts.actor), app)
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
