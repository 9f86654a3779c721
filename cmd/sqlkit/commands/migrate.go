package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/internal/ui"
	"github.com/satishbabariya/sqlkit/internal/watch"
)

func newMigrateCommand(app *App) *cobra.Command {
	var to string
	var watching bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Long: `Apply every pending version in declaration order, up to and including
--to when given. With --watch the command keeps running and migrates again
whenever a file in the migrations directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.migrate(ctx, to); err != nil {
				if !watching {
					return err
				}
				app.Printer.Error("%v", err)
			}
			if !watching {
				return nil
			}

			w, err := watch.New(app.cfg.Migrations.Dir, func(ctx context.Context) error {
				return app.migrate(ctx, to)
			}, watch.WithErrorHandler(func(err error) {
				app.Printer.Error("%v", err)
			}))
			if err != nil {
				return err
			}
			app.Printer.Info("Watching %s", app.cfg.Migrations.Dir)
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Last version to apply")
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "Migrate again when migration files change")

	return cmd
}

func (a *App) migrate(ctx context.Context, to string) error {
	db, runner, err := a.migrator(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	debug.Debug("migrate", "to", to)
	return runner.Migrate(ctx, to)
}

func newRollbackCommand(app *App) *cobra.Command {
	var to string
	var yes bool

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back applied migrations",
		Long: `Roll back from the current version down to and including --to, or every
applied version when --to is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := to
			if target == "" {
				target = "every version"
			}
			ok, err := app.confirm("Roll back "+target+"?", yes)
			if err != nil || !ok {
				return err
			}

			ctx := cmd.Context()
			db, runner, err := app.migrator(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			return runner.Rollback(ctx, to)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Last version to roll back")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newResetCommand(app *App) *cobra.Command {
	var from string
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Roll back and migrate again",
		Long: `Roll back down to --from (or everything) and migrate up again to the
version that was current before. The two phases are not atomic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := app.confirm("Reset the database?", yes)
			if err != nil || !ok {
				return err
			}

			ctx := cmd.Context()
			db, runner, err := app.migrator(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := runner.Reset(ctx, from); err != nil {
				return err
			}
			app.Printer.Success("%d migrations executed", runner.Executed())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Lowest version to roll back")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run <version>",
		Short: "Run one version regardless of the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, runner, err := app.migrator(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			return runner.Run(ctx, args[0])
		},
	}
}

func newStatsCommand(app *App) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:     "stats",
		Aliases: []string{"status"},
		Short:   "Show applied migrations by version",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, runner, err := app.migrator(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := runner.Stats(ctx)
			if err != nil {
				return err
			}
			if markdown {
				return app.Printer.Markdown(ui.StatsMarkdown(stats))
			}
			return app.Printer.Stats(stats)
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the report as markdown")

	return cmd
}
