// Package commands implements the sqlkit CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/sqlkit"
	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/internal/config"
	"github.com/satishbabariya/sqlkit/internal/debug"
	"github.com/satishbabariya/sqlkit/internal/ui"
	"github.com/satishbabariya/sqlkit/migrate"
)

// App holds what every command shares. Zero fields fall back to the OS
// file system, the process environment and the terminal.
type App struct {
	Fs      afero.Fs
	Env     func(key string) (string, bool)
	Printer *ui.Printer

	configFile string
	connection string
	debug      bool
	cfg        *config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.Printer == nil {
		app.Printer = ui.New()
	}

	cmd := &cobra.Command{
		Use:   "sqlkit",
		Short: "Query and migrate SQL databases",
		Long: `sqlkit runs declared migrations against MySQL, PostgreSQL, SQLite and
SQL Server, and queries tables with a small filter language.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&app.connection, "connection", "c", "", "Connection name (default from config)")
	cmd.PersistentFlags().StringVar(&app.configFile, "config", "", "Config file (default .sqlkit.yaml)")
	cmd.PersistentFlags().BoolVar(&app.debug, "debug", false, "Log statements to stderr")

	cmd.AddCommand(newMigrateCommand(app))
	cmd.AddCommand(newRollbackCommand(app))
	cmd.AddCommand(newResetCommand(app))
	cmd.AddCommand(newRunCommand(app))
	cmd.AddCommand(newStatsCommand(app))
	cmd.AddCommand(newSelectCommand(app))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func (a *App) load() error {
	cfg, err := config.Load(config.Options{Fs: a.Fs, File: a.configFile, Env: a.Env})
	if err != nil {
		return err
	}
	debug.Init(debug.Options{
		Enabled: a.debug || cfg.Debug,
		Format:  cfg.LogFormat,
		Output:  a.Printer.Err,
	})
	a.cfg = cfg
	return nil
}

func (a *App) open(ctx context.Context) (*sqlkit.DB, error) {
	reg, err := a.cfg.Registry(debug.Logger())
	if err != nil {
		return nil, err
	}
	conn, err := reg.Open(ctx, a.connection)
	if err != nil {
		return nil, err
	}
	return sqlkit.New(conn, sqlkit.WithLogger(debug.Logger())), nil
}

// migrator opens the connection and loads the migrations directory. The
// caller closes the returned DB.
func (a *App) migrator(ctx context.Context) (*sqlkit.DB, *migrate.Runner, error) {
	decl, err := migrate.LoadDir(a.Fs, a.cfg.Migrations.Dir)
	if err != nil {
		return nil, nil, err
	}
	db, err := a.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Migrator(decl, migrate.WithLogger(ui.Logger{Printer: a.Printer})), nil
}

func (a *App) confirm(message string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	ok := false
	if err := survey.AskOne(&survey.Confirm{Message: message}, &ok); err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return ok, nil
}

func (a *App) connectionConfig() (database.Config, error) {
	reg, err := a.cfg.Registry(nil)
	if err != nil {
		return database.Config{}, err
	}
	return reg.Config(a.connection)
}
