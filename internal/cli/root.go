package cli

import (
	"context"
	"database/sql"
	"fmt"

	"commtracker-backend/internal/config"
	"commtracker-backend/internal/database"
	"commtracker-backend/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
}

// NewRootCommand creates the root command for the commtracker CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "commtracker",
		Short:         "Personal CRM backend",
		Long:          "Tracks calls and messages with your contacts, plus a small spending log.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// deps is what every command needs before doing its own work.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
}

func setup(opts *RootOptions) (*deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &deps{cfg: cfg, logger: logger}, nil
}

func (d *deps) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := database.Open(ctx, d.cfg.DatabaseDriver, d.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.RunMigrations(ctx, db, d.logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}
