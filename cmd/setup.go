package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) resolvedConfigPath() string {
	if r.configPath == "" {
		return defaultConfigPath
	}
	return r.configPath
}

// SetupConfig writes a config file populated with the defaults.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.resolvedConfigPath()

	if cmd.Bool("force") {
		if err := shared.SaveConfig(path, shared.DefaultConfig()); err != nil {
			return err
		}
	} else if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v (use --force to overwrite)", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set yoto.client_id or %s before running 'yotoshare auth login'\n", shared.EnvClientID)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.resolvedConfigPath()

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		} else {
			config = loaded
		}
	} else {
		r.logger.Info("config file not found, using defaults", "path", path)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}
