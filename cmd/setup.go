package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/plconv/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the template and initializes the cache database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}
		r.writePlain("✓ Config file created at %s\n", r.configPath)
	} else {
		r.logger.Info("config file already exists", "path", r.configPath)
	}

	db := r.db
	if db == nil {
		r.logger.Info("initializing database", "path", r.config.Database.Path)
		opened, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer opened.Close()
		db = opened
	}

	version, err := shared.MigrationVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	r.writePlain("✓ Database ready at %s (schema version %d)\n", r.config.Database.Path, version)
	if r.config.Database.Path == shared.MemoryDSN {
		r.writePlain("  Note: the in-memory cache lasts for a single command; set database.path to persist it.\n")
	}
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in credentials.spotify and credentials.youtube in %s\n", r.configPath)
	r.writePlain("2. Run 'plconv auth youtube' to authorize playlist writes\n")
	return nil
}
