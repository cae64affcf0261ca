// Package cli implements the parkctl operator commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/parkease/internal/config"
	"github.com/iliyamo/parkease/internal/database"
)

// opener returns a migrated database handle.  Commands close it.
type opener func(ctx context.Context) (*sql.DB, error)

// NewRootCmd builds parkctl with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:   "parkctl",
		Short: "Operate the ParkEase spot store",
		Long: `parkctl seeds, inspects and resets the spot store shared by the server
and the detector.  It uses SQLite (DB_PATH, default parkease.db) unless
DB_DRIVER=mysql is set.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (overrides DB_PATH)")

	open := func(ctx context.Context) (*sql.DB, error) {
		return openDB(ctx, dbPath)
	}

	root.AddCommand(NewSeedCmd(open))
	root.AddCommand(NewShowCmd(open))
	root.AddCommand(NewClearCmd(open))
	root.AddCommand(NewBookCmd(open))
	root.AddCommand(NewCancelCmd(open))
	root.AddCommand(NewSyncCmd(open))
	return root
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	cfg := config.DatabaseConfig{Driver: "sqlite3", Path: "parkease.db"}
	switch {
	case path != "":
		cfg.Path = path
	case os.Getenv("DB_DRIVER") == "mysql":
		cfg = config.LoadDatabaseConfig()
	case os.Getenv("DB_PATH") != "":
		cfg.Path = os.Getenv("DB_PATH")
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(ctx, db, cfg.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return db, nil
}
