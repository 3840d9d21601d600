package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/stsysd/gantt/db"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations",
		Long:  "Create or upgrade the SQLite database used by the sqlite backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			path := cfg.Store.SQLitePath()
			version, err := runMigrations(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", path, version)
			return nil
		},
	}
}

// runMigrations はデータベースに対してマイグレーションを実行し、適用後のバージョンを返します。
func runMigrations(path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		return 0, err
	}
	return db.Version(conn)
}
