// Command costctl administers the style cost database from the shell:
// schema migrations, seeding, cost breakdowns, SAP exports and color imports.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JAITteam/ja-uniforms-pricing/internal/config"
	"github.com/JAITteam/ja-uniforms-pricing/internal/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is shared by the subcommands. The database is opened on first use.
type env struct {
	dbPath string
	cfg    config.Config
	db     *sql.DB
}

func (e *env) open() (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	path := e.cfg.DBPath
	if e.dbPath != "" {
		path = e.dbPath
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	e.db = database
	return database, nil
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
		e.db = nil
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "costctl",
		Short: "Administer the garment style cost database",
		Long: `costctl works directly on the SQLite database used by the server.
It reads the same environment (.env, DB_PATH, PRICING_CONFIG) unless --db is given.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			e.cfg = config.Load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&e.dbPath, "db", "", "SQLite database path (defaults to DB_PATH)")

	rootCmd.AddCommand(migrateCmd(e))
	rootCmd.AddCommand(seedCmd(e))
	rootCmd.AddCommand(estimateCmd(e))
	rootCmd.AddCommand(exportCmd(e))
	rootCmd.AddCommand(sizesCmd())
	rootCmd.AddCommand(importColorsCmd(e))

	return rootCmd
}
