package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatbot/internal/config"
	"chatbot/internal/repository/postgres"
)

var printSchema bool

// migrateCmd applies the schema for the configured prefix
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tables for the current environment",
	Long: `Apply the schema for the current table prefix. Every statement is
idempotent, so running migrate twice is safe.

Example usage:
  chatctl migrate
  ENVIRONMENT=test chatctl migrate
  chatctl migrate --print   # write the DDL to stdout instead`,
	RunE: runMigrate,
}

var dropConfirmed bool

// dropCmd removes every table of the configured prefix
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table of the current environment",
	RunE:  runDrop,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(dropCmd)

	migrateCmd.Flags().BoolVar(&printSchema, "print", false, "print the schema instead of applying it")
	dropCmd.Flags().BoolVar(&dropConfirmed, "yes", false, "confirm dropping all tables")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if printSchema {
		tables := postgres.NewTableNames(config.Load().TablePrefix)
		fmt.Fprintln(cmd.OutOrStdout(), postgres.Schema(tables))
		return nil
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := postgres.Migrate(cmd.Context(), e.pool, e.tables); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema applied (prefix %q)\n", e.tables.Prefix)
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Environment == "prod" {
		return fmt.Errorf("refusing to drop tables in production")
	}
	if !dropConfirmed {
		return fmt.Errorf("this drops %d tables with prefix %q; pass --yes to confirm", len(e.tables.All()), e.tables.Prefix)
	}

	if err := postgres.DropAll(cmd.Context(), e.pool, e.tables); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dropped tables with prefix %q\n", e.tables.Prefix)
	return nil
}
