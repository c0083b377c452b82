package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chatbot/internal/config"
	"chatbot/internal/repository/postgres"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Administration tool for the chatbot database",
	Long: `chatctl manages the chatbot schema and accounts.

Configuration comes from the environment (and .env when present), the same
variables the server reads. ENVIRONMENT selects the table prefix.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
}

// env bundles what every subcommand needs.
type env struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

func (e *env) Close() {
	e.pool.Close()
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg := config.Load()

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	pool, err := postgres.CreateConnectionPool(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Debug("database connected", "environment", cfg.Environment, "prefix", cfg.TablePrefix)

	return &env{
		cfg:    cfg,
		pool:   pool,
		tables: postgres.NewTableNames(cfg.TablePrefix),
		logger: logger,
	}, nil
}
