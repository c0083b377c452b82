package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatbot/internal/auth"
	"chatbot/internal/config"
	accountSvc "chatbot/internal/domain/services/account"
	"chatbot/internal/repository/postgres"
	"chatbot/internal/seed"
	serviceAccount "chatbot/internal/service/account"
)

var (
	userEmail    string
	userPassword string
)

// createUserCmd registers a credential account
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a credential account",
	Long: `Create a regular account with an email and password, the same way
POST /api/auth/register does.

Example usage:
  chatctl create-user --email ada@example.com --password s3cret!`,
	RunE: runCreateUser,
}

// seedCmd creates a demo account with a sample chat
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo account with a sample chat",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(seedCmd)

	for _, c := range []*cobra.Command{createUserCmd, seedCmd} {
		c.Flags().StringVar(&userEmail, "email", "", "account email")
		c.Flags().StringVar(&userPassword, "password", "", "account password (6-72 characters)")
	}
	createUserCmd.MarkFlagRequired("email")
	createUserCmd.MarkFlagRequired("password")
}

// accountService builds the account service. Tokens it issues are discarded.
func accountService(e *env) (*serviceAccount.Service, error) {
	sessions, err := auth.NewSessionManager(e.cfg.AuthSecret, config.SessionTTL, e.logger)
	if err != nil {
		return nil, fmt.Errorf("AUTH_SECRET: %w", err)
	}
	repoConfig := &postgres.RepositoryConfig{Pool: e.pool, Tables: e.tables, Logger: e.logger}
	return serviceAccount.NewService(postgres.NewUserRepository(repoConfig), sessions, e.cfg.Flags, e.logger), nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	accounts, err := accountService(e)
	if err != nil {
		return err
	}

	signed, err := accounts.Register(cmd.Context(), &accountSvc.Credentials{
		Email:    userEmail,
		Password: userPassword,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", signed.User.ID, signed.User.Email)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Environment == "prod" {
		return fmt.Errorf("refusing to seed demo data in production")
	}

	email, password := userEmail, userPassword
	if email == "" {
		email = "demo@example.com"
	}
	if password == "" {
		password = "demo-password"
	}

	accounts, err := accountService(e)
	if err != nil {
		return err
	}

	repoConfig := &postgres.RepositoryConfig{Pool: e.pool, Tables: e.tables, Logger: e.logger}
	seeder := seed.NewSeeder(
		accounts,
		postgres.NewChatRepository(repoConfig),
		postgres.NewMessageRepository(repoConfig),
		postgres.NewTransactionManager(e.pool, e.logger),
		e.logger,
	)

	user, chatID, err := seeder.Seed(cmd.Context(), &accountSvc.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s (user %s) with chat %s\n", user.Email, user.ID, chatID)
	return nil
}
