package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"budgetify/internal/cli"
	"budgetify/internal/config"
	"budgetify/internal/disk"
	"budgetify/internal/storage"
)

func newAuthCommand() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Yandex.Disk login for a Telegram user",
		Long: "Reads the same environment (and .env file) as the bot. Useful when\n" +
			"the bot cannot reach the user or for testing the OAuth client.",
		PersistentPreRun: func(*cobra.Command, []string) {
			cli.LoadEnvFile()
		},
	}
	authCmd.AddCommand(newAuthURLCommand())
	authCmd.AddCommand(newAuthExchangeCommand())
	authCmd.AddCommand(newAuthStatusCommand())
	authCmd.AddCommand(newAuthLogoutCommand())
	return authCmd
}

func loadOAuth() (*config.Config, *disk.OAuth, error) {
	cfg := config.Load()
	oauth := cli.NewOAuth(cfg)
	if oauth == nil {
		return nil, nil, errors.New("YANDEX_OAUTH_CLIENT_ID and YANDEX_OAUTH_CLIENT_SECRET are required")
	}
	return cfg, oauth, nil
}

func newAuthURLCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the consent page link for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, oauth, err := loadOAuth()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), oauth.AuthURL(userID))
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newAuthExchangeCommand() *cobra.Command {
	var userID int64
	var code string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Trade a confirmation code for a token and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, oauth, err := loadOAuth()
			if err != nil {
				return err
			}
			tok, err := oauth.Exchange(cmd.Context(), code)
			if err != nil {
				return err
			}
			repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer repo.Close()
			if err := repo.SaveToken(cmd.Context(), userID, tok); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "token stored for user %d (expires %s)\n",
				userID, tok.Expiry.Format("2006-01-02 15:04"))
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id (required)")
	cmd.Flags().StringVar(&code, "code", "", "confirmation code from Yandex (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a user has a stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(config.Load().SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer repo.Close()
			ok, err := repo.IsAuthenticated(cmd.Context(), userID)
			if err != nil {
				return err
			}
			status := "not logged in"
			if ok {
				status = "logged in"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s\n", userID, status)
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newAuthLogoutCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget a user's stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(config.Load().SQLiteDBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer repo.Close()
			if err := repo.DeleteToken(cmd.Context(), userID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "user %d: logged out\n", userID)
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
