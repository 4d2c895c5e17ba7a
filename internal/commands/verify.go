package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boekwerk/boekwerk-cli/internal/api"
	"github.com/boekwerk/boekwerk-cli/internal/config"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify current API key",
	Long:  `Verify that your stored API key is valid and check your account status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load config with API key
		secureConfig, err := config.LoadSecureConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if secureConfig.APIKey == "" {
			return errors.NoAPIKeyError()
		}

		// Verify with API
		client := api.NewClient(secureConfig.APIKey, secureConfig.APIURL, secureConfig.Debug)
		userInfo, err := client.VerifyAuth(cmd.Context())
		if err != nil {
			return fmt.Errorf("API key verification failed: %w", err)
		}

		fmt.Println("✓ API key is valid")
		fmt.Printf("  Email: %s\n", userInfo.Email)
		fmt.Printf("  Office: %s\n", userInfo.OfficeName)
		fmt.Printf("  Plan: %s\n", userInfo.Plan)
		fmt.Printf("  Clients: %d\n", userInfo.ClientCount)

		return nil
	},
}
