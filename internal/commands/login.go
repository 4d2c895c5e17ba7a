package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/boekwerk/boekwerk-cli/internal/api"
	"github.com/boekwerk/boekwerk-cli/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login [api-key]",
	Short: "Configure your API key securely",
	Long: `Configure your Boekwerk API key using secure storage.
The key will be stored in your system keyring when available,
or in an encrypted file as a fallback.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Welcome to Boekwerk CLI!")
		fmt.Printf("Get your API key at: %s\n", config.GetAPIKeysURL())
		fmt.Println()

		// Check if API key is provided as argument (for CI/CD)
		var apiKey string
		if len(args) > 0 {
			apiKey = args[0]
		} else {
			// Interactive prompt for API key
			fmt.Print("Enter your API key: ")

			// Read password without echoing
			bytePassword, err := term.ReadPassword(getStdinFD())
			if err != nil {
				// Fallback to regular input if terminal read fails
				reader := bufio.NewReader(os.Stdin)
				input, _ := reader.ReadString('\n')
				apiKey = strings.TrimSpace(input)
			} else {
				apiKey = string(bytePassword)
				fmt.Println() // Add newline after hidden input
			}
		}

		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		// Verify the API key first
		client := api.NewClient(apiKey, cfg.APIURL, cfg.Debug)
		userInfo, err := client.VerifyAuth(cmd.Context())
		if err != nil {
			return fmt.Errorf("invalid API key: %w", err)
		}

		// Save the API key securely
		secureConfig, err := config.LoadSecureConfig()
		if err != nil {
			secureConfig = &config.SecureConfig{
				Config: &config.Config{},
			}
		}

		if err := secureConfig.SaveAPIKey(apiKey); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}

		// Show storage information
		storageInfo := secureConfig.GetStorageInfo()
		fmt.Println()
		fmt.Println("✓ API key validated and stored successfully!")
		fmt.Printf("  Email: %s\n", userInfo.Email)
		fmt.Printf("  Office: %s\n", userInfo.OfficeName)
		fmt.Printf("  Plan: %s\n", userInfo.Plan)
		fmt.Printf("  Clients: %d\n", userInfo.ClientCount)
		fmt.Printf("  Storage: %v\n", storageInfo["source"])

		return nil
	},
}
