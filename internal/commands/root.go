package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boekwerk/boekwerk-cli/internal/config"
	"github.com/boekwerk/boekwerk-cli/internal/errors"
	"github.com/boekwerk/boekwerk-cli/pkg/version"
)

var (
	cfg     *config.SecureConfig
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "boekwerk",
	Short: "Boekwerk CLI - bulk actions across your client administrations",
	Long: `Boekwerk CLI runs bookkeeping actions in bulk across the client
administrations of your accounting office: recalculating ledgers,
acknowledging yellow-flagged dossiers, generating VAT return drafts
and sending document reminders.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.LoadSecureConfig()
		if err != nil {
			// Don't fail if config doesn't exist yet
			cfg = &config.SecureConfig{
				Config: &config.Config{},
			}
		}

		if debug {
			cfg.Debug = true
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Format error message for better user experience
		errorMsg := errors.FormatUserError(err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorMsg)

		// Add helpful hints for common errors
		if errors.IsAuthError(err) {
			fmt.Fprintf(os.Stderr, "\nHint: Run 'boekwerk login' to configure your API key\n")
		} else if errors.IsNetworkError(err) {
			fmt.Fprintf(os.Stderr, "\nHint: Check your internet connection and try again\n")
		} else if errors.IsValidationError(err) {
			fmt.Fprintf(os.Stderr, "\nHint: Run 'boekwerk examples' to see valid action files and flags\n")
		}

		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.boekwerk/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(NewBulkCommand())
	rootCmd.AddCommand(NewClientsCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(examplesCmd)
	rootCmd.AddCommand(completionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.GetBuildInfo())
	},
}
