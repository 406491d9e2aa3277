package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"astro-natal/relay/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply environment overrides, and report
every validation failure at once.

Examples:
  # Validate the default config file
  astrorelay validate

  # Validate a specific file
  astrorelay validate --config /etc/astrorelay/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("✗ Configuration invalid (%d errors):\n", len(verr.Errors))
			for _, fieldErr := range verr.Errors {
				fmt.Printf("  - %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  listen address: %s\n", cfg.Server.ListenAddress)
	fmt.Printf("  astro provider: %s (auth %s, discovery %t)\n",
		cfg.Astro.BaseURL, cfg.Astro.AuthStyle, cfg.Astro.DiscoverAuth)
	fmt.Printf("  geocoder: %s\n", cfg.Geocoder.BaseURL)
	fmt.Printf("  audit: enabled=%t path=%s\n", cfg.Audit.Enabled, cfg.Audit.Path)
	return nil
}
