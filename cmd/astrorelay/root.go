package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "astrorelay",
	Short: "Astrorelay - birth chart upstream proxy",
	Long: `Astrorelay is a proxy between a birth chart form and its astrology
and geocoding upstreams.

It smooths over the parts of those upstreams that keep breaking forms:
  - Field alias resolution and CJK-aware date/time normalization
  - Credential transport discovery across header and query styles
  - Bounded retry with backoff for rate limits and outages
  - Base64 relay for binary chart wheel images
  - Per-caller admission gating`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
