package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"astro-natal/relay/pkg/audit"
	"astro-natal/relay/pkg/config"
	"astro-natal/relay/pkg/limits/admission"
	"astro-natal/relay/pkg/server"
	"astro-natal/relay/pkg/telemetry/logging"
	"astro-natal/relay/pkg/telemetry/metrics"
	"astro-natal/relay/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	watch         bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server listens on the configured address and relays birth chart
requests to the astrology and geocoding upstreams.

Examples:
  # Start with default config
  astrorelay run

  # Start with custom config
  astrorelay run --config /etc/astrorelay/config.yaml

  # Override listen address
  astrorelay run --listen 0.0.0.0:8080

  # Reload telemetry settings when the config file changes
  astrorelay run --watch

  # Validate config without starting the server
  astrorelay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", false, "reload telemetry settings on config changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// A .env beside the binary is the common development setup; absence is
	// not an error.
	_ = godotenv.Load()

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Secrets:   []string{cfg.Astro.APIKey},
	}); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Astrorelay v%s\n", Version)
	fmt.Println("✓ Configuration loaded")

	deps, cleanup, err := buildDependencies(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.NewServer(cfg, deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if runFlags.watch {
		if err := watchTelemetry(ctx, cfg); err != nil {
			slog.Warn("config watch unavailable", "error", err)
		}
	}

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/api/health\n", cfg.Server.ListenAddress)
	if metricsOn(cfg) {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal, context cancellation, or listener error.
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// loadRunConfig reads the config file when one exists, otherwise falls back
// to pure environment configuration so containers can run file-less.
func loadRunConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("no config file at %s and environment config invalid: %w", cfgFile, err)
		}
		slog.Info("no config file found, using environment configuration", "path", cfgFile)
		return cfg, nil
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildDependencies constructs the upstream clients and optional sinks.
// The returned cleanup closes everything that was opened, in reverse order.
func buildDependencies(cfg *config.Config) (server.Dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	style, err := upstream.ParseStyle(cfg.Astro.AuthStyle)
	if err != nil {
		return server.Dependencies{}, cleanup, fmt.Errorf("invalid auth style: %w", err)
	}

	astro, err := upstream.NewClient(upstream.Config{
		Name:           "astro",
		BaseURL:        cfg.Astro.BaseURL,
		Credential:     cfg.Astro.APIKey,
		Style:          style,
		Discover:       cfg.Astro.DiscoverAuth,
		MaxAttempts:    cfg.Astro.MaxAttempts,
		RetryBaseDelay: cfg.Astro.RetryBaseDelay,
		MaxRetryDelay:  cfg.Astro.MaxRetryDelay,
		Timeout:        cfg.Astro.Timeout,
	})
	if err != nil {
		return server.Dependencies{}, cleanup, fmt.Errorf("failed to create astro client: %w", err)
	}

	geocoder := upstream.NewGeocoder(upstream.GeocoderConfig{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Limit:     cfg.Geocoder.Limit,
		Timeout:   cfg.Geocoder.Timeout,
	})

	deps := server.Dependencies{
		Astro:    astro,
		Geocoder: geocoder,
		Version:  Version,
	}

	if cfg.Gate.Enabled == nil || *cfg.Gate.Enabled {
		deps.Gate = admission.NewMemoryGate(admission.Config{
			MinInterval: cfg.Gate.MinInterval,
			MaxInFlight: cfg.Gate.MaxInFlight,
		})
	}

	if metricsOn(cfg) {
		deps.Metrics = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace)
	}

	if cfg.Audit.Enabled {
		storeConfig := audit.DefaultStoreConfig()
		storeConfig.Path = cfg.Audit.Path
		store, err := audit.NewStore(storeConfig)
		if err != nil {
			return server.Dependencies{}, cleanup, fmt.Errorf("failed to open audit store: %w", err)
		}
		cleanups = append(cleanups, func() {
			if err := store.Close(); err != nil {
				slog.Error("failed to close audit store", "error", err)
			}
		})
		deps.Audit = store

		if cfg.Audit.PruneSchedule != "" {
			pruner := audit.NewPruner(store, &audit.RetentionConfig{
				RetentionDays: cfg.Audit.RetentionDays,
				PruneSchedule: cfg.Audit.PruneSchedule,
			})
			if err := pruner.Start(context.Background()); err != nil {
				slog.Warn("failed to start audit pruner", "error", err)
			} else {
				cleanups = append(cleanups, pruner.Stop)
				if next := pruner.NextPruning(); next != nil {
					slog.Debug("audit pruner started", "next_pruning", next)
				}
			}
		}

		fmt.Println("✓ Audit store initialized")
	}

	return deps, cleanup, nil
}

// watchTelemetry hot-reloads the telemetry section on config file changes.
// Listener and upstream settings still require a restart; the watcher says
// so rather than silently ignoring them.
func watchTelemetry(ctx context.Context, current *config.Config) error {
	watcher, err := config.NewWatcher(cfgFile, slog.Default())
	if err != nil {
		return err
	}

	go func() {
		if err := watcher.Watch(ctx, func(next *config.Config) { applyReload(current, next) }); err != nil {
			slog.Error("configuration watcher exited", "error", err)
		}
	}()
	return nil
}

func applyReload(current, next *config.Config) {
	if next.Telemetry.Logging != current.Telemetry.Logging {
		if _, err := logging.Setup(logging.Config{
			Level:     next.Telemetry.Logging.Level,
			Format:    next.Telemetry.Logging.Format,
			AddSource: next.Telemetry.Logging.AddSource,
			Secrets:   []string{next.Astro.APIKey},
		}); err != nil {
			slog.Error("failed to apply reloaded logging config", "error", err)
		} else {
			slog.Info("logging configuration reloaded",
				"level", next.Telemetry.Logging.Level,
				"format", next.Telemetry.Logging.Format,
			)
			current.Telemetry.Logging = next.Telemetry.Logging
		}
	}

	if next.Server != current.Server || next.Astro.BaseURL != current.Astro.BaseURL {
		slog.Warn("listener and upstream changes require a restart to take effect")
	}
}

func metricsOn(cfg *config.Config) bool {
	return cfg.Telemetry.Metrics.Enabled == nil || *cfg.Telemetry.Metrics.Enabled
}
