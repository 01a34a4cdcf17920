package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arbiter-hq/arbiter/pkg/config"
	"arbiter-hq/arbiter/pkg/pdp"
	"arbiter-hq/arbiter/pkg/policy/cache"
	"arbiter-hq/arbiter/pkg/policy/manager"
	"arbiter-hq/arbiter/pkg/server"
	"arbiter-hq/arbiter/pkg/telemetry/logging"
	"arbiter-hq/arbiter/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	policyDir     string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Arbiter decision server",
	Long: `Start the Arbiter decision server with the specified configuration.

The server loads APL policy sets from the policy directory, keeps them fresh
through filesystem watching, and answers decision requests over HTTP.

Examples:
  # Start with default config
  arbiter run

  # Start with custom config
  arbiter run --config /etc/arbiter/config.yaml

  # Override listen address and policy directory
  arbiter run --listen 0.0.0.0:8181 --policies /etc/arbiter/policies

  # Validate config and policies without starting the server
  arbiter run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVarP(&runFlags.policyDir, "policies", "p", "", "override policy directory")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and policies without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.policyDir != "" {
		cfg.Policy.Dir = runFlags.policyDir
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	slog.SetDefault(logger)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	mgr := manager.New(manager.Config{
		PolicyDir: cfg.Policy.Dir,
		Watch:     cfg.Policy.Watch,
		Watcher: &manager.WatcherConfig{
			DebounceInterval: cfg.Policy.DebounceInterval,
			Extensions:       []string{".yaml", ".yml"},
			SkipHidden:       true,
		},
		ResyncSchedule: cfg.Policy.ResyncSchedule,
	}, logger, manager.WithObserver(func(setName string, version int, err error) {
		collector.RecordCompile(setName, version, err)
	}))

	if err := mgr.Load(); err != nil {
		return fmt.Errorf("failed to load policies from %q: %w", cfg.Policy.Dir, err)
	}

	sets := mgr.List()
	fmt.Printf("Arbiter v%s\n", Version)
	fmt.Printf("Loaded %d policy set(s) from %s\n", len(sets), cfg.Policy.Dir)
	for _, info := range sets {
		fmt.Printf("  %s v%d (%d rules)\n", info.Name, info.Version, info.RuleCount)
	}

	if runFlags.dryRun {
		fmt.Println("Configuration and policies valid")
		return nil
	}

	pdpOpts := []pdp.Option{pdp.WithMetrics(collector)}
	if cfg.Cache.Enabled {
		decisionCache := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
		defer decisionCache.Close()
		pdpOpts = append(pdpOpts, pdp.WithCache(decisionCache))
	}
	decider := pdp.New(mgr, logger, pdpOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start policy manager: %w", err)
	}
	defer func() {
		if err := mgr.Stop(); err != nil {
			logger.Warn("Error stopping policy manager", "error", err)
		}
	}()

	var srvOpts []server.Option
	if cfg.Telemetry.Metrics.Enabled {
		srvOpts = append(srvOpts, server.WithMetrics(collector, cfg.Telemetry.Metrics.Path))
	}
	srv := server.NewServer(&cfg.Server, decider, logger, srvOpts...)

	fmt.Printf("Listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("Press Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
