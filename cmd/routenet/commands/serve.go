package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rplryan/x402-routenet/pkg/config"
	"github.com/rplryan/x402-routenet/pkg/discovery"
	"github.com/rplryan/x402-routenet/pkg/mcp"
	"github.com/rplryan/x402-routenet/pkg/routing"
	"github.com/rplryan/x402-routenet/pkg/server"
	"github.com/rplryan/x402-routenet/pkg/stores"
	"github.com/rplryan/x402-routenet/pkg/telemetry"
)

func newServeCommand(version string) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the RouteNet HTTP server",
		Long: `Start the RouteNet service: the REST routing surface, the MCP JSON-RPC
endpoint for agent frameworks, and Prometheus metrics.

The server holds a cached Discovery API client, the admission policy
engine, and the route history store. Shutdown is graceful on SIGINT or
SIGTERM.`,
		Example: `  # Serve with defaults (listens on :8080)
  routenet serve

  # Serve with a config file and debug logging
  routenet serve --config routenet.yaml --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.Server.ListenAddr = listenAddr
			}
			return runServe(cmd.Context(), cfg, version)
		},
	}

	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, version string) error {
	tel, err := telemetry.New(telemetryConfig(cfg, version))
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger := tel.Logger.Zerolog()

	// Route history store. The default is in-memory; history resets on
	// restart unless a file path is configured.
	store := stores.NewRouteStore(stores.Config{Path: cfg.Store.Path})
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("initialize route store: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate route store: %w", err)
	}

	// Discovery client and cache.
	client := discovery.NewClient(cfg.Discovery.APIURL, discovery.ClientOptions{
		Timeout: cfg.Discovery.RequestTimeout,
		Logger:  logger,
		Metrics: tel.Metrics,
	})
	cache := discovery.NewCache(client, discovery.CacheOptions{
		TTL:        cfg.Discovery.CacheTTL,
		MaxEntries: cfg.Discovery.CacheMaxEntries,
		Logger:     logger,
		Metrics:    tel.Metrics,
	})
	if err := applySynonyms(cache, cfg); err != nil {
		return err
	}
	if cfg.Synonyms.Path != "" && cfg.Synonyms.Watch {
		watcher, err := config.WatchSynonyms(cfg.Synonyms.Path, logger, cache.Expander().Replace)
		if err != nil {
			return fmt.Errorf("watch synonyms: %w", err)
		}
		defer func() { _ = watcher.Close() }()
	}

	// Admission policy.
	var admitter routing.Admitter
	if cfg.Policy.Enabled {
		policyEngine, err := newPolicyEngine(ctx, cfg, logger, tel.Metrics)
		if err != nil {
			return err
		}
		admitter = policyEngine
	}

	engine := routing.NewEngine(cache, routing.EngineOptions{
		Admitter:       admitter,
		Recorder:       store,
		Metrics:        tel.Metrics,
		Logger:         logger,
		DiscoveryLimit: cfg.Discovery.Limit,
	})

	srv := server.New(server.Options{
		Config:  cfg,
		Engine:  engine,
		History: store,
		MCP:     mcp.NewHandler(engine, version, logger),
		Metrics: tel.Metrics,
		Logger:  logger,
		Version: version,
	})

	logger.Info().
		Str("version", version).
		Str("discovery_api", cfg.Discovery.APIURL).
		Bool("policy", cfg.Policy.Enabled).
		Bool("fee_collection", cfg.Pricing.Wallet != "").
		Msg("RouteNet starting")

	return srv.Run(ctx)
}

// telemetryConfig maps the service configuration onto the telemetry stack.
func telemetryConfig(cfg *config.Config, version string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version
	tc.Logging.Level = cfg.Logging.Level
	tc.Logging.Format = cfg.Logging.Format
	tc.Tracing.Enabled = cfg.Tracing.Enabled
	if cfg.Tracing.Exporter != "" {
		tc.Tracing.Exporter = cfg.Tracing.Exporter
	}
	if cfg.Tracing.Endpoint != "" {
		tc.Tracing.Endpoint = cfg.Tracing.Endpoint
	}
	return tc
}
