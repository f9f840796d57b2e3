package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rplryan/x402-routenet/pkg/config"
	"github.com/rplryan/x402-routenet/pkg/discovery"
	"github.com/rplryan/x402-routenet/pkg/policy"
	"github.com/rplryan/x402-routenet/pkg/routing"
	"github.com/rplryan/x402-routenet/pkg/telemetry"
)

// loadConfig reads the config file from the --config flag (defaults apply
// when the flag is unset) and raises the global log level under --verbose.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg, nil
}

// buildEngine wires a decision engine for one-shot commands: discovery
// client and cache, synonym table, and the admission policy engine when
// enabled. No history store and no metrics; those belong to serve.
func buildEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*routing.Engine, error) {
	client := discovery.NewClient(cfg.Discovery.APIURL, discovery.ClientOptions{
		Timeout: cfg.Discovery.RequestTimeout,
		Logger:  logger,
	})
	cache := discovery.NewCache(client, discovery.CacheOptions{
		TTL:        cfg.Discovery.CacheTTL,
		MaxEntries: cfg.Discovery.CacheMaxEntries,
		Logger:     logger,
	})
	if err := applySynonyms(cache, cfg); err != nil {
		return nil, err
	}

	var admitter routing.Admitter
	if cfg.Policy.Enabled {
		engine, err := newPolicyEngine(ctx, cfg, logger, nil)
		if err != nil {
			return nil, err
		}
		admitter = engine
	}

	return routing.NewEngine(cache, routing.EngineOptions{
		Admitter:       admitter,
		Logger:         logger,
		DiscoveryLimit: cfg.Discovery.Limit,
	}), nil
}

// applySynonyms replaces the built-in synonym table when one is configured.
func applySynonyms(cache *discovery.Cache, cfg *config.Config) error {
	if cfg.Synonyms.Path == "" {
		return nil
	}
	table, err := config.LoadSynonyms(cfg.Synonyms.Path)
	if err != nil {
		return fmt.Errorf("load synonyms: %w", err)
	}
	cache.Expander().Replace(table)
	log.Debug().Int("entries", len(table)).Str("path", cfg.Synonyms.Path).Msg("synonym table loaded")
	return nil
}

// newPolicyEngine builds the admission policy engine with the builtin
// policies plus any operator policies from the configured directory.
func newPolicyEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics *telemetry.Metrics) (*policy.Engine, error) {
	engine, err := policy.NewEngine(logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("create policy engine: %w", err)
	}
	if cfg.Policy.Dir != "" {
		loader := policy.NewLoader(logger)
		policies, err := loader.LoadFromDir(ctx, cfg.Policy.Dir)
		if err != nil {
			return nil, fmt.Errorf("load policies from %s: %w", cfg.Policy.Dir, err)
		}
		for _, p := range policies {
			if err := engine.AddPolicy(ctx, p); err != nil {
				return nil, fmt.Errorf("add policy %s: %w", p.Name, err)
			}
		}
	}
	return engine, nil
}
