package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "routenet",
		Short: "x402 RouteNet - Smart routing for paid network services",
		Long: `RouteNet is the decision engine of the x402 ecosystem: it discovers
candidate services for a capability, ranks them under a routing strategy,
and returns the winner with a full cost breakdown.

Features:
  - Discovery API client with cached lookups and fallback chain
  - Routing strategies: best, cheapest, fastest, custom
  - Pricing Model 3 fee arithmetic (flat fee + settlement percentage)
  - Pluggable admission policies via OPA/Rego
  - REST and MCP (JSON-RPC 2.0) surfaces for agent frameworks`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newServeCommand(version))
	rootCmd.AddCommand(newRouteCommand())
	rootCmd.AddCommand(newSimulateCommand())
	rootCmd.AddCommand(newStrategiesCommand())

	return rootCmd
}
