package commands

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

func newRouteCommand() *cobra.Command {
	var (
		strategy  string
		maxPrice  float64
		minUptime float64
		minTrust  float64
		category  string
		inputJSON string
	)

	cmd := &cobra.Command{
		Use:   "route <capability>",
		Short: "Route a capability request to the best x402 service",
		Long: `Make a one-shot routing decision for a capability and print the result.

The decision names the winning service, the routing reason, the cost
breakdown under Pricing Model 3, and the winner's quality signals.
Execution mode is 'simulation'; no payment call is made.`,
		Example: `  # Route with the default strategy
  routenet route "web scraping"

  # Cheapest healthy service under a price ceiling
  routenet route "sentiment analysis" --strategy cheapest --max-price 0.01

  # Constrain by category and uptime
  routenet route "image generation" --category ai --min-uptime 95 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			engine, err := buildEngine(cmd.Context(), cfg, log.Logger)
			if err != nil {
				return err
			}

			req := &routing.RouteRequest{
				Capability: args[0],
				Strategy:   routing.Strategy(strategy),
				Filter:     buildFilter(cmd, maxPrice, minUptime, minTrust, category),
			}
			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &req.Input); err != nil {
					return fmt.Errorf("parse --input: %w", err)
				}
			}

			decision, err := engine.Route(cmd.Context(), req)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(decision)
			}
			fmt.Printf("Routed to:  %s (%s)\n", decision.RoutedTo, decision.ServiceURL)
			fmt.Printf("Reason:     %s\n", decision.RoutingReason)
			fmt.Printf("Strategy:   %s  (%d candidates evaluated)\n",
				decision.StrategyUsed, decision.CandidatesEvaluated)
			fmt.Printf("Total cost: $%.8f (service $%.8f + routing fee $%.8f + settlement $%.8f)\n",
				decision.Cost.TotalUSD, decision.Cost.ServicePriceUSD,
				decision.Cost.RoutingFeeUSD, decision.Cost.SettlementFeeUSD)
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "best", "routing strategy (best, cheapest, fastest, custom)")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "price ceiling in USD")
	cmd.Flags().Float64Var(&minUptime, "min-uptime", 0, "uptime floor in percent (replaces the default health threshold)")
	cmd.Flags().Float64Var(&minTrust, "min-trust", 0, "trust score floor")
	cmd.Flags().StringVar(&category, "category", "", "required service category")
	cmd.Flags().StringVar(&inputJSON, "input", "", "JSON payload to record for forwarding")

	return cmd
}

// buildFilter assembles a RouteFilter from the changed flags; unset flags
// impose no constraint.
func buildFilter(cmd *cobra.Command, maxPrice, minUptime, minTrust float64, category string) *routing.RouteFilter {
	filter := &routing.RouteFilter{Category: category}
	changed := category != ""
	if cmd.Flags().Changed("max-price") {
		filter.MaxPrice = &maxPrice
		changed = true
	}
	if cmd.Flags().Changed("min-uptime") {
		filter.MinUptime = &minUptime
		changed = true
	}
	if cmd.Flags().Changed("min-trust") {
		filter.MinTrustScore = &minTrust
		changed = true
	}
	if !changed {
		return nil
	}
	return filter
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
