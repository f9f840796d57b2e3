package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

func newSimulateCommand() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "simulate <capability>",
		Short: "Dry-run a routing decision",
		Long: `Show which service would win a routing decision and why, with the top
candidates, without recording anything.`,
		Example: `  routenet simulate "web scraping"
  routenet simulate "translation" --strategy fastest --json`,
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

			sim, err := engine.Simulate(cmd.Context(), args[0], routing.Strategy(strategy))
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(sim)
			}
			fmt.Printf("Winner: %s (%s)\n", sim.Winner, sim.WinnerURL)
			fmt.Printf("Reason: %s\n", sim.RoutingReason)
			fmt.Printf("Top candidates (%d evaluated):\n", sim.CandidatesEvaluated)
			for _, c := range sim.Top {
				fmt.Printf("  %d. %-30s %-10s total $%.8f\n",
					c.Rank, c.Name, c.HealthStatus, c.TotalCostUSD)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "best", "routing strategy (best, cheapest, fastest, custom)")

	return cmd
}
