package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rplryan/x402-routenet/pkg/routing"
)

func newStrategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the routing strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := routing.Strategies()
			if jsonOutput {
				return printJSON(infos)
			}
			for _, info := range infos {
				marker := " "
				if info.Name == routing.StrategyBest {
					marker = "*"
				}
				fmt.Printf("%s %-10s %s\n", marker, info.Name, info.Description)
				if info.Formula != "" {
					fmt.Printf("             %s\n", info.Formula)
				}
			}
			fmt.Println("\n* default strategy")
			return nil
		},
	}
}
