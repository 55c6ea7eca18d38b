package knapsack

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/operator-framework/fdsolver/pkg/fd/solver"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

func NewKnapsackCommand() *cobra.Command {
	var (
		capacity int
		items    []string
	)
	cmd := &cobra.Command{
		Use:   "knapsack",
		Short: "Packs the most energy in a bag of bounded capacity",
		Example: `  fdsolver knapsack --capacity 10 --item 5:10 --item 4:40 --item 6:30 --item 3:50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]Item, len(items))
			for i, s := range items {
				it, err := ParseItem(s)
				if err != nil {
					return err
				}
				parsed[i] = it
			}
			m, objects, err := Model(capacity, parsed)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			power, err := solver.FindObjective(m, "power")
			if err != nil {
				return err
			}
			log := logr.FromContextOrDiscard(cmd.Context())
			so, err := solver.New(m,
				solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.MaxValue, objects...)),
				solver.WithLogger(log))
			if err != nil {
				return err
			}
			best, err := so.FindOptimalSolution(cmd.Context(), solver.Maximize, power)
			if err != nil {
				return err
			}
			if best == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no solution found")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), best.String())
			return nil
		},
	}
	cmd.Flags().IntVar(&capacity, "capacity", 10, "capacity of the bag")
	cmd.Flags().StringArrayVar(&items, "item", []string{"5:10", "4:40", "6:30", "3:50"}, "an item as weight:energy, repeated")
	return cmd
}
