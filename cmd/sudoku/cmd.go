package sudoku

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/operator-framework/fdsolver/pkg/fd/constraint"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
)

func NewSudokuCommand() *cobra.Command {
	var (
		givens string
		level  string
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "sudoku",
		Short: "Returns a solved sudoku board",
		Long: `Returns a solved sudoku board. Without --board a new grid is drawn
for every seed; --board lists the 81 cells row by row, '.' for a blank.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sudoku, err := NewSudoku(givens, level)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			log := logr.FromContextOrDiscard(cmd.Context())
			so, err := solver.New(sudoku.Model(), solver.WithStrategy(sudoku.Strategy(seed)), solver.WithLogger(log))
			if err != nil {
				return err
			}
			solution, err := so.FindSolution(cmd.Context())
			if err != nil {
				return err
			}
			if solution == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no solution found")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), sudoku.Board(solution))
			return nil
		},
	}
	cmd.Flags().StringVar(&givens, "board", "", "the 81 cells row by row, '.' or '0' for a blank")
	cmd.Flags().StringVar(&level, "level", constraint.AC, "all-different filtering, AC or NEQS")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "seed of the random value selection")
	return cmd
}
