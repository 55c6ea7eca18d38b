package root

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/operator-framework/fdsolver/cmd/dimacs"
	"github.com/operator-framework/fdsolver/cmd/knapsack"
	"github.com/operator-framework/fdsolver/cmd/solve"
	"github.com/operator-framework/fdsolver/cmd/sudoku"
)

func NewRootCmd() *cobra.Command {
	var (
		verbose bool
		logger  *zap.Logger
	)
	rootCmd := &cobra.Command{
		Use:   "fdsolver",
		Short: "fdsolver is a finite-domain constraint solver",
		Long: `A finite-domain constraint solver written in Go: integer, set and
graph variables, extension tables with GAC algorithms and depth-first
search with branch and bound.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.OutputPaths = []string{"stderr"}
			if verbose {
				config = zap.NewDevelopmentConfig()
				// logr V(2) maps to zap level -2
				config.Level = zap.NewAtomicLevelAt(zapcore.Level(-2))
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			cmd.SetContext(logr.NewContext(cmd.Context(), zapr.NewLogger(logger)))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log search decisions and solutions")

	// add sub-commands
	rootCmd.AddCommand(solve.NewSolveCommand())
	rootCmd.AddCommand(dimacs.NewDimacsCommand())
	rootCmd.AddCommand(sudoku.NewSudokuCommand())
	rootCmd.AddCommand(knapsack.NewKnapsackCommand())

	return rootCmd
}
