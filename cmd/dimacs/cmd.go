package dimacs

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/operator-framework/fdsolver/pkg/fd/extension"
)

func NewDimacsCommand() *cobra.Command {
	var (
		algorithm string
		verify    bool
	)
	cmd := &cobra.Command{
		Use:   "dimacs <path>",
		Short: "Solves a sat problem given in dimacs format",
		Long: `Solves a sat problem given in dimacs format. Every clause becomes a
table forbidding the one assignment that falsifies it. For instance:
c
c this is a comment
c header: p cnf <number of variable> <number of clauses>
p cnf 2 2
c clauses end in zero, negative means 'not'
c 0 (zero) is not a valid literal
1 2 0
1 -2 0
c cnf: (1 or 2) and (1 or not 2)
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening dimacs file (%s): %w", args[0], err)
			}
			defer f.Close()
			cmd.SilenceUsage = true
			log := logr.FromContextOrDiscard(cmd.Context())
			return Solve(cmd.Context(), f, cmd.OutOrStdout(), algorithm, verify, log)
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", extension.GAC3rm, "table algorithm filtering the clauses")
	cmd.Flags().BoolVar(&verify, "verify", false, "check the outcome against gini")
	return cmd
}
