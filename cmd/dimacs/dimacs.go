package dimacs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/operator-framework/fdsolver/internal/problem"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
)

// Solve reads a DIMACS CNF formula from r, solves it as a conjunction
// of forbidden-tuple tables and prints the first model found. With
// verify the model is checked against the clauses and an unsatisfiable
// outcome against gini.
func Solve(ctx context.Context, r io.Reader, w io.Writer, algorithm string, verify bool, log logr.Logger) error {
	cnf, err := problem.ReadCNF(r)
	if err != nil {
		return fmt.Errorf("error parsing dimacs file: %w", err)
	}
	m, vars, err := cnf.Model("dimacs", algorithm)
	if err != nil {
		return err
	}
	log.V(1).Info("encoded formula", "vars", cnf.Vars, "clauses", len(cnf.Clauses), "tables", len(m.Constraints()))

	s, err := solver.New(m, solver.WithLogger(log))
	if err != nil {
		return err
	}
	solution, err := s.FindSolution(ctx)
	if err != nil {
		return err
	}
	if solution == nil {
		fmt.Fprintln(w, "no solution found")
		if verify && cnf.Decide() {
			return errors.New("gini satisfies a formula the search refuted")
		}
		return nil
	}

	values := make([]bool, len(vars))
	fmt.Fprintln(w, "solution found:")
	for i, v := range vars {
		val, _ := solution.IntVal(v)
		values[i] = val == 1
		fmt.Fprintf(w, "%d = %t\n", i+1, values[i])
	}
	if verify && !cnf.Satisfied(values) {
		return errors.New("the solution falsifies a clause")
	}
	return nil
}
