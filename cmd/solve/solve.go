package solve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/operator-framework/fdsolver/internal/archive"
	"github.com/operator-framework/fdsolver/internal/metrics"
	"github.com/operator-framework/fdsolver/internal/problem"
	"github.com/operator-framework/fdsolver/internal/sat"
	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

type options struct {
	file        string
	timeLimit   int
	workers     int
	memoryLimit int64
	tmpDir      string
	seed        int64
	all         bool
	verify      bool
	archive     string
	metrics     string
}

func NewSolveCommand() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "solve -f <model.yaml>",
		Short: "Solves a model document",
		Long: `Solves a model document: variables, constraints, an optional objective
and search settings, in YAML. For instance:

name: pair
variables:
  - name: x
    domain: [0, 3]
  - name: y
    domain: [0, 3]
constraints:
  - type: table
    vars: [x, y]
    tuples: [[0, 1], [1, 2], [2, 3]]
    algorithm: GAC2001
objective:
  direction: maximize
  var: y
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := o.run(cmd.Context(), cmd.OutOrStdout())
			var malformed *fd.MalformedInputError
			if err != nil && !errors.As(err, &malformed) {
				cmd.SilenceUsage = true
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.file, "file", "f", "", "model document to solve")
	flags.IntVar(&o.timeLimit, "time-limit", 0, "search time limit in seconds, 0 for none")
	flags.IntVar(&o.workers, "workers", 1, "searches raced on a satisfaction problem, each with its own random seed")
	flags.Int64Var(&o.memoryLimit, "memory-limit", 0, "soft memory limit in MiB, 0 for none")
	flags.StringVar(&o.tmpDir, "tmp-dir", "", "directory receiving the search trace")
	flags.Int64Var(&o.seed, "seed", 0, "seed of the random value selection of the extra workers")
	flags.BoolVar(&o.all, "all", false, "enumerate every solution")
	flags.BoolVar(&o.verify, "verify", false, "cross-check the outcome with the SAT oracle")
	flags.StringVar(&o.archive, "archive", "", "SQLite database recording the run")
	flags.StringVar(&o.metrics, "metrics", "", "file receiving the search measures in Prometheus text format")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (o *options) validate() error {
	switch {
	case o.timeLimit < 0:
		return fd.Malformed("negative time limit %d", o.timeLimit)
	case o.workers < 1:
		return fd.Malformed("at least one worker is needed, got %d", o.workers)
	case o.memoryLimit < 0:
		return fd.Malformed("negative memory limit %d", o.memoryLimit)
	}
	return nil
}

// invocation is the command line equivalent to o, flags in a fixed order.
func (o *options) invocation() string {
	args := []string{"fdsolver", "solve",
		"-f", o.file,
		"--time-limit", fmt.Sprint(o.timeLimit),
		"--workers", fmt.Sprint(o.workers),
		"--memory-limit", fmt.Sprint(o.memoryLimit),
		"--seed", fmt.Sprint(o.seed),
	}
	if o.tmpDir != "" {
		args = append(args, "--tmp-dir", o.tmpDir)
	}
	if o.all {
		args = append(args, "--all")
	}
	if o.verify {
		args = append(args, "--verify")
	}
	if o.archive != "" {
		args = append(args, "--archive", o.archive)
	}
	if o.metrics != "" {
		args = append(args, "--metrics", o.metrics)
	}
	return strings.Join(args, " ")
}

// outcome of one search.
type outcome struct {
	problem  *problem.Problem
	solver   *solver.Solver
	solution *solver.Solution
	count    int64
	status   archive.Status
}

func (o *options) run(ctx context.Context, out io.Writer) error {
	if err := o.validate(); err != nil {
		return err
	}
	log := logr.FromContextOrDiscard(ctx)
	fmt.Fprintln(out, o.invocation())

	if o.memoryLimit > 0 {
		debug.SetMemoryLimit(o.memoryLimit << 20)
	}
	doc, err := problem.Load(o.file)
	if err != nil {
		return err
	}

	started := time.Now()
	res, err := o.race(ctx, doc, log)
	if err != nil {
		return err
	}
	o.report(out, res)

	if o.verify {
		if err := o.check(ctx, doc, res, log); err != nil {
			return err
		}
		fmt.Fprintln(out, "verified")
	}
	if o.archive != "" {
		a, err := archive.Open(o.archive)
		if err != nil {
			return err
		}
		defer a.Close()
		id, err := a.Record(ctx, res.problem.Model.Name(), res.status, started, res.solver.Measures(), res.solution)
		if err != nil {
			return err
		}
		log.V(1).Info("archived run", "id", id)
	}
	if o.metrics != "" {
		if err := metrics.WriteTextfile(o.metrics, res.problem.Model.Name(), res.solver); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// race runs one search per worker and keeps the first that completes.
// Enumeration and optimization explore the whole space, so they run
// on a single worker.
func (o *options) race(ctx context.Context, doc *problem.Document, log logr.Logger) (*outcome, error) {
	if o.workers == 1 || o.all || doc.Objective != nil {
		if o.workers > 1 {
			log.Info("running a single worker, the search explores the whole space", "workers", o.workers)
		}
		return o.solveOne(ctx, doc, 0, log)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make([]*outcome, o.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < o.workers; i++ {
		i := i
		g.Go(func() error {
			res, err := o.solveOne(gctx, doc, i, log.WithValues("worker", i))
			if err != nil {
				return err
			}
			results[i] = res
			if res.status != archive.Incomplete {
				cancel()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.status != archive.Incomplete {
			return res, nil
		}
	}
	return results[0], nil
}

func (o *options) solveOne(ctx context.Context, doc *problem.Document, worker int, log logr.Logger) (*outcome, error) {
	p, err := doc.Build()
	if err != nil {
		return nil, err
	}
	st := p.Strategy
	if worker > 0 {
		st = strategy.IntSearch(strategy.FirstFail, strategy.RandomValue(o.seed+int64(worker)), p.Decision...)
	}
	opts := []solver.Option{solver.WithStrategy(st), solver.WithLogger(log)}
	if o.timeLimit > 0 {
		opts = append(opts, solver.WithTimeLimit(time.Duration(o.timeLimit)*time.Second))
	}
	if o.tmpDir != "" && worker == 0 {
		f, err := os.Create(filepath.Join(o.tmpDir, p.Model.SessionID().String()+".trace"))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		defer f.Close()
		opts = append(opts, solver.WithTracer(solver.LoggingTracer{Writer: f}))
	}
	s, err := solver.New(p.Model, opts...)
	if err != nil {
		return nil, err
	}

	res := &outcome{problem: p, solver: s}
	switch {
	case p.Objective != nil:
		res.solution, err = s.FindOptimalSolution(ctx, p.Direction, p.Objective)
		res.status = archive.Optimal
	case o.all:
		res.count, err = s.FindAllSolutions(ctx)
		res.solution = s.LastSolution()
		res.status = archive.Satisfied
	default:
		res.solution, err = s.FindSolution(ctx)
		res.status = archive.Satisfied
	}
	switch {
	case errors.Is(err, solver.ErrIncomplete):
		res.status = archive.Incomplete
	case err != nil:
		return nil, err
	case res.solution == nil:
		res.status = archive.Unsatisfied
	}
	return res, nil
}

func (o *options) report(out io.Writer, res *outcome) {
	fmt.Fprintf(out, "status: %s\n", res.status)
	if res.solution != nil {
		fmt.Fprint(out, res.solution.String())
		if obj, ok := res.solution.Objective(); ok {
			fmt.Fprintf(out, "objective: %d\n", obj)
		}
	}
	if o.all {
		fmt.Fprintf(out, "solutions: %d\n", res.count)
	}
	m := res.solver.Measures()
	fmt.Fprintf(out, "nodes: %d fails: %d backtracks: %d time: %s\n", m.Nodes, m.Fails, m.Backtracks, m.Elapsed)
}

// check solves a fresh copy of the model with the SAT oracle and
// compares the outcomes. Models the oracle cannot encode are skipped.
func (o *options) check(ctx context.Context, doc *problem.Document, res *outcome, log logr.Logger) error {
	if res.status == archive.Incomplete {
		log.Info("skipping verification of an incomplete search")
		return nil
	}
	p, err := doc.Build()
	if err != nil {
		return err
	}
	oracle, err := sat.New(sat.WithModel(p.Model))
	var unsupported *fd.UnsupportedOperationError
	if errors.As(err, &unsupported) {
		log.Info("skipping verification", "reason", unsupported.Message)
		return nil
	}
	if err != nil {
		return err
	}

	if o.all && p.Objective == nil {
		n, err := oracle.Count(ctx)
		if err != nil {
			return err
		}
		if n != res.count {
			return fmt.Errorf("search found %d solutions, the SAT oracle counts %d", res.count, n)
		}
		return nil
	}
	_, err = oracle.Solve(ctx)
	var ns sat.NotSatisfiable
	switch {
	case errors.As(err, &ns):
		if res.status != archive.Unsatisfied {
			return fmt.Errorf("search found a solution, the SAT oracle refutes the model: %w", err)
		}
	case err != nil:
		return err
	case res.status == archive.Unsatisfied:
		return errors.New("search exhausted the model, the SAT oracle satisfies it")
	}
	return nil
}
