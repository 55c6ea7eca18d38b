package solver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/constraint"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

func TestSolver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Solver Suite")
}

func mustPost(c *fd.Constraint, err error) {
	Expect(err).ToNot(HaveOccurred())
	Expect(c.Post()).To(Succeed())
}

var _ = Describe("Solver", func() {
	var (
		ctx  context.Context
		m    *fd.Model
		x, y *fd.IntVar
	)

	BeforeEach(func() {
		ctx = context.Background()
		m = fd.NewModel("test")
		x, y = m.IntVar("x", 1, 2), m.IntVar("y", 1, 2)
		mustPost(constraint.Arithm(x, constraint.NE, y))
	})

	It("should enumerate solutions one call at a time", func() {
		s, err := solver.New(m, solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.MinValue, x, y)))
		Expect(err).ToNot(HaveOccurred())

		first, err := s.FindSolution(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(first.Values()).To(MatchAllKeys(Keys{
			"x": Equal("1"),
			"y": Equal("2"),
		}))

		second, err := s.FindSolution(ctx)
		Expect(err).ToNot(HaveOccurred())
		val, ok := second.IntVal(x)
		Expect(ok).To(BeTrue())
		Expect(val).To(Equal(2))
		Expect(cmp.Diff(first.Values(), second.Values())).ToNot(BeEmpty())

		third, err := s.FindSolution(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(third).To(BeNil())
		Expect(s.Measures()).To(MatchFields(IgnoreExtras, Fields{
			"Solutions": Equal(int64(2)),
			"Nodes":     Equal(int64(1)),
			"Stopped":   BeFalse(),
		}))
	})

	It("should count every solution", func() {
		z := m.IntVar("z", 1, 3)
		mustPost(constraint.AllDifferent([]*fd.IntVar{x, y, z}, constraint.AC))
		s, err := solver.New(m)
		Expect(err).ToNot(HaveOccurred())
		n, err := s.FindAllSolutions(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(int64(2)))
	})

	It("should treat an unsatisfiable model as a normal outcome", func() {
		mustPost(constraint.ArithmConst(x, constraint.GT, 5))
		s, err := solver.New(m)
		Expect(err).ToNot(HaveOccurred())
		ok, err := s.Solve(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(s.Measures().Solutions).To(BeZero())
	})

	It("should report a stop as incomplete", func() {
		xs := m.IntVarArray("v", 6, 0, 5)
		s, err := solver.New(m, solver.WithNodeLimit(2), solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.MinValue, xs...)))
		Expect(err).ToNot(HaveOccurred())
		_, err = s.FindSolution(ctx)
		Expect(errors.Is(err, solver.ErrIncomplete)).To(BeTrue())
		Expect(s.Measures().Stopped).To(BeTrue())
	})

	It("should stop at the solution limit", func() {
		xs := m.IntVarArray("v", 3, 0, 5)
		s, err := solver.New(m, solver.WithSolutionLimit(10), solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.MinValue, xs...)))
		Expect(err).ToNot(HaveOccurred())
		n, err := s.FindAllSolutions(ctx)
		Expect(err).To(MatchError(solver.ErrIncomplete))
		Expect(n).To(Equal(int64(10)))
	})

	It("should honour the time limit", func() {
		xs := m.IntVarArray("v", 12, 0, 9)
		s, err := solver.New(m, solver.WithTimeLimit(time.Millisecond), solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.MinValue, xs...)))
		Expect(err).ToNot(HaveOccurred())
		_, err = s.FindAllSolutions(ctx)
		Expect(err).To(MatchError(solver.ErrIncomplete))
	})

	It("should reject malformed options", func() {
		_, err := solver.New(m, solver.WithTimeLimit(-time.Second))
		Expect(err).To(HaveOccurred())
	})

	It("should restore the model on reset", func() {
		s, err := solver.New(m)
		Expect(err).ToNot(HaveOccurred())
		ok, err := s.Solve(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		s.Reset()
		Expect(x.Size()).To(Equal(2))
		Expect(s.LastSolution()).To(BeNil())
	})

	Context("with an objective", func() {
		var (
			items []*fd.IntVar
			power *fd.IntVar
		)

		BeforeEach(func() {
			items = m.IntVarArray("item", 3, 0, 1)
			power = m.IntVar("power", 0, 12)
			mustPost(constraint.Scalar(items, []int{2, 3, 4}, constraint.LE, m.IntConst(5)))
			mustPost(constraint.Scalar(items, []int{3, 4, 5}, constraint.EQ, power))
		})

		It("should find the optimum by branch and bound", func() {
			s, err := solver.New(m, solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.MinValue, items...)))
			Expect(err).ToNot(HaveOccurred())
			obj, err := solver.FindObjective(m, "power")
			Expect(err).ToNot(HaveOccurred())
			best, err := s.FindOptimalSolution(ctx, solver.Maximize, obj)
			Expect(err).ToNot(HaveOccurred())
			Expect(best).ToNot(BeNil())
			obj7, ok := best.Objective()
			Expect(ok).To(BeTrue())
			Expect(obj7).To(Equal(7))
			last, _ := best.IntVal(items[2])
			Expect(last).To(Equal(0))
			Expect(s.Measures().Best).To(Equal(7))
		})

		It("should minimize too", func() {
			s, err := solver.New(m, solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.MaxValue, items...)))
			Expect(err).ToNot(HaveOccurred())
			best, err := s.FindOptimalSolution(ctx, solver.Minimize, power)
			Expect(err).ToNot(HaveOccurred())
			obj, ok := best.Objective()
			Expect(ok).To(BeTrue())
			Expect(obj).To(BeZero())
		})

		It("should refuse ambiguous or missing objectives", func() {
			_, err := solver.FindObjective(m, "nothing")
			var unsupported *fd.UnsupportedOperationError
			Expect(errors.As(err, &unsupported)).To(BeTrue())

			m.IntVar("power", 0, 1)
			_, err = solver.FindObjective(m, "power")
			Expect(errors.As(err, &unsupported)).To(BeTrue())
		})
	})
})

var _ = Describe("Structured variables", func() {
	It("should enumerate the subsets of a set variable", func() {
		m := fd.NewModel("sets")
		set := m.SetVar("S", nil, []int{1, 2})
		s, err := solver.New(m)
		Expect(err).ToNot(HaveOccurred())

		var seen [][]int
		for {
			sol, err := s.FindSolution(context.Background())
			Expect(err).ToNot(HaveOccurred())
			if sol == nil {
				break
			}
			val, ok := sol.SetVal(set)
			Expect(ok).To(BeTrue())
			seen = append(seen, val)
		}
		Expect(seen).To(ConsistOf([]int{1, 2}, []int{1}, []int{2}, BeEmpty()))
	})

	It("should enumerate the subgraphs of a graph variable through a view", func() {
		m := fd.NewModel("graphs")
		g, err := m.GraphVar("g", fd.NewGraph(2, false), fd.CompleteGraph(2, false))
		Expect(err).ToNot(HaveOccurred())
		view := m.NodeSetView("nodes", g)
		s, err := solver.New(m)
		Expect(err).ToNot(HaveOccurred())

		n, err := s.FindAllSolutions(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(int64(5)))

		s.Reset()
		sol, err := s.FindSolution(context.Background())
		Expect(err).ToNot(HaveOccurred())
		gv, ok := sol.GraphVal(g)
		Expect(ok).To(BeTrue())
		Expect(gv.Edges).To(Equal([]solver.Edge{{From: 0, To: 1}}))
		nodes, ok := sol.SetVal(view)
		Expect(ok).To(BeTrue())
		Expect(nodes).To(Equal([]int{0, 1}))
	})
})
