package extension_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

func TestExtension(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extension Suite")
}

func mustPost(c *fd.Constraint, err error) {
	Expect(err).ToNot(HaveOccurred())
	Expect(c.Post()).To(Succeed())
}

// enumerate returns the solution and node counts of an exhaustive
// search branching in input order on vars with a seeded random value.
func enumerate(m *fd.Model, vars []*fd.IntVar, seed int64) (int64, int64) {
	s, err := solver.New(m, solver.WithStrategy(strategy.IntSearch(strategy.InputOrder, strategy.RandomValue(seed), vars...)))
	Expect(err).ToNot(HaveOccurred())
	n, err := s.FindAllSolutions(context.Background())
	Expect(err).ToNot(HaveOccurred())
	return n, s.Measures().Nodes
}
