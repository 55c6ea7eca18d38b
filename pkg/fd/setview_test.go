package fd_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

var _ = Describe("SetView", func() {
	var (
		m *fd.Model
		g *fd.GraphVar
		s *fd.SetView
	)

	BeforeEach(func() {
		var err error
		m = fd.NewModel("views")
		lb := fd.NewGraph(5, false).AddNode(0).AddNode(1)
		ub := fd.CompleteGraph(5, false)
		g, err = m.GraphVar("g", lb, ub)
		Expect(err).ToNot(HaveOccurred())
		s = m.NodeSetView("S", g)
	})

	It("should expose the node bounds of the graph", func() {
		Expect(s.LBValues()).To(Equal([]int{0, 1}))
		Expect(s.UBValues()).To(Equal([]int{0, 1, 2, 3, 4}))
		Expect(s.Kind() & fd.KindView).ToNot(BeZero())
	})

	It("should create the cardinality variable lazily and once", func() {
		Expect(s.HasCardinality()).To(BeFalse())
		card, err := s.Cardinality()
		Expect(err).ToNot(HaveOccurred())
		Expect(card.Name()).To(Equal("S.card"))
		Expect(card.LB()).To(Equal(2))
		Expect(card.UB()).To(Equal(5))

		again, err := s.Cardinality()
		Expect(err).ToNot(HaveOccurred())
		Expect(again).To(BeIdenticalTo(card))
	})

	It("should use a constant when the bounds have the same size", func() {
		fixed, err := m.GraphVar("h", fd.NewGraph(3, true).AddNode(2), fd.NewGraph(3, true).AddNode(2))
		Expect(err).ToNot(HaveOccurred())
		card, err := m.NodeSetView("T", fixed).Cardinality()
		Expect(err).ToNot(HaveOccurred())
		Expect(card).To(BeIdenticalTo(m.IntConst(1)))
	})

	It("should report no change when forcing a kernel element", func() {
		changed, err := s.Force(1, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeFalse())
	})

	It("should fail when forcing an element outside the envelope", func() {
		mark := m.Trail().Checkpoint()
		_, err := s.Remove(4, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		before := s.String()

		_, err = s.Force(4, fd.NullCause)
		var c *fd.Contradiction
		Expect(errors.As(err, &c)).To(BeTrue())
		Expect(c.Message).To(Equal("4 is not in UB(S)"))
		Expect(c.Var).To(BeIdenticalTo(s))
		Expect(s.String()).To(Equal(before))

		m.Trail().RestoreTo(mark)
		Expect(s.UBContains(4)).To(BeTrue())
	})

	It("should fail when removing a kernel element", func() {
		_, err := s.Remove(0, fd.NullCause)
		var c *fd.Contradiction
		Expect(errors.As(err, &c)).To(BeTrue())
		Expect(c.Message).To(Equal("0 is in LB(S)"))
		Expect(s.UBContains(0)).To(BeTrue())
	})

	It("should delegate removals to the graph", func() {
		changed, err := s.Remove(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(g.NodeInUB(3)).To(BeFalse())
		Expect(g.EdgeInUB(0, 3)).To(BeFalse())
	})

	It("should refuse explanations", func() {
		var u *fd.UnsupportedOperationError
		Expect(errors.As(s.Explain(fd.EventAddToKer, 0), &u)).To(BeTrue())
		Expect(errors.As(s.JustifyEvent(fd.EventRemoveFromEnvelope, 0), &u)).To(BeTrue())
	})

	It("should notify propagators of graph modifications", func() {
		p := newCountingProp(s)
		Expect(m.NewConstraint("count", p).Post()).To(Succeed())
		Expect(m.Propagate()).To(Succeed())
		Expect(p.runs).To(Equal(1))

		_, err := g.EnforceNode(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		Expect(p.runs).To(Equal(2))

		By("not waking up on edge modifications")
		_, err = g.RemoveEdge(2, 4, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		Expect(p.runs).To(Equal(2))
	})

	It("should record view modifications in its delta", func() {
		mon := s.Monitor()
		Expect(m.Propagate()).To(Succeed())
		_, err := g.EnforceNode(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		_, err = s.Remove(4, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())

		var added, removed []int
		mon.ForEach(nil, fd.SetDeltaLB, func(e int) { added = append(added, e) })
		mon.ForEach(nil, fd.SetDeltaUB, func(e int) { removed = append(removed, e) })
		mon.Freeze()
		Expect(added).To(Equal([]int{2}))
		Expect(removed).To(Equal([]int{4}))
	})

	It("should link an adopted cardinality", func() {
		card := m.IntVar("c", 0, 3)
		Expect(s.SetCardinality(card)).To(Succeed())
		Expect(m.Propagate()).To(Succeed())
		Expect(card.LB()).To(Equal(2))

		By("posting an equality for a second cardinality")
		other := m.IntVar("d", 3, 9)
		Expect(s.SetCardinality(other)).To(Succeed())
		Expect(m.Propagate()).To(Succeed())
		Expect(card.Value()).To(Equal(3))
		Expect(other.Value()).To(Equal(3))
		c, err := s.Cardinality()
		Expect(err).ToNot(HaveOccurred())
		Expect(c).To(BeIdenticalTo(card))
	})

	It("should filter the set from a fixed cardinality", func() {
		card, err := s.Cardinality()
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		_, err = card.InstantiateTo(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		Expect(s.UBValues()).To(Equal([]int{0, 1}))
		Expect(s.IsInstantiated()).To(BeTrue())
	})
})

var _ = Describe("SuccessorsSetView", func() {
	It("should enforce edges through the view", func() {
		m := fd.NewModel("succ")
		g, err := m.GraphVar("g", fd.NewGraph(4, true), fd.CompleteGraph(4, true))
		Expect(err).ToNot(HaveOccurred())
		nodes := m.NodeSetView("N", g)
		succ, err := m.SuccessorsSetView("S0", g, 0)
		Expect(err).ToNot(HaveOccurred())

		changed, err := succ.Force(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(g.EdgeInLB(0, 2)).To(BeTrue())
		Expect(nodes.LBValues()).To(Equal([]int{0, 2}))

		_, err = succ.Force(0, fd.NullCause)
		Expect(fd.IsContradiction(err)).To(BeTrue())

		_, err = m.SuccessorsSetView("bad", g, 7)
		var mal *fd.MalformedInputError
		Expect(errors.As(err, &mal)).To(BeTrue())
	})
})

var _ = Describe("Constraint", func() {
	It("should refuse to be posted twice", func() {
		m := fd.NewModel("post")
		x := m.IntVar("x", 0, 1)
		c := m.NewConstraint("count", newCountingProp(x))
		Expect(c.Post()).To(Succeed())
		Expect(c.Post()).To(MatchError(fd.ErrAlreadyPosted))
	})
})
