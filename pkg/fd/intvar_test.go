package fd_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

var _ = Describe("IntVar", func() {
	var (
		m *fd.Model
		x *fd.IntVar
	)

	BeforeEach(func() {
		m = fd.NewModel("int")
		x = m.IntVar("x", 1, 5)
	})

	It("should remove values and move bounds", func() {
		changed, err := x.RemoveValue(1, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(x.LB()).To(Equal(2))

		changed, err = x.RemoveValue(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(x.Values()).To(Equal([]int{2, 4, 5}))
		Expect(x.NextValue(2)).To(Equal(4))
		Expect(x.PreviousValue(4)).To(Equal(2))
		Expect(x.NextValue(5)).To(Equal(math.MaxInt))
		Expect(x.String()).To(Equal("x = {2,4,5}"))

		changed, err = x.RemoveValue(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeFalse())
	})

	It("should skip holes when tightening bounds", func() {
		_, err := x.RemoveValue(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		changed, err := x.UpdateLowerBound(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(x.LB()).To(Equal(3))
		Expect(x.Size()).To(Equal(3))
	})

	It("should fail without emptying the domain", func() {
		_, err := x.UpdateBounds(4, 4, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(x.IsInstantiated()).To(BeTrue())

		_, err = x.RemoveValue(4, fd.NullCause)
		Expect(fd.IsContradiction(err)).To(BeTrue())
		Expect(x.Value()).To(Equal(4))

		_, err = x.InstantiateTo(2, fd.NullCause)
		Expect(fd.IsContradiction(err)).To(BeTrue())
		Expect(x.Value()).To(Equal(4))
	})

	It("should round-trip through a checkpoint", func() {
		mark := m.Trail().Checkpoint()
		_, err := x.InstantiateTo(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(x.String()).To(Equal("x = 3"))

		m.Trail().RestoreTo(mark)
		Expect(x.Values()).To(Equal([]int{1, 2, 3, 4, 5}))
		Expect(x.String()).To(Equal("x = [1,5]"))
	})

	It("should ignore interior removals on bounded domains", func() {
		y := m.BoundedIntVar("y", 0, 10)
		changed, err := y.RemoveValue(5, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(y.Size()).To(Equal(11))

		changed, err = y.RemoveValue(0, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(y.LB()).To(Equal(1))
		Expect(y.IsBounded()).To(BeTrue())
	})

	It("should build enumerated domains from values", func() {
		z := m.IntVarFromValues("z", []int{7, 3, 3, 11})
		Expect(z.Values()).To(Equal([]int{3, 7, 11}))
		Expect(z.Contains(5)).To(BeFalse())
		Expect(z.Size()).To(Equal(3))
	})

	It("should share constants", func() {
		Expect(m.IntConst(3)).To(BeIdenticalTo(m.IntConst(3)))
		Expect(m.IntVars()).To(ConsistOf(x))
	})

	It("should log removed values in the delta", func() {
		mon := x.Monitor()
		Expect(m.Propagate()).To(Succeed())

		_, err := x.RemoveValue(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		_, err = x.UpdateUpperBound(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())

		var removed []int
		mon.ForEach(nil, func(v int) { removed = append(removed, v) })
		Expect(removed).To(ConsistOf(2, 4, 5))

		removed = nil
		mon.ForEach(nil, func(v int) { removed = append(removed, v) })
		Expect(removed).To(BeEmpty())

		By("starting a new window")
		Expect(m.Propagate()).To(Succeed())
		Expect(mon.Pending()).To(BeFalse())
	})
})
