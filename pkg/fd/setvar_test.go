package fd_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

var _ = Describe("SetVar", func() {
	var (
		m *fd.Model
		s *fd.SetVar
	)

	BeforeEach(func() {
		m = fd.NewModel("sets")
		s = m.SetVar("s", nil, []int{1, 2, 3, 4})
	})

	It("should only record its delta once monitored", func() {
		_, err := s.Remove(4, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())

		mon := s.Monitor()
		_, err = s.Remove(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())

		var removed []int
		mon.ForEach(nil, fd.SetDeltaUB, func(e int) { removed = append(removed, e) })
		Expect(removed).To(Equal([]int{3}))
	})

	It("should hand coalesced events to event propagators", func() {
		x := m.IntVar("x", 0, 9)
		p := newEventProp(s, x)
		Expect(m.NewConstraint("events", p).Post()).To(Succeed())
		Expect(m.Propagate()).To(Succeed())
		Expect(p.full).To(Equal(1))

		_, err := s.Force(1, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		_, err = s.Remove(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		_, err = x.RemoveValue(5, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		_, err = x.UpdateLowerBound(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())

		Expect(p.full).To(Equal(1))
		Expect(p.calls).To(Equal(2))
		Expect(p.masks[0]).To(Equal(fd.EventAddToKer | fd.EventRemoveFromEnvelope))
		Expect(p.masks[1]).To(Equal(fd.EventRemove | fd.EventIncLow))
		Expect(p.forced).To(Equal([]int{1}))
		Expect(p.removed).To(Equal([]int{2}))

		By("receiving every variable on a full wake-up")
		m.ScheduleAll()
		Expect(m.Propagate()).To(Succeed())
		Expect(p.full).To(Equal(2))
		Expect(p.calls).To(Equal(2))
	})

	It("should size its cardinality from both sides of the set", func() {
		card, err := s.Cardinality()
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		Expect(card.LB()).To(Equal(0))
		Expect(card.UB()).To(Equal(4))

		_, err = s.Force(1, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		_, err = s.Force(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		_, err = s.Remove(4, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		Expect(card.LB()).To(Equal(2))
		Expect(card.UB()).To(Equal(3))

		_, err = card.UpdateUpperBound(2, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		Expect(s.IsInstantiated()).To(BeTrue())
		Expect(s.LBValues()).To(Equal([]int{1, 2}))
	})

	It("should not adopt a cardinality it could not link", func() {
		foreign := fd.NewModel("other").IntVar("c", 0, 4)
		var malformed *fd.MalformedInputError
		Expect(errors.As(s.SetCardinality(foreign), &malformed)).To(BeTrue())
		Expect(s.HasCardinality()).To(BeFalse())

		card := m.IntVar("c", 0, 4)
		Expect(s.SetCardinality(card)).To(Succeed())
		Expect(s.HasCardinality()).To(BeTrue())
		_, err := s.Force(3, fd.NullCause)
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Propagate()).To(Succeed())
		Expect(card.LB()).To(Equal(1))
	})
})
