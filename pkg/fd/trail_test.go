package fd_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

var _ = Describe("Trail", func() {
	var (
		trail *fd.Trail
	)

	BeforeEach(func() {
		trail = fd.NewTrail()
	})

	It("should restore stored integers in reverse order", func() {
		i := fd.NewStoredInt(trail, 1)
		m1 := trail.Checkpoint()
		i.Set(2)
		i.Set(3)
		m2 := trail.Checkpoint()
		i.Set(4)
		Expect(trail.Depth()).To(Equal(2))

		trail.RestoreTo(m2)
		Expect(i.Get()).To(Equal(3))
		trail.RestoreTo(m1)
		Expect(i.Get()).To(Equal(1))
		Expect(trail.Size()).To(BeZero())
	})

	It("should record a cell once per checkpoint", func() {
		i := fd.NewStoredInt(trail, 0)
		trail.Checkpoint()
		for k := 1; k <= 10; k++ {
			i.Set(k)
		}
		Expect(trail.Size()).To(Equal(1))
	})

	It("should keep a mark live after restoring to it", func() {
		i := fd.NewStoredInt(trail, 5)
		m := trail.Checkpoint()
		i.Set(6)
		trail.RestoreTo(m)
		Expect(trail.Depth()).To(Equal(1))

		i.Set(7)
		trail.RestoreTo(m)
		Expect(i.Get()).To(Equal(5))

		By("restoring twice to the same mark")
		trail.RestoreTo(m)
		Expect(i.Get()).To(Equal(5))
	})

	It("should drop a released mark", func() {
		i := fd.NewStoredInt(trail, 0)
		outer := trail.Checkpoint()
		i.Set(1)
		inner := trail.Checkpoint()
		i.Set(2)
		trail.Release(inner)
		Expect(i.Get()).To(Equal(1))
		Expect(trail.Depth()).To(Equal(1))

		trail.RestoreTo(inner)
		Expect(i.Get()).To(Equal(1))

		trail.Release(outer)
		Expect(i.Get()).To(Equal(0))
		Expect(trail.Depth()).To(BeZero())
	})

	It("should restore every word of a stored bitset", func() {
		b := fd.NewStoredBits(trail, 200)
		m := trail.Checkpoint()
		for _, k := range []int{0, 63, 64, 130, 199} {
			b.Set(k)
		}
		Expect(b.Count()).To(Equal(5))
		Expect(b.NextSet(1)).To(Equal(63))
		Expect(b.NextSet(65)).To(Equal(130))
		Expect(b.PrevSet(129)).To(Equal(64))
		Expect(b.PrevSet(500)).To(Equal(199))
		Expect(b.NextSet(200)).To(Equal(-1))

		trail.RestoreTo(m)
		Expect(b.Count()).To(BeZero())
		Expect(b.NextSet(0)).To(Equal(-1))
		Expect(b.PrevSet(199)).To(Equal(-1))
	})
})
