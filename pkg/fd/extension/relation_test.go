package extension_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/extension"
)

type builder func(t *extension.Tuples, vars []*fd.IntVar) (extension.Relation, error)

var variants = map[string]builder{
	"dense": func(t *extension.Tuples, vars []*fd.IntVar) (extension.Relation, error) {
		return extension.NewDenseRelation(t, vars)
	},
	"large": func(t *extension.Tuples, vars []*fd.IntVar) (extension.Relation, error) {
		return extension.NewLargeRelation(t, vars)
	},
	"very large": func(t *extension.Tuples, vars []*fd.IntVar) (extension.Relation, error) {
		return extension.NewVeryLargeRelation(t, vars)
	},
}

// vectors enumerates [0,3]^4.
func vectors() [][]int {
	var out [][]int
	for i := 0; i < 256; i++ {
		out = append(out, []int{i >> 6 & 3, i >> 4 & 3, i >> 2 & 3, i & 3})
	}
	return out
}

func isStored(v []int) bool {
	return v[0] == 1 && v[1] == 1 && (v[2] == 1 || v[2] == 2) && v[3] == 1
}

var _ = Describe("Relation", func() {
	var (
		m    *fd.Model
		vars []*fd.IntVar
	)

	BeforeEach(func() {
		m = fd.NewModel("relations")
		vars = m.IntVarArray("vars", 4, 0, 3)
	})

	for name, build := range variants {
		name, build := name, build
		for _, feasible := range []bool{true, false} {
			feasible := feasible
			It(fmt.Sprintf("should split membership from consistency (%s, feasible=%t)", name, feasible), func() {
				t, err := extension.TuplesOf(feasible, []int{1, 1, 1, 1}, []int{1, 1, 2, 1})
				Expect(err).ToNot(HaveOccurred())
				r, err := build(t, vars)
				Expect(err).ToNot(HaveOccurred())
				Expect(r.Len()).To(Equal(2))

				Expect(r.CheckTuple([]int{1, 1, 1, 1})).To(BeTrue())
				Expect(r.CheckTuple([]int{2, 1, 1, 1})).To(BeFalse())
				Expect(r.IsConsistent([]int{1, 1, 2, 1})).To(Equal(feasible))
				Expect(r.IsConsistent([]int{1, 2, 1, 1})).To(Equal(!feasible))
				for _, v := range vectors() {
					Expect(r.CheckTuple(v)).To(Equal(isStored(v)), "%v", v)
					Expect(r.IsConsistent(v)).To(Equal(isStored(v) == feasible), "%v", v)
				}
			})
		}

		It(fmt.Sprintf("should duplicate into an independent copy (%s)", name), func() {
			t, err := extension.TuplesOf(false, []int{1, 1, 1, 1}, []int{1, 1, 2, 1})
			Expect(err).ToNot(HaveOccurred())
			r, err := build(t, vars)
			Expect(err).ToNot(HaveOccurred())
			dup := r.Duplicate()

			Expect(r.Add(3, 3, 3, 3)).To(Succeed())
			Expect(r.CheckTuple([]int{3, 3, 3, 3})).To(BeTrue())
			Expect(dup.CheckTuple([]int{3, 3, 3, 3})).To(BeFalse())

			var g errgroup.Group
			copies := []extension.Relation{dup, dup.Duplicate(), dup.Duplicate()}
			for _, c := range copies {
				c := c
				g.Go(func() error {
					for _, v := range vectors() {
						if c.CheckTuple(v) != isStored(v) || c.IsConsistent(v) == isStored(v) {
							return fmt.Errorf("copy disagrees on %v", v)
						}
					}
					return nil
				})
			}
			Expect(g.Wait()).To(Succeed())
		})

		It(fmt.Sprintf("should ignore duplicate and out of bounds tuples (%s)", name), func() {
			t, err := extension.TuplesOf(true, []int{0, 0, 0, 0}, []int{0, 0, 0, 0}, []int{9, 0, 0, 0})
			Expect(err).ToNot(HaveOccurred())
			r, err := build(t, vars)
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Len()).To(Equal(1))
			Expect(r.CheckTuple([]int{9, 0, 0, 0})).To(BeFalse())
		})

		It(fmt.Sprintf("should reject tuples of the wrong arity (%s)", name), func() {
			t, err := extension.TuplesOf(true, []int{0, 0, 0})
			Expect(err).ToNot(HaveOccurred())
			_, err = build(t, vars)
			var malformed *fd.MalformedInputError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})
	}

	It("should reject mixed arities in a tuple list", func() {
		_, err := extension.TuplesOf(true, []int{0, 0}, []int{0, 0, 0})
		var malformed *fd.MalformedInputError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})

	It("should pick a storage by size", func() {
		t := extension.NewTuples(true)
		r, err := extension.NewRelation(t, vars)
		Expect(err).ToNot(HaveOccurred())
		Expect(r).To(BeAssignableToTypeOf(&extension.DenseRelation{}))

		wide := m.IntVarArray("wide", 4, 0, 1000)
		r, err = extension.NewRelation(t, wide)
		Expect(err).ToNot(HaveOccurred())
		Expect(r).To(BeAssignableToTypeOf(&extension.LargeRelation{}))
	})

	Context("as a decision diagram", func() {
		It("should agree with the tuple list", func() {
			t, err := extension.TuplesOf(true, []int{1, 1, 1, 1}, []int{1, 1, 2, 1})
			Expect(err).ToNot(HaveOccurred())
			d, err := extension.NewMDD(t, vars)
			Expect(err).ToNot(HaveOccurred())
			for _, v := range vectors() {
				Expect(d.CheckTuple(v)).To(Equal(isStored(v)), "%v", v)
				Expect(d.IsConsistent(v)).To(Equal(isStored(v)), "%v", v)
			}
		})

		It("should share isomorphic sub-diagrams", func() {
			xs := m.IntVarArray("x", 2, 0, 1)
			t, err := extension.TuplesOf(true, []int{0, 0}, []int{1, 0})
			Expect(err).ToNot(HaveOccurred())
			d, err := extension.NewMDD(t, xs)
			Expect(err).ToNot(HaveOccurred())
			Expect(d.NodeCount()).To(Equal(3))
		})

		It("should refuse forbidden tuples", func() {
			_, err := extension.NewMDD(extension.NewTuples(false), vars)
			Expect(err).To(HaveOccurred())
		})

		It("should keep its copies apart", func() {
			t, err := extension.TuplesOf(true, []int{0, 0, 0, 0})
			Expect(err).ToNot(HaveOccurred())
			d, err := extension.NewMDD(t, vars)
			Expect(err).ToNot(HaveOccurred())
			dup := d.Duplicate()
			Expect(d.Add(1, 1, 1, 1)).To(Succeed())
			Expect(d.CheckTuple([]int{1, 1, 1, 1})).To(BeTrue())
			Expect(dup.CheckTuple([]int{1, 1, 1, 1})).To(BeFalse())
			Expect(dup.CheckTuple([]int{0, 0, 0, 0})).To(BeTrue())
		})
	})
})
