package extension_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/constraint"
	"github.com/operator-framework/fdsolver/pkg/fd/extension"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
)

// gacAlgorithms enforce arc consistency and so explore identical trees.
var gacAlgorithms = []string{
	extension.GAC3, extension.GAC3rm, extension.GAC2001,
	extension.GAC3rmP, extension.GAC2001P, extension.GACSTRP, extension.STR2P,
}

// negativeAlgorithms accept forbidden tuples.
var negativeAlgorithms = []string{extension.FC, extension.GAC3, extension.GAC3rm, extension.GAC2001}

func countAll(m *fd.Model) int64 {
	s, err := solver.New(m)
	Expect(err).ToNot(HaveOccurred())
	n, err := s.FindAllSolutions(context.Background())
	Expect(err).ToNot(HaveOccurred())
	return n
}

var _ = Describe("Table", func() {
	for _, algo := range extension.Algorithms {
		algo := algo

		It(fmt.Sprintf("should drop tuples outside the domains (%s)", algo), func() {
			m := fd.NewModel("test1")
			vars := m.IntVarArray("v", 3, 1, 2)
			t, err := extension.TuplesOf(true, []int{0, 0, 0}, []int{1, 1, 1}, []int{2, 2, 2})
			Expect(err).ToNot(HaveOccurred())
			mustPost(extension.Table(vars, t, algo))
			Expect(countAll(m)).To(Equal(int64(2)))
		})

		It(fmt.Sprintf("should handle a variable repeated in the scope (%s)", algo), func() {
			m := fd.NewModel("pdav")
			x, y, z := m.IntVar("x", 1, 3), m.IntVar("y", 0, 3), m.IntVar("z", 0, 1)
			vars := []*fd.IntVar{x, z, z}
			t, err := extension.Scalar(vars, []int{2, -1, -10}, y, 1)
			Expect(err).ToNot(HaveOccurred())
			mustPost(extension.Table(append(vars, y), t, algo))

			s, err := solver.New(m)
			Expect(err).ToNot(HaveOccurred())
			n, err := s.FindAllSolutions(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(int64(1)))
			Expect(s.LastSolution().Values()).To(HaveKeyWithValue("x", "1"))
			Expect(s.LastSolution().Values()).To(HaveKeyWithValue("y", "2"))
			Expect(s.LastSolution().Values()).To(HaveKeyWithValue("z", "0"))
		})

		It(fmt.Sprintf("should fail on an empty allowed table (%s)", algo), func() {
			m := fd.NewModel("empty")
			vars := m.IntVarArray("v", 2, 0, 2)
			mustPost(extension.Table(vars, extension.NewTuples(true), algo))
			Expect(countAll(m)).To(BeZero())
		})

		It(fmt.Sprintf("should count random allowed tuples exactly (%s)", algo), func() {
			m := fd.NewModel("random")
			vars := m.IntVarArray("v", 3, 0, 3)
			t := extension.RandomTuples(7, 0.3, true, vars)
			mustPost(extension.Table(vars, t, algo))
			Expect(countAll(m)).To(Equal(int64(t.Len())))
		})
	}

	for _, algo := range negativeAlgorithms {
		algo := algo

		It(fmt.Sprintf("should allow everything with no forbidden tuple (%s)", algo), func() {
			m := fd.NewModel("empty")
			vars := m.IntVarArray("v", 2, 0, 2)
			mustPost(extension.Table(vars, extension.NewTuples(false), algo))
			Expect(countAll(m)).To(Equal(int64(9)))
		})

		It(fmt.Sprintf("should count the complement of random forbidden tuples (%s)", algo), func() {
			m := fd.NewModel("random")
			vars := m.IntVarArray("v", 3, 0, 3)
			t := extension.RandomTuples(11, 0.4, false, vars)
			mustPost(extension.Table(vars, t, algo))
			Expect(countAll(m)).To(Equal(int64(64 - t.Len())))
		})
	}

	for _, algo := range []string{extension.FC, extension.GAC2001, extension.GAC3rm} {
		algo := algo
		It(fmt.Sprintf("should solve over wide domains with forbidden tuples (%s)", algo), func() {
			m := fd.NewModel("thierry")
			vars := m.IntVarArray("v", 10, 0, 100)
			t, err := extension.TuplesOf(false,
				[]int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
				[]int{1, 1, 2, 1, 1, 1, 1, 1, 1, 1},
			)
			Expect(err).ToNot(HaveOccurred())
			mustPost(extension.Table(vars, t, algo))

			s, err := solver.New(m)
			Expect(err).ToNot(HaveOccurred())
			ok, err := s.Solve(context.Background())
			Expect(err).ToNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	}

	for _, algo := range extension.BinaryAlgorithms {
		algo := algo
		It(fmt.Sprintf("should minimize over reified binary tables (%s)", algo), func() {
			m := fd.NewModel("tpetit")
			domain := []int{1, 2, 3, 4, 5, 6, 10, 45, 57}
			vars := make([]*fd.IntVar, 6)
			for i := range vars {
				vars[i] = m.IntVarFromValues(fmt.Sprintf("x[%d]", i), domain)
			}
			rei := m.IntVarArray("r", 6, 0, 1)
			sum := m.IntVar("sum", 0, 6)
			mustPost(constraint.AllDifferent(vars, constraint.AC))
			for i := range vars {
				t := extension.NewTuples(true)
				Expect(t.Add(1, 0)).To(Succeed())
				for _, v := range domain[1:] {
					Expect(t.Add(v, 1)).To(Succeed())
				}
				mustPost(extension.Table([]*fd.IntVar{vars[i], rei[i]}, t, algo))
			}
			mustPost(constraint.Sum(rei, constraint.EQ, sum))

			s, err := solver.New(m)
			Expect(err).ToNot(HaveOccurred())
			best, err := s.FindOptimalSolution(context.Background(), solver.Minimize, sum)
			Expect(err).ToNot(HaveOccurred())
			obj, ok := best.Objective()
			Expect(ok).To(BeTrue())
			Expect(obj).To(Equal(5))
		})
	}

	Context("over decision diagrams", func() {
		It("should keep two disjoint paths", func() {
			m := fd.NewModel("mdd1")
			vars := m.IntVarArray("v", 3, 0, 1)
			t, err := extension.TuplesOf(true, []int{0, 0, 0}, []int{1, 1, 1})
			Expect(err).ToNot(HaveOccurred())
			d, err := extension.NewMDD(t, vars)
			Expect(err).ToNot(HaveOccurred())
			mustPost(extension.MDDC(vars, d))
			Expect(countAll(m)).To(Equal(int64(2)))
		})

		It("should keep two crossing paths", func() {
			m := fd.NewModel("mdd2")
			vars := m.IntVarArray("v", 3, 0, 2)
			t, err := extension.TuplesOf(true, []int{0, 1, 2}, []int{2, 1, 0})
			Expect(err).ToNot(HaveOccurred())
			d, err := extension.NewMDD(t, vars)
			Expect(err).ToNot(HaveOccurred())
			mustPost(extension.MDDC(vars, d))
			Expect(countAll(m)).To(Equal(int64(2)))
		})

		It("should serve several scopes from one diagram", func() {
			m := fd.NewModel("shared")
			xs, ys := m.IntVarArray("x", 2, 0, 2), m.IntVarArray("y", 2, 0, 2)
			d, err := extension.NewMDD(extension.AllEquals(xs), xs)
			Expect(err).ToNot(HaveOccurred())
			mustPost(extension.MDDC(xs, d))
			mustPost(extension.MDDC(ys, d))
			Expect(countAll(m)).To(Equal(int64(9)))
		})
	})

	Context("over a relation built for narrower bounds", func() {
		It("should keep forbidding tuples beyond the first scope", func() {
			narrow := fd.NewModel("narrow").IntVarArray("n", 2, 0, 2)
			t, err := extension.TuplesOf(false, []int{5, 5})
			Expect(err).ToNot(HaveOccurred())
			rel, err := extension.NewRelation(t, narrow)
			Expect(err).ToNot(HaveOccurred())
			Expect(rel.Len()).To(Equal(0))

			for _, algo := range negativeAlgorithms {
				m := fd.NewModel("rescoped")
				w := m.IntVarArray("w", 2, 5, 5)
				c, err := extension.TableOf(w, rel, algo)
				Expect(err).ToNot(HaveOccurred())
				Expect(c.Post()).To(Succeed())
				Expect(countAll(m)).To(Equal(int64(0)), algo)
			}
		})

		It("should keep allowing tuples beyond the first scope", func() {
			narrow := fd.NewModel("narrow").IntVarArray("n", 2, 0, 2)
			t, err := extension.TuplesOf(true, []int{5, 5}, []int{0, 0})
			Expect(err).ToNot(HaveOccurred())
			rel, err := extension.NewRelation(t, narrow)
			Expect(err).ToNot(HaveOccurred())
			Expect(rel.Len()).To(Equal(1))

			for _, algo := range []string{extension.FC, extension.GAC3rm, extension.GACSTRP, extension.STR2P} {
				m := fd.NewModel("rescoped")
				w := m.IntVarArray("w", 2, 0, 5)
				mustPost(extension.TableOf(w, rel, algo))
				Expect(countAll(m)).To(Equal(int64(2)), algo)
			}
		})

		It("should rebuild a diagram for wider variables", func() {
			narrow := fd.NewModel("narrow").IntVarArray("n", 2, 0, 1)
			t, err := extension.TuplesOf(true, []int{0, 0}, []int{3, 3})
			Expect(err).ToNot(HaveOccurred())
			d, err := extension.NewMDD(t, narrow)
			Expect(err).ToNot(HaveOccurred())

			m := fd.NewModel("mdd")
			w := m.IntVarArray("w", 2, 0, 3)
			mustPost(extension.MDDC(w, d))
			Expect(countAll(m)).To(Equal(int64(2)))
		})

		It("should reuse the relation when the variables fit", func() {
			xs := fd.NewModel("wide").IntVarArray("x", 2, 0, 3)
			t, err := extension.TuplesOf(true, []int{1, 1}, []int{2, 3})
			Expect(err).ToNot(HaveOccurred())
			rel, err := extension.NewRelation(t, xs)
			Expect(err).ToNot(HaveOccurred())

			m := fd.NewModel("fits")
			ys := m.IntVarArray("y", 2, 1, 2)
			mustPost(extension.TableOf(ys, rel, extension.GAC3rm))
			Expect(countAll(m)).To(Equal(int64(1)))
		})
	})

	Context("comparing algorithms", func() {
		It("should explore the same tree for every arc consistent algorithm", func() {
			for seed := int64(0); seed < 5; seed++ {
				var nodes []int64
				for _, algo := range gacAlgorithms {
					m := fd.NewModel("equals")
					vars := m.IntVarArray("v", 5, -2, 3)
					mustPost(extension.Table(vars, extension.AllEquals(vars), algo))
					n, nd := enumerate(m, vars, seed)
					Expect(n).To(Equal(int64(6)), algo)
					nodes = append(nodes, nd)
				}
				for i := range nodes {
					Expect(nodes[i]).To(Equal(nodes[0]), "%s with seed %d", gacAlgorithms[i], seed)
				}
			}
		})

		It("should match the matching based all different filtering", func() {
			for seed := int64(0); seed < 3; seed++ {
				m := fd.NewModel("baseline")
				vars := m.IntVarArray("v", 4, 0, 4)
				mustPost(constraint.AllDifferent(vars, constraint.AC))
				want, wantNodes := enumerate(m, vars, seed)
				Expect(want).To(Equal(int64(120)))

				for _, algo := range gacAlgorithms {
					m := fd.NewModel("table")
					vars := m.IntVarArray("v", 4, 0, 4)
					mustPost(extension.Table(vars, extension.AllDifferent(vars), algo))
					n, nodes := enumerate(m, vars, seed)
					Expect(n).To(Equal(want), algo)
					Expect(nodes).To(Equal(wantNodes), "%s with seed %d", algo, seed)
				}
			}
		})

		It("should match pairwise disequalities when no Hall set can form", func() {
			m := fd.NewModel("neqs")
			vars := m.IntVarArray("v", 5, 2, 9)
			mustPost(constraint.AllDifferent(vars, constraint.NEQS))
			want, wantNodes := enumerate(m, vars, 1)
			Expect(want).To(Equal(int64(6720)))

			for _, algo := range []string{
				extension.GAC3rm, extension.GAC2001, extension.GAC3rmP, extension.GAC2001P,
				extension.GACSTRP, extension.STR2P,
			} {
				m := fd.NewModel("table")
				vars := m.IntVarArray("v", 5, 2, 9)
				mustPost(extension.Table(vars, extension.AllDifferent(vars), algo))
				n, nodes := enumerate(m, vars, 1)
				Expect(n).To(Equal(want), algo)
				Expect(nodes).To(Equal(wantNodes), algo)
			}
		})
	})

	Context("with malformed arguments", func() {
		var (
			m    *fd.Model
			vars []*fd.IntVar
		)

		BeforeEach(func() {
			m = fd.NewModel("malformed")
			vars = m.IntVarArray("v", 3, 0, 1)
		})

		expectMalformed := func(err error) {
			var malformed *fd.MalformedInputError
			Expect(errors.As(err, &malformed)).To(BeTrue(), "%v", err)
		}

		It("should reject an unknown algorithm", func() {
			_, err := extension.Table(vars, extension.NewTuples(true), "GAC4")
			expectMalformed(err)
		})

		It("should reject a binary algorithm over three variables", func() {
			_, err := extension.Table(vars, extension.NewTuples(true), extension.AC3rm)
			expectMalformed(err)
		})

		It("should reject forbidden tuples for an algorithm walking allowed ones", func() {
			_, err := extension.Table(vars, extension.NewTuples(false), extension.STR2P)
			expectMalformed(err)
		})

		It("should reject a hashed relation for the diagram algorithm", func() {
			rel, err := extension.NewLargeRelation(extension.AllEquals(vars), vars)
			Expect(err).ToNot(HaveOccurred())
			_, err = extension.TableOf(vars, rel, extension.MDDP)
			expectMalformed(err)
		})

		It("should pick a default algorithm by polarity", func() {
			c, err := extension.Table(vars, extension.NewTuples(false), extension.Automatic)
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Propagators()[0].String()).To(HaveSuffix("[GAC3rm]"))
		})
	})
})
