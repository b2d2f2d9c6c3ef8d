package lcg_test

import (
	"errors"
	"math/rand"

	"github.com/iochen/lcgrewind/lcg"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Predecessors", func() {
	var gen *lcg.Generator

	BeforeEach(func() {
		var err error
		gen, err = lcg.New(modulus, multiplier, increment)
		Expect(err).ToNot(HaveOccurred())
	})

	Context("enumerating", func() {
		It("should always include the true predecessor among exactly three", func() {
			r := rand.New(rand.NewSource(1))
			for trial := 0; trial < 500; trial++ {
				s := randomState(r, modulus)
				next, _ := gen.Step(s)

				candidates, err := gen.EnumeratePredecessors(next)
				Expect(err).ToNot(HaveOccurred())
				Expect(candidates).To(HaveLen(3))
				Expect(candidates).To(ContainElement(s))

				for i, c := range candidates {
					Expect(gen.Valid(c)).To(BeTrue())
					Expect(c.B).To(Equal(s.B))
					stepped, _ := gen.Step(c)
					Expect(stepped).To(Equal(next))
					if i > 0 {
						Expect(c.A).To(BeNumerically(">", candidates[i-1].A))
					}
				}
			}
		})

		It("should space the candidates by a third of the modulus", func() {
			next, _ := gen.Step(lcg.State{A: 1036040342, B: 158423163})
			candidates, err := gen.EnumeratePredecessors(next)
			Expect(err).ToNot(HaveOccurred())
			Expect(candidates[1].A - candidates[0].A).To(Equal(uint64(modulus / 3)))
			Expect(candidates[2].A - candidates[1].A).To(Equal(uint64(modulus / 3)))
		})

		It("should detect an unreachable successor", func() {
			// b0 = a1 - 1, so a1 - b0 = 1 which 3 does not divide
			a1 := uint64(5)
			unreachable := lcg.State{A: a1, B: 2*a1 - 1 + increment}

			candidates, err := gen.EnumeratePredecessors(unreachable)
			Expect(err).To(MatchError(lcg.ErrNoPredecessor))
			Expect(candidates).To(BeEmpty())
		})

		It("should reject states out of range", func() {
			_, err := gen.EnumeratePredecessors(lcg.State{A: modulus, B: 0})
			Expect(err).To(MatchError(lcg.ErrStateOutOfRange))
		})

		It("should enumerate from a generator that was never initialised", func() {
			g := &lcg.Generator{Modulus: modulus, Multiplier: multiplier, Increment: increment}
			s := lcg.State{A: 1036040342, B: 158423163}
			next, _ := g.Step(s)

			candidates, err := g.EnumeratePredecessors(next)
			Expect(err).ToNot(HaveOccurred())
			Expect(candidates).To(HaveLen(3))
			Expect(candidates).To(ContainElement(s))

			walked, err := (&lcg.Generator{Modulus: modulus, Multiplier: multiplier, Increment: increment}).
				WalkBack(next, 1, []uint64{s.A, next.A})
			Expect(err).ToNot(HaveOccurred())
			Expect(walked).To(Equal(s))

			_, err = (&lcg.Generator{Modulus: 1}).EnumeratePredecessors(lcg.State{})
			Expect(err).To(MatchError(lcg.ErrInvalidModulus))
		})

		It("should return a single candidate for an invertible multiplier", func() {
			g, err := lcg.New(modulus, 5, increment)
			Expect(err).ToNot(HaveOccurred())

			s := lcg.State{A: 1036040342, B: 158423163}
			next, _ := g.Step(s)
			candidates, err := g.EnumeratePredecessors(next)
			Expect(err).ToNot(HaveOccurred())
			Expect(candidates).To(Equal([]lcg.State{s}))
		})

		It("should agree with an exhaustive search on a small modulus", func() {
			// 540 = 2^2 * 3^3 * 5 and gcd(18, 540) = 18
			const m = 540
			g, err := lcg.New(m, 18, 17)
			Expect(err).ToNot(HaveOccurred())
			Expect(g.Branching()).To(Equal(uint64(18)))

			r := rand.New(rand.NewSource(2))
			for trial := 0; trial < 50; trial++ {
				var target lcg.State
				if trial%2 == 0 {
					target, _ = g.Step(randomState(r, m))
				} else {
					target = randomState(r, m)
				}

				var want []lcg.State
				for a := uint64(0); a < m; a++ {
					for b := uint64(0); b < m; b++ {
						if next, _ := g.Step(lcg.State{A: a, B: b}); next == target {
							want = append(want, lcg.State{A: a, B: b})
						}
					}
				}

				candidates, err := g.EnumeratePredecessors(target)
				if len(want) == 0 {
					Expect(errors.Is(err, lcg.ErrNoPredecessor)).To(BeTrue())
					continue
				}
				Expect(err).ToNot(HaveOccurred())
				Expect(candidates).To(Equal(want))
			}
		})

		It("should handle a power of two modulus", func() {
			g, err := lcg.New(1<<32, 12, 7)
			Expect(err).ToNot(HaveOccurred())
			Expect(g.Branching()).To(Equal(uint64(4)))

			r := rand.New(rand.NewSource(4))
			for trial := 0; trial < 100; trial++ {
				s := randomState(r, 1<<32)
				next, _ := g.Step(s)
				candidates, err := g.EnumeratePredecessors(next)
				Expect(err).ToNot(HaveOccurred())
				Expect(candidates).To(HaveLen(4))
				Expect(candidates).To(ContainElement(s))
			}
		})
	})

	Context("disambiguating", func() {
		var (
			s0, s1     lcg.State
			candidates []lcg.State
		)

		BeforeEach(func() {
			s0 = lcg.State{A: 1036040342, B: 158423163}
			s1, _ = gen.Step(s0)

			var err error
			candidates, err = gen.EnumeratePredecessors(s1)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should refuse to pick from the successor's output alone", func() {
			_, err := gen.Disambiguate(candidates, []uint64{s1.A})
			Expect(err).To(MatchError(lcg.ErrAmbiguousState))

			var cerr *lcg.CandidateError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Candidates).To(HaveLen(3))
			Expect(cerr.Candidates).To(ContainElement(s0))
		})

		It("should pick the true predecessor from two outputs", func() {
			s, err := gen.Disambiguate(candidates, []uint64{s0.A, s1.A})
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(s0))
		})

		It("should only look at the tail of a longer window", func() {
			s, err := gen.Disambiguate(candidates, []uint64{99, 98, s0.A, s1.A})
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(s0))
		})

		It("should report inconsistent history", func() {
			_, err := gen.Disambiguate(candidates, []uint64{s0.A + 1, s1.A})
			Expect(err).To(MatchError(lcg.ErrNoMatch))

			var cerr *lcg.CandidateError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Candidates).To(Equal(candidates))

			_, err = gen.Disambiguate(candidates, []uint64{s0.A, s1.A + 1})
			Expect(err).To(MatchError(lcg.ErrNoMatch))
		})

		It("should count a repeated candidate once", func() {
			repeated := append([]lcg.State{s0, s0}, candidates...)
			s, err := gen.Disambiguate(repeated, []uint64{s0.A, s1.A})
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(s0))

			_, err = gen.Disambiguate(append(candidates, candidates...), []uint64{s1.A})
			Expect(err).To(MatchError(lcg.ErrAmbiguousState))
			var cerr *lcg.CandidateError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Candidates).To(Equal(candidates))
		})

		It("should fail on an empty candidate set", func() {
			_, err := gen.Disambiguate(nil, []uint64{s0.A, s1.A})
			Expect(err).To(MatchError(lcg.ErrNoMatch))
		})
	})
})
