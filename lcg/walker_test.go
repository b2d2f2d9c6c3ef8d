package lcg_test

import (
	"errors"
	"math/rand"

	"github.com/iochen/lcgrewind/lcg"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// forward returns s followed by the n states after it, and the outputs of
// all of them.
func forward(gen *lcg.Generator, s lcg.State, n int) ([]lcg.State, []uint64) {
	states := []lcg.State{s}
	outputs := []uint64{s.A}
	for i := 0; i < n; i++ {
		s, _ = gen.Step(s)
		states = append(states, s)
		outputs = append(outputs, s.A)
	}
	return states, outputs
}

var _ = Describe("Walking back", func() {
	var gen *lcg.Generator

	BeforeEach(func() {
		var err error
		gen, err = lcg.New(modulus, multiplier, increment)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should reconstruct every intermediate state of a ten step run", func() {
		s0 := lcg.State{A: 1036040342, B: 158423163}
		states, _ := forward(gen, s0, 10)

		// the outputs of the ten steps, s1 to s10
		history := make([]uint64, 10)
		for i := range history {
			history[i] = states[i+1].A
		}

		trace, err := gen.WalkBackTrace(states[10], 9, history)
		Expect(err).ToNot(HaveOccurred())
		Expect(trace).To(Equal(states[1:]))

		for i := 0; i+1 < len(trace); i++ {
			next, out := gen.Step(trace[i])
			Expect(next).To(Equal(trace[i+1]))
			Expect(out).To(Equal(history[i+1]))
		}

		s1, err := gen.WalkBack(states[10], 9, history)
		Expect(err).ToNot(HaveOccurred())
		Expect(s1).To(Equal(states[1]))
	})

	It("should return the starting state for any run", func() {
		r := rand.New(rand.NewSource(5))
		for trial := 0; trial < 100; trial++ {
			s := randomState(r, modulus)
			n := 2 + r.Intn(30)
			states, outputs := forward(gen, s, n)

			got, err := gen.WalkBack(states[n], n, outputs)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(s))
		}
	})

	It("should report how far it got when history runs out", func() {
		s0 := lcg.State{A: 1036040342, B: 158423163}
		states, outputs := forward(gen, s0, 10)
		history := outputs[1:]

		_, err := gen.WalkBack(states[10], 10, history)
		Expect(err).To(MatchError(lcg.ErrInsufficientHistory))
		Expect(errors.Is(err, lcg.ErrAmbiguousState)).To(BeTrue())

		var werr *lcg.WalkError
		Expect(errors.As(err, &werr)).To(BeTrue())
		Expect(werr.Steps).To(Equal(9))
		Expect(werr.Reached).To(Equal(states[1]))

		var cerr *lcg.CandidateError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Candidates).To(ContainElement(s0))

		// resuming from where it stopped with the missing output succeeds
		s, err := gen.WalkBack(werr.Reached, 1, []uint64{s0.A, werr.Reached.A})
		Expect(err).ToNot(HaveOccurred())
		Expect(s).To(Equal(s0))
	})

	It("should not need history when the multiplier is invertible", func() {
		g, err := lcg.New(modulus, 5, increment)
		Expect(err).ToNot(HaveOccurred())

		s0 := lcg.State{A: 1036040342, B: 158423163}
		states, _ := forward(g, s0, 25)
		got, err := g.WalkBack(states[25], 25, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(s0))
	})

	It("should surface an unreachable state with the step it failed on", func() {
		a1 := uint64(5)
		unreachable := lcg.State{A: a1, B: 2*a1 - 1 + increment}

		_, err := gen.WalkBack(unreachable, 3, []uint64{1, 2, 3, a1})
		Expect(err).To(MatchError(lcg.ErrNoPredecessor))
		Expect(errors.Is(err, lcg.ErrInsufficientHistory)).To(BeFalse())

		var werr *lcg.WalkError
		Expect(errors.As(err, &werr)).To(BeTrue())
		Expect(werr.Steps).To(Equal(0))
		Expect(werr.Reached).To(Equal(unreachable))
	})

	It("should validate its arguments", func() {
		s := lcg.State{A: 1036040342, B: 158423163}

		got, err := gen.WalkBack(s, 0, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(s))

		_, err = gen.WalkBack(s, -1, nil)
		Expect(err).To(MatchError(lcg.ErrInvalidSteps))

		_, err = gen.WalkBack(lcg.State{A: modulus}, 1, nil)
		Expect(err).To(MatchError(lcg.ErrStateOutOfRange))

		_, err = gen.WalkBack(s, 1, []uint64{1, s.A + 1})
		Expect(err).To(MatchError(lcg.ErrNoMatch))
	})

	It("should catch a corrupted output inside the window", func() {
		s0 := lcg.State{A: 1036040342, B: 158423163}
		states, outputs := forward(gen, s0, 6)
		outputs[2]++

		_, err := gen.WalkBack(states[6], 6, outputs)
		Expect(err).To(MatchError(lcg.ErrNoMatch))

		var werr *lcg.WalkError
		Expect(errors.As(err, &werr)).To(BeTrue())
		Expect(werr.Steps).To(Equal(3))
	})
})

var _ = Describe("Recovering", func() {
	var gen *lcg.Generator

	BeforeEach(func() {
		var err error
		gen, err = lcg.New(modulus, multiplier, increment)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should rebuild the hidden half from two outputs", func() {
		s0 := lcg.State{A: 1036040342, B: 158423163}
		states, outputs := forward(gen, s0, 12)

		s, err := gen.StateFromOutputs(outputs[0], outputs[1])
		Expect(err).ToNot(HaveOccurred())
		Expect(s).To(Equal(s0))

		recovered, err := gen.Recover(outputs)
		Expect(err).ToNot(HaveOccurred())
		Expect(recovered).To(Equal(states))
	})

	It("should reject runs the generator cannot produce", func() {
		_, outputs := forward(gen, lcg.State{A: 1, B: 2}, 5)
		outputs[4]++
		_, err := gen.Recover(outputs)
		Expect(err).To(MatchError(lcg.ErrNoMatch))

		_, err = gen.Recover(outputs[:1])
		Expect(err).To(MatchError(lcg.ErrTooFewOutputs))

		_, err = gen.StateFromOutputs(modulus, 0)
		Expect(err).To(MatchError(lcg.ErrStateOutOfRange))
	})
})
