// Package lcg steps a two-variable linear congruential generator forward and
// recovers its earlier states from observed outputs, including when the
// multiplier shares a factor with the modulus.
//
// The generator is
//
//	a' = (c*a + b) mod m
//	b' = (a' + b + k) mod m
//
// and each step outputs a'.
package lcg

import (
	"fmt"

	"github.com/iochen/lcgrewind/utils/modular"
)

// MaxBranching bounds the number of predecessor candidates a generator may
// produce per backward step.
const MaxBranching = 1 << 16

// State is the internal memory of the generator. A is the last output, B is
// never observed directly.
type State struct {
	A uint64 `json:"a" yaml:"a"`
	B uint64 `json:"b" yaml:"b"`
}

func (s State) String() string {
	return fmt.Sprintf("(%d, %d)", s.A, s.B)
}

type Generator struct {
	Modulus    uint64 `json:"modulus" yaml:"modulus"`
	Multiplier uint64 `json:"multiplier" yaml:"multiplier"`
	Increment  uint64 `json:"increment" yaml:"increment"`

	components []uint64
	branching  uint64
}

// New validates the parameters and prepares the factor structure of the
// modulus used for backward steps.
func New(modulus, multiplier, increment uint64) (*Generator, error) {
	gen := &Generator{
		Modulus:    modulus,
		Multiplier: multiplier,
		Increment:  increment,
	}
	if err := gen.Init(); err != nil {
		return nil, err
	}
	return gen, nil
}

// Init reduces the parameters and derives the factor structure. A Generator
// built as a literal or decoded from config initialises itself on first use;
// call Init before sharing it between goroutines.
func (gen *Generator) Init() error {
	if gen.Modulus < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidModulus, gen.Modulus)
	}
	gen.Multiplier %= gen.Modulus
	gen.Increment %= gen.Modulus

	components := modular.Factorize(gen.Modulus).Components()
	if err := modular.Coprime(components); err != nil {
		return err
	}

	branching := modular.GCD(gen.Multiplier, gen.Modulus)
	if branching > MaxBranching {
		return fmt.Errorf("%w: multiplier %d shares %d with modulus %d",
			ErrTooManyCandidates, gen.Multiplier, branching, gen.Modulus)
	}

	gen.components = components
	gen.branching = branching
	return nil
}

// ready initialises gen if nothing has yet.
func (gen *Generator) ready() error {
	if gen.components != nil {
		return nil
	}
	return gen.Init()
}

// Branching is the number of predecessors every reachable state has, which is
// gcd(multiplier, modulus). It is 0 for invalid parameters.
func (gen *Generator) Branching() uint64 {
	if gen.ready() != nil {
		return 0
	}
	return gen.branching
}

// Invertible reports whether each state has exactly one predecessor.
func (gen *Generator) Invertible() bool {
	return gen.Branching() == 1
}

// Valid reports whether both halves of the state are reduced.
func (gen *Generator) Valid(s State) bool {
	return s.A < gen.Modulus && s.B < gen.Modulus
}

func (gen *Generator) check(s State) error {
	if !gen.Valid(s) {
		return fmt.Errorf("%w: %v not below %d", ErrStateOutOfRange, s, gen.Modulus)
	}
	return nil
}

// reduce brings both halves of s into [0, m).
func (gen *Generator) reduce(s State) State {
	return State{A: s.A % gen.Modulus, B: s.B % gen.Modulus}
}

// Step returns the next state and its output. A state out of range is reduced
// first.
func (gen *Generator) Step(s State) (State, uint64) {
	m := gen.Modulus
	s = gen.reduce(s)
	a := modular.Add(modular.Mul(gen.Multiplier, s.A, m), s.B, m)
	b := modular.Add(modular.Add(a, s.B, m), gen.Increment%m, m)
	return State{A: a, B: b}, a
}

// ProjectForward returns the next n outputs after s.
func (gen *Generator) ProjectForward(s State, n int) []uint64 {
	if n <= 0 {
		return nil
	}
	outputs := make([]uint64, 0, n)
	seq := gen.Run(s, n)
	for seq.Next() {
		outputs = append(outputs, seq.Output())
	}
	return outputs
}

// Sequence yields a finite run of outputs one step at a time.
//
//	seq := gen.Run(s, 10)
//	for seq.Next() {
//		fmt.Println(seq.Output())
//	}
type Sequence struct {
	gen   *Generator
	state State
	out   uint64
	left  int
}

// Run returns a lazy sequence of n outputs starting after s. Calling Run
// again with the same state restarts it.
func (gen *Generator) Run(s State, n int) *Sequence {
	return &Sequence{gen: gen, state: s, left: n}
}

// Next advances the sequence and reports whether an output is available.
func (seq *Sequence) Next() bool {
	if seq.left <= 0 {
		return false
	}
	seq.state, seq.out = seq.gen.Step(seq.state)
	seq.left--
	return true
}

func (seq *Sequence) Output() uint64 {
	return seq.out
}

// State is the state that produced the current output.
func (seq *Sequence) State() State {
	return seq.state
}
