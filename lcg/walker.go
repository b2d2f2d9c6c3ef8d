package lcg

import (
	"fmt"

	"github.com/iochen/lcgrewind/utils/modular"
)

// WalkBack returns the state n steps before s. known is the chronological run
// of outputs ending with s.A; walking n steps back needs the n outputs before
// it as well whenever the generator is not invertible.
func (gen *Generator) WalkBack(s State, n int, known []uint64) (State, error) {
	trace, err := gen.WalkBackTrace(s, n, known)
	if err != nil {
		return State{}, err
	}
	return trace[0], nil
}

// WalkBackTrace is WalkBack keeping every state on the way. The result has
// n+1 states, oldest first, and ends with s.
func (gen *Generator) WalkBackTrace(s State, n int, known []uint64) ([]State, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSteps, n)
	}
	if err := gen.check(s); err != nil {
		return nil, err
	}
	if len(known) > 0 && known[len(known)-1] != s.A {
		return nil, fmt.Errorf("%w: history ends with %d but state outputs %d",
			ErrNoMatch, known[len(known)-1], s.A)
	}

	trace := make([]State, n+1)
	trace[n] = s
	cur := s
	for i := 1; i <= n; i++ {
		// slide the window so that it ends at the current state
		var window []uint64
		if drop := i - 1; drop < len(known) {
			window = known[:len(known)-drop]
		}

		candidates, err := gen.EnumeratePredecessors(cur)
		if err != nil {
			return nil, &WalkError{Steps: i - 1, Reached: cur, Err: err}
		}
		prev, err := gen.Disambiguate(candidates, window)
		if err != nil {
			return nil, &WalkError{Steps: i - 1, Reached: cur, Err: err}
		}
		if next, _ := gen.Step(prev); next != cur {
			return nil, &WalkError{Steps: i - 1, Reached: cur,
				Err: fmt.Errorf("%w: %v steps to %v", ErrNoMatch, prev, next)}
		}

		cur = prev
		trace[n-i] = cur
	}

	return trace, nil
}

// Advance jumps n steps ahead in O(log n) by raising the step's affine map to
// the n-th power. A state out of range is reduced first.
func (gen *Generator) Advance(s State, n uint64) State {
	m := gen.Modulus
	c, k := gen.Multiplier%m, gen.Increment%m
	s = gen.reduce(s)

	// (a, b, 1) -> (c*a + b, c*a + 2*b + k, 1)
	step := affine{
		{c, 1 % m, 0},
		{c, 2 % m, k},
		{0, 0, 1 % m},
	}
	acc := identity(m)
	for n > 0 {
		if n&1 == 1 {
			acc = acc.mul(step, m)
		}
		step = step.mul(step, m)
		n >>= 1
	}

	a := modular.Add(modular.Add(modular.Mul(acc[0][0], s.A, m), modular.Mul(acc[0][1], s.B, m), m), acc[0][2], m)
	b := modular.Add(modular.Add(modular.Mul(acc[1][0], s.A, m), modular.Mul(acc[1][1], s.B, m), m), acc[1][2], m)
	return State{A: a, B: b}
}

type affine [3][3]uint64

func identity(m uint64) affine {
	var id affine
	for i := range id {
		id[i][i] = 1 % m
	}
	return id
}

func (x affine) mul(y affine, m uint64) affine {
	var r affine
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum uint64
			for k := 0; k < 3; k++ {
				sum = modular.Add(sum, modular.Mul(x[i][k], y[k][j], m), m)
			}
			r[i][j] = sum
		}
	}
	return r
}
