package lcg

import (
	"fmt"

	"github.com/iochen/lcgrewind/utils/modular"
)

// StateFromOutputs rebuilds the full state that emitted a0 from a0 and the
// output that follows it, since a1 = c*a0 + b0.
func (gen *Generator) StateFromOutputs(a0, a1 uint64) (State, error) {
	m := gen.Modulus
	if a0 >= m || a1 >= m {
		return State{}, fmt.Errorf("%w: outputs %d, %d not below %d", ErrStateOutOfRange, a0, a1, m)
	}
	return State{A: a0, B: modular.Sub(a1, modular.Mul(gen.Multiplier, a0, m), m)}, nil
}

// Recover returns the state behind every output of a consecutive run, after
// checking that the run is one the generator can produce.
func (gen *Generator) Recover(outputs []uint64) ([]State, error) {
	if len(outputs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewOutputs, len(outputs))
	}
	s, err := gen.StateFromOutputs(outputs[0], outputs[1])
	if err != nil {
		return nil, err
	}

	states := make([]State, len(outputs))
	states[0] = s
	for i := 1; i < len(outputs); i++ {
		var out uint64
		s, out = gen.Step(s)
		if out != outputs[i] {
			return nil, fmt.Errorf("%w: output %d is %d, generator gives %d", ErrNoMatch, i, outputs[i], out)
		}
		states[i] = s
	}
	return states, nil
}
