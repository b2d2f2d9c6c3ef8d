package lcg

import (
	"fmt"
	"sort"

	"github.com/iochen/lcgrewind/utils/modular"
)

// EnumeratePredecessors returns every state that steps to s, sorted by A.
//
// B of the predecessor is fixed by the second equation. The first leaves
// c*a0 = z (mod m), which is solved on each prime power q of m separately:
// with d = gcd(c, q) it has d solutions when d divides z and none otherwise.
// The per-component solutions are joined with the CRT, giving gcd(c, m)
// candidates in total.
func (gen *Generator) EnumeratePredecessors(s State) ([]State, error) {
	if err := gen.ready(); err != nil {
		return nil, err
	}
	if err := gen.check(s); err != nil {
		return nil, err
	}
	m := gen.Modulus

	b0 := modular.Sub(modular.Sub(s.B, s.A, m), gen.Increment, m)
	z := modular.Sub(s.A, b0, m)

	partial := []modular.Congruence{{Residue: 0, Modulus: 1}}
	for _, q := range gen.components {
		roots, err := solveLinear(gen.Multiplier%q, z%q, q)
		if err != nil {
			return nil, fmt.Errorf("%w: %v: %v", ErrNoPredecessor, s, err)
		}

		next := make([]modular.Congruence, 0, len(partial)*len(roots))
		for _, p := range partial {
			for _, r := range roots {
				x, n, err := modular.CRT([]modular.Congruence{p, {Residue: r, Modulus: q}})
				if err != nil {
					return nil, err
				}
				next = append(next, modular.Congruence{Residue: x, Modulus: n})
			}
		}
		partial = next
	}

	candidates := make([]State, len(partial))
	for i := range partial {
		candidates[i] = State{A: partial[i].Residue, B: b0}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].A < candidates[j].A })

	return candidates, nil
}

// solveLinear returns every x in [0, q) with c*x = z (mod q).
func solveLinear(c, z, q uint64) ([]uint64, error) {
	d := modular.GCD(c, q)
	if z%d != 0 {
		return nil, fmt.Errorf("%d is not divisible by gcd(%d, %d) = %d", z, c, q, d)
	}

	// c/d is a unit modulo q/d, so the reduced congruence has a single root
	step := q / d
	root := uint64(0)
	if step > 1 {
		inv, err := modular.Inverse(c/d, step)
		if err != nil {
			return nil, err
		}
		root = modular.Mul(z/d, inv, step)
	}

	roots := make([]uint64, d)
	for i := range roots {
		roots[i] = root + uint64(i)*step
	}
	return roots, nil
}
