package lcg

// Disambiguate picks the one candidate that agrees with the observed outputs.
//
// known is a chronological run of outputs whose last element is the output of
// the state the candidates step to. Each candidate is simulated as the run
// [candidate.A, Step(candidate)] and compared with the tail of known. Every
// candidate returned by EnumeratePredecessors steps to the same successor, so
// a window holding only the successor's output never separates them and
// yields ErrAmbiguousState once there is more than one. Repeated candidates
// count once.
func (gen *Generator) Disambiguate(candidates []State, known []uint64) (State, error) {
	if len(candidates) == 0 {
		return State{}, &CandidateError{Err: ErrNoMatch}
	}
	candidates = unique(candidates)

	var matches []State
	for _, c := range candidates {
		if gen.reproduces(c, known) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return State{}, &CandidateError{Err: ErrNoMatch, Candidates: candidates}
	case 1:
		return matches[0], nil
	}
	return State{}, &CandidateError{Err: ErrAmbiguousState, Candidates: matches}
}

func (gen *Generator) reproduces(c State, known []uint64) bool {
	if !gen.Valid(c) {
		return false
	}
	_, out := gen.Step(c)
	run := [2]uint64{c.A, out}

	n := len(known)
	if n > len(run) {
		n = len(run)
	}
	tail := known[len(known)-n:]
	for i := range tail {
		if run[len(run)-n+i] != tail[i] {
			return false
		}
	}
	return true
}

// unique drops repeated states, keeping the first of each.
func unique(states []State) []State {
	seen := make(map[State]struct{}, len(states))
	out := make([]State, 0, len(states))
	for _, s := range states {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
