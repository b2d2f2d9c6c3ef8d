package lcg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iochen/lcgrewind/utils/modular"
)

var (
	// from the arithmetic underneath
	ErrNotInvertible        = modular.ErrNotInvertible
	ErrInvalidCongruenceSet = modular.ErrInvalidCongruenceSet

	ErrInvalidModulus      = errors.New("modulus must be at least 2")
	ErrTooManyCandidates   = errors.New("too many predecessor candidates")
	ErrStateOutOfRange     = errors.New("state out of range")
	ErrInvalidSteps        = errors.New("invalid step count")
	ErrNoPredecessor       = errors.New("no predecessor")
	ErrAmbiguousState      = errors.New("ambiguous state")
	ErrNoMatch             = errors.New("no candidate matches")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrTooFewOutputs       = errors.New("at least two outputs are needed")
)

// CandidateError is returned by Disambiguate. Err is either ErrAmbiguousState
// or ErrNoMatch. Candidates holds the matching candidates for the former and
// every candidate tried for the latter, so that the caller can retry with a
// longer window.
type CandidateError struct {
	Err        error
	Candidates []State
}

func (e *CandidateError) Error() string {
	s := make([]string, len(e.Candidates))
	for i := range e.Candidates {
		s[i] = e.Candidates[i].String()
	}
	return fmt.Sprintf("%v: %d candidates [%s]", e.Err, len(e.Candidates), strings.Join(s, " "))
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// WalkError reports how far a backward walk got before it failed. Reached is
// the earliest state recovered, which is where a retry with more history can
// resume from.
type WalkError struct {
	Steps   int
	Reached State
	Err     error
}

func (e *WalkError) Error() string {
	if errors.Is(e.Err, ErrAmbiguousState) {
		return fmt.Sprintf("%v after %d steps at %v: %v", ErrInsufficientHistory, e.Steps, e.Reached, e.Err)
	}
	return fmt.Sprintf("walk failed after %d steps at %v: %v", e.Steps, e.Reached, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

// Is makes an ambiguous step read as ErrInsufficientHistory.
func (e *WalkError) Is(target error) bool {
	return target == ErrInsufficientHistory && errors.Is(e.Err, ErrAmbiguousState)
}
