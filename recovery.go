package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iochen/lcgrewind/lcg"
	"github.com/iochen/lcgrewind/utils/base64"
)

// Recovery is a run of observed outputs rebuilt into the states behind them.
type Recovery struct {
	ID        uuid.UUID     `json:"id"`
	Date      time.Time     `json:"date"`
	Generator lcg.Generator `json:"generator"`
	Trace     []lcg.State   `json:"trace"`
}

// Key is a short printable name of the earliest recovered state.
func (rec *Recovery) Key() string {
	if len(rec.Trace) == 0 {
		return ""
	}
	return Fingerprint(&rec.Generator, rec.Trace[0])
}

// Fingerprint encodes both halves of a state with a fixed width derived from
// the modulus.
func Fingerprint(gen *lcg.Generator, s lcg.State) string {
	l := base64.Length(gen.Modulus - 1)
	return string(base64.Encode(s.A, l)) + "." + string(base64.Encode(s.B, l))
}

// ParseFingerprint reverses Fingerprint.
func ParseFingerprint(gen *lcg.Generator, key string) (lcg.State, error) {
	l := base64.Length(gen.Modulus - 1)
	parts := strings.Split(key, ".")
	if len(parts) != 2 || len(parts[0]) != l || len(parts[1]) != l {
		return lcg.State{}, fmt.Errorf("fingerprint %q is not two parts of %d digits", key, l)
	}
	a, err := base64.Decode([]byte(parts[0]))
	if err != nil {
		return lcg.State{}, err
	}
	b, err := base64.Decode([]byte(parts[1]))
	if err != nil {
		return lcg.State{}, err
	}
	s := lcg.State{A: a, B: b}
	if !gen.Valid(s) {
		return lcg.State{}, fmt.Errorf("%w: %v", lcg.ErrStateOutOfRange, s)
	}
	return s, nil
}

// WriteCSV writes one row per state: index, a, b.
func (rec *Recovery) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for i, s := range rec.Trace {
		err := cw.Write([]string{
			strconv.Itoa(i),
			strconv.FormatUint(s.A, 10),
			strconv.FormatUint(s.B, 10),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ObjectName is where the trace CSV is exported to.
func (rec *Recovery) ObjectName() string {
	return rec.ID.String() + "/" + rec.Key() + ".csv"
}

// RecoveryStore persists recoveries.
type RecoveryStore interface {
	InsertRecovery(rec *Recovery) error
	QueryRecovery(id uuid.UUID) (*Recovery, error)
}

// TraceExporter uploads a trace and returns a link to download it.
type TraceExporter interface {
	PutTrace(ctx context.Context, name string, data []byte) (*url.URL, error)
}

// recoverTrace rebuilds the states behind outputs and then walks back from
// the last one over the same history, so that both directions agree on every
// state before anything is stored.
func recoverTrace(gen *lcg.Generator, outputs []uint64) (*Recovery, error) {
	states, err := gen.Recover(outputs)
	if err != nil {
		return nil, err
	}
	last := states[len(states)-1]
	trace, err := gen.WalkBackTrace(last, len(states)-1, outputs)
	if err != nil {
		return nil, err
	}

	return &Recovery{
		ID:        uuid.New(),
		Date:      time.Now(),
		Generator: *gen,
		Trace:     trace,
	}, nil
}

func exportTrace(ctx context.Context, exporter TraceExporter, rec *Recovery) (*url.URL, error) {
	buf := &bytes.Buffer{}
	if err := rec.WriteCSV(buf); err != nil {
		return nil, err
	}
	return exporter.PutTrace(ctx, rec.ObjectName(), buf.Bytes())
}
