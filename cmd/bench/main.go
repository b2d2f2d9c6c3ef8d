package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/profile"

	"github.com/iochen/lcgrewind/lcg"
)

func main() {
	modulus := flag.Uint64("modulus", 1<<30-1, "generator modulus")
	multiplier := flag.Uint64("multiplier", 3, "generator multiplier")
	increment := flag.Uint64("increment", 0, "generator increment")
	n := flag.Int("n", 100000, "steps to walk back")
	runs := flag.Int("runs", 10, "walks to time")
	flag.Parse()

	defer profile.Start().Stop()

	rand.Seed(time.Now().UnixNano())

	gen, err := lcg.New(*modulus, *multiplier, *increment)
	if err != nil {
		panic(err)
	}

	filename := fmt.Sprintf("%v-%v-%v.metrics", *modulus, *multiplier, *n)
	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	fmt.Fprintf(file, "Run |  Forward |     Back | Advance\n")
	fmt.Fprintf(file, "------------------------------------\n")

	for run := 0; run < *runs; run++ {
		start := lcg.State{A: rand.Uint64() % gen.Modulus, B: rand.Uint64() % gen.Modulus}

		t0 := time.Now()
		s := start
		outputs := make([]uint64, 0, *n+1)
		outputs = append(outputs, s.A)
		for i := 0; i < *n; i++ {
			s, _ = gen.Step(s)
			outputs = append(outputs, s.A)
		}
		forward := time.Since(t0)

		t0 = time.Now()
		got, err := gen.WalkBack(s, *n, outputs)
		if err != nil {
			panic(err)
		}
		back := time.Since(t0)
		if got != start {
			panic(fmt.Sprintf("walked back to %v, want %v", got, start))
		}

		t0 = time.Now()
		if jumped := gen.Advance(start, uint64(*n)); jumped != s {
			panic(fmt.Sprintf("advanced to %v, want %v", jumped, s))
		}
		advance := time.Since(t0)

		fmt.Fprintf(file, "%3v | %8v | %8v | %7v\n", run, forward.Round(time.Microsecond), back.Round(time.Microsecond), advance.Round(time.Microsecond))
	}
}
