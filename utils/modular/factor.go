package modular

import (
	"math/big"
	"sort"
	"sync"
)

// Factors maps a prime to its exponent.
type Factors map[uint64]int

// Primes returns the primes of the factorisation in ascending order.
func (f Factors) Primes() []uint64 {
	primes := make([]uint64, 0, len(f))
	for p := range f {
		primes = append(primes, p)
	}
	sort.Slice(primes, func(i, j int) bool { return primes[i] < primes[j] })
	return primes
}

// Components returns the prime powers p^e of the factorisation in ascending
// order of p. They are pairwise coprime by construction.
func (f Factors) Components() []uint64 {
	primes := f.Primes()
	components := make([]uint64, len(primes))
	for i, p := range primes {
		q := uint64(1)
		for e := 0; e < f[p]; e++ {
			q *= p
		}
		components[i] = q
	}
	return components
}

// product multiplies the factorisation back out.
func (f Factors) product() uint64 {
	n := uint64(1)
	for _, q := range f.Components() {
		n *= q
	}
	return n
}

const trialLimit = 1 << 16

var cache sync.Map

// Factorize returns the prime factorisation of n. Results are cached per n and
// callers must not modify the returned map.
func Factorize(n uint64) Factors {
	if f, ok := cache.Load(n); ok {
		return f.(Factors)
	}
	f := factorize(n)
	actual, _ := cache.LoadOrStore(n, f)
	return actual.(Factors)
}

func factorize(n uint64) Factors {
	f := Factors{}
	if n < 2 {
		return f
	}

	for n%2 == 0 {
		f[2]++
		n /= 2
	}
	for p := uint64(3); p < trialLimit && p*p <= n; p += 2 {
		for n%p == 0 {
			f[p]++
			n /= p
		}
	}

	// whatever is left has no factor below trialLimit
	var split func(n uint64)
	split = func(n uint64) {
		if n == 1 {
			return
		}
		if isPrime(n) {
			f[n]++
			return
		}
		d := rho(n)
		split(d)
		split(n / d)
	}
	split(n)

	return f
}

// isPrime is exact for 64 bit values: ProbablyPrime(0) runs Baillie-PSW,
// which has no known counterexample below 2^64.
func isPrime(n uint64) bool {
	return new(big.Int).SetUint64(n).ProbablyPrime(0)
}

// rho returns a non-trivial factor of the odd composite n using Pollard's rho
// with Brent's cycle detection.
func rho(n uint64) uint64 {
	for c := uint64(1); ; c++ {
		f := func(x uint64) uint64 { return Add(Mul(x, x, n), c%n, n) }

		x, y, d := uint64(2), uint64(2), uint64(1)
		for power, lam := uint64(1), uint64(1); d == 1; {
			if power == lam {
				x = y
				power <<= 1
				lam = 0
			}
			y = f(y)
			lam++
			diff := x - y
			if y > x {
				diff = y - x
			}
			d = GCD(diff, n)
		}
		if d != n {
			return d
		}
	}
}
