package modular

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	ErrNotInvertible        = errors.New("not invertible")
	ErrInvalidCongruenceSet = errors.New("invalid congruence set")
	ErrOverflow             = errors.New("modulus overflows 64 bits")
	ErrZeroModulus          = errors.New("zero modulus")
)

// Mul returns x*y mod m without overflowing.
func Mul(x, y, m uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	return bits.Rem64(hi, lo, m)
}

// Add returns x+y mod m. x and y must already be reduced.
func Add(x, y, m uint64) uint64 {
	if x >= m-y {
		return x - (m - y)
	}
	return x + y
}

// Sub returns x-y mod m. x and y must already be reduced.
func Sub(x, y, m uint64) uint64 {
	if x >= y {
		return x - y
	}
	return m - (y - x)
}

// Pow returns x^e mod m by square and multiply.
func Pow(x, e, m uint64) uint64 {
	if m == 1 {
		return 0
	}
	r := uint64(1)
	x %= m
	for e > 0 {
		if e&1 == 1 {
			r = Mul(r, x, m)
		}
		x = Mul(x, x, m)
		e >>= 1
	}
	return r
}

func GCD(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Inverse returns x^-1 mod m, or ErrNotInvertible when gcd(x, m) != 1.
func Inverse(x, m uint64) (uint64, error) {
	if m == 0 {
		return 0, ErrZeroModulus
	}
	if m == 1 {
		return 0, nil
	}
	x %= m
	if GCD(x, m) != 1 {
		return 0, fmt.Errorf("%w: %d mod %d", ErrNotInvertible, x, m)
	}

	// extended euclid, keeping the coefficient of x reduced mod m so that it
	// never goes negative
	var t, newT uint64 = 0, 1
	r, newR := m, x
	for newR != 0 {
		q := r / newR
		t, newT = newT, Sub(t, Mul(q, newT, m), m)
		r, newR = newR, r-q*newR
	}
	return t, nil
}

// Congruence is x = Residue (mod Modulus).
type Congruence struct {
	Residue uint64
	Modulus uint64
}

func (c Congruence) String() string {
	return fmt.Sprintf("%d mod %d", c.Residue, c.Modulus)
}

// CRT returns the unique solution of the congruences modulo the product of
// their moduli, together with that product. The moduli must be pairwise
// coprime.
func CRT(congruences []Congruence) (uint64, uint64, error) {
	x, n := uint64(0), uint64(1)
	for _, c := range congruences {
		if c.Modulus == 0 {
			return 0, 0, fmt.Errorf("%w: %v", ErrZeroModulus, c)
		}
		if GCD(n, c.Modulus) != 1 {
			return 0, 0, fmt.Errorf("%w: %v shares a factor with %d", ErrInvalidCongruenceSet, c, n)
		}
		hi, product := bits.Mul64(n, c.Modulus)
		if hi != 0 {
			return 0, 0, fmt.Errorf("%w: %d * %d", ErrOverflow, n, c.Modulus)
		}

		inv, err := Inverse(n%c.Modulus, c.Modulus)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrInvalidCongruenceSet, err)
		}
		// x' = x + n * ((r - x) * n^-1 mod q), which stays below n*q
		diff := Sub(c.Residue%c.Modulus, x%c.Modulus, c.Modulus)
		x += n * Mul(diff, inv, c.Modulus)
		n = product
	}
	return x, n, nil
}

// Coprime reports ErrInvalidCongruenceSet if any two moduli share a factor.
func Coprime(moduli []uint64) error {
	for i := range moduli {
		for j := i + 1; j < len(moduli); j++ {
			if GCD(moduli[i], moduli[j]) != 1 {
				return fmt.Errorf("%w: %d and %d", ErrInvalidCongruenceSet, moduli[i], moduli[j])
			}
		}
	}
	return nil
}
