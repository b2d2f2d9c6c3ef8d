package base64

import "fmt"

const CHAR = "0123456789-abcdefghijklmnopqrstuvwxyz_ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var index [256]int8

func init() {
	for i := range index {
		index[i] = -1
	}
	for i := 0; i < len(CHAR); i++ {
		index[CHAR[i]] = int8(i)
	}
}

// Encode writes the low 6*length bits of raw, most significant digit first.
func Encode(raw uint64, length int) []byte {
	b := make([]byte, length)
	for i := 0; i < length; i++ {
		b[length-i-1] = CHAR[(raw>>(uint(i)*6))&63]
	}
	return b
}

// Decode reverses Encode.
func Decode(b []byte) (uint64, error) {
	if len(b) > 11 || (len(b) == 11 && index[b[0]] > 15) {
		return 0, fmt.Errorf("%q overflows 64 bits", b)
	}
	var raw uint64
	for _, c := range b {
		v := index[c]
		if v < 0 {
			return 0, fmt.Errorf("invalid character %q in %q", c, b)
		}
		raw = raw<<6 | uint64(v)
	}
	return raw, nil
}

// Length is the number of digits Encode needs to keep every bit of max.
func Length(max uint64) int {
	l := 1
	for max >>= 6; max > 0; max >>= 6 {
		l++
	}
	return l
}
