//go:build !statsview
// +build !statsview

package statsview

import "io"

// Launch does nothing without the statsview tag.
func Launch(addr string, output io.Writer) (stop func()) {
	return func() {}
}

func Available() bool {
	return false
}
