//go:build statsview
// +build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Launch starts the dashboard on addr in the background, prints where to find
// it and returns a function that shuts it down.
func Launch(addr string, output io.Writer) (stop func()) {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	views := statsview.New()
	go views.Start()

	fmt.Fprintf(output, "charts on http://%s/debug/statsview, pprof on http://%s/debug/pprof/\n", addr, addr)
	return views.Stop
}

func Available() bool {
	return true
}
