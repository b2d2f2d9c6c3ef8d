// Package statsview serves live runtime charts and pprof for the service.
//
// The dashboard is compiled in only with
//
//	go build -tags statsview
//
// Without the tag Launch is a no-op and Available reports false, so callers
// need no build constraints of their own.
package statsview
