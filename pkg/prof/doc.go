// Package prof provides on-demand CPU profiling for the pictools command.
//
// It wraps [runtime/pprof] behind the "profile" build tag:
//
//	go build -tags profile
//
// When built without the tag all exported functions are no-ops, so the
// command line flag wiring stays in place without overhead in release
// builds.
package prof
