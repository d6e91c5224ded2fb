// Package pkg provides shared utilities for pictools.
//
// This package contains common functionality used across the descriptor
// table, the programmer protocol client, and the command line tool,
// including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for transport and codec faults
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with pictools-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentProgrammer, "connected", "port", "/dev/ttyACM0")
//
// # Errors
//
// Common faults are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrChecksum) {
//	    // Corrupt packet on the wire
//	}
//
// Protocol error codes reported by the programmer itself are typed
// separately in the programmer package.
package pkg
