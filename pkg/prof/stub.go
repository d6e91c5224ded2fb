//go:build !profile

package prof

// Profiling errors (defined for API compatibility, never returned by stubs).
var (
	ErrCPUProfileActive    error
	ErrCPUProfileNotActive error
)

// StartCPU is a no-op when built without the "profile" tag.
func StartCPU(_ string) error {
	return nil
}

// StopCPU is a no-op when built without the "profile" tag.
func StopCPU() {}

// IsCPUActive always returns false when built without the "profile" tag.
func IsCPUActive() bool {
	return false
}
