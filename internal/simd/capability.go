package simd

import (
	"os"
	"runtime"
	"strings"
)

// ISA represents a SIMD instruction set architecture.
type ISA uint8

const (
	// Generic represents the pure Go reference implementation.
	Generic ISA = iota
	// NEON represents ARM64 NEON width (4-lane chunks).
	NEON
	// AVX2 represents x86-64 AVX2 width (8-lane chunks).
	AVX2
)

// String returns the string representation of an ISA.
func (i ISA) String() string {
	switch i {
	case Generic:
		return "generic"
	case NEON:
		return "neon"
	case AVX2:
		return "avx2"
	default:
		return "unknown"
	}
}

// ParseISA parses a string into an ISA value.
func ParseISA(s string) (ISA, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "neon":
		return NEON, true
	case "avx2":
		return AVX2, true
	default:
		return Generic, false
	}
}

// Package-level state, initialized once at package init.
// No mutex needed: Go guarantees init() runs before any other code.
var (
	activeISA   ISA
	hasOverride bool

	// CPU feature flags (set by platform-specific init)
	hasASIMD bool // ARM64 NEON
	hasAVX2  bool // x86-64 AVX2
)

// initCapabilities is called from platform-specific init functions after CPU
// features are detected. It selects the backend exactly once.
func initCapabilities() {
	if override := os.Getenv("ORGANELLE_SIMD"); override != "" {
		if isa, ok := ParseISA(override); ok {
			hasOverride = true
			if isISAAvailable(isa) {
				activeISA = isa
				bindKernels()
				return
			}
			// Unavailable override - fall through to auto-detection
		}
	}

	activeISA = selectBestISA()
	bindKernels()
}

// isISAAvailable checks if an ISA is supported on this CPU.
func isISAAvailable(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return hasASIMD
	case AVX2:
		return hasAVX2
	default:
		return false
	}
}

// selectBestISA chooses the widest ISA for the current platform.
func selectBestISA() ISA {
	switch runtime.GOARCH {
	case "arm64":
		if hasASIMD {
			return NEON
		}
	case "amd64":
		if hasAVX2 {
			return AVX2
		}
	}
	return Generic
}

// bindKernels points the kernel entry points at the active backend.
func bindKernels() {
	switch activeISA {
	case AVX2:
		sumImpl = sumChunks8
		maxImpl = maxChunks8
	case NEON:
		sumImpl = sumChunks4
		maxImpl = maxChunks4
	default:
		sumImpl = sumGeneric
		maxImpl = maxGeneric
	}
}

// ActiveISA returns the backend selected at startup.
func ActiveISA() ISA {
	return activeISA
}

// IsOverridden returns true if ORGANELLE_SIMD was set to a recognized value.
func IsOverridden() bool {
	return hasOverride
}
