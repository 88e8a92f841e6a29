package utils

import (
	"os"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
// Used for human-readable print paths.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// Integer Formatting — No strconv, No fmt
///////////////////////////////////////////////////////////////////////////////

// Itoa formats a signed integer into a freshly stacked buffer. Only used on
// cold diagnostic paths; steady-state code never formats numbers.
//
//go:nosplit
//go:inline
func Itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Ftoa3 formats a float in [0, ~1000) with three decimal places. Enough for
// printing ring strengths and thresholds on diagnostic paths; not a general
// float formatter.
//
//go:inline
func Ftoa3(f float64) string {
	if f < 0 {
		return "-" + Ftoa3(-f)
	}
	whole := int(f)
	milli := int((f-float64(whole))*1000 + 0.5)
	if milli >= 1000 {
		whole++
		milli -= 1000
	}
	frac := Itoa(milli)
	for len(frac) < 3 {
		frac = "0" + frac
	}
	return Itoa(whole) + "." + frac
}

///////////////////////////////////////////////////////////////////////////////
// Diagnostic Output — Direct fd-2 Writes
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to stderr. No fmt, no locking, no buffering;
// a single write(2) so concurrent cold-path callers interleave at line
// granularity at worst.
//
//go:nosplit
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

///////////////////////////////////////////////////////////////////////////////
// Fast Loaders — Unaligned 64-Bit Reads
///////////////////////////////////////////////////////////////////////////////

// Load64 reads an unaligned 64-bit word from a byte slice.
// ⚠️ Caller guarantees len(b) >= 8.
//
//go:nosplit
//go:inline
func Load64(b []byte) uint64 {
	return *(*uint64)(unsafe.Pointer(&b[0]))
}

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers — Id Spreading & Drift Fixtures
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// Used to decorrelate bus-assigned command identifiers in stress tests and to
// derive deterministic drift fixtures for the adaptive crystal family.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
