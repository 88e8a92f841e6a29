package utils

import "testing"

// TestB2s checks the zero-copy cast for normal, empty, and nil inputs.
func TestB2s(t *testing.T) {
	if got := B2s([]byte("hello")); got != "hello" {
		t.Fatalf("B2s = %q", got)
	}
	if got := B2s(nil); got != "" {
		t.Fatalf("B2s(nil) = %q", got)
	}
	if got := B2s([]byte{}); got != "" {
		t.Fatalf("B2s(empty) = %q", got)
	}
}

// TestB2s_ZeroAllocation confirms the cast never touches the heap.
func TestB2s_ZeroAllocation(t *testing.T) {
	b := []byte("allocation probe")
	allocs := testing.AllocsPerRun(100, func() {
		_ = B2s(b)
	})
	if allocs != 0 {
		t.Fatalf("B2s allocated %.1f times per run", allocs)
	}
}

// TestItoa covers zero, positives, negatives, and boundary magnitudes.
func TestItoa(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{-1, "-1"},
		{-65536, "-65536"},
		{1000000, "1000000"},
	}
	for _, tc := range cases {
		if got := Itoa(tc.in); got != tc.want {
			t.Errorf("Itoa(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestFtoa3 pins the three-decimal diagnostic formatter, including the
// carry at .9995 and above.
func TestFtoa3(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.000"},
		{0.5, "0.500"},
		{0.9995, "1.000"},
		{1.25, "1.250"},
		{-0.75, "-0.750"},
	}
	for _, tc := range cases {
		if got := Ftoa3(tc.in); got != tc.want {
			t.Errorf("Ftoa3(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestLoad64 checks the unaligned little-endian load.
func TestLoad64(t *testing.T) {
	b := []byte{1, 0, 0, 0, 0, 0, 0, 0, 0xff}
	if got := Load64(b); got != 1 {
		t.Fatalf("Load64 = %d, want 1", got)
	}
}

// TestMix64 verifies determinism and that the avalanche actually moves
// bits: distinct small inputs never collide across a broad sample.
func TestMix64(t *testing.T) {
	if Mix64(12345) != Mix64(12345) {
		t.Fatal("Mix64 not deterministic")
	}
	seen := make(map[uint64]uint64, 4096)
	for i := uint64(0); i < 4096; i++ {
		h := Mix64(i)
		if prev, dup := seen[h]; dup {
			t.Fatalf("Mix64 collision: %d and %d", prev, i)
		}
		seen[h] = i
	}
	if Mix64(0) == 0 {
		// Murmur3 finalizer maps 0 to 0; that is expected and documented
		// behavior, callers seed with non-zero values.
		t.Log("Mix64(0) == 0 (finalizer fixpoint)")
	}
}
