package optimize

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// wideCompare is set when the CPU has vector units (AVX2 on x86_64, ASIMD on
// ARM64); on those, comparing 8-byte words beats byte loops for long spans.
var wideCompare bool

func init() {
	wideCompare = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD
}

// EqualSpan reports whether a and b hold the same bytes.
// Used by the URI matcher for literal pattern spans.
func EqualSpan(a, b string) bool {
	// Quick length check
	if len(a) != len(b) {
		return false
	}

	// For short strings, standard comparison is faster
	if len(a) < 16 || !wideCompare {
		return a == b
	}

	return equalWords(a, b)
}

// equalWords compares 8 bytes at a time, then the tail.
func equalWords(a, b string) bool {
	pa := unsafe.Slice(unsafe.StringData(a), len(a))
	pb := unsafe.Slice(unsafe.StringData(b), len(b))

	i := 0
	for ; i+8 <= len(pa); i += 8 {
		if binary.LittleEndian.Uint64(pa[i:]) != binary.LittleEndian.Uint64(pb[i:]) {
			return false
		}
	}
	for ; i < len(pa); i++ {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}
