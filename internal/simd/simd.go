// Package simd provides byte-scanning primitives used by the find() start-type
// strategies (see package prefilter): single-byte search, substring search and
// 256-entry table membership search, all in the SWAR (SIMD-within-a-register)
// style so a plain Go build gets most of the benefit of real vector
// instructions without needing an assembler.
//
// The package also exposes a runtime AVX2 capability gate (HasAVX2) backed by
// golang.org/x/sys/cpu; chunkThreshold in this package reads it to pick a
// wider chunk size for the generic scan loops below. The vm package does not
// use it.
package simd

import (
	"bytes"
	"encoding/binary"
	"math/bits"
)

// Memchr returns the index of the first instance of needle in haystack, or -1.
func Memchr(haystack []byte, needle byte) int {
	n := len(haystack)
	if n == 0 {
		return -1
	}
	if n < chunkThreshold() {
		for i := 0; i < n; i++ {
			if haystack[i] == needle {
				return i
			}
		}
		return -1
	}

	mask := uint64(needle) * 0x0101010101010101
	i := 0
	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(haystack[i:])
		if z := hasZeroByte(chunk ^ mask); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
		i += 8
	}
	for ; i < n; i++ {
		if haystack[i] == needle {
			return i
		}
	}
	return -1
}

// Memchr2 returns the index of the first instance of needle1 or needle2.
func Memchr2(haystack []byte, needle1, needle2 byte) int {
	n := len(haystack)
	if n == 0 {
		return -1
	}
	if n < chunkThreshold() {
		for i := 0; i < n; i++ {
			if b := haystack[i]; b == needle1 || b == needle2 {
				return i
			}
		}
		return -1
	}

	m1 := uint64(needle1) * 0x0101010101010101
	m2 := uint64(needle2) * 0x0101010101010101
	i := 0
	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(haystack[i:])
		z := hasZeroByte(chunk^m1) | hasZeroByte(chunk^m2)
		if z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
		i += 8
	}
	for ; i < n; i++ {
		if b := haystack[i]; b == needle1 || b == needle2 {
			return i
		}
	}
	return -1
}

func hasZeroByte(v uint64) uint64 {
	const lo8 = 0x0101010101010101
	const hi8 = 0x8080808080808080
	return (v - lo8) & ^v & hi8
}

// chunkThreshold returns the minimum haystack length worth entering the SWAR
// chunked loop for. Wider CPU vector units amortize the chunk setup cost over
// more bytes, so the AVX2-capable path waits for a larger input before
// bothering with chunking.
func chunkThreshold() int {
	if HasAVX2 {
		return 16
	}
	return 8
}

// Memmem returns the index of the first instance of needle in haystack, or -1.
//
// It uses a rare-byte heuristic: search for the needle's last byte with
// Memchr, then verify the full needle at each candidate. This turns an O(n*m)
// worst case search into an O(n) expected-case one for typical literals.
func Memmem(haystack, needle []byte) int {
	needleLen := len(needle)
	haystackLen := len(haystack)

	if needleLen == 0 {
		return 0
	}
	if haystackLen == 0 || needleLen > haystackLen {
		return -1
	}
	if needleLen == 1 {
		return Memchr(haystack, needle[0])
	}

	rareIdx := needleLen - 1
	rareByte := needle[rareIdx]

	searchStart := 0
	for {
		cand := Memchr(haystack[searchStart:], rareByte)
		if cand == -1 {
			return -1
		}
		cand += searchStart

		start := cand - rareIdx
		if start < 0 || start+needleLen > haystackLen {
			searchStart = cand + 1
			if searchStart >= haystackLen {
				return -1
			}
			continue
		}
		if bytes.Equal(haystack[start:start+needleLen], needle) {
			return start
		}
		searchStart = cand + 1
		if searchStart >= haystackLen {
			return -1
		}
	}
}

// MemchrInTable finds the first byte b in haystack for which table[b] is true.
// Returns -1 if none is found. The prefilter package's SET start-type scan
// does not call it; it decodes runes and tests set membership directly.
func MemchrInTable(haystack []byte, table *[256]bool) int {
	if len(haystack) == 0 || table == nil {
		return -1
	}
	for i, b := range haystack {
		if table[b] {
			return i
		}
	}
	return -1
}
