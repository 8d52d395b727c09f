// Package prefilter implements the find() start-position strategies spec
// §4.4 and §4.5 describe: given a compiled Pattern's StartType, scan the
// input for the next position a match could possibly begin, so the vm
// package's backtracking interpreter is only ever invoked at positions worth
// trying. Patterns with StartNoInfo fall back to trying every position.
package prefilter

import (
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/uregex/compiler"
	"github.com/coregx/uregex/internal/simd"
)

// Prefilter advances a search cursor to the next candidate start offset (a
// byte index into input) at or after from, or reports no candidate remains.
type Prefilter interface {
	Next(input []byte, from int) (int, bool)
}

// Build returns the Prefilter matching p's optimizer-assigned StartType, or
// nil if p.StartType is StartNoInfo (no filtering possible; the matcher must
// try every position).
func Build(p *compiler.Pattern) Prefilter {
	switch p.StartType {
	case compiler.StartAtStart:
		return atStart{}
	case compiler.StartChar:
		return &charFilter{ch: p.InitialChar}
	case compiler.StartString:
		if len(p.InitialLiterals) > 1 {
			return newMultiLiteralFilter(p.InitialLiterals)
		}
		return &stringFilter{lit: runeSliceToBytes(firstLiteral(p))}
	case compiler.StartSet:
		return &setFilter{set: p.InitialChars}
	case compiler.StartLine:
		return &lineFilter{}
	default:
		return nil
	}
}

func firstLiteral(p *compiler.Pattern) []rune {
	if len(p.InitialLiterals) == 0 {
		return nil
	}
	return p.InitialLiterals[0]
}

func runeSliceToBytes(rs []rune) []byte {
	if rs == nil {
		return nil
	}
	n := 0
	for _, r := range rs {
		n += utf8.RuneLen(r)
	}
	out := make([]byte, 0, n)
	for _, r := range rs {
		var buf [utf8.UTFMax]byte
		w := utf8.EncodeRune(buf[:], r)
		out = append(out, buf[:w]...)
	}
	return out
}

// atStart only ever offers the first byte position (anchored patterns,
// \A or unconditional ^).
type atStart struct{}

func (atStart) Next(input []byte, from int) (int, bool) {
	if from == 0 {
		return 0, true
	}
	return 0, false
}

// charFilter scans for a single fixed leading rune using internal/simd's
// byte-oriented scanners when the rune is ASCII (the common case), falling
// back to a rune-aware scan otherwise.
type charFilter struct {
	ch rune
}

func (f *charFilter) Next(input []byte, from int) (int, bool) {
	if from >= len(input) {
		return 0, false
	}
	if f.ch < utf8.RuneSelf {
		idx := simd.Memchr(input[from:], byte(f.ch))
		if idx < 0 {
			return 0, false
		}
		return from + idx, true
	}
	for i := from; i < len(input); {
		r, w := utf8.DecodeRune(input[i:])
		if r == f.ch {
			return i, true
		}
		i += w
	}
	return 0, false
}

// stringFilter scans for a single fixed leading literal string using
// internal/simd's Memmem.
type stringFilter struct {
	lit []byte
}

func (f *stringFilter) Next(input []byte, from int) (int, bool) {
	if from >= len(input) || len(f.lit) == 0 {
		return 0, false
	}
	idx := simd.Memmem(input[from:], f.lit)
	if idx < 0 {
		return 0, false
	}
	return from + idx, true
}

// multiLiteralFilter scans for any of several fixed leading alternatives
// using github.com/coregx/ahocorasick, wired in whenever the optimizer finds
// more than one reachable initial literal (e.g. "cat|dog|bird").
type multiLiteralFilter struct {
	automaton *ahocorasick.Automaton
}

func newMultiLiteralFilter(lits [][]rune) Prefilter {
	builder := ahocorasick.NewBuilder()
	for _, lit := range lits {
		builder.AddPattern(runeSliceToBytes(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &multiLiteralFilter{automaton: auto}
}

func (f *multiLiteralFilter) Next(input []byte, from int) (int, bool) {
	if from >= len(input) {
		return 0, false
	}
	m := f.automaton.Find(input, from)
	if m == nil {
		return 0, false
	}
	return m.Start, true
}

// setFilter scans for the first position whose decoded rune is a member of
// a small fixed character set, with a plain rune-decoding loop.
type setFilter struct {
	set interface {
		Contains(r rune) bool
	}
}

func (f *setFilter) Next(input []byte, from int) (int, bool) {
	if f.set == nil {
		return 0, false
	}
	for i := from; i < len(input); {
		r, w := utf8.DecodeRune(input[i:])
		if f.set.Contains(r) {
			return i, true
		}
		i += w
	}
	return 0, false
}

// lineFilter offers every line-start position (position 0, and every
// position immediately following a line terminator: '\n', '\r', U+0085,
// U+2028 or U+2029), for CARET_M / CARET_M_UNIX patterns.
type lineFilter struct{}

func (lineFilter) Next(input []byte, from int) (int, bool) {
	if from == 0 {
		return 0, true
	}
	for i := from; i <= len(input); {
		r, _ := utf8.DecodeLastRune(input[:i])
		switch r {
		case '\n', '\r', 0x85, 0x2028, 0x2029:
			return i, true
		}
		if i == len(input) {
			break
		}
		_, w := utf8.DecodeRune(input[i:])
		i += w
	}
	return 0, false
}
