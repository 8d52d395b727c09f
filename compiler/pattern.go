package compiler

import (
	"github.com/dolthub/swiss"

	"github.com/coregx/uregex/internal/ucd"
)

// Flags holds the compile-time mode flags from spec §6.2. Every flag
// defaults off.
type Flags uint32

const (
	CaseInsensitive Flags = 1 << iota
	Comments
	DotAll
	Multiline
	UnixLines
	UWord
	ErrorOnUnknownEscapes
	Literal
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// StartType is the find() strategy hint computed by optimization pass 2
// (spec §4.4).
type StartType int

const (
	StartNoInfo StartType = iota
	StartAtStart
	StartLine
	StartChar
	StartString
	StartSet
)

// UnreachableLen is the sentinel spec §3 calls UNREACHABLE: no input length
// can satisfy the pattern.
const UnreachableLen = int(^uint(0) >> 1)

// Pattern is the compiler's output and the matcher's input: an immutable,
// linear bytecode program plus the ancillary metadata spec §3 enumerates.
// A *Pattern is safe to share across goroutines/Matchers once compiled.
type Pattern struct {
	Source string
	Flags  Flags

	Code        []uint32
	LiteralText []rune
	SetPool     []*ucd.Set

	// GroupMap[g-1] is the frame-slot index holding capture group g's start
	// position; its end lives at slot+1.
	GroupMap []int
	// NamedCaptureMap maps a named group to its 1-based group number.
	NamedCaptureMap *swiss.Map[string, int]
	// namedCaptureOrder preserves insertion order for deterministic
	// SubexpNames()-style introspection; swiss.Map does not iterate in a
	// stable order.
	namedCaptureOrder []string

	DataSize  int
	FrameSize int

	MinMatchLen int
	StartType   StartType

	InitialChars     *ucd.Set
	InitialChar      rune
	InitialStringIdx int
	InitialStringLen int

	// InitialLiterals lists every distinct literal string the optimizer
	// found reachable from the start with no preceding variable-length
	// content, used by the prefilter package to drive an Aho-Corasick scan
	// when there is more than one (spec §4.4's STRING start type only names
	// a single string; a multi-literal generalization is this engine's
	// richer find() strategy -- see DESIGN.md).
	InitialLiterals [][]rune

	NeedsAltInput bool
}

// GroupCount returns the number of capture groups, not counting group 0 (the
// whole match).
func (p *Pattern) GroupCount() int { return len(p.GroupMap) }

// NumberForName resolves a named group to its 1-based group number.
func (p *Pattern) NumberForName(name string) (int, bool) {
	if p.NamedCaptureMap == nil {
		return 0, false
	}
	return p.NamedCaptureMap.Get(name)
}

// SubexpNames returns group 0 .. GroupCount names, "" for unnamed groups,
// mirroring the standard library's regexp.Regexp.SubexpNames shape.
func (p *Pattern) SubexpNames() []string {
	names := make([]string, p.GroupCount()+1)
	for _, name := range p.namedCaptureOrder {
		if num, ok := p.NumberForName(name); ok && num < len(names) {
			names[num] = name
		}
	}
	return names
}
