// Package uregex is a Unicode-aware regular-expression engine with
// ICU/Java-compatible semantics: anchors, character classes, quantifiers,
// lookaround, backreferences, named captures, set-algebra character classes
// ([a-z&&[^aeiou]]), and full Unicode case folding.
//
// Compile builds a *Pattern (the immutable, shareable compiled program);
// NewMatcher drives repeated match attempts against one subject string the
// way java.util.regex.Matcher does, with region/bounds state and
// find/replace helpers. A small set of Regexp-shaped convenience methods on
// Pattern covers the common one-shot cases.
package uregex

import (
	"github.com/coregx/uregex/compiler"
	"github.com/coregx/uregex/vm"
)

// Flags holds the compile-time mode flags spec §6.2 defines, re-exported
// from the compiler package.
type Flags = compiler.Flags

// The mode flags spec §6.2 enumerates. All default off.
const (
	CaseInsensitive       = compiler.CaseInsensitive
	Comments              = compiler.Comments
	DotAll                = compiler.DotAll
	Multiline             = compiler.Multiline
	UnixLines             = compiler.UnixLines
	UWord                 = compiler.UWord
	ErrorOnUnknownEscapes = compiler.ErrorOnUnknownEscapes
	Literal               = compiler.Literal
)

// Pattern is a compiled regular expression: immutable after Compile and safe
// to share across goroutines and Matchers (spec §5).
type Pattern struct {
	compiled *compiler.Pattern
}

// Compile parses and compiles pattern with the given mode flags, spec §4's
// top-level pipeline. Returns *CompileError (position-annotated, spec §7) on
// failure.
func Compile(pattern string, flags Flags) (*Pattern, error) {
	p, err := compiler.Compile(pattern, flags)
	if err != nil {
		return nil, err
	}
	return &Pattern{compiled: p}, nil
}

// MustCompile is like Compile but panics on error, for package-level pattern
// constants known to be valid at compile time.
func MustCompile(pattern string, flags Flags) *Pattern {
	p, err := Compile(pattern, flags)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source text used to compile the pattern.
func (p *Pattern) String() string { return p.compiled.Source }

// NumSubexp returns the number of capture groups, not counting group 0 (the
// whole match).
func (p *Pattern) NumSubexp() int { return p.compiled.GroupCount() }

// SubexpNames returns group 0..NumSubexp names ("" for unnamed groups).
func (p *Pattern) SubexpNames() []string { return p.compiled.SubexpNames() }

// NewMatcher returns a Matcher binding p to input, spec §6.4's
// new_matcher(pattern, input).
func (p *Pattern) NewMatcher(input string) *Matcher {
	return &Matcher{
		pat:     p,
		vm:      vm.NewMatcher(p.compiled, input),
		matched: false,
	}
}

// MatchString reports whether input contains any match of p.
func (p *Pattern) MatchString(input string) bool {
	ok, _ := p.NewMatcher(input).Find()
	return ok
}

// FindString returns the leftmost match of p in input, or "" if none.
func (p *Pattern) FindString(input string) string {
	m := p.NewMatcher(input)
	if ok, _ := m.Find(); !ok {
		return ""
	}
	return m.Group(0)
}

// FindStringIndex returns the [start, end) byte offsets of the leftmost
// match of p in input, or nil if none.
func (p *Pattern) FindStringIndex(input string) []int {
	m := p.NewMatcher(input)
	if ok, _ := m.Find(); !ok {
		return nil
	}
	return []int{m.Start(), m.End()}
}

// FindStringSubmatch returns the leftmost match and its capture groups, with
// result[0] the whole match and result[i] group i ("" if group i did not
// participate). Returns nil if there is no match.
func (p *Pattern) FindStringSubmatch(input string) []string {
	m := p.NewMatcher(input)
	if ok, _ := m.Find(); !ok {
		return nil
	}
	out := make([]string, p.NumSubexp()+1)
	for i := range out {
		out[i] = m.Group(i)
	}
	return out
}

// FindAllStringSubmatch returns the capture groups for all successive,
// non-overlapping matches of p in input. If n >= 0 it returns at most n
// matches.
func (p *Pattern) FindAllStringSubmatch(input string, n int) [][]string {
	if n == 0 {
		return nil
	}
	m := p.NewMatcher(input)
	var out [][]string
	pos := 0
	for {
		ok, err := m.FindFrom(pos)
		if err != nil || !ok {
			break
		}
		groups := make([]string, p.NumSubexp()+1)
		for i := range groups {
			groups[i] = m.Group(i)
		}
		out = append(out, groups)
		end := m.End()
		if end > pos {
			pos = end
		} else {
			pos++
		}
		if pos > len(input) {
			break
		}
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out
}
