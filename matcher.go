package uregex

import "github.com/coregx/uregex/vm"

// Matcher drives repeated match attempts of one compiled Pattern against one
// subject string, tracking region and bounds state across calls the way
// spec §6.4's public matcher API describes. A Matcher owns exclusive
// mutable state and must not be shared across goroutines (spec §5); the
// underlying Pattern may be.
type Matcher struct {
	pat *Pattern
	vm  *vm.Matcher

	matched    bool
	lastGroups []vm.Span

	appendPos int
}

// Reset rebinds the Matcher to a new subject string, clearing the region
// and match state back to their defaults; the anchoring and transparent
// bounds settings are left as they were.
func (m *Matcher) Reset(input string) {
	m.vm.Reset(input)
	m.matched = false
	m.lastGroups = nil
	m.appendPos = 0
}

// ResetIndex clears match state without changing the subject string or
// region, equivalent to forgetting the previous match.
func (m *Matcher) ResetIndex() {
	m.matched = false
	m.lastGroups = nil
}

// SetRegion restricts Matches/LookingAt/Find to [start, limit), spec §6.4's
// region(start, limit).
func (m *Matcher) SetRegion(start, limit int) {
	m.vm.Region(start, limit)
	m.matched = false
	m.lastGroups = nil
}

// UseAnchoringBounds controls whether ^/$/\A/\Z/\z test against the region
// (default, true) or the whole input (false).
func (m *Matcher) UseAnchoringBounds(v bool) { m.vm.UseAnchoringBounds(v) }

// UseTransparentBounds controls whether lookaround and \b can see input
// outside the region: true is "transparent" (they see the whole input),
// false (the default) is "opaque" (they see only the region).
func (m *Matcher) UseTransparentBounds(v bool) { m.vm.UseTransparentBounds(v) }

// HitEnd reports whether the last match attempt examined input all the way
// to its end; useful for streaming callers deciding whether more input
// might change the result.
func (m *Matcher) HitEnd() bool { return m.vm.HitEnd() }

// RequireEnd reports whether the last successful match would be invalidated
// by appending more input at its end (i.e. it ended exactly at the region
// limit, possibly due to $ or end-of-input assertions).
func (m *Matcher) RequireEnd() bool { return m.vm.RequireEnd() }

// SetTimeLimit bounds a single match attempt's instruction-dispatch tick
// count (spec §5); n <= 0 means unlimited.
func (m *Matcher) SetTimeLimit(n int64) { m.vm.SetTimeLimit(n) }

// SetStackLimit bounds the backtracking stack to n bytes (spec §5); n <= 0
// means unlimited. Resets the matcher's in-progress state.
func (m *Matcher) SetStackLimit(n int) {
	m.vm.SetStackLimit(n)
	m.matched = false
	m.lastGroups = nil
}

// SetMatchCallback installs a callback polled periodically during a match
// attempt (spec §5); returning false aborts the attempt with
// vm.ErrStoppedByCaller.
func (m *Matcher) SetMatchCallback(fn func() bool) { m.vm.MatchCallback = fn }

// SetFindProgressCallback installs a callback invoked between Find()
// candidate start positions; returning false aborts Find.
func (m *Matcher) SetFindProgressCallback(fn func(pos int) bool) {
	m.vm.FindProgressCallback = fn
}

// Matches reports whether the entire region matches the pattern.
func (m *Matcher) Matches() (bool, error) {
	match, ok, err := m.vm.Matches()
	return m.record(match, ok, err)
}

// LookingAt reports whether the pattern matches a prefix of the region
// starting exactly at its start, without requiring the match to reach the
// region's end.
func (m *Matcher) LookingAt() (bool, error) {
	match, ok, err := m.vm.LookingAt()
	return m.record(match, ok, err)
}

// Find searches for the next match at or after the end of the previous
// match (or the region start, if there was none), spec §6.4's find().
func (m *Matcher) Find() (bool, error) {
	from := m.vm.RegionStart()
	if m.matched {
		from = m.lastGroups[0].End
		if from == m.lastGroups[0].Start {
			from++ // zero-length match: force the next attempt to advance
		}
	}
	match, ok, err := m.vm.Find(from)
	return m.record(match, ok, err)
}

// FindFrom searches for the next match at or after byte offset from,
// spec §6.4's find(start).
func (m *Matcher) FindFrom(start int) (bool, error) {
	match, ok, err := m.vm.Find(start)
	return m.record(match, ok, err)
}

func (m *Matcher) record(match *vm.Match, ok bool, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	m.matched = true
	m.lastGroups = match.Groups
	return true, nil
}

// GroupCount returns the number of capture groups, not counting group 0.
func (m *Matcher) GroupCount() int { return m.pat.NumSubexp() }

// Group returns the text matched by group i (0 is the whole match), or ""
// if group i did not participate in the match.
func (m *Matcher) Group(i int) string {
	s, e := m.span(i)
	if s < 0 {
		return ""
	}
	return m.vm.Input()[s:e]
}

// GroupName returns the text matched by the named capture group, or "" if
// the name is unknown or the group did not participate.
func (m *Matcher) GroupName(name string) string {
	i, ok := m.pat.compiled.NumberForName(name)
	if !ok {
		return ""
	}
	return m.Group(i)
}

// Start returns the byte offset of the start of the whole match.
func (m *Matcher) Start() int { s, _ := m.span(0); return s }

// StartGroup returns the byte offset of the start of group i, or -1 if the
// group did not participate.
func (m *Matcher) StartGroup(i int) int { s, _ := m.span(i); return s }

// End returns the byte offset just past the end of the whole match.
func (m *Matcher) End() int { _, e := m.span(0); return e }

// EndGroup returns the byte offset just past the end of group i, or -1 if
// the group did not participate.
func (m *Matcher) EndGroup(i int) int { _, e := m.span(i); return e }

func (m *Matcher) span(i int) (int, int) {
	if !m.matched || i < 0 || i >= len(m.lastGroups) {
		return -1, -1
	}
	sp := m.lastGroups[i]
	if sp.Start < 0 {
		return -1, -1
	}
	return sp.Start, sp.End
}
