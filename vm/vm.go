// Package vm implements the backtracking bytecode interpreter spec §3 and §5
// describe: a Matcher executes a compiled *compiler.Pattern against an input
// string using an explicit heap-allocated backtracking stack (no host-stack
// recursion), favoring explicit state over recursive descent in hot paths.
package vm

import (
	"unicode"
	"unicode/utf8"

	"github.com/coregx/uregex/compiler"
	"github.com/coregx/uregex/internal/container"
	"github.com/coregx/uregex/internal/ucd"
	"github.com/coregx/uregex/opcode"
	"github.com/coregx/uregex/prefilter"
)

// Limits bounds a single match attempt's resource consumption, spec §5's
// resource model: a tick budget (roughly, instructions executed) and a
// backtracking stack byte ceiling. NewMatcher starts from DefaultLimits.
type Limits struct {
	MaxTicks     int64
	MaxStackBytes int
}

var DefaultLimits = Limits{MaxTicks: 50_000_000, MaxStackBytes: 64 << 20}

// ErrTimeout is returned by Find/Matches when a match attempt exceeds its
// tick budget -- the bytecode equivalent of ICU's U_REGEX_TIME_OUT.
type ErrTimeout struct{}

func (ErrTimeout) Error() string { return "uregex: match exceeded time/tick limit" }

// ErrStackOverflow is returned when the backtracking stack exceeds its byte
// ceiling -- ICU's U_REGEX_STACK_OVERFLOW.
type ErrStackOverflow struct{}

func (ErrStackOverflow) Error() string { return "uregex: backtracking stack overflow" }

// Match reports one successful match: group 0 is the whole match, groups
// 1..N are capture groups (a Span{-1, -1} entry means that group did not
// participate).
type Match struct {
	Groups []Span
}

// Span is a [Start, End) byte-offset range into the subject string, or
// {-1,-1} for a group that did not participate in the match.
type Span struct {
	Start, End int
}

func (s Span) valid() bool { return s.Start >= 0 }

// Matcher runs repeated match attempts of one compiled Pattern against one
// subject string, tracking region/anchoring-bounds state across calls the
// way java.util.regex.Matcher does (spec §6.4).
type Matcher struct {
	pat   *compiler.Pattern
	input string
	// inputBytes mirrors input as a byte slice for the prefilter package,
	// which scans with byte-oriented routines (internal/simd, ahocorasick).
	inputBytes []byte
	// pf is pat's find() start strategy (spec §4.4): nil when pat.StartType
	// is StartNoInfo, in which case Find tries every candidate offset.
	pf prefilter.Prefilter

	regionStart, regionEnd int
	transparentBounds      bool
	useAnchoringBounds     bool

	// activeStart/activeLimit are the bounds most opcodes actually consult
	// (spec §3/§4.5's "active region"): the region by default, switching to
	// the look region for the duration of a lookaround (LA_START/LB_START
	// through their matching END), then switching back.
	activeStart, activeLimit int

	limits Limits

	frame []int64
	data  []int64
	stack *container.Int64Vector

	hitEnd, requireEnd bool

	prevMatchEnd int
	haveMatch    bool

	// MatchCallback is invoked every TickCallbackInterval state saves during
	// an attempt (spec §5's match-progress callback); returning false aborts
	// the attempt with ErrStoppedByCaller.
	MatchCallback func() bool
	// FindProgressCallback is invoked between Find() candidate positions
	// (spec §5's find-progress callback); returning false aborts Find with
	// ErrStoppedByCaller.
	FindProgressCallback func(pos int) bool

	tickCount int64
}

// TickCallbackInterval mirrors ICU's TIMER_INITIAL_VALUE: MatchCallback is
// polled once every this many state saves, not on every opcode dispatch.
const TickCallbackInterval = 10000

// LOOP_DOT_I's operand selects which of the three DOTANY variants the loop
// scans for, mirroring compiler.compileDot's choice.
const (
	dotLoopDefault = 0
	dotLoopUnix    = 1
	dotLoopAll     = 2
)

// ErrStoppedByCaller is returned when a user-supplied callback requests
// early termination (spec §7's STOPPED_BY_CALLER).
type ErrStoppedByCaller struct{}

func (ErrStoppedByCaller) Error() string { return "uregex: match stopped by caller callback" }

// SetTimeLimit bounds a single match attempt to n instruction-dispatch ticks
// (n <= 0 means unlimited), ICU's set_time_limit.
func (m *Matcher) SetTimeLimit(n int64) {
	if n <= 0 {
		m.limits.MaxTicks = 1 << 62
		return
	}
	m.limits.MaxTicks = n
}

// SetStackLimit bounds the backtracking stack to n bytes (n <= 0 means
// unlimited), ICU's set_stack_limit. Setting a new limit resets the matcher
// (spec §5): any live frame holding captures is discarded.
func (m *Matcher) SetStackLimit(n int) {
	if n <= 0 {
		m.limits.MaxStackBytes = 1 << 62
	} else {
		m.limits.MaxStackBytes = n
	}
	m.haveMatch = false
	m.prevMatchEnd = -1
	if m.stack != nil {
		m.stack.Reset()
	}
}

// NewMatcher returns a Matcher for pat over input, with the region set to
// the whole string and both bounds modes at their spec §6.4 defaults
// (anchoring bounds on, transparent bounds off).
func NewMatcher(pat *compiler.Pattern, input string) *Matcher {
	m := &Matcher{
		pat:                pat,
		input:              input,
		inputBytes:         []byte(input),
		pf:                 prefilter.Build(pat),
		regionStart:        0,
		regionEnd:          len(input),
		useAnchoringBounds:  true,
		limits:             DefaultLimits,
		prevMatchEnd:       -1,
	}
	return m
}

// Reset rebinds the Matcher to a new subject string, restoring the default
// region (the whole string); the anchoring/transparent bounds modes are left
// as they were. pf is unaffected: it is derived from pat, which Reset never
// changes.
func (m *Matcher) Reset(input string) {
	m.input = input
	m.inputBytes = []byte(input)
	m.regionStart = 0
	m.regionEnd = len(input)
	m.prevMatchEnd = -1
	m.haveMatch = false
}

// Region sets the bounds Find/Matches operate within.
func (m *Matcher) Region(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(m.input) {
		end = len(m.input)
	}
	m.regionStart, m.regionEnd = start, end
}

func (m *Matcher) UseAnchoringBounds(v bool)   { m.useAnchoringBounds = v }
func (m *Matcher) UseTransparentBounds(v bool) { m.transparentBounds = v }
func (m *Matcher) HitEnd() bool                { return m.hitEnd }
func (m *Matcher) RequireEnd() bool            { return m.requireEnd }

// Input returns the subject string the Matcher is currently bound to.
func (m *Matcher) Input() string { return m.input }

// RegionStart returns the current region's start offset.
func (m *Matcher) RegionStart() int { return m.regionStart }

// RegionEnd returns the current region's end offset.
func (m *Matcher) RegionEnd() int { return m.regionEnd }

// lookBoundStart/lookBoundEnd are the "look region" bounds spec §3 defines:
// the whole input when transparent bounds are on, the region otherwise.
// Lookaround switches the active region to these bounds for its duration;
// \b reads them directly.
func (m *Matcher) lookBoundStart() int {
	if m.transparentBounds {
		return 0
	}
	return m.regionStart
}

func (m *Matcher) lookBoundEnd() int {
	if m.transparentBounds {
		return len(m.input)
	}
	return m.regionEnd
}

func (m *Matcher) ensureBuffers() {
	if cap(m.frame) < m.pat.FrameSize {
		m.frame = make([]int64, m.pat.FrameSize)
	}
	if cap(m.data) < m.pat.DataSize {
		m.data = make([]int64, m.pat.DataSize)
	}
	m.frame = m.frame[:m.pat.FrameSize]
	m.data = m.data[:m.pat.DataSize]
	if m.stack == nil {
		m.stack = container.NewInt64Vector(256)
	}
}

// Matches reports whether the entire region matches pat.
func (m *Matcher) Matches() (*Match, bool, error) {
	return m.attempt(m.regionStart, true)
}

// LookingAt reports whether the pattern matches starting exactly at
// regionStart, without requiring the match to reach regionEnd.
func (m *Matcher) LookingAt() (*Match, bool, error) {
	return m.attempt(m.regionStart, false)
}

// Find searches for the next match starting at or after from. When pat
// compiled with a usable StartType (spec §4.4/§4.5), m.pf narrows the
// candidate offsets the interpreter is invoked at -- e.g. a fixed leading
// literal skips straight to the next occurrence via Aho-Corasick/Memmem
// instead of attempting the bytecode at every offset. A StartNoInfo pattern
// has pf == nil and Find falls back to trying every offset.
func (m *Matcher) Find(from int) (*Match, bool, error) {
	for start := from; start <= m.regionEnd; {
		if m.pf != nil {
			next, found := m.pf.Next(m.inputBytes, start)
			if !found || next > m.regionEnd {
				return nil, false, nil
			}
			start = next
		}
		if m.FindProgressCallback != nil && !m.FindProgressCallback(start) {
			return nil, false, ErrStoppedByCaller{}
		}
		match, ok, err := m.attempt(start, false)
		if err != nil {
			return nil, false, err
		}
		if ok {
			m.haveMatch = true
			m.prevMatchEnd = match.Groups[0].End
			return match, true, nil
		}
		start = nextOffset(m.input, start)
	}
	return nil, false, nil
}

func nextOffset(s string, i int) int {
	if i >= len(s) {
		return i + 1
	}
	_, w := utf8.DecodeRuneInString(s[i:])
	if w == 0 {
		w = 1
	}
	return i + w
}

// frameHeaderWords is pc, pos, activeStart, activeLimit. Saving the active
// region in every pushed frame means any ordinary backtrack that unwinds
// past a LA_START/LB_START automatically restores the bounds that were in
// effect before the lookaround switched them, even on the path where the
// lookaround body fails outright and LA_END/LB_END is never reached.
const frameHeaderWords = 4

func (m *Matcher) frameWidth() int { return frameHeaderWords + len(m.frame) + len(m.data) }

// anchorStart/anchorEnd are the positions ^ and $ (non-multiline) bind to:
// the region bounds when anchoring bounds are in effect (the default, spec
// §6.4), or the whole subject's true bounds when UseAnchoringBounds(false)
// has been called.
func (m *Matcher) anchorStart() int {
	if m.useAnchoringBounds {
		return m.regionStart
	}
	return 0
}

func (m *Matcher) anchorEnd() int {
	if m.useAnchoringBounds {
		return m.regionEnd
	}
	return len(m.input)
}

func (m *Matcher) pushState(pc, pos int) {
	m.stack.Push(int64(pc))
	m.stack.Push(int64(pos))
	m.stack.Push(int64(m.activeStart))
	m.stack.Push(int64(m.activeLimit))
	for _, v := range m.frame {
		m.stack.Push(v)
	}
	for _, v := range m.data {
		m.stack.Push(v)
	}
}

func (m *Matcher) popState() (pc, pos int, ok bool) {
	fw := m.frameWidth()
	if m.stack.Len() < fw {
		return 0, 0, false
	}
	s := m.stack.Slice()
	base := m.stack.Len() - fw
	pc = int(s[base])
	pos = int(s[base+1])
	m.activeStart = int(s[base+2])
	m.activeLimit = int(s[base+3])
	copy(m.frame, s[base+frameHeaderWords:base+frameHeaderWords+len(m.frame)])
	copy(m.data, s[base+frameHeaderWords+len(m.frame):base+fw])
	m.stack.Truncate(base)
	return pc, pos, true
}

// attempt runs the bytecode interpreter once, anchored at start. If
// wholeRegion is true, success additionally requires the match to end
// exactly at regionEnd (Matches() semantics); otherwise any successful END
// counts (LookingAt/Find semantics, still anchored at start).
func (m *Matcher) attempt(start int, wholeRegion bool) (*Match, bool, error) {
	m.ensureBuffers()
	for i := range m.frame {
		m.frame[i] = -1
	}
	for i := range m.data {
		m.data[i] = 0
	}
	m.stack.Reset()
	m.hitEnd = false
	m.requireEnd = false
	m.activeStart = m.regionStart
	m.activeLimit = m.regionEnd

	pos := start
	pc := 0
	var ticks int64

	fail := func() bool {
		for {
			if p, ps, ok := m.popState(); ok {
				pc, pos = p, ps
				return true
			}
			return false
		}
	}

	for {
		ticks++
		if ticks > m.limits.MaxTicks {
			return nil, false, ErrTimeout{}
		}
		if m.stack.ByteLen() > m.limits.MaxStackBytes {
			return nil, false, ErrStackOverflow{}
		}
		if pc < 0 || pc >= len(m.pat.Code) {
			if !fail() {
				return nil, false, nil
			}
			continue
		}
		op, operand := opcode.Decode(m.pat.Code[pc])
		switch op {
		case opcode.END:
			if wholeRegion && pos != m.regionEnd {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			if pos == m.regionEnd {
				m.requireEnd = true
			}
			return m.buildMatch(start, pos), true, nil

		case opcode.FAIL, opcode.BACKTRACK:
			if !fail() {
				return nil, false, nil
			}

		case opcode.NOP:
			pc++

		case opcode.JMP:
			pc = operand

		case opcode.JMPX:
			if pos != int(m.data[operand]) {
				pc++
			} else {
				pc += 2
			}

		case opcode.STATE_SAVE, opcode.JMP_SAV, opcode.JMP_SAV_X:
			m.pushState(operand, pos)
			m.tickCount++
			if m.tickCount%TickCallbackInterval == 0 && m.MatchCallback != nil && !m.MatchCallback() {
				return nil, false, ErrStoppedByCaller{}
			}
			pc++

		case opcode.CTR_INIT, opcode.CTR_INIT_NG:
			_, loopEnd := opcode.Decode(m.pat.Code[pc+1])
			min := opcode.Operand(m.pat.Code[pc+2])
			max := opcode.Operand(m.pat.Code[pc+3])
			m.frame[operand] = 0
			m.frame[operand+1] = int64(min)
			m.frame[operand+2] = int64(max)
			if min == 0 {
				// zero reps is a valid outcome: leave a state save that
				// resumes past the loop at the current position, in case
				// the body never manages even one successful iteration.
				m.pushState(loopEnd, pos)
			}
			if max == 0 {
				// {0,0}: force the backtrack into the skip-save just pushed
				// above, landing past the loop having run it zero times.
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc += 4

		case opcode.CTR_LOOP, opcode.CTR_LOOP_NG:
			slot := operand
			count := m.frame[slot] + 1
			min := m.frame[slot+1]
			max := m.frame[slot+2]
			m.frame[slot] = count
			_, bodyStart := opcode.Decode(m.pat.Code[pc-1])
			switch {
			case count < min:
				pc = bodyStart
			case max != int64(opcode.MaxOperand) && count >= max:
				pc++
			case op == opcode.CTR_LOOP_NG:
				m.pushState(bodyStart, pos)
				pc++
			default:
				m.pushState(pc+1, pos)
				pc = bodyStart
			}

		case opcode.RELOC_OPRND:
			pc++

		case opcode.ONECHAR:
			r, w, ok := decodeAt(m.input, pos, m.activeLimit)
			if !ok {
				m.hitEnd = true
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			if r != rune(operand) {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.ONECHAR_I:
			r, w, ok := decodeAt(m.input, pos, m.activeLimit)
			if !ok || ucd.FoldCase(r) != ucd.FoldCase(rune(operand)) {
				m.hitEnd = !ok
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.STRING, opcode.STRING_I:
			n := opcode.Operand(m.pat.Code[pc+1])
			text := m.pat.LiteralText[operand : operand+n]
			newPos, ok := matchLiteral(m.input, pos, m.activeLimit, text, op == opcode.STRING_I)
			if !ok {
				if newPos < 0 {
					m.hitEnd = true
				}
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos = newPos
			pc += 2

		case opcode.DOTANY:
			r, w, ok := decodeAt(m.input, pos, m.activeLimit)
			if !ok || ucd.IsLineTerminator(r, false) {
				m.hitEnd = !ok
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.DOTANY_UNIX:
			r, w, ok := decodeAt(m.input, pos, m.activeLimit)
			if !ok || r == '\n' {
				m.hitEnd = !ok
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.DOTANY_ALL:
			_, w, ok := decodeAt(m.input, pos, m.activeLimit)
			if !ok {
				m.hitEnd = true
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.SETREF, opcode.STATIC_SETREF, opcode.STAT_SETREF_N:
			set := m.pat.SetPool[operand]
			r, w, ok := decodeAt(m.input, pos, m.activeLimit)
			if !ok || !set.Contains(r) {
				m.hitEnd = !ok
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.CARET:
			if pos != m.anchorStart() {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.CARET_M, opcode.CARET_M_UNIX:
			unix := op == opcode.CARET_M_UNIX
			if pos != m.anchorStart() && !(pos > 0 && ucd.IsLineTerminator(prevRune(m.input, pos), unix)) {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.DOLLAR, opcode.DOLLAR_D:
			unix := op == opcode.DOLLAR_D
			if !atLineEnd(m.input, pos, m.anchorEnd(), unix, false) {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.DOLLAR_M, opcode.DOLLAR_MD:
			unix := op == opcode.DOLLAR_MD
			if !atLineEnd(m.input, pos, m.anchorEnd(), unix, true) {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_A:
			if pos != m.anchorStart() {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_Z:
			if pos != m.anchorEnd() {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_G:
			if m.haveMatch && pos != m.prevMatchEnd {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			if !m.haveMatch && pos != start {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_B, opcode.BACKSLASH_BU:
			want := operand == 1
			if isWordBoundary(m.input, pos, m.lookBoundStart(), m.lookBoundEnd()) != want {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_D:
			r, _, ok := decodeAt(m.input, pos, m.activeLimit)
			want := operand == 1
			if !ok || ucd.IsDigit(r) != want {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_H:
			r, _, ok := decodeAt(m.input, pos, m.activeLimit)
			want := operand == 1
			if !ok || isHSpace(r) != want {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_V:
			r, _, ok := decodeAt(m.input, pos, m.activeLimit)
			want := operand == 1
			if !ok || isVSpace(r) != want {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pc++

		case opcode.BACKSLASH_R:
			w, ok := matchLineBreak(m.input, pos, m.activeLimit)
			if !ok {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.BACKSLASH_X:
			w := graphemeClusterLen(m.input, pos, m.activeLimit)
			if w == 0 {
				m.hitEnd = pos >= m.activeLimit
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos += w
			pc++

		case opcode.START_CAPTURE:
			m.frame[operand] = int64(pos)
			pc++

		case opcode.END_CAPTURE:
			m.frame[operand+1] = int64(pos)
			pc++

		case opcode.BACKREF, opcode.BACKREF_I:
			s := m.frame[operand]
			e := m.frame[operand+1]
			if s < 0 || e < 0 {
				pc++
				continue
			}
			text := m.input[s:e]
			newPos, ok := matchLiteralString(m.input, pos, m.activeLimit, text, op == opcode.BACKREF_I)
			if !ok {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			pos = newPos
			pc++

		case opcode.STO_SP:
			m.data[operand] = int64(m.stack.Len())
			pc++

		case opcode.LD_SP:
			n := int(m.data[operand])
			if n <= m.stack.Len() {
				m.stack.Truncate(n)
			}
			pc++

		case opcode.STO_INP_LOC:
			m.data[operand] = int64(pos)
			pc++

		case opcode.LOOP_SR_I:
			set := m.pat.SetPool[operand]
			loopStart := pos
			for {
				r, w, ok := decodeAt(m.input, pos, m.activeLimit)
				if !ok || !set.Contains(r) {
					m.hitEnd = m.hitEnd || !ok
					break
				}
				pos += w
			}
			_, slot := opcode.Decode(m.pat.Code[pc+1])
			m.data[slot] = int64(loopStart)
			if pos > loopStart {
				m.pushState(pc+1, pos)
			}
			pc += 2

		case opcode.LOOP_DOT_I:
			loopStart := pos
		loopDotScan:
			for {
				r, w, ok := decodeAt(m.input, pos, m.activeLimit)
				if !ok {
					m.hitEnd = true
					break
				}
				switch operand {
				case dotLoopDefault: // DOTANY semantics, stop before any line terminator
					if ucd.IsLineTerminator(r, false) {
						break loopDotScan
					}
				case dotLoopUnix: // DOTANY_UNIX semantics, stop before '\n' only
					if r == '\n' {
						break loopDotScan
					}
				}
				pos += w
			}
			_, slot := opcode.Decode(m.pat.Code[pc+1])
			m.data[slot] = int64(loopStart)
			if pos > loopStart {
				m.pushState(pc+1, pos)
			}
			pc += 2

		case opcode.LOOP_C:
			loopStart := int(m.data[operand])
			prevOp, _ := opcode.Decode(m.pat.Code[pc-1])
			var newPos int
			if prevOp == opcode.LOOP_DOT_I && pos >= 2 && m.input[pos-2] == '\r' && m.input[pos-1] == '\n' {
				newPos = pos - 2
			} else {
				_, w := utf8.DecodeLastRuneInString(m.input[:pos])
				newPos = pos - w
			}
			if newPos > loopStart {
				m.pushState(pc, newPos)
			}
			pos = newPos
			pc++

		case opcode.LA_START:
			m.data[operand] = int64(pos)
			m.data[operand+1] = int64(m.activeStart)
			m.data[operand+2] = int64(m.activeLimit)
			m.data[operand+3] = int64(m.stack.Len())
			m.activeStart = m.lookBoundStart()
			m.activeLimit = m.lookBoundEnd()
			pc++

		case opcode.LA_END:
			pos = int(m.data[operand])
			m.activeStart = int(m.data[operand+1])
			m.activeLimit = int(m.data[operand+2])
			m.stack.Truncate(int(m.data[operand+3]))
			pc++

		case opcode.LB_START:
			minML := opcode.Operand(m.pat.Code[pc+1])
			maxML := opcode.Operand(m.pat.Code[pc+2])
			origin := pos
			m.data[operand] = int64(origin)
			m.data[operand+2] = int64(m.activeStart)
			m.data[operand+3] = int64(m.activeLimit)
			m.data[operand+4] = int64(m.stack.Len())
			lookStart := m.lookBoundStart()
			m.activeStart = lookStart
			m.activeLimit = m.lookBoundEnd()
			candidate := origin - maxML
			if candidate < lookStart {
				candidate = lookStart
			}
			if candidate > origin-minML {
				m.activeStart = int(m.data[operand+2])
				m.activeLimit = int(m.data[operand+3])
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			m.data[operand+1] = int64(candidate)
			pos = candidate
			pc += 3

		case opcode.LB_END, opcode.LBN_END:
			pos = int(m.data[operand])
			m.activeStart = int(m.data[operand+2])
			m.activeLimit = int(m.data[operand+3])
			h := int(m.data[operand+4])
			if op == opcode.LBN_END {
				// also drop the STATE_SAVE frame pushed just before
				// LB_START, so the BACKTRACK that follows genuinely fails.
				h -= m.frameWidth()
			}
			m.stack.Truncate(h)
			pc++

		case opcode.LB_CONT, opcode.LBN_CONT:
			slot := operand
			_, bodyStart := opcode.Decode(m.pat.Code[pc-1])
			origin := int(m.data[slot])
			minML := opcode.Operand(m.pat.Code[bodyStart-2])
			if pos == origin {
				pc++
				continue
			}
			next := int(m.data[slot+1]) + 1
			if next > origin-minML {
				if !fail() {
					return nil, false, nil
				}
				continue
			}
			m.data[slot+1] = int64(next)
			pos = next
			pc = bodyStart

		default:
			pc++
		}
	}
}

func (m *Matcher) buildMatch(start, end int) *Match {
	groups := make([]Span, m.pat.GroupCount()+1)
	groups[0] = Span{start, end}
	for i, slot := range m.pat.GroupMap {
		sp := Span{int(m.frame[slot]), int(m.frame[slot+1])}
		if !sp.valid() {
			sp = Span{-1, -1}
		}
		groups[i+1] = sp
	}
	return &Match{Groups: groups}
}

func decodeAt(s string, pos, limit int) (rune, int, bool) {
	if pos >= limit {
		return 0, 0, false
	}
	r, w := utf8.DecodeRuneInString(s[pos:limit])
	if w == 0 {
		return 0, 0, false
	}
	return r, w, true
}

func prevRune(s string, pos int) rune {
	r, _ := utf8.DecodeLastRuneInString(s[:pos])
	return r
}

func atLineEnd(s string, pos, limit int, unixLines, multiline bool) bool {
	if pos == limit {
		return true
	}
	if !multiline {
		// only the very end of the region, or immediately before a single
		// trailing line terminator at the end of the region.
		r, w, ok := decodeAt(s, pos, limit)
		if ok && ucd.IsLineTerminator(r, unixLines) && pos+w == limit {
			return true
		}
		return false
	}
	r, _, ok := decodeAt(s, pos, limit)
	return ok && ucd.IsLineTerminator(r, unixLines)
}

// isWordBoundary checks spec §4.2's \b at pos, honoring the given bounds:
// a position at activeStart/activeLimit sees no word character on the side
// that falls outside the bounds, the same as if the subject ended there.
func isWordBoundary(s string, pos, activeStart, activeLimit int) bool {
	var before, after bool
	if pos > activeStart {
		before = ucd.IsWordChar(prevRune(s, pos))
	}
	if pos < activeLimit {
		r, _ := utf8.DecodeRuneInString(s[pos:activeLimit])
		after = ucd.IsWordChar(r)
	}
	return before != after
}

func isHSpace(r rune) bool {
	return r == '\t' || r == ' ' || (r >= 0x2000 && r <= 0x200a) || r == 0xa0 || r == 0x1680 || r == 0x202f || r == 0x205f || r == 0x3000
}

func isVSpace(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

func matchLineBreak(s string, pos, limit int) (int, bool) {
	r, w, ok := decodeAt(s, pos, limit)
	if !ok {
		return 0, false
	}
	if r == '\r' {
		if pos+w < limit {
			if r2, w2 := utf8.DecodeRuneInString(s[pos+w : limit]); r2 == '\n' {
				return w + w2, true
			}
		}
		return w, true
	}
	switch r {
	case '\n', 0x0b, 0x0c, 0x85, 0x2028, 0x2029:
		return w, true
	}
	return 0, false
}

// graphemeClusterLen returns the byte length of one extended grapheme
// cluster starting at pos, using a heuristic combining-mark sweep rather
// than full Unicode Annex #29 boundary rules (spec §4.2 notes \X as a
// simplified approximation; see DESIGN.md).
func graphemeClusterLen(s string, pos, limit int) int {
	_, w, ok := decodeAt(s, pos, limit)
	if !ok {
		return 0
	}
	total := w
	for pos+total < limit {
		r2, w2 := utf8.DecodeRuneInString(s[pos+total : limit])
		if !isCombiningMark(r2) {
			break
		}
		total += w2
	}
	return total
}

func isCombiningMark(r rune) bool {
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r)
}

func matchLiteral(s string, pos, limit int, text []rune, foldCase bool) (int, bool) {
	cur := pos
	for _, want := range text {
		r, w, ok := decodeAt(s, cur, limit)
		if !ok {
			return -1, false
		}
		if foldCase {
			if ucd.FoldCase(r) != ucd.FoldCase(want) {
				return cur, false
			}
		} else if r != want {
			return cur, false
		}
		cur += w
	}
	return cur, true
}

func matchLiteralString(s string, pos, limit int, want string, foldCase bool) (int, bool) {
	cur := pos
	wi := 0
	wantRunes := []rune(want)
	for wi < len(wantRunes) {
		r, w, ok := decodeAt(s, cur, limit)
		if !ok {
			return cur, false
		}
		if foldCase {
			if ucd.FoldCase(r) != ucd.FoldCase(wantRunes[wi]) {
				return cur, false
			}
		} else if r != wantRunes[wi] {
			return cur, false
		}
		cur += w
		wi++
	}
	return cur, true
}
