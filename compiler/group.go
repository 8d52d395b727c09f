package compiler

import (
	"github.com/coregx/uregex/internal/container"
	"github.com/coregx/uregex/opcode"
)

// parseGroup parses everything after an already-consumed '(': the optional
// '?'-introduced modifier, the group body, and the closing ')'. Spec §4.2
// "Paren stack" enumerates the eight kinds of parenthesized construct this
// dispatches over.
func (b *builder) parseGroup() (block, *Error) {
	if b.parens.Len() >= maxParenDepth {
		return nil, b.errHere(InternalError, "parenthesis nesting too deep")
	}
	r, ok := b.lx.peekRune()
	if ok && r == '?' {
		b.lx.advancePos(1)
		return b.parseExtendedGroup()
	}
	return b.parseCapturingGroup("")
}

func (b *builder) parseExtendedGroup() (block, *Error) {
	r, ok := b.lx.peekRune()
	if !ok {
		return nil, b.errHere(RuleSyntax, "unterminated group")
	}
	switch r {
	case ':':
		b.lx.advancePos(1)
		return b.parsePlainGroup()
	case '=':
		b.lx.advancePos(1)
		return b.parseLookaround(true, false)
	case '!':
		b.lx.advancePos(1)
		return b.parseLookaround(false, false)
	case '>':
		b.lx.advancePos(1)
		return b.parseAtomicGroup()
	case '#':
		return b.parseCommentGroup()
	case '<':
		b.lx.advancePos(1)
		return b.parseAngleBracketGroup()
	case 'P':
		b.lx.advancePos(1)
		r2, ok2 := b.lx.peekRune()
		if ok2 && r2 == '<' {
			b.lx.advancePos(1)
			return b.parseNamedCaptureGroup('>')
		}
		return nil, b.errHere(RuleSyntax, "malformed (?P group")
	default:
		return b.parseFlagsGroup()
	}
}

func (b *builder) parseAngleBracketGroup() (block, *Error) {
	r, ok := b.lx.peekRune()
	if !ok {
		return nil, b.errHere(RuleSyntax, "unterminated (?< group")
	}
	switch r {
	case '=':
		b.lx.advancePos(1)
		return b.parseLookaround(true, true)
	case '!':
		b.lx.advancePos(1)
		return b.parseLookaround(false, true)
	default:
		return b.parseNamedCaptureGroup('>')
	}
}

func (b *builder) parsePlainGroup() (block, *Error) {
	b.parens.Push(container.ParenFrame{Class: container.ParenPlain, ModeFlags: uint32(b.flags), FixupA: -1, FixupB: -1})
	savedFlags := b.flags
	body, err := b.parseAlternation()
	if err != nil {
		return nil, err
	}
	if perr := b.expectCloseParen(); perr != nil {
		return nil, perr
	}
	b.flags = savedFlags
	b.parens.Pop()
	return body, nil
}

func (b *builder) parseCapturingGroup(name string) (block, *Error) {
	b.groupCount++
	num := b.groupCount
	slot := b.allocFrameSlots(2)
	b.groupMap = append(b.groupMap, slot)
	if name != "" {
		b.namedCaptures.Put(name, num)
		b.namedCaptureOrder = append(b.namedCaptureOrder, name)
	}
	b.parens.Push(container.ParenFrame{Class: container.ParenCapturing, ModeFlags: uint32(b.flags), GroupNum: num, FixupA: -1, FixupB: -1})
	body, err := b.parseAlternation()
	if err != nil {
		return nil, err
	}
	if perr := b.expectCloseParen(); perr != nil {
		return nil, perr
	}
	b.parens.Pop()
	var out block
	out, _ = out.emit(opcode.START_CAPTURE, slot)
	out, _ = appendBlock(out, body)
	out, _ = out.emit(opcode.END_CAPTURE, slot)
	return out, nil
}

func (b *builder) parseNamedCaptureGroup(closeCh rune) (block, *Error) {
	start := b.lx.Pos()
	for {
		r, ok := b.lx.peekRune()
		if !ok {
			return nil, b.errHere(InvalidCaptureGroupName, "unterminated group name")
		}
		if r == closeCh {
			break
		}
		if !isNameChar(r) {
			return nil, b.errHere(InvalidCaptureGroupName, "invalid character in group name")
		}
		b.lx.advancePos(1)
	}
	name := string(b.lx.src[start:b.lx.Pos()])
	if name == "" {
		return nil, b.errHere(InvalidCaptureGroupName, "empty group name")
	}
	if _, exists := b.namedCaptures.Get(name); exists {
		return nil, b.errHere(InvalidCaptureGroupName, "duplicate group name")
	}
	b.lx.advancePos(1) // consume closing char
	return b.parseCapturingGroup(name)
}

func isNameChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (b *builder) parseAtomicGroup() (block, *Error) {
	b.parens.Push(container.ParenFrame{Class: container.ParenAtomic, ModeFlags: uint32(b.flags), FixupA: -1, FixupB: -1})
	body, err := b.parseAlternation()
	if err != nil {
		return nil, err
	}
	if perr := b.expectCloseParen(); perr != nil {
		return nil, perr
	}
	b.parens.Pop()
	stoIdx := b.allocDataSlot()
	var out block
	out, _ = out.emit(opcode.STO_SP, stoIdx)
	out, _ = appendBlock(out, body)
	out, _ = out.emit(opcode.LD_SP, stoIdx)
	return out, nil
}

// parseLookaround compiles (?=X), (?!X), (?<=X), (?<!X). Spec §4.2/§4.5.
func (b *builder) parseLookaround(positive, behind bool) (block, *Error) {
	class := container.ParenLookAhead
	switch {
	case behind && positive:
		class = container.ParenLookBehind
	case behind && !positive:
		class = container.ParenLookBehindNeg
	case !behind && !positive:
		class = container.ParenNegLookAhead
	}
	b.parens.Push(container.ParenFrame{Class: class, ModeFlags: uint32(b.flags), FixupA: -1, FixupB: -1})
	body, err := b.parseAlternation()
	if err != nil {
		return nil, err
	}
	if perr := b.expectCloseParen(); perr != nil {
		return nil, perr
	}
	b.parens.Pop()

	if behind {
		return b.compileLookbehind(body, positive)
	}
	return b.compileLookahead(body, positive), nil
}

// compileLookahead: (?=X) is LA_START; X; LA_END -- input position is
// restored by LA_END regardless of outcome, and natural backtracking
// propagates a body failure. LA_START also switches the VM's active region to
// the look region (transparent/opaque bounds) for the body's duration,
// restored by LA_END. LA_START additionally records the stack height on
// entry; LA_END collapses the stack back to that height before falling
// through, discarding any STATE_SAVE frames X's own alternatives left behind.
// (?!X) is LA_START; STATE_SAVE L; X; LA_END; BACKTRACK; L: LA_END. The
// STATE_SAVE comes after LA_START, so a successful X's LA_END collapses the
// stack below it too and the forced BACKTRACK genuinely fails the
// lookaround; if X fails instead, backtracking pops that STATE_SAVE and the
// second LA_END restores position and bounds before matching continues --
// the standard way to express negation in a backtracking VM (see DESIGN.md).
func (b *builder) compileLookahead(body block, positive bool) block {
	slot := b.allocDataSlot()
	b.allocDataSlot() // slot+1: saved activeStart
	b.allocDataSlot() // slot+2: saved activeLimit
	b.allocDataSlot() // slot+3: stack height at entry, collapsed to on success
	var out block
	out, _ = out.emit(opcode.LA_START, slot)
	if positive {
		out, _ = appendBlock(out, body)
		out, _ = out.emit(opcode.LA_END, slot)
		return out
	}
	var saveIdx int
	out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
	out, _ = appendBlock(out, body)
	out, _ = out.emit(opcode.LA_END, slot)
	out, _ = out.emit(opcode.BACKTRACK, 0)
	out.patch(saveIdx, len(out))
	out, _ = out.emit(opcode.LA_END, slot)
	return out
}

// compileLookbehind compiles a bounded-length (?<=X) / (?<!X). The body's
// match length must have a finite upper bound (spec's LOOK_BEHIND_LIMIT).
// LB_START records the origin (the position the lookbehind must end at) and
// is immediately followed by the min/max length data words it read from
// minMaxLen(body). LB_CONT/LBN_CONT's own operand is the data slot (it needs
// that to recover origin and the candidate cursor); the retry target is
// instead carried by the RELOC_OPRND emitted immediately before it, the same
// convention CTR_LOOP uses for its loop-back target. Like lookahead, LB_START
// switches the active region to the look region for the body's duration;
// LB_END/LBN_END restore it. LB_START also records the stack height on entry
// (which, for (?<!X), already includes the entry STATE_SAVE emitted just
// before it); on a successful body match LB_END collapses the stack back to
// that height, and LBN_END collapses it one frame further, dropping that
// STATE_SAVE too, so the BACKTRACK after LBN_END genuinely fails.
func (b *builder) compileLookbehind(body block, positive bool) (block, *Error) {
	min, max := minMaxLen(body)
	if max == UnreachableLen {
		return nil, b.errHere(LookBehindLimit, "lookbehind length is unbounded")
	}
	slot := b.allocDataSlot()
	b.allocDataSlot() // slot+1: current candidate start offset, scratch for LB_CONT/LBN_CONT
	b.allocDataSlot() // slot+2: saved activeStart
	b.allocDataSlot() // slot+3: saved activeLimit
	b.allocDataSlot() // slot+4: stack height at entry, collapsed to on success
	var probe block
	probe, _ = probe.emit(opcode.LB_START, slot)
	probe, _ = probe.emit(opcode.NOP, min)
	probe, _ = probe.emit(opcode.NOP, max)
	bodyStart := len(probe)
	probe, _ = appendBlock(probe, body)
	probe, _ = probe.emit(opcode.RELOC_OPRND, bodyStart)
	contOp := opcode.LB_CONT
	if !positive {
		contOp = opcode.LBN_CONT
	}
	probe, _ = probe.emit(contOp, slot)
	if positive {
		probe, _ = probe.emit(opcode.LB_END, slot)
		return probe, nil
	}
	var out block
	var saveIdx int
	out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
	out, _ = appendBlock(out, probe)
	out, _ = out.emit(opcode.LBN_END, slot)
	out, _ = out.emit(opcode.BACKTRACK, 0)
	out.patch(saveIdx, len(out))
	return out, nil
}

func (b *builder) parseCommentGroup() (block, *Error) {
	for {
		r, ok := b.lx.peekRune()
		if !ok {
			return nil, b.errHere(RuleSyntax, "unterminated (?# comment")
		}
		b.lx.advancePos(1)
		if r == ')' {
			return nil, nil
		}
	}
}

// parseFlagsGroup parses (?ims-ux) or (?ims-ux:body): a run of flag letters,
// optionally '-' then more flag letters to clear, then either ')' (rest-of-
// enclosing-group scope) or ':' (scoped to this group only).
func (b *builder) parseFlagsGroup() (block, *Error) {
	set, clear, err := b.parseFlagLetters()
	if err != nil {
		return nil, err
	}
	r, ok := b.lx.peekRune()
	if !ok {
		return nil, b.errHere(InvalidFlag, "unterminated flags group")
	}
	newFlags := (b.flags | set) &^ clear
	if r == ')' {
		b.lx.advancePos(1)
		b.flags = newFlags
		b.lx.Comments = newFlags.has(Comments)
		return nil, nil
	}
	if r != ':' {
		return nil, b.errHere(InvalidFlag, "expected ':' or ')'")
	}
	b.lx.advancePos(1)
	saved := b.flags
	savedComments := b.lx.Comments
	b.flags = newFlags
	b.lx.Comments = newFlags.has(Comments)
	b.parens.Push(container.ParenFrame{Class: container.ParenFlags, ModeFlags: uint32(saved), FixupA: -1, FixupB: -1})
	body, perr := b.parseAlternation()
	if perr != nil {
		return nil, perr
	}
	if cerr := b.expectCloseParen(); cerr != nil {
		return nil, cerr
	}
	b.parens.Pop()
	b.flags = saved
	b.lx.Comments = savedComments
	return body, nil
}

func (b *builder) parseFlagLetters() (set, clear Flags, err *Error) {
	negating := false
	for {
		r, ok := b.lx.peekRune()
		if !ok {
			return 0, 0, b.errHere(InvalidFlag, "unterminated flags")
		}
		var bit Flags
		switch r {
		case 'i':
			bit = CaseInsensitive
		case 'x':
			bit = Comments
		case 's':
			bit = DotAll
		case 'm':
			bit = Multiline
		case 'd':
			bit = UnixLines
		case 'u':
			bit = UWord
		case '-':
			if negating {
				return 0, 0, b.errHere(InvalidFlag, "duplicate '-' in flags")
			}
			negating = true
			b.lx.advancePos(1)
			continue
		case ')', ':':
			return set, clear, nil
		default:
			return 0, 0, b.errHere(InvalidFlag, "unrecognized flag letter")
		}
		b.lx.advancePos(1)
		if negating {
			clear |= bit
		} else {
			set |= bit
		}
	}
}

func (b *builder) expectCloseParen() *Error {
	tok, err := b.lx.Next()
	if err != nil {
		return err
	}
	if tok.isEOF || tok.quoted || tok.r != ')' {
		return b.errHere(MismatchedParen, "expected ')'")
	}
	return nil
}
