package compiler

import (
	"strconv"
	"unicode"

	"github.com/dolthub/swiss"

	"github.com/coregx/uregex/internal/container"
	"github.com/coregx/uregex/internal/ucd"
	"github.com/coregx/uregex/opcode"
)

// maxParenDepth bounds nested group depth, matching spec §4.2's parser state
// stack capacity; exceeding it is an INTERNAL_ERROR rather than unbounded
// recursion.
const maxParenDepth = 100

// builder holds all mutable state threaded through a single compilation: the
// lexer, the current (scope-able) flags, the growing set/literal pools, and
// group bookkeeping. One builder is used for exactly one Compile call.
type builder struct {
	lx    *lexer
	flags Flags

	setPool     []*ucd.Set
	literalPool []rune

	groupCount        int
	groupMap          []int
	namedCaptures     *swiss.Map[string, int]
	namedCaptureOrder []string

	nextFrameSlot int
	nextDataSlot  int

	parens *container.ParenStack

	needsAltInput bool
}

func newBuilder(src []rune, flags Flags) *builder {
	lx := newLexer(src)
	lx.Comments = flags.has(Comments)
	return &builder{
		lx:            lx,
		flags:         flags,
		namedCaptures: swiss.NewMap[string, int](8),
		parens:        container.NewParenStack(maxParenDepth),
		nextFrameSlot: 0,
	}
}

func (b *builder) errHere(code ErrorCode, detail string) *Error {
	pre, post := contextWindow(b.lx.src, b.lx.Pos())
	return &Error{Code: code, Line: b.lx.line, Column: b.lx.col, PreContext: pre, PostContext: post, Detail: detail}
}

func (b *builder) allocFrameSlots(n int) int {
	slot := b.nextFrameSlot
	b.nextFrameSlot += n
	return slot
}

func (b *builder) allocDataSlot() int {
	slot := b.nextDataSlot
	b.nextDataSlot++
	return slot
}

// parsePattern is the compiler's top-level grammar entry: one alternation,
// required to consume the entire source.
func (b *builder) parsePattern() (block, *Error) {
	blk, err := b.parseAlternation()
	if err != nil {
		return nil, err
	}
	tok, terr := b.lx.Next()
	if terr != nil {
		return nil, terr
	}
	if !tok.isEOF {
		if !tok.quoted && tok.r == ')' {
			return nil, b.errHere(MismatchedParen, "unmatched ')'")
		}
		return nil, b.errHere(RuleSyntax, "unexpected trailing input")
	}
	return blk, nil
}

// parseAlternation parses concat ('|' concat)*, compiling the classic
// backtracking-VM alternation shape:
//
//	STATE_SAVE L1 ; branch1 ; JMP Lend ; L1: STATE_SAVE L2 ; branch2 ; JMP Lend ; L2: branch3 ; Lend:
func (b *builder) parseAlternation() (block, *Error) {
	first, err := b.parseConcat()
	if err != nil {
		return nil, err
	}
	r, ok := b.lx.peekRune()
	if !ok || r != '|' {
		return first, nil
	}
	var branches []block
	branches = append(branches, first)
	for {
		r, ok := b.lx.peekRune()
		if !ok || r != '|' {
			break
		}
		b.lx.advancePos(1)
		br, err := b.parseConcat()
		if err != nil {
			return nil, err
		}
		branches = append(branches, br)
	}
	return assembleAlternation(branches), nil
}

func assembleAlternation(branches []block) block {
	if len(branches) == 1 {
		return branches[0]
	}
	var out block
	var jmpToEnd []int
	for i, br := range branches {
		last := i == len(branches)-1
		if !last {
			var saveIdx int
			out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
			out, _ = appendBlock(out, br)
			jmpIdx := len(out)
			out, _ = out.emit(opcode.JMP, 0)
			jmpToEnd = append(jmpToEnd, jmpIdx)
			out.patch(saveIdx, len(out))
		} else {
			out, _ = appendBlock(out, br)
		}
	}
	end := len(out)
	for _, idx := range jmpToEnd {
		out.patch(idx, end)
	}
	return out
}

// parseConcat parses a sequence of quantified atoms, coalescing consecutive
// plain literal characters into a single STRING/ONECHAR instruction (spec
// §4.2, "Literal accumulation"); a character that will itself carry a
// quantifier is peeled out of the run first.
func (b *builder) parseConcat() (block, *Error) {
	var out block
	var litBuf []rune
	flush := func() {
		if len(litBuf) == 0 {
			return
		}
		out, _ = appendBlock(out, b.compileLiteralRun(litBuf))
		litBuf = nil
	}
	for {
		if b.lx.Comments && !b.lx.quoteMode {
			b.lx.skipFreeSpacing()
		}
		r, ok := b.lx.peekRune()
		if !ok {
			break
		}
		if b.lx.quoteMode && r == '\\' {
			if r2, ok2 := b.lx.peekRuneAt(1); ok2 && r2 == 'E' {
				b.lx.advancePos(2)
				b.lx.quoteMode = false
				continue
			}
		}
		if !b.lx.quoteMode && (r == '|' || r == ')') {
			break
		}
		atomStart := b.lx.Pos()
		plainLit, litRune, isPlain, aerr := b.peekPlainLiteral()
		if aerr != nil {
			return nil, aerr
		}
		if isPlain && (b.lx.quoteMode || !b.quantifierFollows(atomStart)) {
			b.lx.advancePos(1)
			_ = plainLit
			litBuf = append(litBuf, litRune)
			continue
		}
		flush()
		atom, aerr := b.parseQuantified()
		if aerr != nil {
			return nil, aerr
		}
		out, _ = appendBlock(out, atom)
	}
	flush()
	return out, nil
}

// peekPlainLiteral reports whether the upcoming token is an ordinary literal
// character (not an operator, escape class, or group start) without
// consuming it.
func (b *builder) peekPlainLiteral() (plain rune, r rune, ok bool, err *Error) {
	r, has := b.lx.peekRune()
	if !has {
		return 0, 0, false, nil
	}
	if b.lx.quoteMode {
		return r, r, true, nil
	}
	switch r {
	case '\\', '(', '[', '.', '^', '$', '*', '+', '?', '{':
		return 0, 0, false, nil
	}
	return r, r, true, nil
}

// quantifierFollows looks one rune past the atom starting at atomStart for a
// quantifier metacharacter, without disturbing the lexer's real position
// (the lexer is already positioned at atomStart; this peeks one rune ahead
// logically, i.e. the rune after the current one).
func (b *builder) quantifierFollows(atomStart int) bool {
	r2, ok := b.lx.peekRuneAt(1)
	if !ok {
		return false
	}
	switch r2 {
	case '*', '+', '?', '{':
		return true
	}
	return false
}

// compileLiteralRun lowers a run of accumulated literal runes into ONECHAR
// (length 1) or STRING (length > 1), applying full Unicode case folding
// expansion when CASE_INSENSITIVE is active.
func (b *builder) compileLiteralRun(runs []rune) block {
	var folded []rune
	if b.flags.has(CaseInsensitive) {
		for _, r := range runs {
			folded = append(folded, []rune(ucd.FullFold(r))...)
		}
	} else {
		folded = runs
	}
	var blk block
	op := opcode.ONECHAR
	strOp := opcode.STRING
	if b.flags.has(CaseInsensitive) {
		op = opcode.ONECHAR_I
		strOp = opcode.STRING_I
	}
	if len(folded) == 1 {
		blk, _ = blk.emit(op, int(folded[0]))
		return blk
	}
	idx := len(b.literalPool)
	b.literalPool = append(b.literalPool, folded...)
	blk, _ = blk.emit(strOp, idx)
	blk, _ = blk.emit(opcode.STRING_LEN, len(folded))
	return blk
}

// parseQuantified parses one atom and an optional trailing quantifier.
func (b *builder) parseQuantified() (block, *Error) {
	atom, err := b.parseAtom()
	if err != nil {
		return nil, err
	}
	return b.parseQuantifierSuffix(atom)
}

type quantKind int

const (
	quantGreedy quantKind = iota
	quantLazy
	quantPossessive
)

func (b *builder) parseQuantifierSuffix(body block) (block, *Error) {
	r, ok := b.lx.peekRune()
	if !ok {
		return body, nil
	}
	var min, max int
	switch r {
	case '*':
		b.lx.advancePos(1)
		min, max = 0, opcode.MaxOperand
	case '+':
		b.lx.advancePos(1)
		min, max = 1, opcode.MaxOperand
	case '?':
		b.lx.advancePos(1)
		min, max = 0, 1
	case '{':
		save := b.lx.pos
		m, n, matched, perr := b.tryParseInterval()
		if perr != nil {
			return nil, perr
		}
		if !matched {
			b.lx.pos = save
			return body, nil
		}
		min, max = m, n
	default:
		return body, nil
	}
	kind := quantGreedy
	if r2, ok := b.lx.peekRune(); ok {
		switch r2 {
		case '?':
			b.lx.advancePos(1)
			kind = quantLazy
		case '+':
			b.lx.advancePos(1)
			kind = quantPossessive
		}
	}
	if max < min {
		return nil, b.errHere(MaxLtMin, "quantifier max less than min")
	}
	return b.compileQuantifier(body, min, max, kind)
}

// tryParseInterval parses "{m}", "{m,}", "{m,n}" after the lexer is
// positioned at '{'. matched is false (with the lexer rewound by the
// caller) if the braces don't actually form a valid interval, per the
// convention that "{" with no valid interval body is a literal character.
func (b *builder) tryParseInterval() (min, max int, matched bool, err *Error) {
	start := b.lx.Pos()
	b.lx.advancePos(1) // '{'
	digStart := b.lx.Pos()
	for {
		r, ok := b.lx.peekRune()
		if !ok || r < '0' || r > '9' {
			break
		}
		b.lx.advancePos(1)
	}
	if b.lx.Pos() == digStart {
		return 0, 0, false, nil
	}
	minStr := string(b.lx.src[digStart:b.lx.Pos()])
	minVal, convErr := strconv.Atoi(minStr)
	if convErr != nil || minVal > opcode.MaxOperand {
		return 0, 0, true, b.errHere(NumberTooBig, "interval bound too large")
	}
	r, ok := b.lx.peekRune()
	if ok && r == ',' {
		b.lx.advancePos(1)
		maxDigStart := b.lx.Pos()
		for {
			r, ok := b.lx.peekRune()
			if !ok || r < '0' || r > '9' {
				break
			}
			b.lx.advancePos(1)
		}
		if b.lx.Pos() == maxDigStart {
			r2, ok2 := b.lx.peekRune()
			if !ok2 || r2 != '}' {
				return 0, 0, false, nil
			}
			b.lx.advancePos(1)
			return minVal, opcode.MaxOperand, true, nil
		}
		maxStr := string(b.lx.src[maxDigStart:b.lx.Pos()])
		maxVal, convErr := strconv.Atoi(maxStr)
		if convErr != nil || maxVal > opcode.MaxOperand {
			return 0, 0, true, b.errHere(NumberTooBig, "interval bound too large")
		}
		r3, ok3 := b.lx.peekRune()
		if !ok3 || r3 != '}' {
			return 0, 0, false, nil
		}
		b.lx.advancePos(1)
		return minVal, maxVal, true, nil
	}
	if !ok || r != '}' {
		return 0, 0, false, nil
	}
	b.lx.advancePos(1)
	_ = start
	return minVal, minVal, true, nil
}

// compileQuantifier wraps body per spec §4.2 "Quantifier compilation",
// dispatching on (min, max, kind): ?, * and + use the classic
// STATE_SAVE/JMP_SAV opt/star/plus shapes, and every other bounded or
// unbounded interval uses the generic CTR_INIT/CTR_LOOP counted-loop
// machinery. Small counts are not expanded inline; X{2} compiles to a
// counted loop just like X{200}.
func (b *builder) compileQuantifier(body block, min, max int, kind quantKind) (block, *Error) {
	bodyMin, bodyMax := minMaxLen(body)
	canEmpty := bodyMin == 0

	switch {
	case min == 0 && max == 1:
		return b.compileOptional(body, kind), nil
	case min == 0 && max == opcode.MaxOperand:
		return b.compileStar(body, kind, canEmpty), nil
	case min == 1 && max == opcode.MaxOperand:
		return b.compilePlus(body, kind, canEmpty), nil
	default:
		_ = bodyMax
		return b.compileCounted(body, min, max, kind, canEmpty)
	}
}

// compileOptional implements X? / X?? / X?+.
func (b *builder) compileOptional(body block, kind quantKind) block {
	var out block
	switch kind {
	case quantPossessive:
		stoIdx := b.allocDataSlot()
		out, _ = out.emit(opcode.STO_SP, stoIdx)
		out, _ = appendBlock(out, body)
		out, _ = out.emit(opcode.LD_SP, stoIdx)
	case quantLazy:
		var saveIdx int
		out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
		jmpIdx := len(out)
		out, _ = out.emit(opcode.JMP, 0)
		bodyStart := len(out)
		out, _ = appendBlock(out, body)
		out.patch(saveIdx, bodyStart)
		out.patch(jmpIdx, len(out))
	default: // greedy
		var saveIdx int
		out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
		out, _ = appendBlock(out, body)
		out.patch(saveIdx, len(out))
	}
	return out
}

// compileStar implements X* / X*? / X*+.
func (b *builder) compileStar(body block, kind quantKind, canEmpty bool) block {
	var out block
	switch kind {
	case quantPossessive:
		stoIdx := b.allocDataSlot()
		out, _ = out.emit(opcode.STO_SP, stoIdx)
		loopTop := len(out)
		var saveIdx int
		out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
		if canEmpty {
			slot := b.allocDataSlot()
			out, _ = out.emit(opcode.STO_INP_LOC, slot)
			out, _ = appendBlock(out, body)
			out, _ = out.emit(opcode.JMPX, slot)
			out, _ = out.emit(opcode.JMP, loopTop)
		} else {
			out, _ = appendBlock(out, body)
			out, _ = out.emit(opcode.JMP, loopTop)
		}
		out.patch(saveIdx, len(out))
		out, _ = out.emit(opcode.LD_SP, stoIdx)
	case quantLazy:
		var saveIdx int
		out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
		jmpIdx := len(out)
		out, _ = out.emit(opcode.JMP, 0)
		bodyStart := len(out)
		if canEmpty {
			slot := b.allocDataSlot()
			out, _ = out.emit(opcode.STO_INP_LOC, slot)
			out, _ = appendBlock(out, body)
			out, _ = out.emit(opcode.JMPX, slot)
		} else {
			out, _ = appendBlock(out, body)
		}
		out, _ = out.emit(opcode.JMP_SAV, bodyStart)
		out.patch(saveIdx, bodyStart)
		out.patch(jmpIdx, len(out))
	default: // greedy
		if opt, ok := b.tryLoopOpt(body); ok {
			return opt
		}
		loopTop := len(out)
		var saveIdx int
		out, saveIdx = out.emit(opcode.STATE_SAVE, 0)
		if canEmpty {
			slot := b.allocDataSlot()
			out, _ = out.emit(opcode.STO_INP_LOC, slot)
			out, _ = appendBlock(out, body)
			out, _ = out.emit(opcode.JMPX, slot)
			out, _ = out.emit(opcode.JMP, loopTop)
		} else {
			out, _ = appendBlock(out, body)
			out, _ = out.emit(opcode.JMP, loopTop)
		}
		out.patch(saveIdx, len(out))
	}
	return out
}

// Per-opcode loop-flag values for LOOP_DOT_I's operand, matching the three
// DOTANY variants compileDot chooses between.
const (
	dotLoopDefault = 0
	dotLoopUnix    = 1
	dotLoopAll     = 2
)

// tryLoopOpt implements "X* (greedy): if X is a single [set] / . / one-char
// class, replace with LOOP_SR_I or LOOP_DOT_I + LOOP_C": a single matching
// instruction becomes one scan-forward opcode plus a LOOP_C backtrack
// target, instead of a per-character STATE_SAVE/JMP loop.
func (b *builder) tryLoopOpt(body block) (block, bool) {
	if len(body) != 1 {
		return nil, false
	}
	op, operand := opcode.Decode(body[0])
	var loopOp opcode.Op
	switch op {
	case opcode.SETREF, opcode.STATIC_SETREF, opcode.STAT_SETREF_N:
		loopOp = opcode.LOOP_SR_I
	case opcode.ONECHAR:
		loopOp = opcode.LOOP_SR_I
		operand = b.internSet(ucd.NewSetRange(rune(operand), rune(operand)))
	case opcode.ONECHAR_I:
		set := ucd.NewSetRange(rune(operand), rune(operand))
		set.CloseOverCaseInsensitive()
		loopOp = opcode.LOOP_SR_I
		operand = b.internSet(set)
	case opcode.DOTANY:
		loopOp, operand = opcode.LOOP_DOT_I, dotLoopDefault
	case opcode.DOTANY_UNIX:
		loopOp, operand = opcode.LOOP_DOT_I, dotLoopUnix
	case opcode.DOTANY_ALL:
		loopOp, operand = opcode.LOOP_DOT_I, dotLoopAll
	default:
		return nil, false
	}
	slot := b.allocDataSlot()
	var out block
	out, _ = out.emit(loopOp, operand)
	out, _ = out.emit(opcode.LOOP_C, slot)
	return out, true
}

// compilePlus implements X+ / X+? / X++ as body followed by a star loop over
// a second copy of body (the standard "one mandatory iteration, then star"
// expansion).
func (b *builder) compilePlus(body block, kind quantKind, canEmpty bool) block {
	var out block
	bodyCopy := make(block, len(body))
	copy(bodyCopy, body)
	out, _ = appendBlock(out, body)
	star := b.compileStar(bodyCopy, kind, canEmpty)
	out, _ = appendBlock(out, star)
	return out
}

// compileCounted implements {m,n} via CTR_INIT/CTR_LOOP, the generic
// bounded-repetition machinery from spec §4.5. Frame slots [ctrSlot,
// ctrSlot+1, ctrSlot+2] hold the live iteration count, min and max (copied
// from the literal NOP data words CTR_INIT reads, so they survive
// backtracking restores along with the rest of the frame). CTR_LOOP finds
// its jump-back target in the RELOC_OPRND instruction immediately preceding
// it, rather than carrying both a slot number and a target in one 24-bit
// operand.
func (b *builder) compileCounted(body block, min, max int, kind quantKind, canEmpty bool) (block, *Error) {
	if max > opcode.MaxOperand {
		return nil, b.errHere(NumberTooBig, "interval bound too large")
	}
	ctrSlot := b.allocFrameSlots(3)
	initOp := opcode.CTR_INIT
	loopOp := opcode.CTR_LOOP
	if kind == quantLazy {
		initOp = opcode.CTR_INIT_NG
		loopOp = opcode.CTR_LOOP_NG
	}
	var out block
	out, _ = out.emit(initOp, ctrSlot)
	var relocIdx int
	out, relocIdx = out.emit(opcode.RELOC_OPRND, 0)
	out, _ = out.emit(opcode.NOP, min)
	out, _ = out.emit(opcode.NOP, max)
	bodyStart := len(out)
	if canEmpty && max == opcode.MaxOperand {
		slot := b.allocDataSlot()
		out, _ = out.emit(opcode.STO_INP_LOC, slot)
		out, _ = appendBlock(out, body)
		out, _ = out.emit(opcode.JMPX, slot)
	} else {
		out, _ = appendBlock(out, body)
	}
	out, _ = out.emit(opcode.RELOC_OPRND, bodyStart)
	out, _ = out.emit(loopOp, ctrSlot)
	out.patch(relocIdx, len(out))
	if kind == quantPossessive {
		stoIdx := b.allocDataSlot()
		var wrapped block
		wrapped, _ = wrapped.emit(opcode.STO_SP, stoIdx)
		wrapped, _ = appendBlock(wrapped, out)
		wrapped, _ = wrapped.emit(opcode.LD_SP, stoIdx)
		return wrapped, nil
	}
	return out, nil
}

// parseAtom parses a single indivisible unit: a literal, '.', an anchor, a
// predefined class, a property escape, a group, or a backreference.
func (b *builder) parseAtom() (block, *Error) {
	tok, err := b.lx.Next()
	if err != nil {
		return nil, err
	}
	if tok.isEOF {
		return nil, b.errHere(RuleSyntax, "unexpected end of pattern")
	}
	if tok.quoted {
		return b.compileLiteralRun([]rune{tok.r}), nil
	}
	switch tok.r {
	case '.':
		return b.compileDot(), nil
	case '^':
		return b.compileCaret(), nil
	case '$':
		return b.compileDollar(), nil
	case '[':
		set, serr := b.parseSet()
		if serr != nil {
			return nil, serr
		}
		return b.compileSet(set), nil
	case '(':
		return b.parseGroup()
	case ')':
		return nil, b.errHere(MismatchedParen, "unmatched ')'")
	case '*', '+', '?':
		return nil, b.errHere(RuleSyntax, "quantifier with nothing to repeat")
	case 'd', 'D', 'w', 'W', 's', 'S', 'h', 'H', 'v', 'V':
		return b.compileSet(mustEscapeClass(tok.r)), nil
	case 'p', 'P':
		set, perr := b.parsePropertyEscape(tok.r == 'P')
		if perr != nil {
			return nil, perr
		}
		return b.compileSet(set), nil
	case 'b':
		return b.compileWordBoundary(true), nil
	case 'B':
		return b.compileWordBoundary(false), nil
	case 'A':
		var blk block
		blk, _ = blk.emit(opcode.BACKSLASH_A, 0)
		return blk, nil
	case 'Z', 'z':
		var blk block
		blk, _ = blk.emit(opcode.BACKSLASH_Z, 0)
		return blk, nil
	case 'G':
		var blk block
		blk, _ = blk.emit(opcode.BACKSLASH_G, 0)
		return blk, nil
	case 'X':
		var blk block
		blk, _ = blk.emit(opcode.BACKSLASH_X, 0)
		return blk, nil
	case 'R':
		var blk block
		blk, _ = blk.emit(opcode.BACKSLASH_R, 0)
		return blk, nil
	case 'k':
		return b.parseNamedBackref()
	default:
		if tok.r >= '1' && tok.r <= '9' {
			return b.parseNumericBackref(tok.r)
		}
		return b.compileLiteralRun([]rune{tok.r}), nil
	}
}

func mustEscapeClass(r rune) *ucd.Set {
	switch r {
	case 'd':
		return ucd.FromRangeTable(unicode.Nd)
	case 'D':
		s := ucd.FromRangeTable(unicode.Nd)
		s.Complement()
		return s
	case 'w':
		s, _ := ucd.ApplyPropertyAlias("word")
		return s.Clone()
	case 'W':
		s, _ := ucd.ApplyPropertyAlias("word")
		s = s.Clone()
		s.Complement()
		return s
	case 's':
		return classS()
	case 'S':
		s := classS()
		s.Complement()
		return s
	case 'h':
		return classH()
	case 'H':
		s := classH()
		s.Complement()
		return s
	case 'v':
		return classV()
	case 'V':
		s := classV()
		s.Complement()
		return s
	}
	return ucd.NewSet()
}

func (b *builder) compileDot() block {
	var blk block
	switch {
	case b.flags.has(DotAll):
		blk, _ = blk.emit(opcode.DOTANY_ALL, 0)
	case b.flags.has(UnixLines):
		blk, _ = blk.emit(opcode.DOTANY_UNIX, 0)
	default:
		blk, _ = blk.emit(opcode.DOTANY, 0)
	}
	return blk
}

func (b *builder) compileCaret() block {
	var blk block
	switch {
	case !b.flags.has(Multiline):
		blk, _ = blk.emit(opcode.CARET, 0)
	case b.flags.has(UnixLines):
		blk, _ = blk.emit(opcode.CARET_M_UNIX, 0)
	default:
		blk, _ = blk.emit(opcode.CARET_M, 0)
	}
	return blk
}

func (b *builder) compileDollar() block {
	var blk block
	switch {
	case !b.flags.has(Multiline) && !b.flags.has(UnixLines):
		blk, _ = blk.emit(opcode.DOLLAR, 0)
	case !b.flags.has(Multiline) && b.flags.has(UnixLines):
		blk, _ = blk.emit(opcode.DOLLAR_D, 0)
	case b.flags.has(Multiline) && !b.flags.has(UnixLines):
		blk, _ = blk.emit(opcode.DOLLAR_M, 0)
	default:
		blk, _ = blk.emit(opcode.DOLLAR_MD, 0)
	}
	return blk
}

func (b *builder) compileWordBoundary(positive bool) block {
	var blk block
	op := opcode.BACKSLASH_B
	if b.flags.has(UWord) {
		op = opcode.BACKSLASH_BU
	}
	operand := 0
	if positive {
		operand = 1
	}
	blk, _ = blk.emit(op, operand)
	return blk
}

func (b *builder) parseNumericBackref(first rune) (block, *Error) {
	digits := []rune{first}
	for {
		r, ok := b.lx.peekRune()
		if !ok || r < '0' || r > '9' {
			break
		}
		digits = append(digits, r)
		b.lx.advancePos(1)
	}
	num, convErr := strconv.Atoi(string(digits))
	if convErr != nil || num < 1 || num > b.groupCount {
		return nil, b.errHere(InvalidBackRef, "backreference to nonexistent group")
	}
	return b.compileBackref(num), nil
}

func (b *builder) parseNamedBackref() (block, *Error) {
	r, ok := b.lx.peekRune()
	if !ok || (r != '<' && r != '\'') {
		return nil, b.errHere(InvalidBackRef, "malformed \\k reference")
	}
	closeCh := byte('>')
	if r == '\'' {
		closeCh = '\''
	}
	b.lx.advancePos(1)
	start := b.lx.Pos()
	for {
		r, ok := b.lx.peekRune()
		if !ok {
			return nil, b.errHere(InvalidBackRef, "unterminated \\k reference")
		}
		if byte(r) == closeCh {
			break
		}
		b.lx.advancePos(1)
	}
	name := string(b.lx.src[start:b.lx.Pos()])
	b.lx.advancePos(1)
	num, ok := b.namedCaptures.Get(name)
	if !ok {
		return nil, b.errHere(InvalidBackRef, "backreference to undefined name")
	}
	return b.compileBackref(num), nil
}

func (b *builder) compileBackref(groupNum int) block {
	slot := b.groupMap[groupNum-1]
	op := opcode.BACKREF
	if b.flags.has(CaseInsensitive) {
		op = opcode.BACKREF_I
	}
	b.needsAltInput = true
	var blk block
	blk, _ = blk.emit(op, slot)
	return blk
}
