// Package compiler turns pattern source text into the bytecode Pattern the
// vm package executes, in two phases (spec §4): a lexer/recursive-descent
// parser that emits self-contained relocatable instruction blocks (block.go,
// parser.go, group.go, setexpr.go), followed by an optimization pass that
// computes the minimum match length and find() start-type hint the
// prefilter package consumes (optimize.go).
package compiler

import (
	"github.com/coregx/uregex/internal/ucd"
	"github.com/coregx/uregex/opcode"
)

// Compile parses and compiles pattern under flags, returning the resulting
// Pattern or the first *Error encountered. Spec §4's top-level pipeline.
func Compile(pattern string, flags Flags) (*Pattern, *Error) {
	src := []rune(pattern)
	b := newBuilder(src, flags)

	var body block
	var err *Error
	if flags.has(Literal) {
		body = b.compileLiteralRun(src)
	} else {
		body, err = b.parsePattern()
		if err != nil {
			return nil, err
		}
	}

	var prog block
	prog, _ = appendBlock(prog, body)
	prog, _ = prog.emit(opcode.END, 0)

	if len(prog) > opcode.MaxOperand {
		return nil, &Error{Code: PatternTooBig, Detail: "compiled program exceeds maximum size"}
	}

	prog = stripNOPs(prog)

	p := &Pattern{
		Source:            pattern,
		Flags:             flags,
		Code:              prog,
		LiteralText:       b.literalPool,
		SetPool:           b.setPool,
		GroupMap:          b.groupMap,
		NamedCaptureMap:   b.namedCaptures,
		namedCaptureOrder: b.namedCaptureOrder,
		DataSize:          b.nextDataSlot,
		FrameSize:         b.nextFrameSlot,
		NeedsAltInput:     b.needsAltInput,
	}

	analyzeStartType(p)
	if p.StartType == StartNoInfo {
		// a top-level alternation ("foo|bar|baz") has no single leading
		// literal, but may still start with one literal per branch.
		if lits := collectInitialLiterals(p); len(lits) > 1 {
			p.StartType = StartString
			p.InitialLiterals = lits
		}
	}
	if p.StartType == StartString {
		if lits := collectInitialLiterals(p); len(lits) > 0 {
			p.InitialLiterals = lits
			if len(lits) == 1 {
				idx := indexOfLiteral(p.LiteralText, lits[0])
				p.InitialStringIdx = idx
				p.InitialStringLen = len(lits[0])
			}
		}
	}
	if p.StartType == StartChar {
		if ch, ok := firstChar(prog); ok {
			p.InitialChar = ch
		}
	}
	if p.StartType == StartSet {
		if s, ok := firstSet(prog, p.SetPool); ok {
			p.InitialChars = s
		}
	}

	return p, nil
}

// MustCompile is like Compile but panics on error, following the standard
// library's regexp.MustCompile convention for package-level pattern
// constants.
func MustCompile(pattern string, flags Flags) *Pattern {
	p, err := Compile(pattern, flags)
	if err != nil {
		panic(err)
	}
	return p
}

func indexOfLiteral(pool []rune, lit []rune) int {
	if len(lit) == 0 || len(pool) < len(lit) {
		return -1
	}
	for i := 0; i+len(lit) <= len(pool); i++ {
		match := true
		for j := range lit {
			if pool[i+j] != lit[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func firstChar(prog block) (rune, bool) {
	for i := 0; i < len(prog); i++ {
		op, operand := opcode.Decode(prog[i])
		switch op {
		case opcode.START_CAPTURE, opcode.END_CAPTURE, opcode.NOP, opcode.BACKSLASH_A, opcode.CARET:
			continue
		case opcode.ONECHAR, opcode.ONECHAR_I:
			return rune(operand), true
		}
		return 0, false
	}
	return 0, false
}

func firstSet(prog block, pool []*ucd.Set) (*ucd.Set, bool) {
	for i := 0; i < len(prog); i++ {
		op, operand := opcode.Decode(prog[i])
		switch op {
		case opcode.START_CAPTURE, opcode.END_CAPTURE, opcode.NOP, opcode.BACKSLASH_A, opcode.CARET:
			continue
		case opcode.SETREF, opcode.STATIC_SETREF, opcode.STAT_SETREF_N:
			if operand < len(pool) {
				return pool[operand], true
			}
			return nil, false
		}
		return nil, false
	}
	return nil, false
}
