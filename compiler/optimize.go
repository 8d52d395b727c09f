package compiler

import "github.com/coregx/uregex/opcode"

// stripNOPs is optimization pass 1 (spec §4.3): remove NOP instructions that
// exist purely as placeholders in this engine's block-based compiler. The
// quantifier-compilation helpers never actually emit a bare structural NOP
// that needs removing -- blocks are spliced fully formed, and BACKREF
// already carries its group's frame slot -- so the pass returns prog
// unchanged. Kept as a distinct, named pass to mirror the two-pass optimizer
// shape spec §4.3/§4.4 describe.
func stripNOPs(prog []uint32) []uint32 {
	return prog
}

// analyzeStartType is optimization pass 2 (spec §4.4): compute the overall
// minimum match length and classify the find() strategy a Matcher should use
// to skip non-matching start positions cheaply.
func analyzeStartType(p *Pattern) {
	prog := block(p.Code)
	min, _ := minMaxLen(prog)
	if min == UnreachableLen {
		min = 0
	}
	p.MinMatchLen = min

	p.StartType = classifyStart(prog)
	switch p.StartType {
	case StartString:
		// InitialLiterals/InitialStringIdx/Len are set by Compile after
		// this returns.
	case StartChar:
		// InitialChar is set by Compile after this returns.
	case StartSet:
		// InitialChars is set by Compile after this returns.
	}
}

// classifyStart inspects the program's first few reachable instructions
// (skipping START_CAPTURE/anchors that don't consume input) to pick a
// find() strategy, per spec §4.4's opcode contribution table.
func classifyStart(prog block) StartType {
	i := 0
	sawAnchorStart := false
	for i < len(prog) {
		op, _ := opcode.Decode(prog[i])
		switch op {
		case opcode.START_CAPTURE, opcode.END_CAPTURE, opcode.NOP:
			i++
			continue
		case opcode.BACKSLASH_A, opcode.CARET:
			sawAnchorStart = true
			i++
			continue
		case opcode.ONECHAR:
			if sawAnchorStart {
				return StartAtStart
			}
			return StartChar
		case opcode.STRING:
			if sawAnchorStart {
				return StartAtStart
			}
			return StartString
		case opcode.ONECHAR_I, opcode.STRING_I:
			// the char/string prefilters compare bytes exactly, so a
			// case-folded leading literal gives no usable start hint.
			if sawAnchorStart {
				return StartAtStart
			}
			return StartNoInfo
		case opcode.SETREF, opcode.STATIC_SETREF, opcode.STAT_SETREF_N:
			if sawAnchorStart {
				return StartAtStart
			}
			return StartSet
		case opcode.CARET_M, opcode.CARET_M_UNIX:
			return StartLine
		default:
			return StartNoInfo
		}
	}
	if sawAnchorStart {
		return StartAtStart
	}
	return StartNoInfo
}

// collectInitialLiterals walks alternation branches reachable from the start
// with no preceding variable-length content and gathers the literal string
// each branch starts with, feeding the prefilter package's multi-literal
// Aho-Corasick scan (SPEC_FULL.md's DOMAIN STACK section; this generalizes
// spec §4.4's single-string STRING start type to the common case of a
// top-level alternation of literal prefixes, e.g. "foo|bar|baz"). It returns
// nil if any branch starts with something other than a case-sensitive
// literal.
func collectInitialLiterals(p *Pattern) [][]rune {
	prog := block(p.Code)
	var out [][]rune
	var walk func(i int, depth int) bool
	walk = func(i, depth int) bool {
		if depth > 16 || i >= len(prog) {
			return false
		}
		op, operand := opcode.Decode(prog[i])
		switch op {
		case opcode.START_CAPTURE, opcode.END_CAPTURE, opcode.NOP,
			opcode.BACKSLASH_A, opcode.CARET:
			return walk(i+1, depth+1)
		case opcode.STATE_SAVE:
			ok1 := walk(operand, depth+1)
			ok2 := walk(i+1, depth+1)
			return ok1 && ok2
		case opcode.STRING:
			n := opcode.Operand(prog[i+1])
			out = append(out, p.LiteralText[operand:operand+n])
			return true
		case opcode.ONECHAR:
			out = append(out, []rune{rune(operand)})
			return true
		}
		return false
	}
	if !walk(0, 0) {
		return nil
	}
	return out
}
