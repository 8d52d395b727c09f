package compiler

import (
	"github.com/coregx/uregex/internal/sparse"
	"github.com/coregx/uregex/opcode"
)

// minMaxLen walks the instructions in blk (a self-contained relocatable
// block with its own 0-based addressing) and returns the minimum and maximum
// number of input characters it can consume, or UnreachableLen for "no
// bound" / "cannot match". This is the same contribution-table walk spec
// §4.4's optimization pass 2 runs over the whole finished program, just
// scoped to a single block -- reused during quantifier compilation to decide
// whether a starred sub-pattern can match empty, and during lookbehind
// compilation to enforce the LOOK_BEHIND_LIMIT bound (spec §4.2).
//
// The walk is approximate for constructs with internal branches (alternation,
// optional): it takes the min across branches and the max across branches.
// Loops are not followed around: a star/plus loop (a STATE_SAVE whose exit
// target sits right after a backward JMP, or a lazy loop's JMP_SAV) makes
// the max unbounded, counted loops multiply their body's bounds, and no
// fixed-point analysis is attempted for arbitrary cyclic bytecode graphs.
func minMaxLen(blk block) (min, max int) {
	if len(blk) == 0 {
		return 0, 0
	}
	return walkLen(blk, 0, len(blk), sparse.NewSet(uint32(len(blk))))
}

func walkLen(blk block, lo, hi int, visiting *sparse.Set) (min, max int) {
	i := lo
	for i < hi {
		if visiting.Contains(uint32(i)) {
			// cyclic back-edge (a loop header we're already inside): treat
			// as contributing nothing further to this pass; the loop's own
			// STATE_SAVE or CTR_INIT case accounts for its repetition.
			return min, max
		}
		op, operand := opcode.Decode(blk[i])
		switch op {
		case opcode.NOP, opcode.CARET, opcode.CARET_M, opcode.CARET_M_UNIX,
			opcode.DOLLAR, opcode.DOLLAR_M, opcode.DOLLAR_D, opcode.DOLLAR_MD,
			opcode.BACKSLASH_B, opcode.BACKSLASH_BU, opcode.BACKSLASH_G,
			opcode.BACKSLASH_Z, opcode.BACKSLASH_A,
			opcode.START_CAPTURE, opcode.END_CAPTURE,
			opcode.STO_SP, opcode.LD_SP, opcode.STO_INP_LOC,
			opcode.LA_START, opcode.LA_END, opcode.LB_END,
			opcode.LBN_END, opcode.RELOC_OPRND,
			opcode.LB_CONT, opcode.LBN_CONT:
			i++
		case opcode.LB_START:
			i += 3 // op itself plus the min/max NOP data words
		case opcode.ONECHAR, opcode.ONECHAR_I, opcode.DOTANY, opcode.DOTANY_ALL,
			opcode.DOTANY_UNIX, opcode.SETREF, opcode.STATIC_SETREF, opcode.STAT_SETREF_N,
			opcode.BACKSLASH_D, opcode.BACKSLASH_H, opcode.BACKSLASH_V, opcode.BACKSLASH_R:
			min++
			max++
			i++
		case opcode.BACKSLASH_X:
			min++
			max += 2 // a grapheme cluster may span more than one code point
			i++
		case opcode.STRING, opcode.STRING_I:
			n := opcode.Operand(blk[i+1])
			min += n
			max += n
			i += 2
		case opcode.BACKREF, opcode.BACKREF_I:
			// length depends on what the referenced group captured; treat as
			// variable with no useful static bound.
			max = UnreachableLen
			i++
		case opcode.JMP:
			i = operand
		case opcode.JMPX:
			i++
		case opcode.STATE_SAVE:
			// alternation: one branch is [i+1, operand), the other
			// continues past it (found via the JMP at the end of the first
			// branch). Evaluate both and combine.
			altMin, altMax := walkLen(blk, operand, hi, visiting)
			if operand > 0 && operand <= len(blk) {
				// a greedy/possessive star: the body ends in a JMP back to
				// (or before) this STATE_SAVE, so it can repeat without limit.
				if jop, jt := opcode.Decode(blk[operand-1]); jop == opcode.JMP && jt <= i {
					max = UnreachableLen
				}
			}
			visiting.Insert(uint32(i))
			// the primary branch runs from i+1 up to (but not through) the
			// JMP that skips the alternative; walkLen stops naturally at
			// that JMP's target resolution since JMP jumps out of range.
			fallMin, fallMax := walkBranch(blk, i+1, hi, visiting)
			visiting.Remove(uint32(i))
			min += minOf(altMin, fallMin)
			max = addUnreachable(max, maxOf(altMax, fallMax))
			return min, max
		case opcode.JMP_SAV, opcode.JMP_SAV_X:
			// a lazy loop's back-edge: the body can repeat without limit.
			max = UnreachableLen
			i++
		case opcode.CTR_INIT, opcode.CTR_INIT_NG:
			// followed by RELOC_OPRND(loopEnd), minCount, maxCount data words
			loopEndWord := blk[i+1]
			_, loopEnd := opcode.Decode(loopEndWord)
			minCount := int(int32(opcode.Operand(blk[i+2])))
			maxCountRaw := opcode.Operand(blk[i+3])
			bodyMin, bodyMax := walkLen(blk, i+4, loopEnd, visiting)
			min += bodyMin * minCount
			if maxCountRaw == opcode.MaxOperand || bodyMax == UnreachableLen {
				max = UnreachableLen
			} else {
				max = addUnreachable(max, bodyMax*maxCountRaw)
			}
			i = loopEnd
		case opcode.CTR_LOOP, opcode.CTR_LOOP_NG:
			i++
		case opcode.LOOP_SR_I, opcode.LOOP_DOT_I:
			// LOOP_C immediately follows and contributes nothing further; this
			// pair is an atomic instruction standing in for a whole X* loop.
			max = UnreachableLen
			i += 2
		case opcode.FAIL, opcode.BACKTRACK, opcode.END:
			i = hi
		default:
			i++
		}
	}
	return min, max
}

// walkBranch walks a sub-range that may end in a JMP out of [lo,hi); it stops
// at the first JMP/END/BACKTRACK encountered, treating that as the branch's
// natural end (mirrors walkLen's own termination but without consuming the
// alternative branch already handled by the caller).
func walkBranch(blk block, lo, hi int, visiting *sparse.Set) (int, int) {
	for i := lo; i < hi; i++ {
		op, _ := opcode.Decode(blk[i])
		if op == opcode.JMP {
			return walkLen(blk, lo, i, visiting)
		}
	}
	return walkLen(blk, lo, hi, visiting)
}

func minOf(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxOf(a, b int) int {
	if a == UnreachableLen || b == UnreachableLen {
		return UnreachableLen
	}
	if a > b {
		return a
	}
	return b
}

func addUnreachable(a, b int) int {
	if a == UnreachableLen || b == UnreachableLen {
		return UnreachableLen
	}
	return a + b
}
