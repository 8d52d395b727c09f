// Package opcode defines the compiled-pattern instruction encoding: a closed
// enumeration of bytecode tags and the 32-bit word format that packs a tag
// with a 24-bit operand (spec §6.1). The compiler package emits these words;
// the vm package interprets them. Neither package stores host pointers into
// the instruction stream -- every cross-reference is an integer index,
// following spec §9's guidance on cyclic graphs / pointer fix-ups.
package opcode

import "github.com/coregx/uregex/internal/conv"

// Op is one bytecode instruction tag. The tag occupies the high byte of a
// 32-bit instruction word; the low 24 bits are its operand.
type Op uint8

const (
	NOP Op = iota
	FAIL
	END
	JMP
	JMPX // conditional forward jump; operand is a data slot holding the saved input index
	ONECHAR
	ONECHAR_I
	STRING
	STRING_I
	STRING_LEN
	DOTANY
	DOTANY_ALL
	DOTANY_UNIX
	CARET
	CARET_M
	CARET_M_UNIX
	DOLLAR
	DOLLAR_M
	DOLLAR_D
	DOLLAR_MD
	BACKSLASH_B  // word boundary, operand 1 = \b, 0 = \B
	BACKSLASH_BU // Unicode word boundary
	BACKSLASH_D  // operand 1 = \d, 0 = \D
	BACKSLASH_H  // operand 1 = \h, 0 = \H
	BACKSLASH_V  // operand 1 = \v, 0 = \V
	BACKSLASH_R
	BACKSLASH_G
	BACKSLASH_X
	BACKSLASH_Z
	BACKSLASH_A
	SETREF
	STATIC_SETREF
	STAT_SETREF_N
	START_CAPTURE
	END_CAPTURE
	BACKREF
	BACKREF_I
	STO_SP
	LD_SP
	STO_INP_LOC
	JMP_SAV
	JMP_SAV_X
	CTR_INIT
	CTR_INIT_NG
	CTR_LOOP
	CTR_LOOP_NG
	RELOC_OPRND
	LOOP_SR_I
	LOOP_DOT_I
	LOOP_C
	LA_START
	LA_END
	LB_START
	LB_CONT
	LB_END
	LBN_CONT
	LBN_END
	STATE_SAVE
	BACKTRACK
	opCount
)

var names = [opCount]string{
	NOP: "NOP", FAIL: "FAIL", END: "END", JMP: "JMP", JMPX: "JMPX",
	ONECHAR: "ONECHAR", ONECHAR_I: "ONECHAR_I", STRING: "STRING", STRING_I: "STRING_I",
	STRING_LEN: "STRING_LEN", DOTANY: "DOTANY", DOTANY_ALL: "DOTANY_ALL", DOTANY_UNIX: "DOTANY_UNIX",
	CARET: "CARET", CARET_M: "CARET_M", CARET_M_UNIX: "CARET_M_UNIX",
	DOLLAR: "DOLLAR", DOLLAR_M: "DOLLAR_M", DOLLAR_D: "DOLLAR_D", DOLLAR_MD: "DOLLAR_MD",
	BACKSLASH_B: "BACKSLASH_B", BACKSLASH_BU: "BACKSLASH_BU", BACKSLASH_D: "BACKSLASH_D",
	BACKSLASH_H: "BACKSLASH_H", BACKSLASH_V: "BACKSLASH_V", BACKSLASH_R: "BACKSLASH_R",
	BACKSLASH_G: "BACKSLASH_G", BACKSLASH_X: "BACKSLASH_X", BACKSLASH_Z: "BACKSLASH_Z",
	BACKSLASH_A: "BACKSLASH_A",
	SETREF: "SETREF", STATIC_SETREF: "STATIC_SETREF", STAT_SETREF_N: "STAT_SETREF_N",
	START_CAPTURE: "START_CAPTURE", END_CAPTURE: "END_CAPTURE",
	BACKREF: "BACKREF", BACKREF_I: "BACKREF_I",
	STO_SP: "STO_SP", LD_SP: "LD_SP", STO_INP_LOC: "STO_INP_LOC",
	JMP_SAV: "JMP_SAV", JMP_SAV_X: "JMP_SAV_X",
	CTR_INIT: "CTR_INIT", CTR_INIT_NG: "CTR_INIT_NG", CTR_LOOP: "CTR_LOOP", CTR_LOOP_NG: "CTR_LOOP_NG",
	RELOC_OPRND: "RELOC_OPRND",
	LOOP_SR_I:   "LOOP_SR_I", LOOP_DOT_I: "LOOP_DOT_I", LOOP_C: "LOOP_C",
	LA_START: "LA_START", LA_END: "LA_END",
	LB_START: "LB_START", LB_CONT: "LB_CONT", LB_END: "LB_END",
	LBN_CONT: "LBN_CONT", LBN_END: "LBN_END",
	STATE_SAVE: "STATE_SAVE", BACKTRACK: "BACKTRACK",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}

// MaxOperand is the largest operand a single instruction word can carry
// (24 bits), per spec §6.1.
const MaxOperand = 0x00FFFFFF

// Inst packs op and operand into the 32-bit instruction word spec §6.1
// defines: (opcode_tag << 24) | (operand & 0x00FFFFFF).
func Inst(op Op, operand int) uint32 {
	return uint32(op)<<24 | (conv.IntToUint32(operand) & MaxOperand)
}

// Decode splits a 32-bit instruction word back into its opcode and operand.
func Decode(word uint32) (Op, int) {
	return Op(word >> 24), int(word & MaxOperand)
}

// Operand extracts just the operand half of word.
func Operand(word uint32) int { return int(word & MaxOperand) }

// SetOperand returns word with its operand replaced, keeping the opcode tag.
func SetOperand(word uint32, operand int) uint32 {
	return word&^MaxOperand | (conv.IntToUint32(operand) & MaxOperand)
}
