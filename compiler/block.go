package compiler

import "github.com/coregx/uregex/opcode"

// block is a self-contained, relocatable sequence of instructions: every
// code-location operand inside it (JMP, STATE_SAVE, JMP_SAV, JMP_SAV_X,
// RELOC_OPRND) is relative to index 0 of the block itself. appendBlock
// splices a block into a growing program, adding the program's current
// length to every such operand.
//
// This is this engine's concretization of spec §4.2's insertOp/global
// fix-up walk: rather than inserting a NOP into an already-emitted stream and
// re-walking the whole program to shift every downstream reference (as
// ICU's single growing-array compiler must), each syntactic unit (a
// quantified atom, an alternation branch, a group) is first compiled into its
// own relocatable block and only spliced into the final stream once, with one
// relocation pass over just that block. The observable bytecode shape for
// each construct matches spec §4.2 exactly; see DESIGN.md.
type block []uint32

// isCodeLocOp reports whether op's operand is a location into the
// instruction stream (and therefore needs relocating when a block is moved).
func isCodeLocOp(op opcode.Op) bool {
	switch op {
	case opcode.JMP, opcode.STATE_SAVE, opcode.JMP_SAV, opcode.JMP_SAV_X,
		opcode.RELOC_OPRND:
		return true
	}
	return false
}

// JMPX's operand is a data slot, CTR_LOOP/CTR_LOOP_NG's operand is a frame
// slot, and LB_CONT/LBN_CONT's operand is a data slot (its retry target
// instead rides the RELOC_OPRND emitted just before it) -- none of these
// need relocating when a block moves.

// dataWordsFollowing reports how many trailing words of a multi-word
// instruction are raw integers (lengths, counts), never opcodes, and must be
// skipped verbatim when scanning a block for relocation.
func dataWordsFollowing(op opcode.Op) int {
	switch op {
	case opcode.STRING, opcode.STRING_I:
		return 1 // STRING_LEN
	case opcode.LB_START:
		return 2 // minML, maxML, read by LB_CONT/LBN_CONT at runtime
	}
	return 0
}

// relocate adds base to every code-location operand in b, in place.
func (b block) relocate(base int) {
	for i := 0; i < len(b); i++ {
		op, operand := opcode.Decode(b[i])
		if isCodeLocOp(op) {
			b[i] = opcode.SetOperand(b[i], operand+base)
		}
		i += dataWordsFollowing(op)
	}
}

// appendBlock splices b onto the end of dst, relocating b's internal references
// by dst's current length, and returns the combined program plus the index
// at which b now starts.
func appendBlock(dst block, b block) (block, int) {
	base := len(dst)
	cloned := make(block, len(b))
	copy(cloned, b)
	cloned.relocate(base)
	return append(dst, cloned...), base
}

// emit appends a single instruction and returns its index.
func (b block) emit(op opcode.Op, operand int) (block, int) {
	idx := len(b)
	return append(b, opcode.Inst(op, operand)), idx
}

// patch rewrites the operand of the instruction at idx.
func (b block) patch(idx, operand int) {
	b[idx] = opcode.SetOperand(b[idx], operand)
}

// end returns the index one past the last instruction -- i.e. "the end of
// the block", the common jump/state-save target for skip-to-end fix-ups.
func (b block) end() int { return len(b) }
