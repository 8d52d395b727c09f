package compiler

import (
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/kylelemons/godebug/pretty"

	"github.com/coregx/uregex/opcode"
)

// instDump is a pretty-printable view of one compiled instruction, decoded
// from its packed 32-bit word the same way the vm package does.
type instDump struct {
	Op      string
	Operand int
}

func dumpCode(code []uint32) []instDump {
	out := make([]instDump, len(code))
	for i, word := range code {
		op, operand := opcode.Decode(word)
		out[i] = instDump{Op: op.String(), Operand: operand}
	}
	return out
}

// assertCode pretty-prints got's decoded bytecode and diffs it against want,
// a golden pretty.Sprint rendering, applied inline instead of against golden
// files since these cases are small and it's clearer to read the
// expectation next to the pattern.
func assertCode(t *testing.T, pattern string, flags Flags, want []instDump) {
	t.Helper()
	pat, err := Compile(pattern, flags)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	got := dumpCode(pat.Code)
	gotStr := pretty.Sprint(got)
	wantStr := pretty.Sprint(want)
	if patch := diff.Diff(wantStr, gotStr); patch != "" {
		t.Errorf("bytecode for %q diverges from golden:\n%s", pattern, patch)
	}
}

func TestCompileBytecodeLiteral(t *testing.T) {
	assertCode(t, "ab", 0, []instDump{
		{"STRING", 0},
		{"STRING_LEN", 2},
		{"END", 0},
	})
}

func TestCompileBytecodeCaseInsensitiveLiteral(t *testing.T) {
	assertCode(t, "a", CaseInsensitive, []instDump{
		{"ONECHAR_I", int('a')},
		{"END", 0},
	})
}

func TestCompileBytecodeDotAny(t *testing.T) {
	assertCode(t, ".", 0, []instDump{
		{"DOTANY", 0},
		{"END", 0},
	})
}

func TestCompileBytecodeDotAllFlag(t *testing.T) {
	assertCode(t, ".", DotAll, []instDump{
		{"DOTANY_ALL", 0},
		{"END", 0},
	})
}

func TestCompileBytecodeGreedyStarStripsNop(t *testing.T) {
	// A greedy star over a single character compiles straight to the
	// LOOP_SR_I/LOOP_C pair; no placeholder NOP is left in the stream.
	pat, err := Compile("a*", 0)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for i, word := range pat.Code {
		op, _ := opcode.Decode(word)
		if op == opcode.NOP {
			t.Errorf("instruction %d is a stray NOP after optimization: %s", i, pretty.Sprint(dumpCode(pat.Code)))
		}
	}
}

func TestCompileBytecodeAlternation(t *testing.T) {
	pat, err := Compile("a|b", 0)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	dump := dumpCode(pat.Code)
	var sawSave, sawJmp bool
	for _, inst := range dump {
		switch inst.Op {
		case "STATE_SAVE":
			sawSave = true
		case "JMP":
			sawJmp = true
		}
	}
	if !sawSave || !sawJmp {
		t.Errorf("alternation should emit STATE_SAVE/JMP around each branch, got:\n%s", pretty.Sprint(dump))
	}
}

func TestCompileMinMatchLen(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"abc", 3},
		{"a+", 1},
		{"a*", 0},
		{"(ab)+", 2},
		{"a|bb", 1},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			pat, err := Compile(tt.pattern, 0)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.pattern, err)
			}
			if pat.MinMatchLen != tt.want {
				t.Errorf("MinMatchLen(%q) = %d, want %d", tt.pattern, pat.MinMatchLen, tt.want)
			}
		})
	}
}

func TestCompileStartTypeLiteral(t *testing.T) {
	pat, err := Compile("hello", 0)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if pat.StartType != StartString && pat.StartType != StartChar {
		t.Errorf("StartType for a literal prefix = %v, want StartString or StartChar", pat.StartType)
	}
}
