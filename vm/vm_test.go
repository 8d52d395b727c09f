package vm

import (
	"testing"

	"github.com/coregx/uregex/compiler"
)

func compile(t *testing.T, pattern string, flags compiler.Flags) *compiler.Pattern {
	t.Helper()
	p, err := compiler.Compile(pattern, flags)
	if err != nil {
		t.Fatalf("compiler.Compile(%q): %v", pattern, err)
	}
	return p
}

func TestMatcherFind(t *testing.T) {
	tests := []struct {
		name          string
		pattern       string
		flags         compiler.Flags
		input         string
		wantOK        bool
		wantStart     int
		wantEnd       int
		wantGroup1    string
	}{
		{"literal capture", `a(b+)c`, 0, "xabbbcx", true, 1, 6, "bbb"},
		{"no match", `xyz`, 0, "abc", false, 0, 0, ""},
		{"case insensitive literal", `HELLO`, compiler.CaseInsensitive, "say hello now", true, 4, 9, ""},
		{"dot all", `a.b`, compiler.DotAll, "a\nb", true, 0, 3, ""},
		{"dot not all fails on newline", `a.b`, 0, "a\nb", false, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pat := compile(t, tt.pattern, tt.flags)
			m := NewMatcher(pat, tt.input)
			match, ok, err := m.Find(0)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Find() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if match.Groups[0].Start != tt.wantStart || match.Groups[0].End != tt.wantEnd {
				t.Errorf("match span = [%d,%d), want [%d,%d)",
					match.Groups[0].Start, match.Groups[0].End, tt.wantStart, tt.wantEnd)
			}
			if tt.wantGroup1 != "" {
				g := match.Groups[1]
				if g.Start < 0 || tt.input[g.Start:g.End] != tt.wantGroup1 {
					t.Errorf("group 1 = %q, want %q", tt.input[max(g.Start, 0):max(g.End, 0)], tt.wantGroup1)
				}
			}
		})
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestMatcherRegionAndBounds(t *testing.T) {
	pat := compile(t, `^abc$`, 0)
	m := NewMatcher(pat, "xxabcxx")
	m.Region(2, 5)

	_, ok, err := m.Matches()
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !ok {
		t.Fatal("expected region-bounded Matches() to succeed with default anchoring bounds")
	}
}

func TestMatcherTimeLimit(t *testing.T) {
	pat := compile(t, `(a+)+b`, 0)
	input := make([]byte, 35)
	for i := range input {
		input[i] = 'a'
	}
	input = append(input, 'c')
	m := NewMatcher(pat, string(input))
	m.SetTimeLimit(500)
	_, _, err := m.Find(0)
	if err == nil {
		t.Fatal("expected timeout on catastrophic backtracking")
	}
	if _, ok := err.(ErrTimeout); !ok {
		t.Fatalf("error = %v (%T), want ErrTimeout", err, err)
	}
}

func TestMatcherStopCallback(t *testing.T) {
	// `.a` has no fixed leading char, so Find tries (and reports) every
	// offset rather than letting the prefilter jump straight to the 'a'.
	pat := compile(t, `.a`, 0)
	m := NewMatcher(pat, "bbbbbbbbbba")
	calls := 0
	m.FindProgressCallback = func(pos int) bool {
		calls++
		return calls < 3
	}
	_, _, err := m.Find(0)
	if err == nil {
		t.Fatal("expected ErrStoppedByCaller")
	}
	if _, ok := err.(ErrStoppedByCaller); !ok {
		t.Fatalf("error = %v (%T), want ErrStoppedByCaller", err, err)
	}
}

func TestMatcherBackreference(t *testing.T) {
	pat := compile(t, `(\w+) \1`, 0)
	m := NewMatcher(pat, "hello hello world")
	match, ok, err := m.Find(0)
	if err != nil || !ok {
		t.Fatalf("Find() = %v, %v", ok, err)
	}
	if match.Groups[0].Start != 0 || match.Groups[0].End != 11 {
		t.Errorf("match span = %+v", match.Groups[0])
	}
}

func TestMatcherGroupsDoNotParticipate(t *testing.T) {
	pat := compile(t, `(a)|(b)`, 0)
	m := NewMatcher(pat, "b")
	match, ok, err := m.Find(0)
	if err != nil || !ok {
		t.Fatalf("Find() = %v, %v", ok, err)
	}
	if match.Groups[1].Start != -1 || match.Groups[1].End != -1 {
		t.Errorf("group 1 should be unmatched, got %+v", match.Groups[1])
	}
	if match.Groups[2].Start != 0 || match.Groups[2].End != 1 {
		t.Errorf("group 2 should be [0,1), got %+v", match.Groups[2])
	}
}
