package uregex

import "testing"

// TestCompile is a table-driven compile test.
func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"simple literal", "hello", false},
		{"digit", `\d`, false},
		{"word", `\w+`, false},
		{"alternation", "foo|bar", false},
		{"repetition", "a+", false},
		{"named capture", `(?<name>\d+)`, false},
		{"set algebra", `[a-z&&[^aeiou]]+`, false},
		{"unterminated group", "(", true},
		{"unterminated class", "[a-z", true},
		{"bad backref", `(a)\2`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := Compile(tt.pattern, 0)
			if (err != nil) != tt.wantErr {
				t.Errorf("Compile(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
				return
			}
			if !tt.wantErr && re == nil {
				t.Error("Compile() returned nil pattern with nil error")
			}
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustCompile did not panic on invalid pattern")
		}
	}()
	MustCompile("(", 0)
}

// TestScenarios exercises spec §8's literal test table.
func TestScenarios(t *testing.T) {
	t.Run("a(b+)c finds capture", func(t *testing.T) {
		p := MustCompile(`a(b+)c`, 0)
		m := p.NewMatcher("xabbbcx")
		ok, err := m.Find()
		if err != nil || !ok {
			t.Fatalf("Find() = %v, %v; want true, nil", ok, err)
		}
		if m.Start() != 1 || m.End() != 6 {
			t.Errorf("Start/End = %d,%d; want 1,6", m.Start(), m.End())
		}
		if g := m.Group(1); g != "bbb" {
			t.Errorf("Group(1) = %q; want bbb", g)
		}
	})

	t.Run("named captures", func(t *testing.T) {
		p := MustCompile(`(?<name>\d+)-(?<name2>\d+)`, 0)
		m := p.NewMatcher("x=12-345")
		ok, err := m.Find()
		if err != nil || !ok {
			t.Fatalf("Find() = %v, %v", ok, err)
		}
		if m.GroupName("name") != "12" || m.GroupName("name2") != "345" {
			t.Errorf("group names: %q %q", m.GroupName("name"), m.GroupName("name2"))
		}
	})

	t.Run("empty star match then exhausted", func(t *testing.T) {
		p := MustCompile(`a*`, 0)
		m := p.NewMatcher("")
		ok, err := m.Find()
		if err != nil || !ok || m.Start() != 0 || m.End() != 0 {
			t.Fatalf("first Find() = %v,%v start=%d end=%d", ok, err, m.Start(), m.End())
		}
		ok, err = m.Find()
		if err != nil || ok {
			t.Fatalf("second Find() = %v,%v; want false,nil", ok, err)
		}
		if !m.HitEnd() {
			t.Error("expected HitEnd() true after exhausting empty input")
		}
	})

	t.Run("lookbehind", func(t *testing.T) {
		p := MustCompile(`(?<=ab)c`, 0)
		m := p.NewMatcher("abc")
		ok, err := m.Find()
		if err != nil || !ok || m.Start() != 2 || m.End() != 3 {
			t.Fatalf("Find() = %v,%v start=%d end=%d", ok, err, m.Start(), m.End())
		}
	})

	t.Run("negative lookahead", func(t *testing.T) {
		p := MustCompile(`a(?!b)`, 0)
		m := p.NewMatcher("ab ac")
		ok, err := m.Find()
		if err != nil || !ok || m.Start() != 3 || m.End() != 4 {
			t.Fatalf("Find() = %v,%v start=%d end=%d", ok, err, m.Start(), m.End())
		}
	})

	t.Run("set algebra intersection", func(t *testing.T) {
		p := MustCompile(`[a-z&&[^aeiou]]+`, 0)
		m := p.NewMatcher("schwyz")
		ok, err := m.Find()
		if err != nil || !ok || m.Group(0) != "schwyz" {
			t.Fatalf("Find() = %v,%v group=%q", ok, err, m.Group(0))
		}
	})

	t.Run("reluctant interval then next find", func(t *testing.T) {
		p := MustCompile(`a{3,5}?`, 0)
		m := p.NewMatcher("aaaaaa")
		ok, err := m.Find()
		if err != nil || !ok || m.Group(0) != "aaa" {
			t.Fatalf("first Find() = %v,%v group=%q", ok, err, m.Group(0))
		}
		ok, err = m.Find()
		if err != nil || !ok || m.Start() != 3 || m.Group(0) != "aaa" {
			t.Fatalf("second Find() = %v,%v start=%d group=%q", ok, err, m.Start(), m.Group(0))
		}
	})

	t.Run("non-capturing alternation repeated", func(t *testing.T) {
		p := MustCompile(`(?:ab|cd){2}`, 0)
		m := p.NewMatcher("abcd")
		ok, err := m.Matches()
		if err != nil || !ok {
			t.Fatalf("Matches() = %v,%v", ok, err)
		}
	})

	t.Run("multiline caret dollar", func(t *testing.T) {
		p := MustCompile(`^a$`, Multiline)
		m := p.NewMatcher("x\na\ny")
		ok, err := m.Find()
		if err != nil || !ok || m.Start() != 2 || m.End() != 3 {
			t.Fatalf("Find() = %v,%v start=%d end=%d", ok, err, m.Start(), m.End())
		}
	})

	t.Run("time limit on catastrophic backtracking", func(t *testing.T) {
		p := MustCompile(`(a+)+b`, 0)
		input := ""
		for i := 0; i < 30; i++ {
			input += "a"
		}
		input += "c"
		m := p.NewMatcher(input)
		m.SetTimeLimit(1000)
		_, err := m.Find()
		if err == nil {
			t.Fatal("expected timeout error on catastrophic backtracking")
		}
	})
}

func TestFindAllStringSubmatch(t *testing.T) {
	p := MustCompile(`(\w)(\d)`, 0)
	got := p.FindAllStringSubmatch("a1 b2 c3", -1)
	if len(got) != 3 {
		t.Fatalf("got %d matches, want 3: %v", len(got), got)
	}
	if got[0][0] != "a1" || got[0][1] != "a" || got[0][2] != "1" {
		t.Errorf("got[0] = %v", got[0])
	}
}

func TestUnparticipatingGroup(t *testing.T) {
	p := MustCompile(`(a)|(b)`, 0)
	m := p.NewMatcher("b")
	ok, err := m.Find()
	if err != nil || !ok {
		t.Fatalf("Find() = %v,%v", ok, err)
	}
	if m.StartGroup(1) != -1 || m.EndGroup(1) != -1 || m.Group(1) != "" {
		t.Errorf("group 1 should be unparticipating, got start=%d end=%d group=%q",
			m.StartGroup(1), m.EndGroup(1), m.Group(1))
	}
	if m.Group(2) != "b" {
		t.Errorf("group 2 = %q, want b", m.Group(2))
	}
}
