package uregex

import (
	"strconv"
	"strings"
)

// AppendReplacement appends, to dest, the input text between the end of the
// previous append (or the start of the input, on first call) and the start of the
// current match, followed by repl with its references expanded against the
// current match (spec §6.5's replacement mini-language). It requires a
// prior successful Find/Matches/LookingAt call.
func (m *Matcher) AppendReplacement(dest []byte, repl string) ([]byte, error) {
	if !m.matched {
		return dest, &ErrInvalidState{Op: "AppendReplacement"}
	}
	dest = append(dest, m.vm.Input()[m.appendPos:m.Start()]...)
	expanded, err := expandReplacement(m, repl)
	if err != nil {
		return dest, err
	}
	dest = append(dest, expanded...)
	m.appendPos = m.End()
	return dest, nil
}

// AppendTail appends the remainder of the input, from the end of the last
// append_replacement (or the start of the input, if none occurred) through the end
// of the input.
func (m *Matcher) AppendTail(dest []byte) []byte {
	return append(dest, m.vm.Input()[m.appendPos:]...)
}

// ReplaceAll returns a copy of the matcher's input with every
// non-overlapping match replaced by repl's expansion.
func (m *Matcher) ReplaceAll(repl string) (string, error) {
	m.ResetIndex()
	m.appendPos = 0
	var out []byte
	pos := 0
	input := m.vm.Input()
	for {
		ok, err := m.FindFrom(pos)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		out, err = m.AppendReplacement(out, repl)
		if err != nil {
			return "", err
		}
		end := m.End()
		if end > pos {
			pos = end
		} else {
			pos++
		}
		if pos > len(input) {
			break
		}
	}
	out = m.AppendTail(out)
	return string(out), nil
}

// ReplaceFirst returns a copy of the matcher's input with only the first
// match replaced by repl's expansion.
func (m *Matcher) ReplaceFirst(repl string) (string, error) {
	m.ResetIndex()
	m.appendPos = 0
	ok, err := m.Find()
	if err != nil {
		return "", err
	}
	if !ok {
		return m.vm.Input(), nil
	}
	out, err := m.AppendReplacement(nil, repl)
	if err != nil {
		return "", err
	}
	out = m.AppendTail(out)
	return string(out), nil
}

// Split slices input around each match of p, mirroring regexp.Split: if n
// >= 0, at most n substrings are returned (the last one unsplit); n < 0
// returns all substrings.
func (p *Pattern) Split(input string, n int) []string {
	if n == 0 {
		return nil
	}
	m := p.NewMatcher(input)
	var result []string
	pos, last := 0, 0
	for {
		if n > 0 && len(result) >= n-1 {
			break
		}
		ok, _ := m.FindFrom(pos)
		if !ok {
			break
		}
		start, end := m.Start(), m.End()
		if start == 0 && end == 0 && last == 0 {
			// zero-length match at the very start: skip, matching
			// stdlib regexp's behavior of not producing a leading ""
			pos = 1
			continue
		}
		result = append(result, input[last:start])
		last = end
		if end > pos {
			pos = end
		} else {
			pos++
		}
		if pos > len(input) {
			break
		}
	}
	result = append(result, input[last:])
	return result
}

// expandReplacement expands repl's \-escapes and $-references against m's
// current match, spec §6.5's mini-language.
func expandReplacement(m *Matcher, repl string) (string, error) {
	var b strings.Builder
	r := []rune(repl)
	i := 0
	for i < len(r) {
		switch r[i] {
		case '\\':
			i++
			if i >= len(r) {
				b.WriteByte('\\')
				break
			}
			switch r[i] {
			case 'u':
				cp, n, ok := parseHexEscape(r[i+1:], 4)
				if ok {
					b.WriteRune(cp)
					i += n
				} else {
					b.WriteRune(r[i])
				}
			case 'U':
				cp, n, ok := parseHexEscape(r[i+1:], 8)
				if ok {
					b.WriteRune(cp)
					i += n
				} else {
					b.WriteRune(r[i])
				}
			default:
				b.WriteRune(r[i])
			}
			i++

		case '$':
			i++
			if i >= len(r) {
				return "", &CompileError{Code: InvalidCaptureGroupName, Detail: "'$' at end of replacement string"}
			}
			if r[i] == '{' {
				j := i + 1
				for j < len(r) && r[j] != '}' {
					j++
				}
				if j >= len(r) {
					return "", &CompileError{Code: InvalidCaptureGroupName, Detail: "unterminated ${name} in replacement string"}
				}
				name := string(r[i+1 : j])
				if name == "" || !isValidGroupName(name) {
					return "", &CompileError{Code: InvalidCaptureGroupName, Detail: "invalid group name '" + name + "' in replacement string"}
				}
				num, ok := m.pat.compiled.NumberForName(name)
				if !ok {
					return "", &CompileError{Code: InvalidCaptureGroupName, Detail: "unknown group name '" + name + "' in replacement string"}
				}
				b.WriteString(m.Group(num))
				i = j + 1
				continue
			}
			if r[i] < '0' || r[i] > '9' {
				return "", &CompileError{Code: InvalidCaptureGroupName, Detail: "'$' not followed by a digit or '{name}' in replacement string"}
			}
			j := i
			for j < len(r) && r[j] >= '0' && r[j] <= '9' {
				// greedy, but never past the actual group count
				candidate := string(r[i : j+1])
				num, _ := strconv.Atoi(candidate)
				if num > m.GroupCount() {
					break
				}
				j++
			}
			if j == i {
				return "", &CompileError{Code: InvalidCaptureGroupName, Detail: "'$' group reference exceeds group count"}
			}
			num, _ := strconv.Atoi(string(r[i:j]))
			b.WriteString(m.Group(num))
			i = j

		default:
			b.WriteRune(r[i])
			i++
		}
	}
	return b.String(), nil
}

func isValidGroupName(name string) bool {
	for _, c := range name {
		if !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func parseHexEscape(r []rune, width int) (rune, int, bool) {
	if len(r) < width {
		return 0, 0, false
	}
	v := 0
	for i := 0; i < width; i++ {
		d := hexDigit(r[i])
		if d < 0 {
			return 0, 0, false
		}
		v = v<<4 | d
	}
	return rune(v), width, true
}

func hexDigit(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}
