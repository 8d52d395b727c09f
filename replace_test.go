package uregex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendReplacementAndTail(t *testing.T) {
	p := MustCompile(`(\w+)@(\w+)\.com`, 0)
	m := p.NewMatcher("contact user@example.com or admin@example.com today")

	var dest []byte
	for {
		ok, err := m.Find()
		require.NoError(t, err)
		if !ok {
			break
		}
		dest, err = m.AppendReplacement(dest, "<$1 at $2>")
		require.NoError(t, err)
	}
	dest = m.AppendTail(dest)

	require.Equal(t,
		"contact <user at example> or <admin at example> today",
		string(dest))
}

func TestReplaceAll(t *testing.T) {
	p := MustCompile(`\d+`, 0)
	m := p.NewMatcher("a1 b22 c333")
	out, err := m.ReplaceAll("#")
	require.NoError(t, err)
	require.Equal(t, "a# b# c#", out)
}

func TestReplaceFirst(t *testing.T) {
	p := MustCompile(`\d+`, 0)
	m := p.NewMatcher("a1 b22 c333")
	out, err := m.ReplaceFirst("#")
	require.NoError(t, err)
	require.Equal(t, "a# b22 c333", out)
}

func TestReplacementNamedGroup(t *testing.T) {
	p := MustCompile(`(?<year>\d{4})-(?<month>\d{2})`, 0)
	m := p.NewMatcher("2024-05")
	out, err := m.ReplaceAll("${month}/${year}")
	require.NoError(t, err)
	require.Equal(t, "05/2024", out)
}

func TestReplacementGreedyGroupNumber(t *testing.T) {
	p := MustCompile(`(a)(b)(c)(d)(e)(f)(g)(h)(i)(j)(k)`, 0)
	m := p.NewMatcher("abcdefghijk")
	ok, err := m.Find()
	require.NoError(t, err)
	require.True(t, ok)
	// $11 should resolve to group 11, not group 1 followed by literal "1".
	out, err := expandReplacement(m, "$11")
	require.NoError(t, err)
	require.Equal(t, "k", out)
}

func TestReplacementUnknownGroupNameErrors(t *testing.T) {
	p := MustCompile(`(?<foo>a)`, 0)
	m := p.NewMatcher("a")
	ok, err := m.Find()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = expandReplacement(m, "${bar}")
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, InvalidCaptureGroupName, ce.Code)
}

func TestReplacementDanglingDollarErrors(t *testing.T) {
	p := MustCompile(`a`, 0)
	m := p.NewMatcher("a")
	ok, err := m.Find()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = expandReplacement(m, "x$")
	require.Error(t, err)
}

func TestSplit(t *testing.T) {
	p := MustCompile(`\s*,\s*`, 0)
	got := p.Split("a, b,c ,  d", -1)
	require.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestSplitWithLimit(t *testing.T) {
	p := MustCompile(`,`, 0)
	got := p.Split("a,b,c,d", 2)
	require.Equal(t, []string{"a", "b,c,d"}, got)
}

func TestAppendReplacementWithoutMatchErrors(t *testing.T) {
	p := MustCompile(`a`, 0)
	m := p.NewMatcher("a")
	_, err := m.AppendReplacement(nil, "x")
	require.Error(t, err)
	var ise *ErrInvalidState
	require.ErrorAs(t, err, &ise)
}
