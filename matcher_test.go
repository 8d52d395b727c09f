package uregex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcherRegionBounds(t *testing.T) {
	p := MustCompile(`^b$`, 0)
	m := p.NewMatcher("abc")
	m.SetRegion(1, 2)

	ok, err := m.Matches()
	require.NoError(t, err)
	require.True(t, ok, "region [1,2) = 'b' should match ^b$ under default anchoring bounds")
}

func TestMatcherTransparentBounds(t *testing.T) {
	p := MustCompile(`(?<=a)b`, 0)
	m := p.NewMatcher("ab")
	m.SetRegion(1, 2)
	m.UseTransparentBounds(true)

	ok, err := m.LookingAt()
	require.NoError(t, err)
	require.True(t, ok, "transparent bounds should let lookbehind see outside the region")
}

func TestMatcherOpaqueBoundsDefault(t *testing.T) {
	p := MustCompile(`(?<=a)b`, 0)
	m := p.NewMatcher("ab")
	m.SetRegion(1, 2)

	ok, _ := m.LookingAt()
	require.False(t, ok, "opaque bounds (default) should not see outside the region")
}

func TestMatcherResetAndReuse(t *testing.T) {
	p := MustCompile(`\d+`, 0)
	m := p.NewMatcher("abc 123")
	ok, err := m.Find()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "123", m.Group(0))

	m.Reset("xyz 456 789")
	ok, err = m.Find()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "456", m.Group(0))

	ok, err = m.Find()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "789", m.Group(0))
}

func TestMatcherRequireEnd(t *testing.T) {
	p := MustCompile(`abc$`, 0)
	m := p.NewMatcher("xabc")
	ok, err := m.Find()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.RequireEnd())
}

func TestMatcherStackLimitResetsState(t *testing.T) {
	p := MustCompile(`a+`, 0)
	m := p.NewMatcher("aaaa")
	ok, _ := m.Find()
	require.True(t, ok)
	m.SetStackLimit(1 << 20)
	require.Equal(t, -1, m.Start(), "SetStackLimit should discard the in-progress match state")
}
