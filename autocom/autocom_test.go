package autocom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberRoundTrip(t *testing.T) {
	m := member("64b7f0c2e4b0a1a2b3c4d5e6", "Pad | Thai")
	s, ok := parseMember(m)
	require.True(t, ok)
	assert.Equal(t, "64b7f0c2e4b0a1a2b3c4d5e6", s.ID)
	assert.Equal(t, "Pad | Thai", s.Title)
	assert.Equal(t, "pad   thai|", m[:len("pad   thai|")])
}

func TestDisabledIndex(t *testing.T) {
	ix := NewIndex(nil)
	assert.False(t, ix.Enabled())
	assert.NoError(t, ix.Add(context.Background(), "1", "Soup"))
	got, err := ix.Suggest(context.Background(), "so", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
