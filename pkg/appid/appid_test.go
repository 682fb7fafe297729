package appid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFormat(t *testing.T) {
	gen := New("APP")
	id, err := gen.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "APP"))
	assert.Equal(t, strings.ToUpper(id), id)
	// prefix + base36 millis (8-9 chars for current epochs) + 5 char suffix
	assert.GreaterOrEqual(t, len(id), len("APP")+8+5)
	for _, r := range id {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z'), "unexpected character %q in %s", r, id)
	}
}

func TestGenerateDefaultPrefix(t *testing.T) {
	gen := New("")
	id, err := gen.Generate()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "APP"))
}

func TestGenerateUniqueness(t *testing.T) {
	gen := New("APP")
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id, err := gen.Generate()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s after %d generations", id, i)
		seen[id] = struct{}{}
	}
}

func TestGenerateEmbedsTimestamp(t *testing.T) {
	gen := New("APP")
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return fixed }

	a, err := gen.Generate()
	require.NoError(t, err)
	b, err := gen.Generate()
	require.NoError(t, err)

	// same clock reading shares the timestamp part but not the suffix
	assert.Equal(t, a[:len(a)-suffixLength], b[:len(b)-suffixLength])
	assert.NotEqual(t, a, b)
}
