// internal/room/code_test.go
package room

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewCode()
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, r), "unexpected rune %q in %s", r, code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90, "codes should rarely collide")
}

func TestNormalizeCode(t *testing.T) {
	code, err := NormalizeCode("  abqr23 ")
	require.NoError(t, err)
	assert.Equal(t, "ABQR23", code)

	for _, bad := range []string{"", "ABC", "ABCDEFG", "ABC0EF", "ABC1EF", "ABCIEF", "ABCOEF", "AB CD3"} {
		_, err := NormalizeCode(bad)
		assert.ErrorIs(t, err, ErrInvalidCode, "input %q", bad)
	}
}
