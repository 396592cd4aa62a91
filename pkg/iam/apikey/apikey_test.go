package apikey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndHash(t *testing.T) {
	a, err := Generate(DefaultPrefix)
	require.NoError(t, err)
	b, err := Generate(DefaultPrefix)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, DefaultPrefix))
	assert.True(t, ValidFormat(a, DefaultPrefix))
	assert.Len(t, Hash(a), 64)
	assert.Equal(t, Hash(a), Hash(a))
	assert.Equal(t, a[:10], DisplayPrefix(a))
}

func TestValidFormat(t *testing.T) {
	assert.False(t, ValidFormat("sk_abcdefghijklmnopqrstuvwxyz", DefaultPrefix))
	assert.False(t, ValidFormat("sa_short", DefaultPrefix))
}
