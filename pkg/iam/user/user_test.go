package user

import (
	"testing"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHashesPassword(t *testing.T) {
	u, err := New(" Ada@Example.com", "Ada", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestNewValidates(t *testing.T) {
	_, err := New("not-an-email", "x", "longenough")
	assert.True(t, errx.IsCode(err, ErrInvalidEmail))

	_, err = New("a@b.co", "x", "short")
	assert.True(t, errx.IsCode(err, ErrWeakPassword))
}
