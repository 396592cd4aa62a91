package fsxlocal

import (
	"context"
	"strings"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/fsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadDelete(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	key := fsx.Key("uploads", "user-1", "notes.txt")
	require.NoError(t, l.WriteFile(ctx, key, []byte("hello")))

	ok, err := l.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := l.ReadFile(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, l.WriteFileStream(ctx, key, strings.NewReader("replaced")))
	data, err = l.ReadFile(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))

	require.NoError(t, l.DeleteFile(ctx, key))
	require.NoError(t, l.DeleteFile(ctx, key))

	_, err = l.ReadFile(ctx, key)
	assert.True(t, errx.IsCode(err, fsx.ErrNotFound))
}

func TestRejectsEscapingPaths(t *testing.T) {
	l, err := NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	err = l.WriteFile(context.Background(), "../outside.txt", []byte("x"))
	assert.True(t, errx.IsCode(err, fsx.ErrInvalidPath))
}
