package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum/internal/common"
)

func TestDiskStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewDiskStore(t.TempDir())

	require.NoError(t, s.Save(ctx, "demo-notes.txt", strings.NewReader("hello world")))

	ok, err := s.Exists(ctx, "demo-notes.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "demo-notes.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello world", string(data))
}

func TestDiskStore_OpenMissing(t *testing.T) {
	ctx := context.Background()
	s := NewDiskStore(t.TempDir())

	_, err := s.Open(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)

	ok, err := s.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiskStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewDiskStore(t.TempDir())

	require.NoError(t, s.Save(ctx, "demo-a", strings.NewReader("x")))
	require.NoError(t, s.Delete(ctx, "demo-a"))

	ok, err := s.Exists(ctx, "demo-a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Delete(ctx, "demo-a"), common.ErrNotFound)
}

func TestDiskStore_ListPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewDiskStore(t.TempDir())

	require.NoError(t, s.Save(ctx, "demo-b", strings.NewReader("x")))
	require.NoError(t, s.Save(ctx, "demo-a", strings.NewReader("x")))
	require.NoError(t, s.Save(ctx, "other-c", strings.NewReader("x")))

	names, err := s.ListPrefix(ctx, "demo-")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo-a", "demo-b"}, names)

	names, err = s.ListPrefix(ctx, "missing-")
	require.NoError(t, err)
	assert.Empty(t, names)
}
