package cache

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c
}

func TestGetMiss(t *testing.T) {
	c := openTestCache(t)

	got, err := c.Get(Key(plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), "prompt"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPutGetRoundtrip(t *testing.T) {
	c := openTestCache(t)

	key := Key(plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), "prompt")
	require.NoError(t, c.Put(key, "feat: add parser"))

	got, err := c.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "feat: add parser", got)
}

func TestKeyDependsOnPrompt(t *testing.T) {
	hash := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	assert.NotEqual(t, Key(hash, "prompt one"), Key(hash, "prompt two"))
	assert.Equal(t, Key(hash, "prompt"), Key(hash, "prompt"))
}

func TestNilCache(t *testing.T) {
	var c *Cache

	assert.NoError(t, c.Close())
	_, err := c.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNilDB)
	assert.ErrorIs(t, c.Put([]byte("k"), "v"), ErrNilDB)
}
