package cache

import (
	"context"
	"testing"
	"time"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

const schemaURL = "https://example.com/model.jsonld"

func TestSetGet(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, schemaURL, []byte("document"), time.Hour))

	value, err := c.Get(ctx, schemaURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("document"), value)
}

func TestGetMiss(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)

	_, err := c.Get(context.Background(), schemaURL)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestGetExpired(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, schemaURL, []byte("document"), 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	_, err := c.Get(ctx, schemaURL)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestHasAndDelete(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	assert.False(t, c.Has(ctx, schemaURL))

	require.NoError(t, c.Set(ctx, schemaURL, []byte("document"), time.Hour))
	assert.True(t, c.Has(ctx, schemaURL))

	require.NoError(t, c.Delete(ctx, schemaURL))
	assert.False(t, c.Has(ctx, schemaURL))
}

func TestKeysAreURLNormalized(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://EXAMPLE.com/model.jsonld", []byte("document"), time.Hour))

	// Host casing and default ports do not produce distinct entries.
	value, err := c.Get(ctx, "https://example.com:443/model.jsonld")
	require.NoError(t, err)
	assert.Equal(t, []byte("document"), value)
}

func TestCloseStopsBackgroundGC(t *testing.T) {
	t.Parallel()

	c, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)

	// Close waits for the GC goroutine; a hang here means it never exits.
	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestClearAndSize(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "https://example.com/a.jsonld", []byte("a"), time.Hour))
	require.NoError(t, c.Set(ctx, "https://example.com/b.jsonld", []byte("b"), time.Hour))
	assert.Equal(t, int64(2), c.Size())

	require.NoError(t, c.Clear())
	assert.Equal(t, int64(0), c.Size())
}
