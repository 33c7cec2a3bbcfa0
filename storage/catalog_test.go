package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openCatalog(t *testing.T, opts ...Option) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "models.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// TestCatalog_PutGet verifies the round trip: sorted ids, a recent fetch
// stamp and per-provider isolation.
func TestCatalog_PutGet(t *testing.T) {
	c := openCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "openai", []string{"gpt-4o", "gpt-3.5-turbo"}))
	require.NoError(t, c.Put(ctx, "ollama", []string{"llama2"}))

	models, fetchedAt, err := c.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-3.5-turbo", "gpt-4o"}, models)
	assert.WithinDuration(t, time.Now(), fetchedAt, 5*time.Second)

	models, _, err = c.Get(ctx, "ollama")
	require.NoError(t, err)
	assert.Equal(t, []string{"llama2"}, models)
}

// TestCatalog_Get_MissIsEmpty verifies an unknown provider is a miss, not an
// error.
func TestCatalog_Get_MissIsEmpty(t *testing.T) {
	c := openCatalog(t)

	models, fetchedAt, err := c.Get(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, models)
	assert.True(t, fetchedAt.IsZero())
}

// TestCatalog_Put_ReplacesPrevious verifies Put is a full replacement, so
// models a backend dropped disappear from the cache.
func TestCatalog_Put_ReplacesPrevious(t *testing.T) {
	c := openCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "openai", []string{"old-model", "kept-model"}))
	require.NoError(t, c.Put(ctx, "openai", []string{"kept-model"}))

	models, _, err := c.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, []string{"kept-model"}, models)
}

// TestCatalog_Put_EmptyClears verifies an empty Put wipes the provider.
func TestCatalog_Put_EmptyClears(t *testing.T) {
	c := openCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "openai", []string{"gpt-4o"}))
	require.NoError(t, c.Put(ctx, "openai", nil))

	models, _, err := c.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Empty(t, models)
}

// TestCatalog_Models_FreshCacheSkipsBackend verifies a fresh entry is served
// without touching the refresh function.
func TestCatalog_Models_FreshCacheSkipsBackend(t *testing.T) {
	c := openCatalog(t)
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "openai", []string{"gpt-4o"}))

	calls := 0
	models, err := c.Models(ctx, "openai", func(context.Context) []string {
		calls++
		return []string{"never-used"}
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o"}, models)
	assert.Equal(t, 0, calls)
}

// TestCatalog_Models_StaleCacheRefreshes verifies an aged entry is replaced
// by the backend listing and the replacement is persisted.
func TestCatalog_Models_StaleCacheRefreshes(t *testing.T) {
	c := openCatalog(t, WithTTL(time.Nanosecond))
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "openai", []string{"old-model"}))

	calls := 0
	models, err := c.Models(ctx, "openai", func(context.Context) []string {
		calls++
		return []string{"new-b", "new-a"}
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"new-a", "new-b"}, models)
	assert.Equal(t, 1, calls)

	cached, _, err := c.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, []string{"new-a", "new-b"}, cached)
}

// TestCatalog_Models_FailedRefreshServesStale verifies the fallback: when the
// backend listing comes back empty, stale data beats no data.
func TestCatalog_Models_FailedRefreshServesStale(t *testing.T) {
	c := openCatalog(t, WithTTL(time.Nanosecond))
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "openai", []string{"stale-model"}))

	models, err := c.Models(ctx, "openai", func(context.Context) []string {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"stale-model"}, models)

	// The stale entry survives for the next attempt.
	cached, _, err := c.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, []string{"stale-model"}, cached)
}

// TestCatalog_Models_NothingAnywhere verifies a cold cache plus a dead
// backend yields an empty listing, not an error.
func TestCatalog_Models_NothingAnywhere(t *testing.T) {
	c := openCatalog(t)

	models, err := c.Models(context.Background(), "openai", func(context.Context) []string {
		return nil
	})

	require.NoError(t, err)
	assert.Empty(t, models)
}

// TestOpen_CreatesParentDirectories verifies nested cache paths work out of
// the box.
func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "models.db")

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Put(context.Background(), "openai", []string{"gpt-4o"}))
}
