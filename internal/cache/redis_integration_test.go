package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgrows/internal/cache"
	testhelpers "github.com/vvka-141/pgrows/internal/testing"
)

func TestRedisBackend_RoundTrip(t *testing.T) {
	url := testhelpers.RequireRedis(t)
	ctx := context.Background()

	client, err := cache.OpenRedis(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	backend := cache.NewRedisBackend(client, "pgrows_test:"+uuid.NewString()+":")

	_, ok, err := backend.Get(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, "SELECT 1", []byte(`[1]`), time.Minute))
	got, ok, err := backend.Get(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[1]`), got)
}

func TestRedisBackend_SharedAcrossCaches(t *testing.T) {
	url := testhelpers.RequireRedis(t)
	ctx := context.Background()

	client, err := cache.OpenRedis(ctx, url)
	require.NoError(t, err)
	defer client.Close()
	backend := cache.NewRedisBackend(client, "pgrows_test:"+uuid.NewString()+":")

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first := cache.New[[]string](8, time.Minute).WithBackend(backend, nil)
	_, _, err = first.GetOrLoad(ctx, "q", load)
	require.NoError(t, err)

	second := cache.New[[]string](8, time.Minute).WithBackend(backend, nil)
	got, hit, err := second.GetOrLoad(ctx, "q", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, calls)
}

func TestOpenRedis_InvalidURL(t *testing.T) {
	_, err := cache.OpenRedis(context.Background(), "not-a-url")
	assert.Error(t, err)
}
