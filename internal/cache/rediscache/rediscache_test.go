package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/cleanurls/internal/cache"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewWithClient(rdb, "test", ttl), s
}

func TestStoreGetSetDelete(t *testing.T) {
	st, srv := setupTestRedis(t, 0)
	ctx := context.Background()

	_, err := st.Get(ctx, cache.Outgoing, "/course/view.php?id=7")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, st.Set(ctx, cache.Outgoing, "/course/view.php?id=7", "/course/shortname"))
	assert.True(t, srv.Exists("test:outgoing:/course/view.php?id=7"))

	v, err := st.Get(ctx, cache.Outgoing, "/course/view.php?id=7")
	require.NoError(t, err)
	assert.Equal(t, "/course/shortname", v)

	_, err = st.Get(ctx, cache.Incoming, "/course/view.php?id=7")
	assert.ErrorIs(t, err, cache.ErrMiss, "namespaces must not overlap")

	require.NoError(t, st.Delete(ctx, cache.Outgoing, "/course/view.php?id=7"))
	_, err = st.Get(ctx, cache.Outgoing, "/course/view.php?id=7")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestStoreTTL(t *testing.T) {
	st, srv := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, cache.Incoming, "/course/a", "/course/view.php?name=a"))
	srv.FastForward(2 * time.Minute)

	_, err := st.Get(ctx, cache.Incoming, "/course/a")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestStorePurge(t *testing.T) {
	st, srv := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, cache.Outgoing, "a", "1"))
	require.NoError(t, st.Set(ctx, cache.Incoming, "b", "2"))
	require.NoError(t, srv.Set("other:key", "keep"))

	require.NoError(t, st.Purge(ctx))
	assert.False(t, srv.Exists("test:outgoing:a"))
	assert.False(t, srv.Exists("test:incoming:b"))
	assert.True(t, srv.Exists("other:key"))
}

func TestTwoWayOverRedis(t *testing.T) {
	st, _ := setupTestRedis(t, 0)
	ctx := context.Background()
	tw := cache.NewTwoWay(st)

	tw.Remember(ctx, "/user/profile.php?id=5", "/user/theusername")
	v, ok := tw.Unclean(ctx, "/user/theusername")
	require.True(t, ok)
	assert.Equal(t, "/user/profile.php?id=5", v)

	assert.True(t, tw.Forget(ctx, "/user/profile.php?id=5"))
	_, ok = tw.Unclean(ctx, "/user/theusername")
	assert.False(t, ok)
}
