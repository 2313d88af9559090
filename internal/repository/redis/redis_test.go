package redis

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg/logger"
)

// newTestClient 需要真实 Redis，未设置 MENTOR_TEST_REDIS_ADDR 时跳过
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("MENTOR_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MENTOR_TEST_REDIS_ADDR not set")
	}
	rdb, err := NewClient(addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestLikeCntKey(t *testing.T) {
	assert.Equal(t, "like:cnt:post:42", likeCntKey(42))
}

func TestLikeCacheRoundTrip(t *testing.T) {
	rdb := newTestClient(t)
	ctx := context.Background()
	cache := NewLikeCacheRepository(rdb)
	cache.secondDelay = 50 * time.Millisecond
	postID := uint64(time.Now().UnixNano())
	t.Cleanup(func() { rdb.Del(context.Background(), likeCntKey(postID)) })

	_, ok, err := cache.GetCount(ctx, postID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetCount(ctx, postID, 7))
	n, ok, err := cache.GetCount(ctx, postID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	ttl := rdb.TTL(ctx, likeCntKey(postID)).Val()
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, cache.Invalidate(ctx, postID))
	_, ok, err = cache.GetCount(ctx, postID)
	require.NoError(t, err)
	assert.False(t, ok)

	// 第一次删除之后的回填会被延迟的第二次删除清掉
	require.NoError(t, cache.SetCount(ctx, postID, 99))
	assert.Eventually(t, func() bool {
		_, ok, err := cache.GetCount(ctx, postID)
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestChangeFeedDelivers(t *testing.T) {
	rdb := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := NewChangeFeed(rdb, "mentor:test:changes:"+time.Now().Format("150405.000000000"), logger.Nop())
	require.NoError(t, feed.Start(ctx))

	var mu sync.Mutex
	var got []model.Change
	stop, err := feed.Subscribe(ctx, model.TableTransactions, func(c model.Change) {
		mu.Lock()
		got = append(got, c)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, feed.Publish(ctx, model.Change{Table: model.TableRoadmaps, Op: model.OpUpdate, RecordID: "r1"}))
	require.NoError(t, feed.Publish(ctx, model.Change{Table: model.TableTransactions, Op: model.OpInsert, UserID: "u1"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 20*time.Millisecond)
	mu.Lock()
	assert.Equal(t, "u1", got[0].UserID)
	mu.Unlock()
}
