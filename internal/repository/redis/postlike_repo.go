package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LikeCntTTL         = 24 * time.Hour
	SecondDeleteDelay  = 500 * time.Millisecond
	LikeCntKeyPrefix   = "like:cnt:post" // 缓存某个帖子的点赞计数
	secondDeleteBudget = 2 * time.Second
)

// LikeCacheRepository 点赞计数缓存，库是唯一来源，这里只做读加速
type LikeCacheRepository struct {
	RDB *redis.Client

	// 可配置
	likeCntTTL  time.Duration
	secondDelay time.Duration
}

func NewLikeCacheRepository(rdb *redis.Client) *LikeCacheRepository {
	return &LikeCacheRepository{
		RDB:         rdb,
		likeCntTTL:  LikeCntTTL,
		secondDelay: SecondDeleteDelay,
	}
}

func likeCntKey(postID uint64) string {
	return fmt.Sprintf("%s:%d", LikeCntKeyPrefix, postID)
}

// GetCount 从缓存读取帖子的点赞数量，未命中时 ok=false
func (r *LikeCacheRepository) GetCount(ctx context.Context, postID uint64) (int64, bool, error) {
	val, err := r.RDB.Get(ctx, likeCntKey(postID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// SetCount 回填帖子点赞数
func (r *LikeCacheRepository) SetCount(ctx context.Context, postID uint64, n int64) error {
	return r.RDB.Set(ctx, likeCntKey(postID), n, r.likeCntTTL).Err()
}

// Invalidate 立刻删除计数 key，并在 secondDelay 后异步再删一次，抵消并发回填窗口
func (r *LikeCacheRepository) Invalidate(ctx context.Context, postID uint64) error {
	key := likeCntKey(postID)
	if err := r.RDB.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if r.secondDelay > 0 {
		go func() {
			t := time.NewTimer(r.secondDelay)
			defer t.Stop()
			<-t.C
			ctx, cancel := context.WithTimeout(context.Background(), secondDeleteBudget)
			defer cancel()
			_ = r.RDB.Del(ctx, key).Err()
		}()
	}
	return nil
}
