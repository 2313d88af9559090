package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

// ChangeFeed 基于 Redis pub/sub 的行变更通知。
// 每个进程只订阅一次频道，收到的消息再分发给本进程内的订阅者。
type ChangeFeed struct {
	rdb     *redis.Client
	channel string
	log     *logger.Logger
	local   *pkg.Hub

	once     sync.Once
	startErr error
}

func NewChangeFeed(rdb *redis.Client, channel string, log *logger.Logger) *ChangeFeed {
	if channel == "" {
		channel = "mentor:changes"
	}
	return &ChangeFeed{
		rdb:     rdb,
		channel: channel,
		log:     log.With("service", "RedisChangeFeed"),
		local:   pkg.NewHub(),
	}
}

func (f *ChangeFeed) Publish(ctx context.Context, c model.Change) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, f.channel, raw).Err()
}

// Subscribe 注册本地回调；第一次调用时启动频道转发
func (f *ChangeFeed) Subscribe(ctx context.Context, table string, onChange func(model.Change)) (func(), error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback required")
	}
	if err := f.Start(context.Background()); err != nil {
		return nil, err
	}
	return f.local.Subscribe(ctx, table, onChange)
}

// Start 订阅频道并在后台转发，ctx 结束时停止
func (f *ChangeFeed) Start(ctx context.Context) error {
	f.once.Do(func() {
		sub := f.rdb.Subscribe(ctx, f.channel)
		// ensures subscription actually started
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			f.startErr = fmt.Errorf("redis subscribe: %w", err)
			return
		}
		go f.forward(ctx, sub)
	})
	return f.startErr
}

func (f *ChangeFeed) forward(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok || m == nil {
				return
			}
			var c model.Change
			if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
				f.log.Warn("bad change payload", "error", err)
				continue
			}
			_ = f.local.Publish(ctx, c)
		}
	}
}
