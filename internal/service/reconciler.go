package service

import (
	"context"
	"time"

	"Mentor_Community/internal/pkg/logger"
)

// CountReconciler 定期用关系表重算帖子点赞数和评论数，修复计数漂移
type CountReconciler struct {
	store     CounterStore
	cache     LikeCache
	log       *logger.Logger
	batchSize int
	interval  time.Duration
}

func NewCountReconciler(store CounterStore, cache LikeCache, log *logger.Logger, interval time.Duration, batchSize int) *CountReconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &CountReconciler{
		store:     store,
		cache:     cache,
		log:       log.With("service", "CountReconciler"),
		batchSize: batchSize,
		interval:  interval,
	}
}

func (r *CountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.ReconcileOnce(ctx)
		}
	}
}

// ReconcileOnce 按 id 分批扫完所有帖子，返回修正的帖子数
func (r *CountReconciler) ReconcileOnce(ctx context.Context) int {
	var lastID uint64
	fixed := 0
	for {
		batch, err := r.store.ListCounts(ctx, lastID, r.batchSize)
		if err != nil {
			r.log.Error("reconcile list failed", "after_id", lastID, "error", err)
			return fixed
		}
		if len(batch) == 0 {
			return fixed
		}
		for _, p := range batch {
			likes, comments, err := r.store.RealCounts(ctx, p.ID)
			if err != nil {
				r.log.Warn("reconcile count failed", "post_id", p.ID, "error", err)
				continue
			}
			if likes == p.LikeCount && comments == p.CommentCount {
				continue
			}
			if err := r.store.FixCounts(ctx, p.ID, likes, comments); err != nil {
				r.log.Warn("reconcile fix failed", "post_id", p.ID, "error", err)
				continue
			}
			if r.cache != nil {
				_ = r.cache.Invalidate(ctx, p.ID)
			}
			r.log.Info("counter drift repaired", "post_id", p.ID, "likes", likes, "stored_likes", p.LikeCount, "comments", comments, "stored_comments", p.CommentCount)
			fixed++
		}
		lastID = batch[len(batch)-1].ID
		if len(batch) < r.batchSize {
			return fixed
		}
	}
}
