package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
)

func TestReconcilerRepairsDrift(t *testing.T) {
	ctx := context.Background()
	e, ps, es, cache := newCommunity(t)
	var ids []uint64
	for i := 0; i < 5; i++ {
		p, err := ps.CreatePost(ctx, "a", "p", nil)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	_, err := es.ToggleLike(ctx, ids[0], "u1")
	require.NoError(t, err)
	_, err = es.AddComment(ctx, ids[3], "u1", "c")
	require.NoError(t, err)

	e.store.SetCounts(ids[0], 7, 0)
	e.store.SetCounts(ids[3], 0, 9)
	e.store.SetCounts(ids[4], 2, 2)
	cache.invalidated = 0

	rec := NewCountReconciler(e.store, cache, e.log, 0, 2)
	assert.Equal(t, 3, rec.ReconcileOnce(ctx))
	assert.Equal(t, 3, cache.invalidated)

	n, err := es.LikeCount(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	c, err := es.CommentCount(ctx, ids[3])
	require.NoError(t, err)
	assert.Equal(t, int64(1), c)

	assert.Equal(t, 0, rec.ReconcileOnce(ctx))
}

func TestOutboxRelayerRetries(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ls := NewLedgerService(e.store, e.feed, e.log, 0)
	_, err := ls.Credit(ctx, "u1", 100, "a")
	require.NoError(t, err)
	_, err = ls.Credit(ctx, "u2", 200, "b")
	require.NoError(t, err)

	var calls atomic.Int32
	failing := true
	sender := func(ctx context.Context, ob *model.LedgerOutbox) error {
		calls.Add(1)
		if failing && ob.UserID == "u2" {
			return errBoom
		}
		return nil
	}
	rel := NewOutboxRelayer(e.store, sender, e.log, 0, 10, 3)

	assert.Equal(t, 1, rel.DrainOnce(ctx))
	ob := e.store.Outbox()
	assert.Equal(t, model.OutboxSent, ob[0].Status)
	assert.Equal(t, model.OutboxFailed, ob[1].Status)
	assert.Equal(t, 1, ob[1].Retry)

	failing = false
	assert.Equal(t, 1, rel.DrainOnce(ctx))
	assert.Equal(t, 0, rel.DrainOnce(ctx))
	assert.Equal(t, int32(3), calls.Load())
}

func TestOutboxRelayerGivesUpAfterMaxRetry(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ls := NewLedgerService(e.store, e.feed, e.log, 0)
	_, err := ls.Credit(ctx, "u1", 100, "a")
	require.NoError(t, err)

	rel := NewOutboxRelayer(e.store, func(context.Context, *model.LedgerOutbox) error { return errBoom }, e.log, 0, 10, 2)
	rel.DrainOnce(ctx)
	rel.DrainOnce(ctx)
	rel.DrainOnce(ctx)
	assert.Equal(t, 2, e.store.Outbox()[0].Retry)
}
