package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

func TestLedgerCreditDebit(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ls := NewLedgerService(e.store, e.feed, e.log, 0)

	_, err := ls.Credit(ctx, "u1", 0, "nothing")
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)
	_, err = ls.Debit(ctx, "u1", -5, "negative")
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)
	_, err = ls.Credit(ctx, "", 100, "anon")
	assert.ErrorIs(t, err, pkg.ErrNotAuthenticated)

	tx, err := ls.Credit(ctx, "u1", 2500, " bonus ")
	require.NoError(t, err)
	assert.Equal(t, "bonus", tx.Reason)
	assert.Equal(t, model.TxCompleted, tx.Status)

	_, err = ls.Debit(ctx, "u1", 2501, "too much")
	assert.ErrorIs(t, err, pkg.ErrInsufficientFunds)
	_, err = ls.Debit(ctx, "u1", 2500, "all")
	require.NoError(t, err)

	hist, err := ls.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, model.TxDebit, hist[0].Type)
	assert.Equal(t, int64(0), model.Balance(hist))

	// 其他用户的流水互不影响
	_, err = ls.Credit(ctx, "u2", 700, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balanceOf(t, ls, "u1"))
	assert.Equal(t, int64(700), balanceOf(t, ls, "u2"))
}

func TestHistorySameInstantNewestFirst(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ls := NewLedgerService(e.store, e.feed, e.log, 0)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ls.now = func() time.Time { return at }

	var ids []string
	for _, cents := range []int64{100, 200, 300} {
		tx, err := ls.Credit(ctx, "u1", cents, "")
		require.NoError(t, err)
		ids = append(ids, tx.ID)
	}
	hist, err := ls.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{hist[0].ID, hist[1].ID, hist[2].ID})
	assert.Equal(t, int64(3), hist[0].Seq)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ls := NewLedgerService(e.store, e.feed, e.log, 0)
	_, err := ls.Credit(ctx, "u1", 1000, "seed")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ls.Debit(ctx, "u1", 300, "w"); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, pkg.ErrInsufficientFunds)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, ok)
	assert.Equal(t, int64(100), balanceOf(t, ls, "u1"))
}

func TestWithdrawMinimum(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ls := NewLedgerService(e.store, e.feed, e.log, 1000)
	_, err := ls.Credit(ctx, "u1", 5000, "seed")
	require.NoError(t, err)

	_, err = ls.Withdraw(ctx, "u1", 999)
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)

	tx, err := ls.Withdraw(ctx, "u1", 1000)
	require.NoError(t, err)
	assert.Equal(t, ReasonWithdrawal, tx.Reason)

	_, err = ls.Withdraw(ctx, "u1", 9000)
	assert.ErrorIs(t, err, pkg.ErrInsufficientFunds)

	s, err := ls.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.WalletSummary{BalanceCents: 4000, EarnedCents: 5000, WithdrawnCents: 1000, Count: 2}, s)

	ob := e.store.Outbox()
	require.Len(t, ob, 2)
	assert.Equal(t, model.EventDebit, ob[1].EventType)
}

func TestWatchBalance(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ls := NewLedgerService(e.store, e.feed, e.log, 0)

	var mu sync.Mutex
	var seen []int64
	cancel, err := ls.WatchBalance(ctx, "u1", func(b int64) {
		mu.Lock()
		seen = append(seen, b)
		mu.Unlock()
	})
	require.NoError(t, err)

	_, err = ls.Credit(ctx, "u1", 400, "a")
	require.NoError(t, err)
	_, err = ls.Credit(ctx, "u2", 900, "other user")
	require.NoError(t, err)
	_, err = ls.Debit(ctx, "u1", 100, "b")
	require.NoError(t, err)

	cancel()
	_, err = ls.Credit(ctx, "u1", 1, "after cancel")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{0, 400, 300}, seen)
}
