package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

func newTx(user string, cents int64, typ model.TxType) *model.Transaction {
	return &model.Transaction{
		ID: uuid.NewString(), UserID: user, AmountCents: cents,
		Type: typ, Status: model.TxCompleted, Timestamp: time.Now(),
	}
}

func TestLedgerDebitChecksBalance(t *testing.T) {
	ctx := context.Background()
	repo := &LedgerRepository{DB: newTestDB(t)}

	assert.ErrorIs(t, repo.AppendDebit(ctx, newTx("u1", 1, model.TxDebit)), pkg.ErrInsufficientFunds)
	require.NoError(t, repo.AppendCredit(ctx, newTx("u1", 3000, model.TxCredit)))
	require.NoError(t, repo.AppendDebit(ctx, newTx("u1", 1500, model.TxDebit)))
	assert.ErrorIs(t, repo.AppendDebit(ctx, newTx("u1", 10000, model.TxDebit)), pkg.ErrInsufficientFunds)
	require.NoError(t, repo.AppendDebit(ctx, newTx("u1", 1500, model.TxDebit)))

	txs, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, txs, 3)
	assert.Equal(t, int64(0), model.Balance(txs))
}

func TestListTransactionsSameTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := &LedgerRepository{DB: newTestDB(t)}
	at := time.Now().Truncate(time.Second)

	var ids []string
	for i, typ := range []model.TxType{model.TxCredit, model.TxCredit, model.TxDebit, model.TxCredit} {
		tx := newTx("u1", int64(100*(i+1)), typ)
		tx.Timestamp = at
		if typ == model.TxDebit {
			require.NoError(t, repo.AppendDebit(ctx, tx))
		} else {
			require.NoError(t, repo.AppendCredit(ctx, tx))
		}
		assert.Equal(t, int64(i+1), tx.Seq)
		ids = append(ids, tx.ID)
	}

	for round := 0; round < 3; round++ {
		txs, err := repo.ListTransactions(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, txs, 4)
		for i, tx := range txs {
			assert.Equal(t, ids[len(ids)-1-i], tx.ID)
		}
	}
}

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ledger := &LedgerRepository{DB: db}
	outbox := &OutboxRepository{DB: db}

	require.NoError(t, ledger.AppendCredit(ctx, newTx("u1", 100, model.TxCredit)))
	require.NoError(t, ledger.AppendCredit(ctx, newTx("u1", 200, model.TxCredit)))
	require.NoError(t, ledger.AppendDebit(ctx, newTx("u1", 50, model.TxDebit)))

	rows, err := outbox.PendingOutbox(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.EventDebit, rows[2].EventType)
	assert.Contains(t, rows[2].Payload, `"amount_cents":50`)

	require.NoError(t, outbox.MarkSent(ctx, rows[0].ID))
	require.NoError(t, outbox.MarkFailed(ctx, rows[1].ID))
	require.NoError(t, outbox.MarkFailed(ctx, rows[1].ID))

	rows, err = outbox.PendingOutbox(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.EventDebit, rows[0].EventType)
}
