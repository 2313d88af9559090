package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

const ReasonWithdrawal = "Withdrawal"

type LedgerService struct {
	store         LedgerStore
	feed          ChangeFeed
	log           *logger.Logger
	minWithdrawal int64
	now           func() time.Time
}

func NewLedgerService(store LedgerStore, feed ChangeFeed, log *logger.Logger, minWithdrawalCents int64) *LedgerService {
	if minWithdrawalCents <= 0 {
		minWithdrawalCents = model.MinWithdrawalCents
	}
	return &LedgerService{
		store:         store,
		feed:          feed,
		log:           log.With("service", "LedgerService"),
		minWithdrawal: minWithdrawalCents,
		now:           time.Now,
	}
}

func (s *LedgerService) Credit(ctx context.Context, userID string, amountCents int64, reason string) (*model.Transaction, error) {
	tx, err := s.newTx(userID, amountCents, model.TxCredit, reason)
	if err != nil {
		return nil, err
	}
	err = s.store.AppendCredit(ctx, tx)
	return s.finish(ctx, tx, err)
}

// Debit 余额校验在存储层事务内基于最新流水完成
func (s *LedgerService) Debit(ctx context.Context, userID string, amountCents int64, reason string) (*model.Transaction, error) {
	tx, err := s.newTx(userID, amountCents, model.TxDebit, reason)
	if err != nil {
		return nil, err
	}
	err = s.store.AppendDebit(ctx, tx)
	return s.finish(ctx, tx, err)
}

// Withdraw 提现下限是调用方策略
func (s *LedgerService) Withdraw(ctx context.Context, userID string, amountCents int64) (*model.Transaction, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if amountCents < s.minWithdrawal {
		return nil, fmt.Errorf("minimum withdrawal is %.2f: %w", model.Dollars(s.minWithdrawal), pkg.ErrInvalidArgument)
	}
	return s.Debit(ctx, userID, amountCents, ReasonWithdrawal)
}

// Balance 每次都对完整流水重新折叠
func (s *LedgerService) Balance(ctx context.Context, userID string) (int64, error) {
	txs, err := s.History(ctx, userID)
	if err != nil {
		return 0, err
	}
	return model.Balance(txs), nil
}

// History 最新的在前
func (s *LedgerService) History(ctx context.Context, userID string) ([]model.Transaction, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	return s.store.ListTransactions(ctx, userID)
}

func (s *LedgerService) Summary(ctx context.Context, userID string) (model.WalletSummary, error) {
	txs, err := s.History(ctx, userID)
	if err != nil {
		return model.WalletSummary{}, err
	}
	return model.Summarize(txs), nil
}

// WatchBalance 先推送一次当前余额，之后每次该用户有流水变更就重新折叠并推送
func (s *LedgerService) WatchBalance(ctx context.Context, userID string, fn func(balanceCents int64)) (func(), error) {
	bal, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(bal)
	if s.feed == nil {
		return func() {}, nil
	}
	return s.feed.Subscribe(ctx, model.TableTransactions, func(c model.Change) {
		if c.UserID != userID {
			return
		}
		bal, err := s.Balance(ctx, userID)
		if err != nil {
			s.log.Warn("refold balance failed", "user_id", userID, "error", err)
			return
		}
		fn(bal)
	})
}

func (s *LedgerService) newTx(userID string, amountCents int64, typ model.TxType, reason string) (*model.Transaction, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", pkg.ErrInvalidArgument)
	}
	return &model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AmountCents: amountCents,
		Type:        typ,
		Reason:      strings.TrimSpace(reason),
		Status:      model.TxCompleted,
		Timestamp:   s.now(),
	}, nil
}

func (s *LedgerService) finish(ctx context.Context, tx *model.Transaction, err error) (*model.Transaction, error) {
	pkg.LedgerWrites.WithLabelValues(string(tx.Type), pkg.ResultLabel(err)).Inc()
	if err != nil {
		s.log.Warn("ledger append failed", "user_id", tx.UserID, "type", tx.Type, "amount_cents", tx.AmountCents, "error", err)
		return nil, err
	}
	s.log.Info("ledger append", "user_id", tx.UserID, "tx_id", tx.ID, "type", tx.Type, "amount_cents", tx.AmountCents)
	if s.feed != nil {
		if err := s.feed.Publish(ctx, model.Change{Table: model.TableTransactions, Op: model.OpInsert, UserID: tx.UserID, RecordID: tx.ID, At: tx.Timestamp}); err != nil {
			s.log.Warn("publish change failed", "table", model.TableTransactions, "error", err)
		}
	}
	return tx, nil
}
