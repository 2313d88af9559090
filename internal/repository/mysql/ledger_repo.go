package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

type LedgerRepository struct {
	DB *gorm.DB
}

type OutboxRepository struct {
	DB *gorm.DB
}

// AppendCredit 流水和 outbox 同一事务写入
func (r *LedgerRepository) AppendCredit(ctx context.Context, t *model.Transaction) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		history, err := lockHistory(tx, t.UserID)
		if err != nil {
			return err
		}
		return appendTransaction(tx, t, history)
	})
	return translate(err, "credit %s", t.ID)
}

// AppendDebit 先锁住用户账户行，再对完整流水折叠出余额
func (r *LedgerRepository) AppendDebit(ctx context.Context, t *model.Transaction) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		history, err := lockHistory(tx, t.UserID)
		if err != nil {
			return err
		}
		if bal := model.Balance(history); t.AmountCents > bal {
			return fmt.Errorf("balance %d < %d: %w", bal, t.AmountCents, pkg.ErrInsufficientFunds)
		}
		return appendTransaction(tx, t, history)
	})
	return translate(err, "debit %s", t.ID)
}

// lockHistory select for update 锁住账户行，串行化同一用户的写入，返回完整流水
func lockHistory(tx *gorm.DB, userID string) ([]model.Transaction, error) {
	acct := model.LedgerAccount{UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&acct).Error; err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&acct).Error; err != nil {
		return nil, err
	}
	var history []model.Transaction
	if err := tx.Where("user_id = ?", userID).Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// appendTransaction 必须持有账户锁，序号接在已有流水之后
func appendTransaction(tx *gorm.DB, t *model.Transaction, history []model.Transaction) error {
	var last int64
	for _, h := range history {
		if h.Seq > last {
			last = h.Seq
		}
	}
	t.Seq = last + 1
	if err := tx.Create(t).Error; err != nil {
		return translate(err, "transaction %s", t.ID)
	}
	ob := model.OutboxFor(*t)
	return tx.Create(&ob).Error
}

// ListTransactions 最新的在前，同一时刻后写入的在前
func (r *LedgerRepository) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	var list []model.Transaction
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, seq DESC").
		Find(&list).Error
	if err != nil {
		return nil, translate(err, "transactions of %s", userID)
	}
	return list, nil
}

// PendingOutbox 未成功且未超过重试上限的事件，按 id 顺序
func (r *OutboxRepository) PendingOutbox(ctx context.Context, batchSize, maxRetry int) ([]model.LedgerOutbox, error) {
	var list []model.LedgerOutbox
	if err := r.DB.WithContext(ctx).
		Where("status <> ? AND retry < ?", model.OutboxSent, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, translate(err, "pending outbox")
	}
	return list, nil
}

// MarkFailed 投递失败，重试次数 +1
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	err := r.DB.WithContext(ctx).Model(&model.LedgerOutbox{}).Where("id=?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
	return translate(err, "outbox %d", id)
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	err := r.DB.WithContext(ctx).Model(&model.LedgerOutbox{}).Where("id=?", id).
		Update("status", model.OutboxSent).Error
	return translate(err, "outbox %d", id)
}
