package model

import (
	"math"
	"time"
)

type TxType string

const (
	TxCredit TxType = "credit"
	TxDebit  TxType = "debit"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
)

// MinWithdrawalCents 提现下限 10.00，由提现流程自己校验，账本本身不管
const MinWithdrawalCents int64 = 1000

// Transaction 只追加的资金流水，金额以分为单位
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;index:idx_user_time,priority:1;uniqueIndex:idx_user_seq,priority:1" json:"user_id"`
	Seq         int64     `gorm:"not null;uniqueIndex:idx_user_seq,priority:2" json:"seq"` // 用户内写入序号，时间相同时决定先后
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Type        TxType    `gorm:"size:8;not null" json:"type"`
	Reason      string    `gorm:"size:255" json:"reason"`
	Status      TxStatus  `gorm:"size:16;not null" json:"status"`
	RewardKey   *string   `gorm:"size:80;uniqueIndex" json:"-"` // roadmap/milestone，同一里程碑只奖励一次
	Timestamp   time.Time `gorm:"not null;index:idx_user_time,priority:2" json:"timestamp"`
}

// Signed 贷方为正，借方为负
func (t Transaction) Signed() int64 {
	if t.Type == TxDebit {
		return -t.AmountCents
	}
	return t.AmountCents
}

// NewestFirst 时间倒序，同一时刻按写入序号倒序
func NewestFirst(a, b Transaction) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Seq > b.Seq
}

// Balance 余额 = Σcredit - Σdebit，只能通过对完整流水折叠得到
func Balance(txs []Transaction) int64 {
	var sum int64
	for _, t := range txs {
		sum += t.Signed()
	}
	return sum
}

// WalletSummary 钱包页面的汇总数据
type WalletSummary struct {
	BalanceCents   int64 `json:"balance_cents"`
	EarnedCents    int64 `json:"earned_cents"`
	WithdrawnCents int64 `json:"withdrawn_cents"`
	Count          int   `json:"count"`
}

func Summarize(txs []Transaction) WalletSummary {
	s := WalletSummary{Count: len(txs)}
	for _, t := range txs {
		switch t.Type {
		case TxCredit:
			s.EarnedCents += t.AmountCents
		case TxDebit:
			s.WithdrawnCents += t.AmountCents
		}
	}
	s.BalanceCents = Balance(txs)
	return s
}

// RewardKey 里程碑奖励的幂等键
func RewardKey(roadmapID, milestoneID string) *string {
	k := roadmapID + "/" + milestoneID
	return &k
}

// CentsFromDollars 2.5 -> 250
func CentsFromDollars(d float64) int64 {
	return int64(math.Round(d * 100))
}

func Dollars(cents int64) float64 {
	return float64(cents) / 100
}

// LedgerAccount 每个用户一行，只用作扣款时的行锁，不存余额
type LedgerAccount struct {
	UserID    string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
}
