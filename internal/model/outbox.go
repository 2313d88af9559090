package model

import (
	"encoding/json"
	"time"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

const (
	EventMilestoneReward = "milestone_reward"
	EventCredit          = "ledger_credit"
	EventDebit           = "ledger_debit"
)

// LedgerOutbox 资金事件表，与流水在同一事务写入，由 relayer 投递到 kafka
type LedgerOutbox struct {
	ID            uint64    `gorm:"primaryKey"`
	EventType     string    `gorm:"size:32;not null"`
	UserID        string    `gorm:"size:36;not null"`
	TransactionID string    `gorm:"size:36;not null"`
	Payload       string    `gorm:"type:text;not null"`
	Status        int8      `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry         int       `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (LedgerOutbox) TableName() string { return "ledger_outbox" }

// OutboxFor 由一条流水生成待投递事件
func OutboxFor(t Transaction) LedgerOutbox {
	event := EventCredit
	switch {
	case t.RewardKey != nil:
		event = EventMilestoneReward
	case t.Type == TxDebit:
		event = EventDebit
	}
	payload, _ := json.Marshal(map[string]any{
		"event_time":   t.Timestamp.UTC().Format(time.RFC3339Nano),
		"tx_id":        t.ID,
		"user_id":      t.UserID,
		"type":         t.Type,
		"amount_cents": t.AmountCents,
		"reason":       t.Reason,
	})
	return LedgerOutbox{
		EventType:     event,
		UserID:        t.UserID,
		TransactionID: t.ID,
		Payload:       string(payload),
		Status:        OutboxPending,
	}
}
