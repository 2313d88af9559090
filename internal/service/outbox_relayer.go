package service

import (
	"context"
	"time"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

type Sender func(ctx context.Context, ob *model.LedgerOutbox) error

// OutboxRelayer 把资金事件从 outbox 表投递到消息队列
type OutboxRelayer struct {
	store     OutboxStore
	sender    Sender
	log       *logger.Logger
	batchSize int
	maxRetry  int
	interval  time.Duration
}

func NewOutboxRelayer(store OutboxStore, sender Sender, log *logger.Logger, interval time.Duration, batchSize, maxRetry int) *OutboxRelayer {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if maxRetry <= 0 {
		maxRetry = 10
	}
	return &OutboxRelayer{
		store:     store,
		sender:    sender,
		log:       log.With("service", "OutboxRelayer"),
		batchSize: batchSize,
		maxRetry:  maxRetry,
		interval:  interval,
	}
}

func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 按 id 顺序投递一批，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.store.PendingOutbox(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		r.log.Error("outbox query failed", "error", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			pkg.OutboxDeliveries.WithLabelValues("failed").Inc()
			r.log.Warn("outbox send failed", "id", ob.ID, "event", ob.EventType, "retry", ob.Retry+1, "error", err)
			if err := r.store.MarkFailed(ctx, ob.ID); err != nil {
				r.log.Error("outbox mark failed", "id", ob.ID, "error", err)
			}
			continue
		}
		if err := r.store.MarkSent(ctx, ob.ID); err != nil {
			r.log.Error("outbox mark sent", "id", ob.ID, "error", err)
			continue
		}
		pkg.OutboxDeliveries.WithLabelValues("sent").Inc()
		sent++
	}
	return sent
}

// KafkaSender 以用户 id 作为 key，保证同一用户的事件有序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.LedgerOutbox) error {
		return p.Send(ctx, ob.UserID, []byte(ob.Payload))
	}
}

// LogSender 未配置 kafka 时使用
func LogSender(log *logger.Logger) Sender {
	return func(ctx context.Context, ob *model.LedgerOutbox) error {
		log.Info("outbox event", "type", ob.EventType, "user_id", ob.UserID, "tx_id", ob.TransactionID, "payload", ob.Payload)
		return nil
	}
}
