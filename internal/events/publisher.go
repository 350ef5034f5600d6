package events

import (
	"context"
	"errors"

	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/metrics"
	"github.com/synergy-flow/internal/queue"
	"github.com/synergy-flow/internal/service"
)

// QueuePublisher 将事件投递到 asynq，由 worker 生成站内通知
type QueuePublisher struct {
	client *queue.Client
}

// NewQueuePublisher 创建队列投递器
func NewQueuePublisher(client *queue.Client) *QueuePublisher {
	return &QueuePublisher{client: client}
}

// PublishTierChanged 投递等级变更
func (p *QueuePublisher) PublishTierChanged(ctx context.Context, event service.TierChangedEvent) error {
	return p.client.EnqueueTierChanged(ctx, queue.TierChangedPayload{
		UserID:           event.UserID,
		FromTier:         event.FromTier,
		ToTier:           event.ToTier,
		AccumulatedSales: event.AccumulatedSales.StringFixed(2),
		OrderID:          event.OrderID,
		OccurredAt:       event.OccurredAt,
	})
}

// PublishLedgerAppended 投递账本追加
func (p *QueuePublisher) PublishLedgerAppended(ctx context.Context, event service.LedgerAppendedEvent) error {
	return p.client.EnqueueLedgerAppended(ctx, queue.LedgerAppendedPayload{
		TransactionID: event.TransactionID,
		UserID:        event.UserID,
		Type:          event.Type,
		Status:        event.Status,
		Amount:        event.Amount.StringFixed(2),
		OrderID:       event.OrderID,
		OccurredAt:    event.OccurredAt,
	})
}

// PublishOrderStatus 投递订单状态
func (p *QueuePublisher) PublishOrderStatus(ctx context.Context, event service.OrderStatusEvent) error {
	return p.client.EnqueueOrderStatus(ctx, queue.OrderStatusPayload{
		OrderID:    event.OrderID,
		UserID:     event.UserID,
		OrderNo:    event.OrderNo,
		FromStatus: event.FromStatus,
		Status:     event.ToStatus,
		OccurredAt: event.OccurredAt,
	})
}

// SyncPublisher 队列关闭时同步写通知
type SyncPublisher struct {
	notifications *service.NotificationService
}

// NewSyncPublisher 创建同步投递器
func NewSyncPublisher(notifications *service.NotificationService) *SyncPublisher {
	return &SyncPublisher{notifications: notifications}
}

// PublishTierChanged 写等级变更通知
func (p *SyncPublisher) PublishTierChanged(_ context.Context, event service.TierChangedEvent) error {
	_, err := p.notifications.NotifyTierChanged(event)
	return err
}

// PublishLedgerAppended 写账本通知
func (p *SyncPublisher) PublishLedgerAppended(_ context.Context, event service.LedgerAppendedEvent) error {
	_, err := p.notifications.NotifyLedgerAppended(event)
	return err
}

// PublishOrderStatus 写订单状态通知
func (p *SyncPublisher) PublishOrderStatus(_ context.Context, event service.OrderStatusEvent) error {
	_, err := p.notifications.NotifyOrderStatus(event)
	return err
}

// Multi 扇出到多个投递器
// 单个投递器失败只记录日志并继续，最终返回合并后的错误。
type Multi []service.EventPublisher

// NewMulti 过滤空投递器
func NewMulti(publishers ...service.EventPublisher) Multi {
	out := make(Multi, 0, len(publishers))
	for _, publisher := range publishers {
		if publisher != nil {
			out = append(out, publisher)
		}
	}
	return out
}

// PublishTierChanged 扇出等级变更
func (m Multi) PublishTierChanged(ctx context.Context, event service.TierChangedEvent) error {
	return m.each("tier_changed", event.UserID, func(p service.EventPublisher) error {
		return p.PublishTierChanged(ctx, event)
	})
}

// PublishLedgerAppended 扇出账本追加
func (m Multi) PublishLedgerAppended(ctx context.Context, event service.LedgerAppendedEvent) error {
	return m.each("ledger_appended", event.UserID, func(p service.EventPublisher) error {
		return p.PublishLedgerAppended(ctx, event)
	})
}

// PublishOrderStatus 扇出订单状态
func (m Multi) PublishOrderStatus(ctx context.Context, event service.OrderStatusEvent) error {
	return m.each("order_status", event.UserID, func(p service.EventPublisher) error {
		return p.PublishOrderStatus(ctx, event)
	})
}

func (m Multi) each(kind string, userID uint, fn func(service.EventPublisher) error) error {
	var errs []error
	for _, publisher := range m {
		if err := fn(publisher); err != nil {
			sink := sinkName(publisher)
			logger.Warnw("event_publish_failed", "sink", sink, "event", kind, "user_id", userID, "error", err)
			metrics.Affiliate().ObserveEventFailure(sink, kind)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sinkName(publisher service.EventPublisher) string {
	switch publisher.(type) {
	case *QueuePublisher:
		return "queue"
	case *KafkaPublisher:
		return "kafka"
	case *SyncPublisher:
		return "sync"
	default:
		return "other"
	}
}
