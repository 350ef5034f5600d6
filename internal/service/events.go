package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TierChangedEvent 等级变更事件
type TierChangedEvent struct {
	UserID           uint            `json:"user_id"`
	FromTier         string          `json:"from_tier"`
	ToTier           string          `json:"to_tier"`
	AccumulatedSales decimal.Decimal `json:"accumulated_sales"`
	OrderID          uint            `json:"order_id,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

// LedgerAppendedEvent 佣金账本追加事件
type LedgerAppendedEvent struct {
	TransactionID uint            `json:"transaction_id"`
	UserID        uint            `json:"user_id"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	OrderID       uint            `json:"order_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OrderStatusEvent 订单状态变更事件
type OrderStatusEvent struct {
	OrderID    uint      `json:"order_id"`
	UserID     uint      `json:"user_id"`
	OrderNo    string    `json:"order_no"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher 事务提交后的事件投递
// 投递失败只记录日志，不回滚已提交的账务。
type EventPublisher interface {
	PublishTierChanged(ctx context.Context, event TierChangedEvent) error
	PublishLedgerAppended(ctx context.Context, event LedgerAppendedEvent) error
	PublishOrderStatus(ctx context.Context, event OrderStatusEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishTierChanged(context.Context, TierChangedEvent) error       { return nil }
func (noopPublisher) PublishLedgerAppended(context.Context, LedgerAppendedEvent) error { return nil }
func (noopPublisher) PublishOrderStatus(context.Context, OrderStatusEvent) error       { return nil }

func publisherOrNoop(publisher EventPublisher) EventPublisher {
	if publisher == nil {
		return noopPublisher{}
	}
	return publisher
}
