package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/provider"
	"github.com/synergy-flow/internal/queue"
	"github.com/synergy-flow/internal/service"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotifyTierChanged, c.handleTierChanged)
	mux.HandleFunc(queue.TaskNotifyLedgerAppended, c.handleLedgerAppended)
	mux.HandleFunc(queue.TaskNotifyOrderStatus, c.handleOrderStatus)
}

func (c *Consumer) handleTierChanged(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "tier_changed") {
		return nil
	}
	var payload queue.TierChangedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_tier_changed_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_tier_changed_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	sales, err := parsePayloadAmount(payload.AccumulatedSales)
	if err != nil {
		logger.Warnw("worker_tier_changed_amount_invalid", "user_id", payload.UserID, "amount", payload.AccumulatedSales)
		return nil
	}
	_, err = c.NotificationService.NotifyTierChanged(service.TierChangedEvent{
		UserID:           payload.UserID,
		FromTier:         payload.FromTier,
		ToTier:           payload.ToTier,
		AccumulatedSales: sales,
		OrderID:          payload.OrderID,
		OccurredAt:       payload.OccurredAt,
	})
	return c.settle("tier_changed", payload.UserID, err)
}

func (c *Consumer) handleLedgerAppended(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "ledger_appended") {
		return nil
	}
	var payload queue.LedgerAppendedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_ledger_appended_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_ledger_appended_skip_invalid_payload", "transaction_id", payload.TransactionID)
		return nil
	}
	amount, err := parsePayloadAmount(payload.Amount)
	if err != nil {
		logger.Warnw("worker_ledger_appended_amount_invalid", "transaction_id", payload.TransactionID, "amount", payload.Amount)
		return nil
	}
	_, err = c.NotificationService.NotifyLedgerAppended(service.LedgerAppendedEvent{
		TransactionID: payload.TransactionID,
		UserID:        payload.UserID,
		Type:          payload.Type,
		Status:        payload.Status,
		Amount:        amount,
		OrderID:       payload.OrderID,
		OccurredAt:    payload.OccurredAt,
	})
	return c.settle("ledger_appended", payload.UserID, err)
}

func (c *Consumer) handleOrderStatus(_ context.Context, task *asynq.Task) error {
	if !c.ready(task, "order_status") {
		return nil
	}
	var payload queue.OrderStatusPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.UserID == 0 {
		logger.Debugw("worker_order_status_skip_invalid_payload", "order_id", payload.OrderID, "user_id", payload.UserID)
		return nil
	}
	_, err := c.NotificationService.NotifyOrderStatus(service.OrderStatusEvent{
		OrderID:    payload.OrderID,
		UserID:     payload.UserID,
		OrderNo:    payload.OrderNo,
		FromStatus: payload.FromStatus,
		ToStatus:   payload.Status,
		OccurredAt: payload.OccurredAt,
	})
	return c.settle("order_status", payload.UserID, err)
}

func (c *Consumer) ready(task *asynq.Task, kind string) bool {
	if c == nil || task == nil || c.Container == nil {
		logger.Debugw("worker_notify_skip_nil", "event", kind, "consumer_nil", c == nil, "task_nil", task == nil)
		return false
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notify_skip_service_nil", "event", kind)
		return false
	}
	return true
}

// 用户已被删除时不再重试
func (c *Consumer) settle(kind string, userID uint, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrUserNotFound) {
		logger.Debugw("worker_notify_skip_user_not_found", "event", kind, "user_id", userID)
		return nil
	}
	logger.Warnw("worker_notify_failed", "event", kind, "user_id", userID, "error", err)
	return err
}

func parsePayloadAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
