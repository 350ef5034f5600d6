package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/synergy-flow/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotifyTierChanged 等级变更通知任务
	TaskNotifyTierChanged = constants.TaskNotifyTierChanged
	// TaskNotifyLedgerAppended 账本追加通知任务
	TaskNotifyLedgerAppended = constants.TaskNotifyLedgerAppended
	// TaskNotifyOrderStatus 订单状态通知任务
	TaskNotifyOrderStatus = constants.TaskNotifyOrderStatus
)

// TierChangedPayload 等级变更任务载荷
type TierChangedPayload struct {
	UserID           uint      `json:"user_id"`
	FromTier         string    `json:"from_tier"`
	ToTier           string    `json:"to_tier"`
	AccumulatedSales string    `json:"accumulated_sales"`
	OrderID          uint      `json:"order_id,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// LedgerAppendedPayload 账本追加任务载荷
type LedgerAppendedPayload struct {
	TransactionID uint      `json:"transaction_id"`
	UserID        uint      `json:"user_id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Amount        string    `json:"amount"`
	OrderID       uint      `json:"order_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// OrderStatusPayload 订单状态任务载荷
type OrderStatusPayload struct {
	OrderID    uint      `json:"order_id"`
	UserID     uint      `json:"user_id"`
	OrderNo    string    `json:"order_no"`
	FromStatus string    `json:"from_status"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewTierChangedTask 创建等级变更任务
func NewTierChangedTask(payload TierChangedPayload) (*asynq.Task, error) {
	return newTask(TaskNotifyTierChanged, payload)
}

// NewLedgerAppendedTask 创建账本追加任务
func NewLedgerAppendedTask(payload LedgerAppendedPayload) (*asynq.Task, error) {
	return newTask(TaskNotifyLedgerAppended, payload)
}

// NewOrderStatusTask 创建订单状态任务
func NewOrderStatusTask(payload OrderStatusPayload) (*asynq.Task, error) {
	return newTask(TaskNotifyOrderStatus, payload)
}

func newTask[P any](taskType string, payload P) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body), nil
}

// dedupID 由事件主键生成任务 ID；无法识别时返回空串，不去重
func dedupID(task *asynq.Task) string {
	switch task.Type() {
	case TaskNotifyTierChanged:
		var p TierChangedPayload
		if json.Unmarshal(task.Payload(), &p) != nil || p.UserID == 0 {
			return ""
		}
		return fmt.Sprintf("tier:%d:%s:%d", p.UserID, p.ToTier, p.OrderID)
	case TaskNotifyLedgerAppended:
		var p LedgerAppendedPayload
		if json.Unmarshal(task.Payload(), &p) != nil || p.TransactionID == 0 {
			return ""
		}
		return fmt.Sprintf("ledger:%d:%s", p.TransactionID, p.Status)
	case TaskNotifyOrderStatus:
		var p OrderStatusPayload
		if json.Unmarshal(task.Payload(), &p) != nil || p.OrderID == 0 {
			return ""
		}
		return fmt.Sprintf("order:%d:%s", p.OrderID, p.Status)
	}
	return ""
}
