package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/constants"

	"github.com/hibiken/asynq"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueTierChanged(context.Background(), TierChangedPayload{UserID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close disabled client failed: %v", err)
	}
}

func TestLedgerAppendedTaskCarriesTypeAndPayload(t *testing.T) {
	task, err := NewLedgerAppendedTask(LedgerAppendedPayload{TransactionID: 9, UserID: 3, Type: "direct", Amount: "100.00"})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskNotifyLedgerAppended {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var decoded LedgerAppendedPayload
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if decoded.TransactionID != 9 || decoded.Amount != "100.00" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 {
		t.Fatalf("unexpected concurrency: %d", cfg.Concurrency)
	}
	if cfg.Queues[DefaultQueue] == 0 {
		t.Fatalf("default queue missing from weights")
	}
}

func optionValues(opts []asynq.Option) map[asynq.OptionType]interface{} {
	values := make(map[asynq.OptionType]interface{}, len(opts))
	for _, opt := range opts {
		values[opt.Type()] = opt.Value()
	}
	return values
}

func TestTierChangedRoutesToCriticalWithStableID(t *testing.T) {
	task, err := NewTierChangedTask(TierChangedPayload{UserID: 7, ToTier: "builder", OrderID: 31})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	values := optionValues(enqueueOptions(task))
	if values[asynq.QueueOpt] != constants.QueueCritical {
		t.Fatalf("tier change should use critical queue, got %v", values[asynq.QueueOpt])
	}
	if values[asynq.TaskIDOpt] != "tier:7:builder:31" {
		t.Fatalf("unexpected task id: %v", values[asynq.TaskIDOpt])
	}
	if values[asynq.RetentionOpt] != 24*time.Hour {
		t.Fatalf("unexpected retention: %v", values[asynq.RetentionOpt])
	}
}

func TestLedgerTaskIDFollowsStatus(t *testing.T) {
	pending, _ := NewLedgerAppendedTask(LedgerAppendedPayload{TransactionID: 5, Status: "pending"})
	paid, _ := NewLedgerAppendedTask(LedgerAppendedPayload{TransactionID: 5, Status: "paid"})
	if dedupID(pending) == dedupID(paid) {
		t.Fatalf("status transitions must not collapse into one task")
	}
	values := optionValues(enqueueOptions(paid))
	if values[asynq.QueueOpt] != DefaultQueue {
		t.Fatalf("ledger notice should use default queue, got %v", values[asynq.QueueOpt])
	}
}

func TestTaskWithoutKeySkipsDedup(t *testing.T) {
	task, _ := NewOrderStatusTask(OrderStatusPayload{Status: "paid"})
	values := optionValues(enqueueOptions(task))
	if _, ok := values[asynq.TaskIDOpt]; ok {
		t.Fatalf("task without order id should not carry a task id")
	}
	if values[asynq.MaxRetryOpt] != 5 {
		t.Fatalf("unexpected max retry: %v", values[asynq.MaxRetryOpt])
	}
}
