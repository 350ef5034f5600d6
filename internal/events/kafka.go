package events

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/service"

	"github.com/segmentio/kafka-go"
)

const (
	defaultKafkaTopic        = "synergy.events"
	defaultKafkaWriteTimeout = 5 * time.Second

	EventTypeTierChanged    = "tier_changed"
	EventTypeLedgerAppended = "ledger_appended"
	EventTypeOrderStatus    = "order_status"
)

// Envelope Kafka 消息体
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 对外事件流，按用户 id 分区保证同一会员事件有序
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher 根据配置创建；未启用或无 broker 时返回 nil
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	if !cfg.Enabled || len(brokers) == 0 {
		return nil
	}
	topic := strings.TrimSpace(cfg.Topic)
	if topic == "" {
		topic = defaultKafkaTopic
	}
	timeout := defaultKafkaWriteTimeout
	if cfg.WriteTimeout > 0 {
		timeout = time.Duration(cfg.WriteTimeout) * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, timeout)
}

func newKafkaPublisher(writer messageWriter, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: timeout}
}

// PublishTierChanged 写等级变更
func (p *KafkaPublisher) PublishTierChanged(ctx context.Context, event service.TierChangedEvent) error {
	return p.write(ctx, EventTypeTierChanged, event.UserID, event.OccurredAt, event)
}

// PublishLedgerAppended 写账本追加
func (p *KafkaPublisher) PublishLedgerAppended(ctx context.Context, event service.LedgerAppendedEvent) error {
	return p.write(ctx, EventTypeLedgerAppended, event.UserID, event.OccurredAt, event)
}

// PublishOrderStatus 写订单状态
func (p *KafkaPublisher) PublishOrderStatus(ctx context.Context, event service.OrderStatusEvent) error {
	return p.write(ctx, EventTypeOrderStatus, event.UserID, event.OccurredAt, event)
}

// Close 关闭 writer
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *KafkaPublisher) write(ctx context.Context, kind string, userID uint, at time.Time, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = time.Now()
	}
	value, err := json.Marshal(Envelope{Type: kind, OccurredAt: at, Data: body})
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(userID), 10)),
		Value: value,
		Time:  at,
	})
}
