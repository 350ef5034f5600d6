package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/constants"

	"github.com/hibiken/asynq"
)

// DefaultQueue 未单独路由的任务进入该队列
const DefaultQueue = constants.QueueDefault

// route 任务类型对应的投递策略
type route struct {
	queue    string
	maxRetry int
	timeout  time.Duration
	// retention 去重 ID 在完成后保留的时长
	retention time.Duration
}

var routes = map[string]route{
	TaskNotifyTierChanged:    {queue: constants.QueueCritical, maxRetry: 8, timeout: 30 * time.Second, retention: 24 * time.Hour},
	TaskNotifyLedgerAppended: {queue: DefaultQueue, maxRetry: 5, timeout: 30 * time.Second, retention: time.Hour},
	TaskNotifyOrderStatus:    {queue: DefaultQueue, maxRetry: 5, timeout: 30 * time.Second, retention: time.Hour},
}

func routeFor(taskType string) route {
	if r, ok := routes[taskType]; ok {
		return r
	}
	return route{queue: DefaultQueue, maxRetry: 5, timeout: 30 * time.Second}
}

// Client 通知任务投递端；未启用时所有投递都是空操作
type Client struct {
	inner *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 是否真正投递
func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueTierChanged 等级变更走高优先级队列
func (c *Client) EnqueueTierChanged(ctx context.Context, payload TierChangedPayload) error {
	return submit(ctx, c, NewTierChangedTask, payload)
}

// EnqueueLedgerAppended 账本追加通知
func (c *Client) EnqueueLedgerAppended(ctx context.Context, payload LedgerAppendedPayload) error {
	return submit(ctx, c, NewLedgerAppendedTask, payload)
}

// EnqueueOrderStatus 订单状态通知
func (c *Client) EnqueueOrderStatus(ctx context.Context, payload OrderStatusPayload) error {
	return submit(ctx, c, NewOrderStatusTask, payload)
}

func submit[P any](ctx context.Context, c *Client, build func(P) (*asynq.Task, error), payload P) error {
	if !c.Enabled() {
		return nil
	}
	task, err := build(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task) error {
	_, err := c.inner.EnqueueContext(ctx, task, enqueueOptions(task)...)
	// 同一事件重复投递只保留第一次
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func enqueueOptions(task *asynq.Task) []asynq.Option {
	r := routeFor(task.Type())
	opts := []asynq.Option{asynq.Queue(r.queue), asynq.MaxRetry(r.maxRetry), asynq.Timeout(r.timeout)}
	if id := dedupID(task); id != "" {
		opts = append(opts, asynq.TaskID(id))
		if r.retention > 0 {
			opts = append(opts, asynq.Retention(r.retention))
		}
	}
	return opts
}

// BuildServerConfig worker 端的连接与队列权重
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	queues := map[string]int{constants.QueueCritical: 6, DefaultQueue: 3}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return redisOpt(cfg), asynq.Config{Concurrency: concurrency, Queues: queues}
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
