package worker

import (
	"context"
	"errors"
	"time"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/metrics"
	"github.com/synergy-flow/internal/queue"
	"github.com/synergy-flow/internal/repository"

	"github.com/hibiken/asynq"
)

const defaultReconcileInterval = 10 * time.Minute

// Service asynq 消费端与钱包对账循环；由 app.Runner 管理生命周期
type Service struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	reconciler reconciler
	interval   time.Duration
}

// NewService 创建 worker；队列未启用时返回错误
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	switch {
	case cfg == nil || !cfg.Queue.Enabled:
		return nil, errors.New("queue disabled")
	case consumer == nil:
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	svc := &Service{
		server:   asynq.NewServer(opt, serverCfg),
		mux:      mux,
		interval: reconcileInterval(cfg.Worker),
	}
	if consumer.Container != nil && consumer.WalletService != nil {
		svc.reconciler = consumer.WalletService
	}
	return svc, nil
}

// Name 服务名称
func (s *Service) Name() string { return "worker" }

// Start 启动消费并阻塞到 ctx 结束；信号由 Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	runReconcileLoop(ctx, s.interval, s.reconciler)
	return nil
}

// Stop 等待进行中的任务完成
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

type reconciler interface {
	Reconcile() ([]repository.WalletJournalRow, error)
}

func reconcileInterval(cfg config.WorkerConfig) time.Duration {
	if cfg.ReconcileIntervalSeconds > 0 {
		return time.Duration(cfg.ReconcileIntervalSeconds) * time.Second
	}
	return defaultReconcileInterval
}

// reconcileOnce 钱包对账，不一致账户数写入指标
func reconcileOnce(target reconciler) int {
	rows, err := target.Reconcile()
	if err != nil {
		logger.Warnw("worker_wallet_reconcile_failed", "error", err)
		return -1
	}
	for _, row := range rows {
		logger.Errorw("worker_wallet_journal_mismatch",
			"user_id", row.UserID,
			"balance", row.Balance.StringFixed(2),
			"journal_net", row.Net.StringFixed(2),
		)
	}
	metrics.Affiliate().SetLedgerMismatches(len(rows))
	return len(rows)
}

func runReconcileLoop(ctx context.Context, interval time.Duration, target reconciler) {
	if target == nil {
		<-ctx.Done()
		return
	}
	reconcileOnce(target)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reconcileOnce(target)
		}
	}
}
