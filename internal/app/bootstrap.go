package app

import (
	"errors"
	"fmt"
	"net"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/logger"
	"github.com/synergy-flow/internal/provider"
	"github.com/synergy-flow/internal/router"
	"github.com/synergy-flow/internal/worker"
)

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}

// BuildRunner 按启动模式组装服务，容器在 Runner 结束时关闭
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	container := provider.NewContainer(cfg)
	services, err := buildServices(cfg, mode, container)
	if err != nil {
		container.Close()
		return nil, err
	}
	runner := NewRunner(services...)
	runner.OnStop(container.Close)
	return runner, nil
}

func buildServices(cfg *config.Config, mode string, container *provider.Container) ([]Service, error) {
	withAPI := mode == ModeAll || mode == ModeAPI
	withWorker := mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled)
	if mode == ModeAll && !cfg.Queue.Enabled {
		// 队列关闭时事件同步投递，不需要 worker
		logger.Warnw("worker_skipped_queue_disabled")
	}

	var services []Service
	if withAPI {
		services = append(services, NewHTTPService(listenAddr(cfg), router.SetupRouter(cfg, container)))
	}
	if withWorker {
		svc, err := worker.NewService(cfg, worker.NewConsumer(container))
		if err != nil {
			return nil, fmt.Errorf("worker: %w", err)
		}
		services = append(services, svc)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("mode %q starts no services", mode)
	}
	return services, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	opts.Logger.Infow("app_start", "addr", listenAddr(opts.Config), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
