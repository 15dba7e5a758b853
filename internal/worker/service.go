package worker

import (
	"context"
	"errors"
	"time"

	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	pendingSweepInterval = time.Minute
	pendingSweepAge      = 10 * time.Minute
	pendingSweepLimit    = 100
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PackageRepo != nil && s.consumer.QueueClient != nil {
		go s.runPendingPackageSweep(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPendingPackageSweep 周期性扫描长期停留在待推送状态的包裹并重新入队
func (s *Service) runPendingPackageSweep(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PackageRepo == nil || s.consumer.QueueClient == nil {
		return
	}
	runOnce := func() {
		cutoff := time.Now().Add(-pendingSweepAge)
		packages, err := s.consumer.PackageRepo.ListPendingBefore(cutoff, pendingSweepLimit)
		if err != nil {
			logger.Warnw("worker_pending_sweep_list_failed", "error", err)
			return
		}
		for _, pkg := range packages {
			payload := queue.PackageResendPayload{OrderID: pkg.OrderID}
			if err := s.consumer.QueueClient.EnqueuePackageResend(payload); err != nil {
				logger.Warnw("worker_pending_sweep_enqueue_failed", "order_id", pkg.OrderID, "tracking_no", pkg.TrackingNo, "error", err)
			}
		}
		if len(packages) > 0 {
			logger.Infow("worker_pending_sweep_enqueued", "count", len(packages))
		}
	}
	runOnce()

	ticker := time.NewTicker(pendingSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
