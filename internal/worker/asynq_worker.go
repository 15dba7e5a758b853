package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/provider"
	"github.com/wasl-next/internal/queue"
	"github.com/wasl-next/internal/service"

	"github.com/hibiken/asynq"
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
	mux.HandleFunc(queue.TaskPackageResend, c.handlePackageResend)
	mux.HandleFunc(queue.TaskSettlementRetry, c.handleSettlementRetry)
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

func (c *Consumer) handlePackageResend(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_package_resend_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PackageResendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_package_resend_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_package_resend_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_package_resend_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	result, err := c.OrderService.ResendPackage(ctx, payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_package_resend_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderNotDeliverable):
			logger.Debugw("worker_package_resend_skip_status", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrNoCarrierAvailable), errors.Is(err, service.ErrInvalidDestination), errors.Is(err, service.ErrOrderMissingVillage):
			logger.Warnw("worker_package_resend_skip_unroutable", "order_id", payload.OrderID, "error", err)
			return nil
		default:
			logger.Warnw("worker_package_resend_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	if result != nil && !result.CarrierAccepted {
		logger.Warnw("worker_package_resend_carrier_rejected",
			"order_id", payload.OrderID,
			"tracking_no", result.TrackingNo,
			"error", result.Err,
		)
		return result.Err
	}
	return nil
}

func (c *Consumer) handleSettlementRetry(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_retry_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_retry_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_settlement_retry_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_settlement_retry_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.DistributeOrderProfits(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_settlement_retry_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderSettlementReversed):
			// 冲正过的订单不能自动重结算，重试也不会成功
			logger.Debugw("worker_settlement_retry_skip_reversed", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_settlement_retry_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_dispatch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_dispatch_unmarshal_failed", "error", err)
		return err
	}
	if payload.EventType == "" {
		logger.Debugw("worker_notification_dispatch_skip_empty_event", "order_id", payload.OrderID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notification_dispatch_skip_service_nil", "event_type", payload.EventType)
		return nil
	}
	if err := c.NotificationService.Dispatch(ctx, payload); err != nil {
		logger.Warnw("worker_notification_dispatch_failed", "event_type", payload.EventType, "order_id", payload.OrderID, "error", err)
		return err
	}
	return nil
}
