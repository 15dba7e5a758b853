package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/queue"

	"github.com/hibiken/asynq"
)

// NotificationService 通知服务：事件入队后由 worker 投递到运营 webhook
// 投递失败只记日志，绝不阻塞发货或结算主链路
type NotificationService struct {
	cfg         config.NotifyConfig
	queueClient *queue.Client
	httpClient  *http.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(cfg config.NotifyConfig, queueClient *queue.Client) *NotificationService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NotificationService{
		cfg:         cfg,
		queueClient: queueClient,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Notify 入队一条事件通知（尽力而为）
func (s *NotificationService) Notify(eventType string, orderID uint, data map[string]interface{}) {
	if s == nil || !s.cfg.Enabled {
		return
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return
	}
	payload := queue.NotificationDispatchPayload{
		EventType: eventType,
		OrderID:   orderID,
		Data:      data,
	}
	if err := s.queueClient.EnqueueNotificationDispatch(payload, asynq.MaxRetry(5)); err != nil {
		logger.Warnw("notify_enqueue_failed",
			"event_type", eventType,
			"order_id", orderID,
			"error", err,
		)
	}
}

// Dispatch 处理通知分发任务：将事件POST到配置的 webhook
func (s *NotificationService) Dispatch(ctx context.Context, payload queue.NotificationDispatchPayload) error {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	url := strings.TrimSpace(s.cfg.WebhookURL)
	if url == "" {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"event_type": payload.EventType,
		"order_id":   payload.OrderID,
		"data":       payload.Data,
		"sent_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.Warnw("notify_dispatch_failed",
			"event_type", payload.EventType,
			"order_id", payload.OrderID,
			"error", err,
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnw("notify_dispatch_rejected",
			"event_type", payload.EventType,
			"order_id", payload.OrderID,
			"status", resp.StatusCode,
		)
		return nil
	}

	logger.Infow("notify_dispatched",
		"event_type", payload.EventType,
		"order_id", payload.OrderID,
	)
	return nil
}

// NotifyPackageConfirmed 包裹确认事件
func (s *NotificationService) NotifyPackageConfirmed(orderID uint, trackingNo uint64) {
	s.Notify(constants.NotifyEventPackageConfirmed, orderID, map[string]interface{}{
		"tracking_no": trackingNo,
	})
}

// NotifyPackagePending 包裹待重推事件
func (s *NotificationService) NotifyPackagePending(orderID uint, trackingNo uint64, reason string) {
	s.Notify(constants.NotifyEventPackagePending, orderID, map[string]interface{}{
		"tracking_no": trackingNo,
		"reason":      reason,
	})
}

// NotifyProfitsDistributed 分润完成事件
func (s *NotificationService) NotifyProfitsDistributed(orderID uint) {
	s.Notify(constants.NotifyEventProfitsDistributed, orderID, nil)
}

// NotifyProfitsReversed 分润冲正事件
func (s *NotificationService) NotifyProfitsReversed(orderID uint) {
	s.Notify(constants.NotifyEventProfitsReversed, orderID, nil)
}
