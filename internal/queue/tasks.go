package queue

import (
	"encoding/json"

	"github.com/wasl-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPackageResend 包裹重推任务
	TaskPackageResend = constants.TaskPackageResend
	// TaskSettlementRetry 分润结算重试任务
	TaskSettlementRetry = constants.TaskSettlementRetry
	// TaskNotificationDispatch 通知分发任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// PackageResendPayload 包裹重推任务载荷
type PackageResendPayload struct {
	OrderID uint `json:"order_id"`
}

// SettlementRetryPayload 分润结算重试任务载荷
type SettlementRetryPayload struct {
	OrderID uint `json:"order_id"`
}

// NotificationDispatchPayload 通知分发任务载荷
type NotificationDispatchPayload struct {
	EventType string                 `json:"event_type"`
	OrderID   uint                   `json:"order_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewPackageResendTask 创建包裹重推任务
func NewPackageResendTask(payload PackageResendPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPackageResend, body), nil
}

// NewSettlementRetryTask 创建分润结算重试任务
func NewSettlementRetryTask(payload SettlementRetryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRetry, body), nil
}

// NewNotificationDispatchTask 创建通知分发任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}
