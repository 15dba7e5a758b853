package service

import (
	"context"
	"time"

	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/queue"
	"github.com/wasl-next/internal/repository"
)

// settlementRetryDelay 结算失败后的异步重试延迟
const settlementRetryDelay = time.Minute

// OrderService 订单状态入口：状态迁移驱动发货与结算编排
type OrderService struct {
	orderRepo     repository.OrderRepository
	shippingSvc   *ShippingService
	settlementSvc *SettlementService
	queueClient   *queue.Client
}

// OrderStatusChangeResult 状态迁移处理结果
type OrderStatusChangeResult struct {
	Order   *models.Order
	Package *PackageCreationResult // 进入待发货时产生
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	shippingSvc *ShippingService,
	settlementSvc *SettlementService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		shippingSvc:   shippingSvc,
		settlementSvc: settlementSvc,
		queueClient:   queueClient,
	}
}

// GetByID 查询订单
func (s *OrderService) GetByID(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 分页查询订单
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// HandleStatusChange 处理订单状态迁移并触发对应编排
// 发货失败不回滚订单状态；结算失败转入异步重试
func (s *OrderService) HandleStatusChange(ctx context.Context, orderID uint, newStatus string) (*OrderStatusChangeResult, error) {
	newStatus = NormalizeOrderStatus(newStatus)
	if !IsKnownOrderStatus(newStatus) {
		return nil, ErrOrderStatusInvalid
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !CanTransitOrderStatus(order.Status, newStatus) {
		logger.Warnw("order_status_transition_rejected",
			"order_id", orderID,
			"from", order.Status,
			"to", newStatus,
		)
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	if err := s.orderRepo.Updates(orderID, map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	order.Status = newStatus

	logger.Infow("order_status_changed",
		"order_id", orderID,
		"status", newStatus,
	)

	result := &OrderStatusChangeResult{Order: order}

	switch newStatus {
	case constants.OrderStatusReadyForShipping:
		pkgResult, err := s.shippingSvc.CreatePackageFromOrder(ctx, orderID)
		if err != nil {
			// 致命的配置/数据错误：包裹未能落库，订单状态保持不回滚
			logger.Errorw("order_package_creation_failed",
				"order_id", orderID,
				"error", err,
			)
			return result, err
		}
		result.Package = pkgResult

	case constants.OrderStatusDelivered:
		if err := s.settlementSvc.Distribute(order); err != nil {
			logger.Errorw("order_profit_distribute_failed",
				"order_id", orderID,
				"error", err,
			)
			s.enqueueSettlementRetry(orderID)
		}

	case constants.OrderStatusCanceled, constants.OrderStatusReturned, constants.OrderStatusRefunded:
		if order.ProfitsDistributed {
			if err := s.settlementSvc.Reverse(order); err != nil {
				logger.Errorw("order_profit_reverse_failed",
					"order_id", orderID,
					"error", err,
				)
				return result, err
			}
		}
	}

	return result, nil
}

// DistributeOrderProfits 直接触发分润（状态事件重放或异步重试使用）
func (s *OrderService) DistributeOrderProfits(orderID uint) error {
	order, err := s.GetByID(orderID)
	if err != nil {
		return err
	}
	return s.settlementSvc.Distribute(order)
}

// ReverseOrderProfits 直接触发分润冲正
func (s *OrderService) ReverseOrderProfits(orderID uint) error {
	order, err := s.GetByID(orderID)
	if err != nil {
		return err
	}
	return s.settlementSvc.Reverse(order)
}

// ResendPackage 重推处于待推送状态的包裹
func (s *OrderService) ResendPackage(ctx context.Context, orderID uint) (*PackageCreationResult, error) {
	return s.shippingSvc.CreatePackageFromOrder(ctx, orderID)
}

func (s *OrderService) enqueueSettlementRetry(orderID uint) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueSettlementRetry(queue.SettlementRetryPayload{OrderID: orderID}, settlementRetryDelay); err != nil {
		logger.Warnw("order_settlement_retry_enqueue_failed",
			"order_id", orderID,
			"error", err,
		)
	}
}
