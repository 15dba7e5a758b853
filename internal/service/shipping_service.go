package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wasl-next/internal/cache"
	"github.com/wasl-next/internal/carrier"
	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CarrierSender 承运商推送函数（测试时可替换）
type CarrierSender func(ctx context.Context, cfg *carrier.Config, input carrier.CreateInput) (*carrier.CreateResult, error)

// ShippingService 发货服务：承运商路由 + 包裹落库 + 外部推送编排
type ShippingService struct {
	orderRepo   repository.OrderRepository
	packageRepo repository.PackageRepository
	companyRepo repository.ShippingCompanyRepository
	villageRepo repository.VillageRepository
	settingSvc  *SettingService
	notifySvc   *NotificationService
	cfg         config.ShippingConfig
	sender      CarrierSender
	sleep       func(time.Duration)
}

// PackageCreationResult 包裹创建结果
// CarrierAccepted=false 且 TrackingNo>0 表示包裹已落库但尚未被承运商受理，可稍后重推
type PackageCreationResult struct {
	TrackingNo      uint64
	Package         *models.Package
	CarrierAccepted bool
	Err             error
}

// NewShippingService 创建发货服务
func NewShippingService(
	orderRepo repository.OrderRepository,
	packageRepo repository.PackageRepository,
	companyRepo repository.ShippingCompanyRepository,
	villageRepo repository.VillageRepository,
	settingSvc *SettingService,
	notifySvc *NotificationService,
	cfg config.ShippingConfig,
) *ShippingService {
	return &ShippingService{
		orderRepo:   orderRepo,
		packageRepo: packageRepo,
		companyRepo: companyRepo,
		villageRepo: villageRepo,
		settingSvc:  settingSvc,
		notifySvc:   notifySvc,
		cfg:         cfg,
		sender:      carrier.CreatePackage,
		sleep:       time.Sleep,
	}
}

// ResolveCarrier 解析订单应使用的承运商
// 优先级：订单指定名称 → 系统默认承运商 → 第一个可用承运商
func (s *ShippingService) ResolveCarrier(order *models.Order, village *models.Village) (*models.ShippingCompany, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if name := strings.TrimSpace(order.ShippingCompanyName); name != "" {
		company, err := s.companyRepo.GetActiveByName(name)
		if err != nil {
			return nil, err
		}
		if company != nil && carrierCoversVillage(company, village) {
			return company, nil
		}
		logger.Warnw("shipping_named_carrier_unusable",
			"order_id", order.ID,
			"carrier_name", name,
			"found", company != nil,
		)
	}

	if defaultID, err := s.settingSvc.GetDefaultShippingCompanyID(); err == nil && defaultID > 0 {
		company, err := s.companyRepo.GetByID(defaultID)
		if err != nil {
			return nil, err
		}
		if company != nil && company.IsActive && carrierCoversVillage(company, village) {
			return company, nil
		}
		logger.Warnw("shipping_default_carrier_unusable",
			"order_id", order.ID,
			"company_id", defaultID,
		)
	}

	companies, err := s.companyRepo.ListActive()
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if carrierCoversVillage(&companies[i], village) {
			return &companies[i], nil
		}
	}
	return nil, ErrNoCarrierAvailable
}

// ValidateDestination 校验订单目的地村庄存在且可配送
func (s *ShippingService) ValidateDestination(order *models.Order) (*models.Village, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.VillageID == 0 {
		return nil, ErrOrderMissingVillage
	}
	village, err := s.villageRepo.GetByID(order.VillageID)
	if err != nil {
		return nil, err
	}
	if village == nil || !village.IsActive {
		return nil, ErrInvalidDestination
	}
	return village, nil
}

// CreatePackageFromOrder 订单进入待发货后的入口：落库包裹并推送承运商
// 调用幂等：已确认的包裹直接返回，不重复打外部请求
func (s *ShippingService) CreatePackageFromOrder(ctx context.Context, orderID uint) (*PackageCreationResult, error) {
	// 单订单互斥，防止重复状态事件并发触发两次创建
	locked, err := cache.AcquireOrderLock(ctx, orderID)
	if err != nil {
		logger.Warnw("shipping_order_lock_failed", "order_id", orderID, "error", err)
	}
	if err == nil && !locked {
		logger.Warnw("shipping_order_locked", "order_id", orderID)
		return nil, ErrPackageCreateFailed
	}
	if locked {
		defer func() {
			if err := cache.ReleaseOrderLock(context.WithoutCancel(ctx), orderID); err != nil {
				logger.Warnw("shipping_order_unlock_failed", "order_id", orderID, "error", err)
			}
		}()
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	// 未进入待发货或已终止的订单不允许建包
	if orderStatusRank[order.Status] < orderStatusRank[constants.OrderStatusReadyForShipping] ||
		IsTerminalOrderStatus(order.Status) {
		return nil, ErrOrderNotDeliverable
	}

	village, err := s.ValidateDestination(order)
	if err != nil {
		logger.Errorw("shipping_destination_invalid",
			"order_id", orderID,
			"village_id", order.VillageID,
			"error", err,
		)
		return nil, err
	}

	company, err := s.ResolveCarrier(order, village)
	if err != nil {
		logger.Errorw("shipping_carrier_resolve_failed",
			"order_id", orderID,
			"error", err,
		)
		return nil, err
	}

	pkg, err := s.createOrGetPackage(order, company)
	if err != nil {
		return nil, err
	}

	// 已确认过的包裹短路返回
	if pkg.Status != constants.PackageStatusPending {
		return &PackageCreationResult{
			TrackingNo:      pkg.TrackingNo,
			Package:         pkg,
			CarrierAccepted: true,
		}, nil
	}

	// 承运商未配置推送凭证：仅本地登记，直接视为受理
	if !company.HasAPICredentials() {
		now := time.Now()
		updates := map[string]interface{}{
			"status":       constants.PackageStatusConfirmed,
			"confirmed_at": now,
			"updated_at":   now,
		}
		if err := s.packageRepo.Updates(pkg.ID, updates); err != nil {
			return nil, err
		}
		pkg.Status = constants.PackageStatusConfirmed
		pkg.ConfirmedAt = &now
		logger.Infow("shipping_package_local_only",
			"order_id", orderID,
			"tracking_no", pkg.TrackingNo,
			"company_id", company.ID,
		)
		s.notifySvc.NotifyPackageConfirmed(orderID, pkg.TrackingNo)
		return &PackageCreationResult{
			TrackingNo:      pkg.TrackingNo,
			Package:         pkg,
			CarrierAccepted: true,
		}, nil
	}

	result, sendErr := s.pushToCarrier(ctx, order, pkg, company, village)
	if sendErr != nil {
		// 包裹保持 pending，订单状态不回滚，稍后可重推
		logger.Warnw("shipping_carrier_push_failed",
			"order_id", orderID,
			"tracking_no", pkg.TrackingNo,
			"company_id", company.ID,
			"error", sendErr,
		)
		s.notifySvc.NotifyPackagePending(orderID, pkg.TrackingNo, sendErr.Error())
		return &PackageCreationResult{
			TrackingNo:      pkg.TrackingNo,
			Package:         pkg,
			CarrierAccepted: false,
			Err:             sendErr,
		}, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":              constants.PackageStatusConfirmed,
		"external_package_id": result.ExternalID,
		"qr_code":             result.QRCode,
		"confirmed_at":        now,
		"updated_at":          now,
	}
	if cost, err := decimal.NewFromString(strings.TrimSpace(result.DeliveryCost)); err == nil {
		updates["delivery_cost"] = models.NewMoneyFromDecimal(cost)
		pkg.DeliveryCost = models.NewMoneyFromDecimal(cost)
	}
	if err := s.packageRepo.Updates(pkg.ID, updates); err != nil {
		return nil, err
	}
	pkg.Status = constants.PackageStatusConfirmed
	pkg.ExternalPackageID = result.ExternalID
	pkg.QRCode = result.QRCode
	pkg.ConfirmedAt = &now

	logger.Infow("shipping_package_confirmed",
		"order_id", orderID,
		"tracking_no", pkg.TrackingNo,
		"external_package_id", result.ExternalID,
		"company_id", company.ID,
	)
	s.notifySvc.NotifyPackageConfirmed(orderID, pkg.TrackingNo)

	return &PackageCreationResult{
		TrackingNo:      pkg.TrackingNo,
		Package:         pkg,
		CarrierAccepted: true,
	}, nil
}

// createOrGetPackage 幂等落库：已有包裹直接复用，损坏记录（无追踪号）清理后重建
func (s *ShippingService) createOrGetPackage(order *models.Order, company *models.ShippingCompany) (*models.Package, error) {
	existing, err := s.packageRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.HasTrackingNo() {
			return existing, nil
		}
		logger.Warnw("shipping_corrupt_package_purged",
			"order_id", order.ID,
			"package_id", existing.ID,
		)
		if err := s.packageRepo.DeleteByID(existing.ID); err != nil {
			return nil, err
		}
	}

	trackingNo, err := s.packageRepo.NextTrackingNo(s.cfg.TrackingStart)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pkg := &models.Package{
		TrackingNo:        trackingNo,
		OrderID:           order.ID,
		ShippingCompanyID: company.ID,
		ToName:            order.ShippingName,
		ToPhone:           order.ShippingPhone,
		AlterPhone:        order.AlterPhone,
		Street:            order.ShippingStreet,
		VillageID:         order.VillageID,
		Status:            constants.PackageStatusPending,
		Barcode:           buildPackageBarcode(order.OrderNo),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.packageRepo.Create(pkg); err != nil {
		// 唯一约束冲突：并发调用已创建，读回即可
		if concurrent, readErr := s.packageRepo.GetByOrderID(order.ID); readErr == nil && concurrent != nil {
			return concurrent, nil
		}
		return nil, ErrPackageCreateFailed
	}

	if err := s.orderRepo.Updates(order.ID, map[string]interface{}{
		"package_id": pkg.ID,
		"updated_at": now,
	}); err != nil {
		logger.Warnw("shipping_order_backref_update_failed",
			"order_id", order.ID,
			"package_id", pkg.ID,
			"error", err,
		)
	}

	logger.Infow("shipping_package_created",
		"order_id", order.ID,
		"tracking_no", trackingNo,
		"company_id", company.ID,
	)
	return pkg, nil
}

// pushToCarrier 向承运商推送，指数退避重试，仅对可重试的传输错误重试
func (s *ShippingService) pushToCarrier(
	ctx context.Context,
	order *models.Order,
	pkg *models.Package,
	company *models.ShippingCompany,
	village *models.Village,
) (*carrier.CreateResult, error) {
	cfg := &carrier.Config{
		Endpoint: company.APIEndpoint,
		Token:    company.APIToken,
		Timeout:  time.Duration(s.cfg.RequestTimeoutSeconds) * time.Second,
	}
	input := carrier.CreateInput{
		ToName:      pkg.ToName,
		ToPhone:     pkg.ToPhone,
		AlterPhone:  pkg.AlterPhone,
		Description: order.Note,
		PackageType: "normal",
		VillageID:   fmt.Sprintf("%d", pkg.VillageID),
		Street:      pkg.Street,
		TotalCost:   order.TotalAmount.String(),
		Note:        order.Note,
		Barcode:     pkg.Barcode,
		QRCode2:     fmt.Sprintf("%d", pkg.TrackingNo),
	}

	attempts := s.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := s.sender(ctx, cfg, input)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var transport *carrier.TransportError
		if !errors.As(err, &transport) || !transport.Retryable() {
			// 拒单或不可重试的失败立即停止
			return nil, err
		}
		if attempt < attempts {
			delay := s.retryBackoff(attempt)
			logger.Warnw("shipping_carrier_retry",
				"order_id", order.ID,
				"attempt", attempt,
				"next_delay", delay.String(),
				"error", err,
			)
			s.sleep(delay)
		}
	}
	return nil, lastErr
}

// retryBackoff 计算第 attempt 次失败后的退避时长（基数逐次翻倍）
func (s *ShippingService) retryBackoff(attempt int) time.Duration {
	base := time.Duration(s.cfg.RetryBackoffSeconds) * time.Second
	if base <= 0 {
		base = time.Second
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func buildPackageBarcode(orderNo string) string {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return ""
	}
	return "PKG-" + orderNo
}

// carrierCoversVillage 判断承运商可达城市白名单是否覆盖目的地
func carrierCoversVillage(company *models.ShippingCompany, village *models.Village) bool {
	if company == nil {
		return false
	}
	if len(company.Cities) == 0 || village == nil || strings.TrimSpace(village.City) == "" {
		return true
	}
	for _, city := range company.Cities {
		if strings.EqualFold(strings.TrimSpace(city), strings.TrimSpace(village.City)) {
			return true
		}
	}
	return false
}
