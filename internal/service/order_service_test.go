package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wasl-next/internal/carrier"
	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Package{},
		&models.Sequence{},
		&models.ShippingCompany{},
		&models.Village{},
		&models.Setting{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	walletSvc := NewWalletService(repository.NewWalletRepository(db), repository.NewUserRepository(db))
	shippingSvc := NewShippingService(
		orderRepo,
		repository.NewPackageRepository(db),
		repository.NewShippingCompanyRepository(db),
		repository.NewVillageRepository(db),
		NewSettingService(repository.NewSettingRepository(db)),
		nil,
		config.ShippingConfig{TrackingStart: 100000, RetryAttempts: 3, RetryBackoffSeconds: 1},
	)
	shippingSvc.sleep = func(time.Duration) {}
	shippingSvc.sender = func(ctx context.Context, cfg *carrier.Config, input carrier.CreateInput) (*carrier.CreateResult, error) {
		return &carrier.CreateResult{ExternalID: "EXT-1", DeliveryCost: "2.00"}, nil
	}
	settlementSvc := NewSettlementService(orderRepo, walletSvc, nil, config.SettlementConfig{
		PlatformAccountID: testPlatformAccountID,
	})
	return NewOrderService(orderRepo, shippingSvc, settlementSvc, nil), walletSvc, db
}

func TestOrderLifecyclePipeline(t *testing.T) {
	svc, walletSvc, db := setupOrderServiceTest(t)
	createTestUser(t, db, testPlatformAccountID, constants.UserRoleAdmin)
	createTestUser(t, db, 2, constants.UserRoleMarketer)

	village := &models.Village{Name: "Test Village", IsActive: true}
	if err := db.Create(village).Error; err != nil {
		t.Fatalf("create village failed: %v", err)
	}
	company := &models.ShippingCompany{Name: "Local Couriers", IsActive: true}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("create company failed: %v", err)
	}

	marketerProfit := money("30.00")
	now := time.Now()
	order := &models.Order{
		OrderNo:        "WSL-PIPE-1",
		UserID:         2,
		CustomerRole:   constants.UserRoleMarketer,
		Status:         constants.OrderStatusProcessing,
		ShippingName:   "Hadi",
		VillageID:      village.ID,
		TotalAmount:    money("200.00"),
		Commission:     money("20.00"),
		MarketerProfit: &marketerProfit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 进入待发货：触发包裹创建
	result, err := svc.HandleStatusChange(context.Background(), order.ID, constants.OrderStatusReadyForShipping)
	if err != nil {
		t.Fatalf("ready_for_shipping transition error: %v", err)
	}
	if result.Package == nil || !result.Package.CarrierAccepted {
		t.Fatalf("package should be created and accepted: %+v", result.Package)
	}

	// 交付：触发分润
	for _, status := range []string{constants.OrderStatusShipped, constants.OrderStatusDelivered} {
		if _, err := svc.HandleStatusChange(context.Background(), order.ID, status); err != nil {
			t.Fatalf("transition to %s error: %v", status, err)
		}
	}
	if !walletBalance(t, walletSvc, 2).Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("marketer balance want 30.00 got %s", walletBalance(t, walletSvc, 2))
	}

	// 退货：触发冲正
	if _, err := svc.HandleStatusChange(context.Background(), order.ID, constants.OrderStatusReturned); err != nil {
		t.Fatalf("transition to returned error: %v", err)
	}
	if !walletBalance(t, walletSvc, 2).IsZero() {
		t.Fatalf("marketer balance must be reversed to zero, got %s", walletBalance(t, walletSvc, 2))
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.ProfitsDistributed {
		t.Fatalf("profits_distributed must be false after reversal")
	}
	if fresh.Status != constants.OrderStatusReturned {
		t.Fatalf("order status want returned got %s", fresh.Status)
	}
}

func TestHandleStatusChangeRejectsBackwardTransition(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	now := time.Now()
	order := &models.Order{
		OrderNo:   "WSL-BACK-1",
		UserID:    2,
		Status:    constants.OrderStatusShipped,
		VillageID: 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.HandleStatusChange(context.Background(), order.ID, constants.OrderStatusPending); err == nil {
		t.Fatalf("backward transition must be rejected")
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.Status != constants.OrderStatusShipped {
		t.Fatalf("status must stay shipped, got %s", fresh.Status)
	}
}
