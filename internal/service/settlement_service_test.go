package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testPlatformAccountID uint = 1

func setupSettlementTest(t *testing.T, platformID uint) (*SettlementService, *WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:settlement_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// sqlite 单连接，冲正的并发出账在连接池处串行
		sqlDB.SetMaxOpenConns(1)
	}
	models.DB = db

	walletRepo := repository.NewWalletRepository(db)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	walletSvc := NewWalletService(walletRepo, userRepo)
	settlementSvc := NewSettlementService(orderRepo, walletSvc, nil, config.SettlementConfig{
		PlatformAccountID: platformID,
	})
	return settlementSvc, walletSvc, db
}

func createDeliveredMarketerOrder(t *testing.T, db *gorm.DB, userID uint) *models.Order {
	t.Helper()
	now := time.Now()
	marketerProfit := money("30.00")
	order := &models.Order{
		OrderNo:        fmt.Sprintf("WSL-%d", time.Now().UnixNano()),
		UserID:         userID,
		CustomerRole:   constants.UserRoleMarketer,
		Status:         constants.OrderStatusDelivered,
		TotalAmount:    money("200.00"),
		Commission:     money("20.00"),
		MarketerProfit: &marketerProfit,
		VillageID:      1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func walletBalance(t *testing.T, svc *WalletService, userID uint) decimal.Decimal {
	t.Helper()
	account, err := svc.GetAccount(userID)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	return account.Balance.Decimal
}

func TestSettlementDistribute(t *testing.T) {
	svc, walletSvc, db := setupSettlementTest(t, testPlatformAccountID)
	createTestUser(t, db, testPlatformAccountID, constants.UserRoleAdmin)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	if err := svc.Distribute(order); err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	if !walletBalance(t, walletSvc, 2).Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("marketer balance want 30.00 got %s", walletBalance(t, walletSvc, 2))
	}
	if !walletBalance(t, walletSvc, testPlatformAccountID).Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("platform balance want 20.00 got %s", walletBalance(t, walletSvc, testPlatformAccountID))
	}

	marketerTxn, err := walletSvc.GetTransactionByReference(fmt.Sprintf("order_profit_%d", order.ID))
	if err != nil || marketerTxn == nil {
		t.Fatalf("marketer ledger entry missing: %v", err)
	}
	adminTxn, err := walletSvc.GetTransactionByReference(fmt.Sprintf("admin_profit_%d", order.ID))
	if err != nil || adminTxn == nil {
		t.Fatalf("platform ledger entry missing: %v", err)
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !fresh.ProfitsDistributed || fresh.ProfitsDistributedAt == nil {
		t.Fatalf("profits_distributed latch not set")
	}
}

func TestSettlementDistributeIdempotent(t *testing.T) {
	svc, _, db := setupSettlementTest(t, testPlatformAccountID)
	createTestUser(t, db, testPlatformAccountID, constants.UserRoleAdmin)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	if err := svc.Distribute(order); err != nil {
		t.Fatalf("first Distribute error: %v", err)
	}
	var before int64
	if err := db.Model(&models.WalletTransaction{}).Count(&before).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}

	if err := svc.Distribute(order); err != nil {
		t.Fatalf("second Distribute error: %v", err)
	}
	var after int64
	if err := db.Model(&models.WalletTransaction{}).Count(&after).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if after != before {
		t.Fatalf("second Distribute must not add ledger entries: %d -> %d", before, after)
	}
}

func TestSettlementDistributeSkipsNonDelivered(t *testing.T) {
	svc, _, db := setupSettlementTest(t, testPlatformAccountID)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)
	order.Status = constants.OrderStatusShipped

	if err := svc.Distribute(order); err != nil {
		t.Fatalf("Distribute on non-delivered must be a no-op, got: %v", err)
	}
	var count int64
	if err := db.Model(&models.WalletTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no ledger entries expected, got %d", count)
	}
}

func TestSettlementSagaCompensation(t *testing.T) {
	// 平台账户未配置令第二步入账失败，第一步必须被补偿回滚
	svc, walletSvc, db := setupSettlementTest(t, 0)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	err := svc.Distribute(order)
	if !errors.Is(err, ErrSettlementPlatformUnset) {
		t.Fatalf("expected ErrSettlementPlatformUnset, got %v", err)
	}

	if !walletBalance(t, walletSvc, 2).IsZero() {
		t.Fatalf("marketer balance must be net-zero after compensation, got %s", walletBalance(t, walletSvc, 2))
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.ProfitsDistributed {
		t.Fatalf("profits_distributed must stay false after failed saga")
	}

	compensation, err := walletSvc.GetTransactionByReference(fmt.Sprintf("order_profit_%d_compensation", order.ID))
	if err != nil || compensation == nil {
		t.Fatalf("compensation ledger entry missing: %v", err)
	}
	if compensation.Type != constants.WalletTxnTypeProfitCompensation {
		t.Fatalf("unexpected compensation type: %s", compensation.Type)
	}
}

func TestSettlementRetryAfterCompensation(t *testing.T) {
	// 首轮失败补偿后重试：入账参考号带重试序号，不会被幂等重放吞掉
	failing, walletSvc, db := setupSettlementTest(t, 0)
	createTestUser(t, db, testPlatformAccountID, constants.UserRoleAdmin)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	if err := failing.Distribute(order); err == nil {
		t.Fatalf("first round should fail")
	}

	orderRepo := repository.NewOrderRepository(db)
	retry := NewSettlementService(orderRepo, walletSvc, nil, config.SettlementConfig{
		PlatformAccountID: testPlatformAccountID,
	})
	if err := retry.Distribute(order); err != nil {
		t.Fatalf("retry Distribute error: %v", err)
	}

	if !walletBalance(t, walletSvc, 2).Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("marketer balance want 30.00 got %s", walletBalance(t, walletSvc, 2))
	}
	if !walletBalance(t, walletSvc, testPlatformAccountID).Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("platform balance want 20.00 got %s", walletBalance(t, walletSvc, testPlatformAccountID))
	}

	retryTxn, err := walletSvc.GetTransactionByReference(fmt.Sprintf("order_profit_%d_retry1", order.ID))
	if err != nil || retryTxn == nil {
		t.Fatalf("retry ledger entry missing: %v", err)
	}
}

func TestSettlementRetrySuffixScopedToOrder(t *testing.T) {
	// 参考号前缀统计必须有订单号边界：订单 N 的首次结算不能因为
	// 订单 N1（十进制前缀相同）存在补偿流水而被顶到重试参考号
	svc, walletSvc, db := setupSettlementTest(t, testPlatformAccountID)
	createTestUser(t, db, testPlatformAccountID, constants.UserRoleAdmin)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	otherRef := fmt.Sprintf("order_profit_%d1_compensation", order.ID)
	if _, _, err := walletSvc.AddTransaction(WalletTxnInput{
		UserID:        2,
		Kind:          constants.WalletTxnKindDebit,
		Amount:        money("5.00"),
		TxnType:       constants.WalletTxnTypeProfitCompensation,
		Reference:     otherRef,
		AllowNegative: true,
	}); err != nil {
		t.Fatalf("seed unrelated compensation failed: %v", err)
	}

	if err := svc.Distribute(order); err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	bare, err := walletSvc.GetTransactionByReference(fmt.Sprintf("order_profit_%d", order.ID))
	if err != nil || bare == nil {
		t.Fatalf("first settlement must use the bare reference: %v", err)
	}
	retry, err := walletSvc.GetTransactionByReference(fmt.Sprintf("order_profit_%d_retry1", order.ID))
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if retry != nil {
		t.Fatalf("unrelated order's compensation must not bump the retry suffix")
	}
}

func TestSettlementDistributeRefusedAfterReversal(t *testing.T) {
	// 冲正后的订单不允许再次结算：裸参考号会被幂等回放、余额不变，
	// 却会把结算标记置位
	svc, walletSvc, db := setupSettlementTest(t, testPlatformAccountID)
	createTestUser(t, db, testPlatformAccountID, constants.UserRoleAdmin)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	if err := svc.Distribute(order); err != nil {
		t.Fatalf("Distribute error: %v", err)
	}
	if err := svc.Reverse(order); err != nil {
		t.Fatalf("Reverse error: %v", err)
	}

	err := svc.Distribute(order)
	if !errors.Is(err, ErrOrderSettlementReversed) {
		t.Fatalf("expected ErrOrderSettlementReversed, got %v", err)
	}

	if !walletBalance(t, walletSvc, 2).IsZero() {
		t.Fatalf("marketer balance must stay zero, got %s", walletBalance(t, walletSvc, 2))
	}
	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.ProfitsDistributed {
		t.Fatalf("profits_distributed must stay false after refused redistribution")
	}
}

func TestSettlementReversalSymmetry(t *testing.T) {
	svc, walletSvc, db := setupSettlementTest(t, testPlatformAccountID)
	createTestUser(t, db, testPlatformAccountID, constants.UserRoleAdmin)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	if err := svc.Distribute(order); err != nil {
		t.Fatalf("Distribute error: %v", err)
	}
	if err := svc.Reverse(order); err != nil {
		t.Fatalf("Reverse error: %v", err)
	}

	if !walletBalance(t, walletSvc, 2).IsZero() {
		t.Fatalf("marketer balance must return to zero, got %s", walletBalance(t, walletSvc, 2))
	}
	if !walletBalance(t, walletSvc, testPlatformAccountID).IsZero() {
		t.Fatalf("platform balance must return to zero, got %s", walletBalance(t, walletSvc, testPlatformAccountID))
	}

	var fresh models.Order
	if err := db.First(&fresh, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.ProfitsDistributed {
		t.Fatalf("profits_distributed must be false after reversal")
	}

	for _, ref := range []string{
		fmt.Sprintf("order_profit_reversal_%d", order.ID),
		fmt.Sprintf("admin_profit_reversal_%d", order.ID),
	} {
		txn, err := walletSvc.GetTransactionByReference(ref)
		if err != nil || txn == nil {
			t.Fatalf("reversal ledger entry %s missing: %v", ref, err)
		}
		if txn.Direction != constants.WalletTxnDirectionOut {
			t.Fatalf("reversal %s direction want out got %s", ref, txn.Direction)
		}
	}
}

func TestSettlementReverseSkipsNotDistributed(t *testing.T) {
	svc, _, db := setupSettlementTest(t, testPlatformAccountID)
	createTestUser(t, db, 2, constants.UserRoleMarketer)
	order := createDeliveredMarketerOrder(t, db, 2)

	if err := svc.Reverse(order); err != nil {
		t.Fatalf("Reverse on undistributed order must be a no-op, got: %v", err)
	}
	var count int64
	if err := db.Model(&models.WalletTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no ledger entries expected, got %d", count)
	}
}
