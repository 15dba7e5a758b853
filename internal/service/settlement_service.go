package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/wasl-next/internal/config"
	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/repository"

	"github.com/shopspring/decimal"
)

// SettlementService 分润结算服务：交付后入账，取消/退货后冲正
// 多方入账不是单个数据库事务，而是带补偿日志的两段式 saga
type SettlementService struct {
	orderRepo  repository.OrderRepository
	walletSvc  *WalletService
	notifySvc  *NotificationService
	platformID uint
}

// completedStep 已提交的入账步骤，失败时按相反方向补偿
type completedStep struct {
	userID    uint
	amount    models.Money
	reference string
	txnType   string
}

// NewSettlementService 创建分润结算服务
func NewSettlementService(
	orderRepo repository.OrderRepository,
	walletSvc *WalletService,
	notifySvc *NotificationService,
	cfg config.SettlementConfig,
) *SettlementService {
	return &SettlementService{
		orderRepo:  orderRepo,
		walletSvc:  walletSvc,
		notifySvc:  notifySvc,
		platformID: cfg.PlatformAccountID,
	}
}

// Distribute 订单交付后发放分润
// 前置条件不满足时记日志返回 nil（已结算或未到交付态都不是错误）
func (s *SettlementService) Distribute(order *models.Order) error {
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusDelivered {
		logger.Infow("settlement_skip_not_delivered",
			"order_id", order.ID,
			"status", order.Status,
		)
		return nil
	}
	if order.ProfitsDistributed {
		logger.Infow("settlement_skip_already_distributed", "order_id", order.ID)
		return nil
	}
	reversed, err := s.settlementReversed(order.ID)
	if err != nil {
		return err
	}
	if reversed {
		logger.Warnw("settlement_refuse_after_reversal", "order_id", order.ID)
		return ErrOrderSettlementReversed
	}
	if !settlementAmountsValid(order) {
		logger.Warnw("settlement_amounts_inconsistent",
			"order_id", order.ID,
			"total", order.TotalAmount.String(),
			"commission", order.Commission.String(),
		)
	}

	var committed []completedStep

	// 推广员分润
	if order.CustomerRole == constants.UserRoleMarketer && order.MarketerProfit != nil && order.MarketerProfit.IsPositive() {
		reference, err := s.nextCreditReference(buildProfitReference("order_profit", order.ID))
		if err != nil {
			return err
		}
		step, err := s.credit(order, order.UserID, *order.MarketerProfit, constants.WalletTxnTypeOrderProfit, reference,
			fmt.Sprintf("订单 %s 推广分润", order.OrderNo))
		if err != nil {
			s.compensate(order, committed)
			return err
		}
		committed = append(committed, step)
	}

	// 平台佣金
	if order.Commission.IsPositive() {
		if s.platformID == 0 {
			s.compensate(order, committed)
			return ErrSettlementPlatformUnset
		}
		reference, err := s.nextCreditReference(buildProfitReference("admin_profit", order.ID))
		if err != nil {
			s.compensate(order, committed)
			return err
		}
		step, err := s.credit(order, s.platformID, order.Commission, constants.WalletTxnTypeAdminProfit, reference,
			fmt.Sprintf("订单 %s 平台佣金", order.OrderNo))
		if err != nil {
			s.compensate(order, committed)
			return err
		}
		committed = append(committed, step)
	}

	now := time.Now()
	if err := s.orderRepo.Updates(order.ID, map[string]interface{}{
		"profits_distributed":    true,
		"profits_distributed_at": now,
		"updated_at":             now,
	}); err != nil {
		s.compensate(order, committed)
		return ErrOrderUpdateFailed
	}
	order.ProfitsDistributed = true
	order.ProfitsDistributedAt = &now

	logger.Infow("settlement_distributed",
		"order_id", order.ID,
		"steps", len(committed),
	)
	s.notifySvc.NotifyProfitsDistributed(order.ID)
	return nil
}

// Reverse 取消/退货后冲正已发放的分润
// 余额不足时仍然出账（允许负余额），只记警告
func (s *SettlementService) Reverse(order *models.Order) error {
	if order == nil {
		return ErrOrderNotFound
	}
	if !order.ProfitsDistributed {
		logger.Infow("settlement_skip_not_distributed", "order_id", order.ID)
		return nil
	}

	type reversal struct {
		userID    uint
		amount    models.Money
		reference string
	}
	var reversals []reversal
	if order.CustomerRole == constants.UserRoleMarketer && order.MarketerProfit != nil && order.MarketerProfit.IsPositive() {
		reversals = append(reversals, reversal{
			userID:    order.UserID,
			amount:    *order.MarketerProfit,
			reference: buildProfitReference("order_profit_reversal", order.ID),
		})
	}
	if order.Commission.IsPositive() && s.platformID > 0 {
		reversals = append(reversals, reversal{
			userID:    s.platformID,
			amount:    order.Commission,
			reference: buildProfitReference("admin_profit_reversal", order.ID),
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, len(reversals))
	for i, rv := range reversals {
		wg.Add(1)
		go func(i int, rv reversal) {
			defer wg.Done()
			orderID := order.ID
			_, _, err := s.walletSvc.AddTransaction(WalletTxnInput{
				UserID:        rv.userID,
				Kind:          constants.WalletTxnKindDebit,
				Amount:        rv.amount,
				TxnType:       constants.WalletTxnTypeProfitReversal,
				Reference:     rv.reference,
				Remark:        fmt.Sprintf("订单 %s 分润冲正", order.OrderNo),
				OrderID:       &orderID,
				AllowNegative: true,
			})
			errs[i] = err
		}(i, rv)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			logger.Errorw("settlement_reversal_debit_failed",
				"order_id", order.ID,
				"user_id", reversals[i].userID,
				"reference", reversals[i].reference,
				"error", err,
			)
			return err
		}
	}

	if err := s.orderRepo.Updates(order.ID, map[string]interface{}{
		"profits_distributed": false,
		"updated_at":          time.Now(),
	}); err != nil {
		return ErrOrderUpdateFailed
	}
	order.ProfitsDistributed = false
	order.ProfitsDistributedAt = nil

	logger.Infow("settlement_reversed",
		"order_id", order.ID,
		"steps", len(reversals),
	)
	s.notifySvc.NotifyProfitsReversed(order.ID)
	return nil
}

// credit 单步入账，返回补偿所需的步骤记录
func (s *SettlementService) credit(order *models.Order, userID uint, amount models.Money, txnType, reference, remark string) (completedStep, error) {
	orderID := order.ID
	_, _, err := s.walletSvc.AddTransaction(WalletTxnInput{
		UserID:    userID,
		Kind:      constants.WalletTxnKindCredit,
		Amount:    amount,
		TxnType:   txnType,
		Reference: reference,
		Remark:    remark,
		OrderID:   &orderID,
	})
	if err != nil {
		return completedStep{}, err
	}
	return completedStep{
		userID:    userID,
		amount:    amount,
		reference: reference,
		txnType:   txnType,
	}, nil
}

// compensate 逆序回滚本次调用中已提交的入账（尽力而为的同步补偿）
func (s *SettlementService) compensate(order *models.Order, committed []completedStep) {
	for i := len(committed) - 1; i >= 0; i-- {
		step := committed[i]
		orderID := order.ID
		_, _, err := s.walletSvc.AddTransaction(WalletTxnInput{
			UserID:        step.userID,
			Kind:          constants.WalletTxnKindDebit,
			Amount:        step.amount,
			TxnType:       constants.WalletTxnTypeProfitCompensation,
			Reference:     step.reference + "_compensation",
			Remark:        fmt.Sprintf("订单 %s 分润补偿回滚", order.OrderNo),
			OrderID:       &orderID,
			AllowNegative: true,
		})
		if err != nil {
			// 补偿失败只能记日志，等待人工或重试结算对账
			logger.Errorw("settlement_compensation_failed",
				"order_id", order.ID,
				"user_id", step.userID,
				"reference", step.reference,
				"error", err,
			)
		}
	}
}

// settlementReversed 判断该订单是否发生过分润冲正
// 冲正后的裸参考号已被历史流水占用，重新入账只会被幂等回放而不改余额，
// 因此冲正过的订单拒绝再次结算，交由人工对账处理
func (s *SettlementService) settlementReversed(orderID uint) (bool, error) {
	for _, prefix := range []string{"order_profit_reversal", "admin_profit_reversal"} {
		txn, err := s.walletSvc.GetTransactionByReference(buildProfitReference(prefix, orderID))
		if err != nil {
			return false, err
		}
		if txn != nil {
			return true, nil
		}
	}
	return false, nil
}

// nextCreditReference 计算本次入账参考号
// 首次结算使用裸参考号；此前若发生过补偿回滚，追加重试序号避免与
// 已存在的流水幂等冲突导致重试入账被静默跳过
// 统计时前缀带尾部下划线，保证订单号边界精确（order_profit_5 不会
// 匹配到 order_profit_50 的补偿流水）
func (s *SettlementService) nextCreditReference(base string) (string, error) {
	compensations, err := s.walletSvc.CountTransactionsByReferencePrefix(base+"_", constants.WalletTxnTypeProfitCompensation)
	if err != nil {
		return "", err
	}
	if compensations == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s_retry%d", base, compensations), nil
}

// settlementAmountsValid 校验订单金额字段自洽（佣金与分润之和不超过总额）
func settlementAmountsValid(order *models.Order) bool {
	if order == nil {
		return false
	}
	sum := order.Commission.Decimal
	if order.MarketerProfit != nil {
		sum = sum.Add(order.MarketerProfit.Decimal)
	}
	return sum.LessThanOrEqual(order.TotalAmount.Decimal) && sum.GreaterThanOrEqual(decimal.Zero)
}
