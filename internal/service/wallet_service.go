package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/models"
	"github.com/wasl-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService 钱包服务：余额只能通过追加流水变更
type WalletService struct {
	walletRepo repository.WalletRepository
	userRepo   repository.UserRepository
}

// WalletTxnInput 追加流水输入
type WalletTxnInput struct {
	UserID    uint
	Kind      string // credit / debit
	Amount    models.Money
	TxnType   string
	Reference string
	Remark    string
	OrderID   *uint
	Metadata  models.JSON
	// AllowNegative 允许余额为负（仅用于分润冲正与补偿出账）
	AllowNegative bool
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository, userRepo repository.UserRepository) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		userRepo:   userRepo,
	}
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	return s.getOrCreateAccount(userID)
}

// ListTransactions 分页查询流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// GetTransactionByReference 按参考号查询流水
func (s *WalletService) GetTransactionByReference(reference string) (*models.WalletTransaction, error) {
	return s.walletRepo.GetTransactionByReference(reference)
}

// CountTransactionsByReferencePrefix 按参考号前缀统计流水数（可按业务类型过滤）
func (s *WalletService) CountTransactionsByReferencePrefix(prefix string, txnType string) (int64, error) {
	return s.walletRepo.CountTransactionsByReferencePrefix(prefix, txnType)
}

// AddTransaction 追加一笔流水并调整余额
// 参考号唯一约束保证幂等：重复调用返回已存在的流水，不再变更余额
func (s *WalletService) AddTransaction(input WalletTxnInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if input.UserID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	kind := strings.TrimSpace(input.Kind)
	if kind != constants.WalletTxnKindCredit && kind != constants.WalletTxnKindDebit {
		return nil, nil, ErrWalletInvalidKind
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletMissingReference
	}
	txnType := strings.TrimSpace(input.TxnType)
	if txnType == "" {
		txnType = constants.WalletTxnTypeAdminAdjust
	}

	var accountResult *models.WalletAccount
	var txnResult *models.WalletTransaction
	if err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.walletRepo.WithTx(tx)
		now := time.Now()

		exists, err := repo.GetTransactionByReference(reference)
		if err != nil {
			return err
		}
		if exists != nil {
			account, accountErr := repo.GetAccountByUserID(input.UserID)
			if accountErr != nil {
				return accountErr
			}
			if account == nil {
				account, accountErr = s.ensureAccountForUpdate(repo, input.UserID, now)
				if accountErr != nil {
					return accountErr
				}
			}
			logger.Infow("wallet_txn_replayed",
				"user_id", input.UserID,
				"reference", reference,
				"txn_id", exists.ID,
			)
			accountResult = account
			txnResult = exists
			return nil
		}

		account, err := s.ensureAccountForUpdate(repo, input.UserID, now)
		if err != nil {
			return err
		}

		before := account.Balance.Decimal.Round(2)
		delta := amount
		direction := constants.WalletTxnDirectionIn
		if kind == constants.WalletTxnKindDebit {
			delta = amount.Neg()
			direction = constants.WalletTxnDirectionOut
		}
		after := before.Add(delta).Round(2)
		if after.LessThan(decimal.Zero) {
			if !input.AllowNegative {
				return ErrWalletInsufficientBalance
			}
			logger.Warnw("wallet_balance_negative",
				"user_id", input.UserID,
				"reference", reference,
				"balance_before", before.StringFixed(2),
				"balance_after", after.StringFixed(2),
			)
		}

		account.Balance = models.NewMoneyFromDecimal(after)
		if kind == constants.WalletTxnKindCredit {
			account.TotalEarnings = models.NewMoneyFromDecimal(account.TotalEarnings.Decimal.Add(amount).Round(2))
		} else {
			account.TotalWithdrawals = models.NewMoneyFromDecimal(account.TotalWithdrawals.Decimal.Add(amount).Round(2))
		}
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrWalletAccountUpdateFailed
		}

		txn := &models.WalletTransaction{
			UserID:        input.UserID,
			OrderID:       input.OrderID,
			Type:          txnType,
			Direction:     direction,
			Amount:        models.NewMoneyFromDecimal(amount),
			BalanceBefore: models.NewMoneyFromDecimal(before),
			BalanceAfter:  models.NewMoneyFromDecimal(after),
			Reference:     reference,
			Remark:        cleanWalletRemark(input.Remark, "钱包流水"),
			Metadata:      input.Metadata,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			// 唯一索引冲突视为并发重放，读回已存在的流水
			if replay, replayErr := repo.GetTransactionByReference(reference); replayErr == nil && replay != nil {
				accountResult = account
				txnResult = replay
				return nil
			}
			return ErrWalletTransactionCreateFailed
		}

		accountResult = account
		txnResult = txn
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, txnResult, nil
}

func (s *WalletService) getOrCreateAccount(userID uint) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.CreateAccount(account); err != nil {
		created, queryErr := s.walletRepo.GetAccountByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func (s *WalletService) ensureAccountForUpdate(repo *repository.GormWalletRepository, userID uint, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func cleanWalletRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}

func buildProfitReference(prefix string, orderID uint) string {
	return fmt.Sprintf("%s_%d", prefix, orderID)
}
