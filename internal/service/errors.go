package service

import "errors"

// 服务层业务错误
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderStatusInvalid    = errors.New("order status transition invalid")
	ErrOrderUpdateFailed     = errors.New("order update failed")
	ErrOrderNotDeliverable = errors.New("order is not in a deliverable state")
	ErrOrderMissingVillage = errors.New("order has no destination village")
	ErrNoCarrierAvailable  = errors.New("no active shipping company available")
	ErrInvalidDestination  = errors.New("destination village is missing or inactive")
	ErrPackageCreateFailed = errors.New("package create failed")

	ErrWalletAccountNotFound         = errors.New("wallet account not found")
	ErrWalletAccountCreateFailed     = errors.New("wallet account create failed")
	ErrWalletAccountUpdateFailed     = errors.New("wallet account update failed")
	ErrWalletInvalidAmount           = errors.New("wallet amount must be positive")
	ErrWalletInvalidKind             = errors.New("wallet transaction kind must be credit or debit")
	ErrWalletMissingReference        = errors.New("wallet transaction reference is required")
	ErrWalletInsufficientBalance     = errors.New("wallet balance insufficient")
	ErrWalletTransactionCreateFailed = errors.New("wallet transaction create failed")

	ErrSettlementPlatformUnset = errors.New("platform account is not configured")
	ErrOrderSettlementReversed = errors.New("order profits were reversed and cannot be redistributed")
)
