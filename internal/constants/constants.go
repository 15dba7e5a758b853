package constants

// 订单状态常量
const (
	OrderStatusPending          = "pending"
	OrderStatusConfirmed        = "confirmed"
	OrderStatusProcessing       = "processing"
	OrderStatusReadyForShipping = "ready_for_shipping"
	OrderStatusShipped          = "shipped"
	OrderStatusOutForDelivery   = "out_for_delivery"
	OrderStatusDelivered        = "delivered"
	OrderStatusCanceled         = "canceled"
	OrderStatusReturned         = "returned"
	OrderStatusRefunded         = "refunded"
)

// 包裹状态常量
const (
	PackageStatusPending    = "pending"
	PackageStatusConfirmed  = "confirmed"
	PackageStatusProcessing = "processing"
	PackageStatusShipped    = "shipped"
	PackageStatusDelivered  = "delivered"
	PackageStatusCanceled   = "canceled"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleMarketer = "marketer"
	UserRoleAdmin    = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 钱包交易类型常量
const (
	WalletTxnTypeOrderProfit        = "order_profit"
	WalletTxnTypeAdminProfit        = "admin_profit"
	WalletTxnTypeProfitReversal     = "profit_reversal"
	WalletTxnTypeProfitCompensation = "profit_compensation"
	WalletTxnTypeAdminAdjust        = "admin_adjust"
	WalletTxnTypeWithdrawal         = "withdrawal"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 钱包交易种类常量（入账/出账）
const (
	WalletTxnKindCredit = "credit"
	WalletTxnKindDebit  = "debit"
)

// 队列与任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskPackageResend        = "shipping:package_resend"
	TaskSettlementRetry      = "settlement:retry"
	TaskNotificationDispatch = "notify:dispatch"
)

// 系统设置键常量
const (
	SettingKeyShippingConfig = "shipping_config"

	SettingFieldDefaultCompanyID = "default_company_id"
)

// 通知事件常量
const (
	NotifyEventPackageConfirmed   = "package_confirmed"
	NotifyEventPackagePending     = "package_pending"
	NotifyEventProfitsDistributed = "profits_distributed"
	NotifyEventProfitsReversed    = "profits_reversed"
)

// 序列名称常量
const (
	SequenceTrackingNo = "package_tracking_no"
)
