package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page               int
	PageSize           int
	UserID             uint
	Status             string
	OrderNo            string
	ProfitsDistributed *bool
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
}

// PackageListFilter 查询包裹列表的过滤条件
type PackageListFilter struct {
	Page              int
	PageSize          int
	Status            string
	ShippingCompanyID uint
	VillageID         uint
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
}

// WalletTransactionListFilter 查询钱包流水的过滤条件
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Type        string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
