package models

import (
	"time"
)

// WalletAccount 钱包账户表
type WalletAccount struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                           // 主键
	UserID           uint      `gorm:"uniqueIndex;not null" json:"user_id"`                            // 所属用户ID
	Balance          Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`           // 当前余额
	TotalEarnings    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_earnings"`    // 累计入账
	TotalWithdrawals Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_withdrawals"` // 累计出账
	CreatedAt        time.Time `json:"created_at"`                                                     // 创建时间
	UpdatedAt        time.Time `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水表（只追加，参考号唯一保证幂等）
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`                               // 所属用户ID
	OrderID       *uint     `gorm:"index" json:"order_id,omitempty"`                             // 关联订单ID
	Type          string    `gorm:"index;not null" json:"type"`                                  // 业务类型
	Direction     string    `gorm:"index;not null" json:"direction"`                             // 方向（in/out）
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`                   // 交易金额（恒为正）
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_before"` // 交易前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`  // 交易后余额
	Reference     string    `gorm:"uniqueIndex;not null" json:"reference"`                       // 幂等参考号
	Remark        string    `gorm:"type:varchar(300)" json:"remark,omitempty"`                   // 备注
	Metadata      JSON      `gorm:"type:json" json:"metadata,omitempty"`                         // 扩展数据
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time `json:"updated_at"`                                                  // 更新时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
