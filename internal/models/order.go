package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo              string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID               uint           `gorm:"index;not null" json:"user_id"`                                // 下单用户ID
	CustomerRole         string         `gorm:"type:varchar(20);not null;default:'customer'" json:"customer_role"` // 下单用户角色（customer/marketer）
	Status               string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	ShippingName         string         `gorm:"type:varchar(100)" json:"shipping_name"`                       // 收件人姓名
	ShippingPhone        string         `gorm:"type:varchar(30)" json:"shipping_phone"`                       // 收件人电话
	AlterPhone           string         `gorm:"type:varchar(30)" json:"alter_phone,omitempty"`                // 备用电话
	ShippingStreet       string         `gorm:"type:varchar(200)" json:"shipping_street"`                     // 街道地址
	VillageID            uint           `gorm:"index" json:"village_id"`                                      // 目的地村庄ID
	ShippingCompanyName  string         `gorm:"type:varchar(100)" json:"shipping_company_name,omitempty"`     // 指定承运商名称（可选）
	TotalAmount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 订单总额
	Commission           Money          `gorm:"type:decimal(20,2);not null;default:0" json:"commission"`      // 平台佣金
	MarketerProfit       *Money         `gorm:"type:decimal(20,2)" json:"marketer_profit,omitempty"`          // 推广员分润（仅推广员订单）
	ProfitsDistributed   bool           `gorm:"index;not null;default:false" json:"profits_distributed"`      // 分润是否已发放
	ProfitsDistributedAt *time.Time     `json:"profits_distributed_at,omitempty"`                             // 分润发放时间
	PackageID            *uint          `gorm:"index" json:"package_id,omitempty"`                            // 关联包裹ID
	Note                 string         `gorm:"type:varchar(500)" json:"note,omitempty"`                      // 订单备注
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Package *Package `gorm:"foreignKey:OrderID" json:"package,omitempty"` // 关联包裹
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
