package models

import (
	"time"
)

// Package 包裹表：一个订单至多对应一个包裹
type Package struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                      // 主键（存储内部ID）
	TrackingNo        uint64     `gorm:"uniqueIndex;not null" json:"tracking_no"`                   // 面向承运商的追踪号（全局递增）
	OrderID           uint       `gorm:"uniqueIndex;not null" json:"order_id"`                      // 所属订单ID（唯一约束保证一单一包裹）
	ShippingCompanyID uint       `gorm:"index;not null" json:"shipping_company_id"`                 // 承运商ID
	ToName            string     `gorm:"type:varchar(100);not null" json:"to_name"`                 // 收件人姓名（下单快照）
	ToPhone           string     `gorm:"type:varchar(30)" json:"to_phone"`                          // 收件人电话（下单快照）
	AlterPhone        string     `gorm:"type:varchar(30)" json:"alter_phone,omitempty"`             // 备用电话
	Street            string     `gorm:"type:varchar(200)" json:"street"`                           // 街道地址（下单快照）
	VillageID         uint       `gorm:"index;not null" json:"village_id"`                          // 目的地村庄ID
	Status            string     `gorm:"index;not null;default:'pending'" json:"status"`            // 包裹状态
	ExternalPackageID string     `gorm:"type:varchar(100)" json:"external_package_id,omitempty"`    // 承运商回传的包裹ID
	DeliveryCost      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_cost"` // 承运商回传的运费
	QRCode            string     `gorm:"type:varchar(500)" json:"qr_code,omitempty"`                // 承运商回传的二维码
	Barcode           string     `gorm:"type:varchar(100)" json:"barcode"`                          // 条码（由订单编号派生）
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`                                    // 承运商确认时间
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt         time.Time  `gorm:"index" json:"updated_at"`                                   // 更新时间
}

// TableName 指定表名
func (Package) TableName() string {
	return "packages"
}

// HasTrackingNo 判断包裹是否持有有效追踪号
func (p *Package) HasTrackingNo() bool {
	return p != nil && p.TrackingNo > 0
}
