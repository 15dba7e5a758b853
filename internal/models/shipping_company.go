package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ShippingCompany 承运商配置表
type ShippingCompany struct {
	ID          uint           `gorm:"primarykey" json:"id"`                         // 主键
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`             // 承运商名称
	IsActive    bool           `gorm:"index;not null;default:true" json:"is_active"` // 是否启用
	APIEndpoint string         `gorm:"type:varchar(300)" json:"api_endpoint"`        // 承运商API地址（为空则仅本地登记）
	APIToken    string         `gorm:"type:varchar(300)" json:"-"`                   // 承运商API令牌（不返回给前端）
	Cities      StringArray    `gorm:"type:json" json:"cities,omitempty"`            // 可达城市白名单（为空不限制）
	CreatedAt   time.Time      `json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (ShippingCompany) TableName() string {
	return "shipping_companies"
}

// HasAPICredentials 判断承运商是否配置了外部推送凭证
func (c *ShippingCompany) HasAPICredentials() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.APIEndpoint) != "" && strings.TrimSpace(c.APIToken) != ""
}
