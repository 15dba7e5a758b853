package models

import (
	"time"

	"gorm.io/gorm"
)

// Village 村庄（配送目的地）表
type Village struct {
	ID        uint           `gorm:"primarykey" json:"id"`                         // 主键
	Name      string         `gorm:"index;not null" json:"name"`                   // 村庄名称
	City      string         `gorm:"index" json:"city,omitempty"`                  // 所属城市
	IsActive  bool           `gorm:"index;not null;default:true" json:"is_active"` // 是否可配送
	CreatedAt time.Time      `json:"created_at"`                                   // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Village) TableName() string {
	return "villages"
}
