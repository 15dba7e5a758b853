package models

import (
	"time"
)

// Sequence 序列表：为追踪号等提供数据库级递增计数
type Sequence struct {
	Name      string    `gorm:"primarykey" json:"name"` // 序列名称
	Value     uint64    `gorm:"not null" json:"value"`  // 当前值（最近一次分配出去的值）
	UpdatedAt time.Time `json:"updated_at"`             // 更新时间
}

// TableName 指定表名
func (Sequence) TableName() string {
	return "sequences"
}
