package repository

import (
	"errors"

	"github.com/wasl-next/internal/models"

	"gorm.io/gorm"
)

// VillageRepository 村庄数据访问接口
type VillageRepository interface {
	GetByID(id uint) (*models.Village, error)
	Create(village *models.Village) error
}

// GormVillageRepository GORM 实现
type GormVillageRepository struct {
	db *gorm.DB
}

// NewVillageRepository 创建村庄仓库
func NewVillageRepository(db *gorm.DB) *GormVillageRepository {
	return &GormVillageRepository{db: db}
}

// GetByID 根据 ID 获取村庄
func (r *GormVillageRepository) GetByID(id uint) (*models.Village, error) {
	if id == 0 {
		return nil, nil
	}
	var village models.Village
	if err := r.db.First(&village, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &village, nil
}

// Create 创建村庄
func (r *GormVillageRepository) Create(village *models.Village) error {
	return r.db.Create(village).Error
}
