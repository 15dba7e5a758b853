package repository

import (
	"errors"
	"strings"

	"github.com/wasl-next/internal/models"

	"gorm.io/gorm"
)

// ShippingCompanyRepository 承运商数据访问接口
type ShippingCompanyRepository interface {
	GetByID(id uint) (*models.ShippingCompany, error)
	GetActiveByName(name string) (*models.ShippingCompany, error)
	FirstActive() (*models.ShippingCompany, error)
	ListActive() ([]models.ShippingCompany, error)
	Create(company *models.ShippingCompany) error
}

// GormShippingCompanyRepository GORM 实现
type GormShippingCompanyRepository struct {
	db *gorm.DB
}

// NewShippingCompanyRepository 创建承运商仓库
func NewShippingCompanyRepository(db *gorm.DB) *GormShippingCompanyRepository {
	return &GormShippingCompanyRepository{db: db}
}

// GetByID 根据 ID 获取承运商
func (r *GormShippingCompanyRepository) GetByID(id uint) (*models.ShippingCompany, error) {
	if id == 0 {
		return nil, nil
	}
	var company models.ShippingCompany
	if err := r.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// GetActiveByName 按名称获取启用的承运商
func (r *GormShippingCompanyRepository) GetActiveByName(name string) (*models.ShippingCompany, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var company models.ShippingCompany
	if err := r.db.Where("name = ? AND is_active = ?", name, true).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// FirstActive 获取第一个启用的承运商
func (r *GormShippingCompanyRepository) FirstActive() (*models.ShippingCompany, error) {
	var company models.ShippingCompany
	if err := r.db.Where("is_active = ?", true).Order("id asc").First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// ListActive 列出所有启用的承运商
func (r *GormShippingCompanyRepository) ListActive() ([]models.ShippingCompany, error) {
	var companies []models.ShippingCompany
	if err := r.db.Where("is_active = ?", true).Order("id asc").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// Create 创建承运商
func (r *GormShippingCompanyRepository) Create(company *models.ShippingCompany) error {
	return r.db.Create(company).Error
}
