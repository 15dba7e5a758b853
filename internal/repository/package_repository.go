package repository

import (
	"errors"
	"time"

	"github.com/wasl-next/internal/constants"
	"github.com/wasl-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PackageRepository 包裹数据访问接口
type PackageRepository interface {
	GetByID(id uint) (*models.Package, error)
	GetByOrderID(orderID uint) (*models.Package, error)
	GetByTrackingNo(trackingNo uint64) (*models.Package, error)
	List(filter PackageListFilter) ([]models.Package, int64, error)
	ListPendingBefore(cutoff time.Time, limit int) ([]models.Package, error)
	Create(pkg *models.Package) error
	Updates(id uint, updates map[string]interface{}) error
	DeleteByID(id uint) error
	NextTrackingNo(start uint64) (uint64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPackageRepository
}

// GormPackageRepository GORM 实现
type GormPackageRepository struct {
	db *gorm.DB
}

// NewPackageRepository 创建包裹仓库
func NewPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPackageRepository) WithTx(tx *gorm.DB) *GormPackageRepository {
	if tx == nil {
		return r
	}
	return &GormPackageRepository{db: tx}
}

// Transaction 执行数据库事务
func (r *GormPackageRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 根据 ID 获取包裹
func (r *GormPackageRepository) GetByID(id uint) (*models.Package, error) {
	if id == 0 {
		return nil, nil
	}
	var pkg models.Package
	if err := r.db.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// GetByOrderID 根据订单 ID 获取包裹
func (r *GormPackageRepository) GetByOrderID(orderID uint) (*models.Package, error) {
	if orderID == 0 {
		return nil, nil
	}
	var pkg models.Package
	if err := r.db.Where("order_id = ?", orderID).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// GetByTrackingNo 根据追踪号获取包裹
func (r *GormPackageRepository) GetByTrackingNo(trackingNo uint64) (*models.Package, error) {
	if trackingNo == 0 {
		return nil, nil
	}
	var pkg models.Package
	if err := r.db.Where("tracking_no = ?", trackingNo).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// List 分页查询包裹
func (r *GormPackageRepository) List(filter PackageListFilter) ([]models.Package, int64, error) {
	query := r.db.Model(&models.Package{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ShippingCompanyID != 0 {
		query = query.Where("shipping_company_id = ?", filter.ShippingCompanyID)
	}
	if filter.VillageID != 0 {
		query = query.Where("village_id = ?", filter.VillageID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var pkgs []models.Package
	if err := query.Order("id desc").Find(&pkgs).Error; err != nil {
		return nil, 0, err
	}
	return pkgs, total, nil
}

// ListPendingBefore 查询长时间停留在待推送状态的包裹
func (r *GormPackageRepository) ListPendingBefore(cutoff time.Time, limit int) ([]models.Package, error) {
	if limit <= 0 {
		limit = 100
	}
	var pkgs []models.Package
	if err := r.db.Where("status = ? AND updated_at < ?", constants.PackageStatusPending, cutoff).
		Order("id asc").
		Limit(limit).
		Find(&pkgs).Error; err != nil {
		return nil, err
	}
	return pkgs, nil
}

// Create 创建包裹
func (r *GormPackageRepository) Create(pkg *models.Package) error {
	return r.db.Create(pkg).Error
}

// Updates 更新包裹字段
func (r *GormPackageRepository) Updates(id uint, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Package{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteByID 删除包裹（仅用于清理缺失追踪号的损坏记录）
func (r *GormPackageRepository) DeleteByID(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Package{}, id).Error
}

// NextTrackingNo 分配下一个追踪号（序列行加锁递增，并发安全）
func (r *GormPackageRepository) NextTrackingNo(start uint64) (uint64, error) {
	var allocated uint64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var seq models.Sequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", constants.SequenceTrackingNo).
			First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if start == 0 {
				start = 1
			}
			seq = models.Sequence{
				Name:      constants.SequenceTrackingNo,
				Value:     start,
				UpdatedAt: time.Now(),
			}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
			allocated = seq.Value
			return nil
		}
		if err != nil {
			return err
		}
		seq.Value++
		seq.UpdatedAt = time.Now()
		if err := tx.Save(&seq).Error; err != nil {
			return err
		}
		allocated = seq.Value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return allocated, nil
}
