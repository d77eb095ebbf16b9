package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/procurelink/vendor-core/internal/model"
)

var (
	ErrVendorNotFound  = errors.New("vendor not found")
	ErrVendorDuplicate = errors.New("vendor already exists")
	ErrStaleVendor     = errors.New("vendor status changed concurrently")
)

// VendorRepository 供应商仓储
type VendorRepository struct {
	*Repository
}

// NewVendorRepository 创建供应商仓储
func NewVendorRepository(base *Repository) *VendorRepository {
	return &VendorRepository{Repository: base}
}

// Create 创建供应商
func (r *VendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	now := time.Now().UnixMilli()
	vendor.CreatedAt = now
	vendor.UpdatedAt = now

	result := r.DB(ctx).Create(vendor)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return ErrVendorDuplicate
		}
		return result.Error
	}
	return nil
}

// GetByID 根据ID获取供应商
func (r *VendorRepository) GetByID(ctx context.Context, id int64) (*model.Vendor, error) {
	var vendor model.Vendor
	err := r.DB(ctx).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

// ListByStatuses 按状态集合查询供应商
func (r *VendorRepository) ListByStatuses(ctx context.Context, statuses []model.VendorStatus) ([]*model.Vendor, error) {
	var vendors []*model.Vendor
	err := r.DB(ctx).
		Where("status IN ?", statuses).
		Order("id ASC").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

// UpdateStatus 条件更新供应商状态
// 仅当当前状态仍为 from 时生效，并发修改返回 ErrStaleVendor
func (r *VendorRepository) UpdateStatus(ctx context.Context, vendorID int64, from, to model.VendorStatus) error {
	result := r.DB(ctx).
		Model(&model.Vendor{}).
		Where("id = ? AND status = ?", vendorID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVendor
	}
	return nil
}

// UpdateComplianceState 更新供应商合规分数与状态
func (r *VendorRepository) UpdateComplianceState(ctx context.Context, vendorID int64, score int, status model.ComplianceStatus) error {
	result := r.DB(ctx).
		Model(&model.Vendor{}).
		Where("id = ?", vendorID).
		Updates(map[string]interface{}{
			"compliance_score":  score,
			"compliance_status": status,
			"updated_at":        time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVendorNotFound
	}
	return nil
}

// UpdatePerformanceScore 更新供应商综合绩效分
func (r *VendorRepository) UpdatePerformanceScore(ctx context.Context, vendorID int64, score int) error {
	result := r.DB(ctx).
		Model(&model.Vendor{}).
		Where("id = ?", vendorID).
		Updates(map[string]interface{}{
			"performance_score": score,
			"updated_at":        time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVendorNotFound
	}
	return nil
}
