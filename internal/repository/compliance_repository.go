package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm/clause"

	"github.com/procurelink/vendor-core/internal/model"
)

var (
	ErrFlagNotFound        = errors.New("compliance flag not found")
	ErrFlagAlreadyResolved = errors.New("compliance flag already resolved")
)

// ComplianceRepository 合规结果与标记仓储
type ComplianceRepository struct {
	*Repository
}

// NewComplianceRepository 创建合规仓储
func NewComplianceRepository(base *Repository) *ComplianceRepository {
	return &ComplianceRepository{Repository: base}
}

// UpsertResult 按 (vendor_id, rule_id) 自然键写入当前评估结果
func (r *ComplianceRepository) UpsertResult(ctx context.Context, result *model.ComplianceResult) error {
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}, {Name: "rule_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "details", "metadata", "evaluated_at", "resolved_at",
			}),
		}).
		Create(result).Error
}

// ListResultsByVendor 查询供应商的全部当前评估结果
func (r *ComplianceRepository) ListResultsByVendor(ctx context.Context, vendorID int64) ([]*model.ComplianceResult, error) {
	var results []*model.ComplianceResult
	err := r.DB(ctx).
		Where("vendor_id = ?", vendorID).
		Order("rule_id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreateFlag 创建合规标记
func (r *ComplianceRepository) CreateFlag(ctx context.Context, flag *model.ComplianceFlag) error {
	if flag.FlaggedAt == 0 {
		flag.FlaggedAt = time.Now().UnixMilli()
	}
	flag.Status = model.FlagStatusOpen
	return r.DB(ctx).Create(flag).Error
}

// CountOpenFlags 统计供应商的未解决标记数
func (r *ComplianceRepository) CountOpenFlags(ctx context.Context, vendorID int64) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&model.ComplianceFlag{}).
		Where("vendor_id = ? AND status = ?", vendorID, model.FlagStatusOpen).
		Count(&count).Error
	return count, err
}

// ListOpenFlags 查询供应商的未解决标记
func (r *ComplianceRepository) ListOpenFlags(ctx context.Context, vendorID int64) ([]*model.ComplianceFlag, error) {
	var flags []*model.ComplianceFlag
	err := r.DB(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, model.FlagStatusOpen).
		Order("flagged_at ASC").
		Find(&flags).Error
	if err != nil {
		return nil, err
	}
	return flags, nil
}

// ResolveFlag 解决合规标记
// 条件更新，已解决的标记再次解决返回 ErrFlagAlreadyResolved
func (r *ComplianceRepository) ResolveFlag(ctx context.Context, flagID int64, resolvedBy string) error {
	now := time.Now().UnixMilli()
	result := r.DB(ctx).
		Model(&model.ComplianceFlag{}).
		Where("id = ? AND status = ?", flagID, model.FlagStatusOpen).
		Updates(map[string]interface{}{
			"status":      model.FlagStatusResolved,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var flag model.ComplianceFlag
		if err := r.DB(ctx).Where("id = ?", flagID).First(&flag).Error; err != nil {
			return ErrFlagNotFound
		}
		return ErrFlagAlreadyResolved
	}
	return nil
}
