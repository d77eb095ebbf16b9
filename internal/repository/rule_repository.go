package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/procurelink/vendor-core/internal/model"
)

var (
	ErrRuleNotFound  = errors.New("compliance rule not found")
	ErrRuleDuplicate = errors.New("compliance rule already exists")
)

// RuleRepository 合规规则仓储
type RuleRepository struct {
	*Repository
}

// NewRuleRepository 创建合规规则仓储
func NewRuleRepository(base *Repository) *RuleRepository {
	return &RuleRepository{Repository: base}
}

// Create 创建规则
func (r *RuleRepository) Create(ctx context.Context, rule *model.ComplianceRule) error {
	now := time.Now().UnixMilli()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	result := r.DB(ctx).Create(rule)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return ErrRuleDuplicate
		}
		return result.Error
	}
	return nil
}

// GetByID 根据ID获取规则
func (r *RuleRepository) GetByID(ctx context.Context, id int64) (*model.ComplianceRule, error) {
	var rule model.ComplianceRule
	err := r.DB(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// ListActive 查询全部启用的规则
func (r *RuleRepository) ListActive(ctx context.Context) ([]*model.ComplianceRule, error) {
	var rules []*model.ComplianceRule
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// Deactivate 停用规则
// 规则一经历史结果引用即不可变，调整通过停用旧规则并新建规则完成
func (r *RuleRepository) Deactivate(ctx context.Context, id int64) error {
	result := r.DB(ctx).
		Model(&model.ComplianceRule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}
