package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/procurelink/vendor-core/internal/model"
)

var ErrMetricNotFound = errors.New("performance metric not found")

// PerformanceRepository 绩效指标与评分仓储
// 评分记录只追加：仓储不提供更新或删除评分的方法，更正以更晚 period_end 追加新记录
type PerformanceRepository struct {
	*Repository
}

// NewPerformanceRepository 创建绩效仓储
func NewPerformanceRepository(base *Repository) *PerformanceRepository {
	return &PerformanceRepository{Repository: base}
}

// CreateMetric 创建绩效指标
func (r *PerformanceRepository) CreateMetric(ctx context.Context, metric *model.PerformanceMetric) error {
	now := time.Now().UnixMilli()
	metric.CreatedAt = now
	metric.UpdatedAt = now
	return r.DB(ctx).Create(metric).Error
}

// GetMetricByID 根据ID获取指标
func (r *PerformanceRepository) GetMetricByID(ctx context.Context, id int64) (*model.PerformanceMetric, error) {
	var metric model.PerformanceMetric
	err := r.DB(ctx).Where("id = ?", id).First(&metric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetricNotFound
		}
		return nil, err
	}
	return &metric, nil
}

// ListActiveMetrics 查询全部启用的指标
func (r *PerformanceRepository) ListActiveMetrics(ctx context.Context) ([]*model.PerformanceMetric, error) {
	var metrics []*model.PerformanceMetric
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

// CreateScore 追加评分记录
func (r *PerformanceRepository) CreateScore(ctx context.Context, score *model.PerformanceScore) error {
	score.CreatedAt = time.Now().UnixMilli()
	return r.DB(ctx).Create(score).Error
}

// LatestScore 获取供应商在某指标下最新的评分 (按 period_end)
func (r *PerformanceRepository) LatestScore(ctx context.Context, vendorID, metricID int64) (*model.PerformanceScore, error) {
	var score model.PerformanceScore
	err := r.DB(ctx).
		Where("vendor_id = ? AND metric_id = ?", vendorID, metricID).
		Order("period_end DESC, id DESC").
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &score, nil
}

// AppendHistory 追加综合绩效分历史
func (r *PerformanceRepository) AppendHistory(ctx context.Context, entry *model.ScoreHistory) error {
	entry.CreatedAt = time.Now().UnixMilli()
	return r.DB(ctx).Create(entry).Error
}

// ListHistory 查询供应商的综合绩效分历史
func (r *PerformanceRepository) ListHistory(ctx context.Context, vendorID int64, limit int) ([]*model.ScoreHistory, error) {
	var entries []*model.ScoreHistory
	err := r.DB(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
