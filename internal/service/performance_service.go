package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/repository"
	"github.com/procurelink/vendor-core/pkg/logger"
)

var (
	// ErrMetricInactive 不能对停用指标评分
	ErrMetricInactive = errors.New("performance metric is not active")
	// ErrScoreOutOfRange 评分超出指标量程
	ErrScoreOutOfRange = errors.New("score out of metric range")
	// ErrInvalidPeriod 评分周期非法
	ErrInvalidPeriod = errors.New("period_end must not be before period_start")
)

// PerformanceService 绩效评分聚合器
type PerformanceService struct {
	perfRepo   *repository.PerformanceRepository
	vendorRepo *repository.VendorRepository
	audit      *AuditRecorder
}

// NewPerformanceService 创建绩效评分服务
func NewPerformanceService(
	perfRepo *repository.PerformanceRepository,
	vendorRepo *repository.VendorRepository,
	audit *AuditRecorder,
) *PerformanceService {
	return &PerformanceService{
		perfRepo:   perfRepo,
		vendorRepo: vendorRepo,
		audit:      audit,
	}
}

// RecordScoreParams 记录评分参数
type RecordScoreParams struct {
	VendorID    int64
	MetricID    int64
	Score       decimal.Decimal
	ScoredBy    string
	PeriodStart int64
	PeriodEnd   int64
	Notes       string
}

// RecordScore 记录一次绩效评分并重算综合分
// 评分记录不可变更：更正必须以更晚 period_end 追加新记录
func (s *PerformanceService) RecordScore(ctx context.Context, params *RecordScoreParams) (*model.PerformanceScore, error) {
	if params.PeriodEnd < params.PeriodStart {
		return nil, ErrInvalidPeriod
	}

	var score *model.PerformanceScore
	err := s.perfRepo.Transaction(ctx, func(ctx context.Context) error {
		metric, err := s.perfRepo.GetMetricByID(ctx, params.MetricID)
		if err != nil {
			return err
		}
		if !metric.IsActive {
			return ErrMetricInactive
		}
		if params.Score.IsNegative() || params.Score.GreaterThan(metric.MaxScore) {
			return fmt.Errorf("%w: %s not in [0, %s]", ErrScoreOutOfRange, params.Score, metric.MaxScore)
		}

		score = &model.PerformanceScore{
			VendorID:    params.VendorID,
			MetricID:    params.MetricID,
			Score:       params.Score,
			PeriodStart: params.PeriodStart,
			PeriodEnd:   params.PeriodEnd,
			ScoredBy:    params.ScoredBy,
			Notes:       params.Notes,
		}
		if err := s.perfRepo.CreateScore(ctx, score); err != nil {
			return err
		}

		if err := s.audit.AppendAuditEvent(ctx,
			model.AuditEventScoreRecorded, SubjectPerformance, params.VendorID, params.ScoredBy,
			nil,
			model.JSONMap{
				"metric_id":  params.MetricID,
				"score":      params.Score.String(),
				"period_end": params.PeriodEnd,
			},
			params.Notes,
		); err != nil {
			return err
		}

		// 评分入库后在同一事务内重算综合分
		_, err = s.recalculate(ctx, params.VendorID, model.ScoreSourceManualRating, params.ScoredBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

// RecalculateVendorScore 重算供应商综合绩效分
func (s *PerformanceService) RecalculateVendorScore(ctx context.Context, vendorID int64, source model.ScoreSource) (int, error) {
	var computed int
	err := s.perfRepo.Transaction(ctx, func(ctx context.Context) error {
		var err error
		computed, err = s.recalculate(ctx, vendorID, source, "")
		return err
	})
	return computed, err
}

// recalculate 加权聚合：每个启用指标取最新评分归一到 0-100，
// 乘以权重求和后除以有历史指标的权重和，四舍五入取整。
// 无任何历史时结果为 0。必须在事务内调用
func (s *PerformanceService) recalculate(ctx context.Context, vendorID int64, source model.ScoreSource, actorID string) (int, error) {
	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return 0, err
	}

	metrics, err := s.perfRepo.ListActiveMetrics(ctx)
	if err != nil {
		return 0, err
	}

	weightedSum := decimal.Zero
	weightTotal := decimal.Zero
	scoredMetrics := 0

	hundred := decimal.NewFromInt(100)
	for _, metric := range metrics {
		latest, err := s.perfRepo.LatestScore(ctx, vendorID, metric.ID)
		if err != nil {
			return 0, err
		}
		if latest == nil {
			// 无历史的指标既不计入分子也不计入分母
			continue
		}
		if metric.MaxScore.IsZero() || metric.Weight.IsZero() {
			continue
		}

		normalized := latest.Score.Div(metric.MaxScore).Mul(hundred)
		weightedSum = weightedSum.Add(normalized.Mul(metric.Weight))
		weightTotal = weightTotal.Add(metric.Weight)
		scoredMetrics++
	}

	computed := 0
	if scoredMetrics > 0 {
		computed = int(weightedSum.Div(weightTotal).Round(0).IntPart())
	}

	if err := s.vendorRepo.UpdatePerformanceScore(ctx, vendorID, computed); err != nil {
		return 0, err
	}

	if err := s.perfRepo.AppendHistory(ctx, &model.ScoreHistory{
		VendorID: vendorID,
		Score:    computed,
		Source:   source,
		Metadata: model.JSONMap{
			"metric_count":   scoredMetrics,
			"active_metrics": len(metrics),
		},
	}); err != nil {
		return 0, err
	}

	if err := s.audit.AppendAuditEvent(ctx,
		model.AuditEventScoreAggregated, SubjectVendor, vendorID, actorID,
		model.JSONMap{"performance_score": vendor.PerformanceScore},
		model.JSONMap{
			"performance_score": computed,
			"source":            source,
			"metric_count":      scoredMetrics,
		},
		"",
	); err != nil {
		return 0, err
	}

	logger.Debug("vendor performance score recalculated",
		zap.Int64("vendor_id", vendorID),
		zap.Int("score", computed),
		zap.Int("metrics", scoredMetrics),
		zap.String("source", string(source)))

	return computed, nil
}

// RecalculateAll 重算全部受治理供应商的综合分
// 单个供应商的失败被隔离收集
func (s *PerformanceService) RecalculateAll(ctx context.Context, source model.ScoreSource) (map[int64]int, map[int64]string, error) {
	vendors, err := s.vendorRepo.ListByStatuses(ctx, []model.VendorStatus{
		model.VendorStatusApproved,
		model.VendorStatusActive,
		model.VendorStatusSuspended,
	})
	if err != nil {
		return nil, nil, err
	}

	results := make(map[int64]int, len(vendors))
	failures := make(map[int64]string)
	for _, vendor := range vendors {
		score, err := s.RecalculateVendorScore(ctx, vendor.ID, source)
		if err != nil {
			failures[vendor.ID] = err.Error()
			logger.Error("performance recompute failed",
				zap.Int64("vendor_id", vendor.ID),
				zap.Error(err))
			continue
		}
		results[vendor.ID] = score
	}
	return results, failures, nil
}
