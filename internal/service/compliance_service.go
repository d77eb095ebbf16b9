package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/procurelink/vendor-core/internal/cache"
	"github.com/procurelink/vendor-core/internal/config"
	"github.com/procurelink/vendor-core/internal/metrics"
	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/repository"
	"github.com/procurelink/vendor-core/internal/rules"
	"github.com/procurelink/vendor-core/pkg/logger"
)

// EvaluationResult 单个供应商的评估结果
type EvaluationResult struct {
	VendorID       int64                  `json:"vendor_id"`
	Score          int                    `json:"score"`
	Status         model.ComplianceStatus `json:"status"`
	RulesEvaluated int                    `json:"rules_evaluated"`
	Failures       []RuleFailure          `json:"failures"`
	OpenFlagCount  int64                  `json:"open_flag_count"`
	EvaluatedAt    int64                  `json:"evaluated_at"`
}

// RuleFailure 失败规则摘要
type RuleFailure struct {
	RuleCode string        `json:"rule_code"`
	Details  string        `json:"details"`
	Metadata model.JSONMap `json:"metadata,omitempty"`
}

// BatchEvaluationResult 批量评估结果
// 单个供应商的失败被隔离收集，不中断其它供应商的评估
type BatchEvaluationResult struct {
	Results map[int64]*EvaluationResult `json:"results"`
	Errors  map[int64]string            `json:"errors"`
}

// ComplianceAlert 合规告警消息 (供应商进入 BLOCKED 时触发)
type ComplianceAlert struct {
	VendorID  int64                  `json:"vendor_id"`
	Status    model.ComplianceStatus `json:"status"`
	Score     int                    `json:"score"`
	FlagCount int64                  `json:"flag_count"`
	CreatedAt int64                  `json:"created_at"`
}

// ComplianceService 合规评估引擎
type ComplianceService struct {
	vendorRepo     *repository.VendorRepository
	ruleRepo       *repository.RuleRepository
	complianceRepo *repository.ComplianceRepository
	docRepo        *repository.DocumentRepository
	audit          *AuditRecorder
	statusCache    *cache.ComplianceCache // 可选
	cfg            *config.GovernanceConfig

	// 告警回调 (由宿主接入投递通道)
	onComplianceAlert func(ctx context.Context, alert *ComplianceAlert) error
}

// NewComplianceService 创建合规评估引擎
func NewComplianceService(
	vendorRepo *repository.VendorRepository,
	ruleRepo *repository.RuleRepository,
	complianceRepo *repository.ComplianceRepository,
	docRepo *repository.DocumentRepository,
	audit *AuditRecorder,
	cfg *config.GovernanceConfig,
) *ComplianceService {
	return &ComplianceService{
		vendorRepo:     vendorRepo,
		ruleRepo:       ruleRepo,
		complianceRepo: complianceRepo,
		docRepo:        docRepo,
		audit:          audit,
		cfg:            cfg,
	}
}

// SetStatusCache 设置合规状态缓存
func (s *ComplianceService) SetStatusCache(c *cache.ComplianceCache) {
	s.statusCache = c
}

// SetOnComplianceAlert 设置告警回调
func (s *ComplianceService) SetOnComplianceAlert(fn func(ctx context.Context, alert *ComplianceAlert) error) {
	s.onComplianceAlert = fn
}

// EvaluateVendor 评估单个供应商
// 对当前输入是确定性的纯重算：重复执行得到相同的分数、状态与结果集
func (s *ComplianceService) EvaluateVendor(ctx context.Context, vendorID int64) (*EvaluationResult, error) {
	start := time.Now()

	var result *EvaluationResult
	err := s.vendorRepo.Transaction(ctx, func(ctx context.Context) error {
		vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
		if err != nil {
			return err
		}

		ruleDefs, err := s.ruleRepo.ListActive(ctx)
		if err != nil {
			return err
		}

		mandatoryTypes, err := s.docRepo.ListMandatoryTypes(ctx)
		if err != nil {
			return err
		}

		documents, err := s.docRepo.ListCurrent(ctx, vendorID)
		if err != nil {
			return err
		}

		openFlags, err := s.complianceRepo.CountOpenFlags(ctx, vendorID)
		if err != nil {
			return err
		}

		now := time.Now().UnixMilli()
		facts := &rules.VendorFacts{
			Vendor:            vendor,
			MandatoryDocTypes: mandatoryTypes,
			CurrentDocuments:  documents,
			NowMilli:          now,
		}

		totalPenalty := 0
		hasBlockingFailure := false
		var failures []RuleFailure

		checkers := rules.DecodeAll(ruleDefs)
		for _, checker := range checkers {
			rule := checker.Rule()
			outcome := checker.Evaluate(facts)

			entry := &model.ComplianceResult{
				VendorID:    vendorID,
				RuleID:      rule.ID,
				Status:      outcome.Status,
				Details:     outcome.Details,
				Metadata:    outcome.Metadata,
				EvaluatedAt: now,
			}
			if outcome.Status == model.ResultStatusPass {
				entry.ResolvedAt = &now
			}
			if err := s.complianceRepo.UpsertResult(ctx, entry); err != nil {
				return err
			}

			if outcome.IsFail() {
				totalPenalty += rule.PenaltyPoints
				if rule.IsBlocking() {
					hasBlockingFailure = true
				}
				failures = append(failures, RuleFailure{
					RuleCode: rule.Code,
					Details:  outcome.Details,
					Metadata: outcome.Metadata,
				})
			}
		}

		score := 100 - totalPenalty
		if score < 0 {
			score = 0
		}
		status := s.resolveStatus(score, hasBlockingFailure, openFlags)

		if err := s.vendorRepo.UpdateComplianceState(ctx, vendorID, score, status); err != nil {
			return err
		}

		if err := s.audit.AppendAuditEvent(ctx,
			model.AuditEventComplianceEvaluated, SubjectVendor, vendorID, "",
			model.JSONMap{
				"compliance_score":  vendor.ComplianceScore,
				"compliance_status": vendor.ComplianceStatus,
			},
			model.JSONMap{
				"compliance_score":  score,
				"compliance_status": status,
				"rules_evaluated":   len(checkers),
				"open_flag_count":   openFlags,
			},
			"",
		); err != nil {
			return err
		}

		result = &EvaluationResult{
			VendorID:       vendorID,
			Score:          score,
			Status:         status,
			RulesEvaluated: len(checkers),
			Failures:       failures,
			OpenFlagCount:  openFlags,
			EvaluatedAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EvaluationsTotal.WithLabelValues(string(result.Status)).Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	s.refreshCache(ctx, result)
	s.maybeAlert(ctx, result)

	return result, nil
}

// resolveStatus 解析供应商合规状态，按优先级顺序首个命中生效
func (s *ComplianceService) resolveStatus(score int, hasBlockingFailure bool, openFlags int64) model.ComplianceStatus {
	switch {
	case openFlags > 0:
		return model.ComplianceStatusBlocked
	case hasBlockingFailure:
		return model.ComplianceStatusBlocked
	case score >= s.cfg.CompliantThreshold:
		return model.ComplianceStatusCompliant
	case score >= s.cfg.AtRiskThreshold:
		return model.ComplianceStatusAtRisk
	default:
		return model.ComplianceStatusNonCompliant
	}
}

// EvaluateAllVendors 批量评估
// 仅覆盖 approved/active/suspended 的供应商；单个供应商的失败被捕获收集，不影响其它供应商
func (s *ComplianceService) EvaluateAllVendors(ctx context.Context) (*BatchEvaluationResult, error) {
	vendors, err := s.vendorRepo.ListByStatuses(ctx, []model.VendorStatus{
		model.VendorStatusApproved,
		model.VendorStatusActive,
		model.VendorStatusSuspended,
	})
	if err != nil {
		return nil, err
	}

	batch := &BatchEvaluationResult{
		Results: make(map[int64]*EvaluationResult, len(vendors)),
		Errors:  make(map[int64]string),
	}

	for _, vendor := range vendors {
		result, err := s.EvaluateVendor(ctx, vendor.ID)
		if err != nil {
			batch.Errors[vendor.ID] = err.Error()
			metrics.BatchEvaluationErrors.Inc()
			logger.Error("vendor evaluation failed",
				zap.Int64("vendor_id", vendor.ID),
				zap.Error(err))
			continue
		}
		batch.Results[vendor.ID] = result
	}

	logger.Info("batch compliance evaluation finished",
		zap.Int("vendors", len(vendors)),
		zap.Int("succeeded", len(batch.Results)),
		zap.Int("failed", len(batch.Errors)))

	return batch, nil
}

// RaiseFlag 人工创建合规标记
// 开放标记立即将供应商合规状态置为 BLOCKED，分数保持不变
func (s *ComplianceService) RaiseFlag(ctx context.Context, vendorID int64, severity model.ComplianceFlagSeverity, reason, actorID string) (*model.ComplianceFlag, error) {
	if reason == "" {
		return nil, ErrCommentRequired
	}

	flag := &model.ComplianceFlag{
		VendorID:  vendorID,
		Severity:  severity,
		Reason:    reason,
		FlaggedBy: actorID,
	}

	err := s.vendorRepo.Transaction(ctx, func(ctx context.Context) error {
		vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
		if err != nil {
			return err
		}

		if err := s.complianceRepo.CreateFlag(ctx, flag); err != nil {
			return err
		}

		if err := s.vendorRepo.UpdateComplianceState(ctx, vendorID, vendor.ComplianceScore, model.ComplianceStatusBlocked); err != nil {
			return err
		}

		return s.audit.AppendAuditEvent(ctx,
			model.AuditEventFlagRaised, SubjectVendor, vendorID, actorID,
			model.JSONMap{"compliance_status": vendor.ComplianceStatus},
			model.JSONMap{
				"compliance_status": model.ComplianceStatusBlocked,
				"severity":          severity,
			},
			reason,
		)
	})
	if err != nil {
		return nil, err
	}

	if s.statusCache != nil {
		_ = s.statusCache.Invalidate(ctx, vendorID)
	}
	return flag, nil
}

// ResolveFlag 解决合规标记
// 状态不在此处回退，由下一次评估重新推导
func (s *ComplianceService) ResolveFlag(ctx context.Context, flagID int64, vendorID int64, resolvedBy string) error {
	err := s.vendorRepo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.complianceRepo.ResolveFlag(ctx, flagID, resolvedBy); err != nil {
			return err
		}
		return s.audit.AppendAuditEvent(ctx,
			model.AuditEventFlagResolved, SubjectComplianceFlag, flagID, resolvedBy,
			model.JSONMap{"status": model.FlagStatusOpen},
			model.JSONMap{"status": model.FlagStatusResolved, "vendor_id": vendorID},
			"",
		)
	})
	if err != nil {
		return err
	}

	if s.statusCache != nil {
		_ = s.statusCache.Invalidate(ctx, vendorID)
	}
	return nil
}

// VendorComplianceSummary 供应商合规概览
type VendorComplianceSummary struct {
	Vendor    *model.Vendor             `json:"vendor"`
	Results   []*model.ComplianceResult `json:"results"`
	OpenFlags []*model.ComplianceFlag   `json:"open_flags"`
}

// GetVendorCompliance 查询供应商当前合规概览
func (s *ComplianceService) GetVendorCompliance(ctx context.Context, vendorID int64) (*VendorComplianceSummary, error) {
	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	results, err := s.complianceRepo.ListResultsByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	flags, err := s.complianceRepo.ListOpenFlags(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return &VendorComplianceSummary{
		Vendor:    vendor,
		Results:   results,
		OpenFlags: flags,
	}, nil
}

// refreshCache 评估提交后刷新状态缓存
func (s *ComplianceService) refreshCache(ctx context.Context, result *EvaluationResult) {
	if s.statusCache == nil {
		return
	}
	if err := s.statusCache.Set(ctx, &cache.ComplianceEntry{
		VendorID:    result.VendorID,
		Status:      result.Status,
		Score:       result.Score,
		EvaluatedAt: result.EvaluatedAt,
	}); err != nil {
		logger.Warn("failed to refresh compliance cache",
			zap.Int64("vendor_id", result.VendorID),
			zap.Error(err))
	}
}

// maybeAlert 供应商进入 BLOCKED 时触发告警回调
func (s *ComplianceService) maybeAlert(ctx context.Context, result *EvaluationResult) {
	if s.onComplianceAlert == nil || result.Status != model.ComplianceStatusBlocked {
		return
	}
	alert := &ComplianceAlert{
		VendorID:  result.VendorID,
		Status:    result.Status,
		Score:     result.Score,
		FlagCount: result.OpenFlagCount,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.onComplianceAlert(ctx, alert); err != nil {
		logger.Warn("failed to deliver compliance alert",
			zap.Int64("vendor_id", result.VendorID),
			zap.Error(err))
	}
}
