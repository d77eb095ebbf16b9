package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/procurelink/vendor-core/internal/config"
	"github.com/procurelink/vendor-core/internal/metrics"
	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/repository"
	"github.com/procurelink/vendor-core/pkg/logger"
)

// lifecycleTransition 合法的生命周期迁移边
type lifecycleTransition struct {
	From model.VendorStatus
	To   model.VendorStatus
}

var legalTransitions = []lifecycleTransition{
	{From: model.VendorStatusDraft, To: model.VendorStatusSubmitted},
	{From: model.VendorStatusSubmitted, To: model.VendorStatusUnderReview},
	{From: model.VendorStatusUnderReview, To: model.VendorStatusApproved},
	{From: model.VendorStatusUnderReview, To: model.VendorStatusRejected},
	{From: model.VendorStatusSubmitted, To: model.VendorStatusRejected},
	{From: model.VendorStatusApproved, To: model.VendorStatusActive},
	{From: model.VendorStatusSuspended, To: model.VendorStatusActive},
	{From: model.VendorStatusActive, To: model.VendorStatusSuspended},
	{From: model.VendorStatusActive, To: model.VendorStatusTerminated},
	{From: model.VendorStatusSuspended, To: model.VendorStatusTerminated},
}

// commentRequired 必须附带说明的目标状态
var commentRequired = map[model.VendorStatus]bool{
	model.VendorStatusRejected:   true,
	model.VendorStatusSuspended:  true,
	model.VendorStatusTerminated: true,
}

// isLegalTransition 检查迁移边是否合法
func isLegalTransition(from, to model.VendorStatus) bool {
	for _, t := range legalTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// LifecycleService 供应商生命周期状态机
type LifecycleService struct {
	vendorRepo     *repository.VendorRepository
	docRepo        *repository.DocumentRepository
	complianceRepo *repository.ComplianceRepository
	audit          *AuditRecorder
	cfg            *config.GovernanceConfig
}

// NewLifecycleService 创建生命周期状态机
func NewLifecycleService(
	vendorRepo *repository.VendorRepository,
	docRepo *repository.DocumentRepository,
	complianceRepo *repository.ComplianceRepository,
	audit *AuditRecorder,
	cfg *config.GovernanceConfig,
) *LifecycleService {
	return &LifecycleService{
		vendorRepo:     vendorRepo,
		docRepo:        docRepo,
		complianceRepo: complianceRepo,
		audit:          audit,
		cfg:            cfg,
	}
}

// Transition 执行一次状态迁移
// 非法迁移边、未满足的激活门槛都以领域错误返回，绝不部分生效
func (s *LifecycleService) Transition(ctx context.Context, vendorID int64, target model.VendorStatus, actorID, comment string) error {
	if commentRequired[target] && comment == "" {
		return ErrCommentRequired
	}

	var from model.VendorStatus
	err := s.vendorRepo.Transaction(ctx, func(ctx context.Context) error {
		vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
		if err != nil {
			return err
		}
		from = vendor.Status

		if !isLegalTransition(vendor.Status, target) {
			return &InvalidTransitionError{
				Entity: "vendor",
				From:   string(vendor.Status),
				To:     string(target),
			}
		}

		if target == model.VendorStatusActive {
			if err := s.checkActivationGate(ctx, vendor); err != nil {
				return err
			}
		}

		// 条件更新：状态被并发变更时失败关闭
		if err := s.vendorRepo.UpdateStatus(ctx, vendorID, vendor.Status, target); err != nil {
			return err
		}

		return s.audit.AppendAuditEvent(ctx,
			model.AuditEventVendorTransition, SubjectVendor, vendorID, actorID,
			model.JSONMap{"status": vendor.Status},
			model.JSONMap{"status": target},
			comment,
		)
	})
	if err != nil {
		return err
	}

	metrics.VendorTransitionsTotal.WithLabelValues(string(from), string(target)).Inc()
	logger.Info("vendor transitioned",
		zap.Int64("vendor_id", vendorID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actorID))
	return nil
}

// checkActivationGate 激活门槛检查 (approved|suspended -> active)
// 全部条件必须成立，任一不满足都以指明条件的领域错误返回
func (s *LifecycleService) checkActivationGate(ctx context.Context, vendor *model.Vendor) error {
	now := time.Now().UnixMilli()

	mandatoryTypes, err := s.docRepo.ListMandatoryTypes(ctx)
	if err != nil {
		return err
	}
	documents, err := s.docRepo.ListCurrent(ctx, vendor.ID)
	if err != nil {
		return err
	}

	verified := make(map[string]bool, len(documents))
	for _, doc := range documents {
		if doc.IsVerified() && !doc.IsExpiredAt(now) {
			verified[doc.TypeCode] = true
		}
	}
	for _, docType := range mandatoryTypes {
		if !verified[docType.Code] {
			return &PreconditionError{
				Condition: CondMandatoryDocuments,
				Detail:    fmt.Sprintf("no current verified document of type %s", docType.Code),
			}
		}
	}

	if vendor.ComplianceStatus != model.ComplianceStatusCompliant || vendor.ComplianceScore < s.cfg.ActivationThreshold {
		return &PreconditionError{
			Condition: CondComplianceThreshold,
			Detail: fmt.Sprintf("compliance status %s with score %d, need COMPLIANT and score >= %d",
				vendor.ComplianceStatus, vendor.ComplianceScore, s.cfg.ActivationThreshold),
		}
	}

	openFlags, err := s.complianceRepo.CountOpenFlags(ctx, vendor.ID)
	if err != nil {
		return err
	}
	if openFlags > 0 {
		return &PreconditionError{
			Condition: CondNoOpenFlags,
			Detail:    fmt.Sprintf("%d open compliance flags", openFlags),
		}
	}

	return nil
}

// ApproveAndActivate 将供应商从 submitted 一路推进到 active
// 每一跳是独立事务，跳与跳之间重读供应商状态；激活门槛失败时整体报错，不留半完成状态。
// 走完所有跳后供应商仍未激活 (如起点不在审批路径上) 视为失败，不静默返回
func (s *LifecycleService) ApproveAndActivate(ctx context.Context, vendorID int64, actorID, comment string) error {
	hops := []model.VendorStatus{
		model.VendorStatusUnderReview,
		model.VendorStatusApproved,
		model.VendorStatusActive,
	}

	for _, target := range hops {
		vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
		if err != nil {
			return err
		}
		if vendor.Status == model.VendorStatusActive {
			return nil
		}
		if !isLegalTransition(vendor.Status, target) {
			// 供应商已越过该跳，继续下一跳
			continue
		}
		if err := s.Transition(ctx, vendorID, target, actorID, comment); err != nil {
			return err
		}
	}

	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return err
	}
	if vendor.Status != model.VendorStatusActive {
		return &InvalidTransitionError{
			Entity: "vendor",
			From:   string(vendor.Status),
			To:     string(model.VendorStatusActive),
		}
	}
	return nil
}
