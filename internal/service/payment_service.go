package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurelink/vendor-core/internal/config"
	"github.com/procurelink/vendor-core/internal/metrics"
	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/repository"
	"github.com/procurelink/vendor-core/pkg/logger"
)

// ErrInvalidAmount 付款金额必须为正
var ErrInvalidAmount = errors.New("payment amount must be positive")

const dayMillis = 24 * 60 * 60 * 1000

// PaymentService 付款审批流水线
type PaymentService struct {
	paymentRepo *repository.PaymentRepository
	vendorRepo  *repository.VendorRepository
	audit       *AuditRecorder
	cfg         *config.GovernanceConfig
}

// NewPaymentService 创建付款审批服务
func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	vendorRepo *repository.VendorRepository,
	audit *AuditRecorder,
	cfg *config.GovernanceConfig,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		vendorRepo:  vendorRepo,
		audit:       audit,
		cfg:         cfg,
	}
}

// CreatePaymentParams 创建付款申请参数
type CreatePaymentParams struct {
	VendorID      int64
	Amount        decimal.Decimal
	Currency      string
	Description   string
	InvoiceNumber string
	DueDate       *int64
	RequestedBy   string
}

// CreatePaymentRequest 创建付款申请
// 供应商必须处于 active 且当前合规；合规快照在创建时落库，作为资金释放边界的二次校验。
// 疑似重复申请标记后照常入库，交由人工甄别，不做硬拒绝
func (s *PaymentService) CreatePaymentRequest(ctx context.Context, params *CreatePaymentParams) (*model.PaymentRequest, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var request *model.PaymentRequest
	err := s.paymentRepo.Transaction(ctx, func(ctx context.Context) error {
		vendor, err := s.vendorRepo.GetByID(ctx, params.VendorID)
		if err != nil {
			return err
		}
		if !vendor.IsActive() {
			return &PreconditionError{
				Condition: CondVendorActive,
				Detail:    "vendor status is " + string(vendor.Status),
			}
		}
		if !vendor.IsCompliant() {
			return &PreconditionError{
				Condition: CondVendorCompliant,
				Detail:    "vendor compliance status is " + string(vendor.ComplianceStatus),
			}
		}

		// 重复检测：同供应商时间窗口内金额或发票号匹配
		since := time.Now().UnixMilli() - int64(s.cfg.DuplicateWindowDays)*dayMillis
		similar, err := s.paymentRepo.FindRecentSimilar(ctx, params.VendorID, params.Amount, params.InvoiceNumber, since)
		if err != nil {
			return err
		}

		currency := params.Currency
		if currency == "" {
			currency = "USD"
		}

		request = &model.PaymentRequest{
			RequestNo:           uuid.New().String(),
			VendorID:            params.VendorID,
			Amount:              params.Amount,
			Currency:            currency,
			Description:         params.Description,
			InvoiceNumber:       params.InvoiceNumber,
			DueDate:             params.DueDate,
			Status:              model.PaymentStatusRequested,
			IsComplianceBlocked: !vendor.IsCompliant(),
			IsDuplicateFlagged:  len(similar) > 0,
		}
		if err := s.paymentRepo.CreateRequest(ctx, request); err != nil {
			return err
		}

		// 打开运营校验阶段
		if err := s.paymentRepo.CreateApproval(ctx, &model.PaymentApproval{
			PaymentRequestID: request.ID,
			Stage:            model.StageOpsValidation,
		}); err != nil {
			return err
		}

		after := model.JSONMap{
			"status":                request.Status,
			"amount":                request.Amount.String(),
			"is_compliance_blocked": request.IsComplianceBlocked,
			"is_duplicate_flagged":  request.IsDuplicateFlagged,
		}
		if len(similar) > 0 {
			after["similar_request_ids"] = requestIDs(similar)
		}
		return s.audit.AppendAuditEvent(ctx,
			model.AuditEventPaymentCreated, SubjectPaymentRequest, request.ID, params.RequestedBy,
			nil, after, "",
		)
	})
	if err != nil {
		return nil, err
	}

	if request.IsDuplicateFlagged {
		metrics.DuplicatePaymentsFlagged.Inc()
		logger.Warn("payment request flagged as possible duplicate",
			zap.Int64("request_id", request.ID),
			zap.Int64("vendor_id", request.VendorID),
			zap.String("amount", request.Amount.String()))
	}
	return request, nil
}

func requestIDs(reqs []*model.PaymentRequest) []int64 {
	ids := make([]int64, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	return ids
}

// ValidateOps 运营校验阶段 (requested -> pending_finance | rejected)
func (s *PaymentService) ValidateOps(ctx context.Context, requestID int64, approverID string, approve bool, comment string) error {
	if !approve && comment == "" {
		return ErrCommentRequired
	}

	err := s.paymentRepo.Transaction(ctx, func(ctx context.Context) error {
		request, err := s.paymentRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != model.PaymentStatusRequested {
			return &InvalidTransitionError{
				Entity: "payment_request",
				From:   string(request.Status),
				To:     "ops_validation",
			}
		}

		if approve {
			if err := s.paymentRepo.ResolveApproval(ctx, requestID, model.StageOpsValidation, model.ApprovalActionApproved, approverID, comment); err != nil {
				return err
			}
			// 打开财务审批阶段
			if err := s.paymentRepo.CreateApproval(ctx, &model.PaymentApproval{
				PaymentRequestID: requestID,
				Stage:            model.StageFinanceApproval,
			}); err != nil {
				return err
			}
			if err := s.paymentRepo.UpdateRequestStatus(ctx, requestID,
				model.PaymentStatusRequested, model.PaymentStatusPendingFinance, nil); err != nil {
				return err
			}
			return s.auditStage(ctx, requestID, approverID, model.StageOpsValidation, model.ApprovalActionApproved,
				request.Status, model.PaymentStatusPendingFinance, comment)
		}

		if err := s.paymentRepo.ResolveApproval(ctx, requestID, model.StageOpsValidation, model.ApprovalActionRejected, approverID, comment); err != nil {
			return err
		}
		if err := s.paymentRepo.UpdateRequestStatus(ctx, requestID,
			model.PaymentStatusRequested, model.PaymentStatusRejected,
			map[string]interface{}{"rejection_reason": comment}); err != nil {
			return err
		}
		return s.auditStage(ctx, requestID, approverID, model.StageOpsValidation, model.ApprovalActionRejected,
			request.Status, model.PaymentStatusRejected, comment)
	})
	if err != nil {
		return err
	}

	action := model.ApprovalActionRejected
	if approve {
		action = model.ApprovalActionApproved
	}
	metrics.PaymentStageTotal.WithLabelValues(string(model.StageOpsValidation), string(action)).Inc()
	return nil
}

// ApproveFinance 财务审批阶段 (pending_finance -> approved | rejected)
// 合规在资金释放边界二次生效：创建时的合规快照为 true 时拒绝批准，与当下分数无关
func (s *PaymentService) ApproveFinance(ctx context.Context, requestID int64, approverID string, approve bool, comment string) error {
	if !approve && comment == "" {
		return ErrCommentRequired
	}

	err := s.paymentRepo.Transaction(ctx, func(ctx context.Context) error {
		request, err := s.paymentRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != model.PaymentStatusPendingFinance {
			return &InvalidTransitionError{
				Entity: "payment_request",
				From:   string(request.Status),
				To:     "finance_approval",
			}
		}

		if approve {
			if request.IsComplianceBlocked {
				return &PreconditionError{
					Condition: CondNotComplianceBlock,
					Detail:    "payment request was compliance-blocked at creation time",
				}
			}
			if err := s.paymentRepo.ResolveApproval(ctx, requestID, model.StageFinanceApproval, model.ApprovalActionApproved, approverID, comment); err != nil {
				return err
			}
			if err := s.paymentRepo.UpdateRequestStatus(ctx, requestID,
				model.PaymentStatusPendingFinance, model.PaymentStatusApproved, nil); err != nil {
				return err
			}
			return s.auditStage(ctx, requestID, approverID, model.StageFinanceApproval, model.ApprovalActionApproved,
				request.Status, model.PaymentStatusApproved, comment)
		}

		if err := s.paymentRepo.ResolveApproval(ctx, requestID, model.StageFinanceApproval, model.ApprovalActionRejected, approverID, comment); err != nil {
			return err
		}
		if err := s.paymentRepo.UpdateRequestStatus(ctx, requestID,
			model.PaymentStatusPendingFinance, model.PaymentStatusRejected,
			map[string]interface{}{"rejection_reason": comment}); err != nil {
			return err
		}
		return s.auditStage(ctx, requestID, approverID, model.StageFinanceApproval, model.ApprovalActionRejected,
			request.Status, model.PaymentStatusRejected, comment)
	})
	if err != nil {
		return err
	}

	action := model.ApprovalActionRejected
	if approve {
		action = model.ApprovalActionApproved
	}
	metrics.PaymentStageTotal.WithLabelValues(string(model.StageFinanceApproval), string(action)).Inc()
	return nil
}

// MarkPaid 标记已支付 (approved -> paid)
func (s *PaymentService) MarkPaid(ctx context.Context, requestID int64, reference, method string, actorID string) error {
	return s.paymentRepo.Transaction(ctx, func(ctx context.Context) error {
		request, err := s.paymentRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != model.PaymentStatusApproved {
			return &InvalidTransitionError{
				Entity: "payment_request",
				From:   string(request.Status),
				To:     string(model.PaymentStatusPaid),
			}
		}

		now := time.Now().UnixMilli()
		if err := s.paymentRepo.UpdateRequestStatus(ctx, requestID,
			model.PaymentStatusApproved, model.PaymentStatusPaid,
			map[string]interface{}{
				"payment_reference": reference,
				"payment_method":    method,
				"paid_at":           now,
			}); err != nil {
			return err
		}

		return s.audit.AppendAuditEvent(ctx,
			model.AuditEventPaymentPaid, SubjectPaymentRequest, requestID, actorID,
			model.JSONMap{"status": request.Status},
			model.JSONMap{
				"status":            model.PaymentStatusPaid,
				"payment_reference": reference,
				"payment_method":    method,
			},
			"",
		)
	})
}

// Cancel 取消付款申请
// 仅允许从尚未进入资金释放的状态取消 (requested / pending_finance)
func (s *PaymentService) Cancel(ctx context.Context, requestID int64, actorID, reason string) error {
	if reason == "" {
		return ErrCommentRequired
	}
	return s.paymentRepo.Transaction(ctx, func(ctx context.Context) error {
		request, err := s.paymentRepo.GetRequestByID(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != model.PaymentStatusRequested && request.Status != model.PaymentStatusPendingFinance {
			return &InvalidTransitionError{
				Entity: "payment_request",
				From:   string(request.Status),
				To:     string(model.PaymentStatusCancelled),
			}
		}

		if err := s.paymentRepo.UpdateRequestStatus(ctx, requestID,
			request.Status, model.PaymentStatusCancelled, nil); err != nil {
			return err
		}
		return s.audit.AppendAuditEvent(ctx,
			model.AuditEventPaymentCancelled, SubjectPaymentRequest, requestID, actorID,
			model.JSONMap{"status": request.Status},
			model.JSONMap{"status": model.PaymentStatusCancelled},
			reason,
		)
	})
}

// GetRequest 查询付款申请及审批记录
func (s *PaymentService) GetRequest(ctx context.Context, requestID int64) (*model.PaymentRequest, []*model.PaymentApproval, error) {
	request, err := s.paymentRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	approvals, err := s.paymentRepo.ListApprovals(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return request, approvals, nil
}

// auditStage 记录一次审批阶段处理
func (s *PaymentService) auditStage(ctx context.Context, requestID int64, actorID string, stage model.ApprovalStage, action model.ApprovalAction, from, to model.PaymentRequestStatus, comment string) error {
	return s.audit.AppendAuditEvent(ctx,
		model.AuditEventPaymentStage, SubjectPaymentRequest, requestID, actorID,
		model.JSONMap{"status": from},
		model.JSONMap{
			"status": to,
			"stage":  stage,
			"action": action,
		},
		comment,
	)
}
