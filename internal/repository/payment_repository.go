package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/procurelink/vendor-core/internal/model"
)

var (
	ErrPaymentNotFound  = errors.New("payment request not found")
	ErrApprovalNotFound = errors.New("payment approval not found")
	// ErrApprovalConflict 审批记录已被并发解决，调用方可重读后重试
	ErrApprovalConflict = errors.New("payment approval already resolved")
	// ErrStalePayment 付款申请状态已被并发变更
	ErrStalePayment = errors.New("payment request status changed concurrently")
)

// PaymentRepository 付款申请仓储
type PaymentRepository struct {
	*Repository
}

// NewPaymentRepository 创建付款申请仓储
func NewPaymentRepository(base *Repository) *PaymentRepository {
	return &PaymentRepository{Repository: base}
}

// CreateRequest 创建付款申请
func (r *PaymentRepository) CreateRequest(ctx context.Context, req *model.PaymentRequest) error {
	now := time.Now().UnixMilli()
	req.CreatedAt = now
	req.UpdatedAt = now
	return r.DB(ctx).Create(req).Error
}

// GetRequestByID 根据ID获取付款申请
func (r *PaymentRepository) GetRequestByID(ctx context.Context, id int64) (*model.PaymentRequest, error) {
	var req model.PaymentRequest
	err := r.DB(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListByVendor 查询供应商的付款申请
func (r *PaymentRepository) ListByVendor(ctx context.Context, vendorID int64, page *Pagination) ([]*model.PaymentRequest, error) {
	var reqs []*model.PaymentRequest
	err := r.DB(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// FindRecentSimilar 扫描近期可能重复的付款申请
// 同一供应商、时间窗口内、金额或发票号匹配，排除已拒绝/已取消
func (r *PaymentRepository) FindRecentSimilar(ctx context.Context, vendorID int64, amount decimal.Decimal, invoiceNumber string, since int64) ([]*model.PaymentRequest, error) {
	query := r.DB(ctx).
		Where("vendor_id = ? AND created_at >= ?", vendorID, since).
		Where("status NOT IN ?", []model.PaymentRequestStatus{
			model.PaymentStatusRejected,
			model.PaymentStatusCancelled,
		})

	if invoiceNumber != "" {
		query = query.Where("amount = ? OR invoice_number = ?", amount, invoiceNumber)
	} else {
		query = query.Where("amount = ?", amount)
	}

	var reqs []*model.PaymentRequest
	if err := query.Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// UpdateRequestStatus 条件更新付款申请状态
// 仅当当前状态仍为 from 时生效
func (r *PaymentRepository) UpdateRequestStatus(ctx context.Context, requestID int64, from, to model.PaymentRequestStatus, updates map[string]interface{}) error {
	values := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UnixMilli(),
	}
	for k, v := range updates {
		values[k] = v
	}

	result := r.DB(ctx).
		Model(&model.PaymentRequest{}).
		Where("id = ? AND status = ?", requestID, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStalePayment
	}
	return nil
}

// CreateApproval 创建待处理审批记录
func (r *PaymentRepository) CreateApproval(ctx context.Context, approval *model.PaymentApproval) error {
	approval.Action = model.ApprovalActionPending
	approval.CreatedAt = time.Now().UnixMilli()
	err := r.DB(ctx).Create(approval).Error
	if err != nil && isDuplicateKeyError(err) {
		return ErrApprovalConflict
	}
	return err
}

// GetApproval 获取指定阶段的审批记录
func (r *PaymentRepository) GetApproval(ctx context.Context, requestID int64, stage model.ApprovalStage) (*model.PaymentApproval, error) {
	var approval model.PaymentApproval
	err := r.DB(ctx).
		Where("payment_request_id = ? AND stage = ?", requestID, stage).
		First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApprovalNotFound
		}
		return nil, err
	}
	return &approval, nil
}

// ListApprovals 查询付款申请的全部审批记录
func (r *PaymentRepository) ListApprovals(ctx context.Context, requestID int64) ([]*model.PaymentApproval, error) {
	var approvals []*model.PaymentApproval
	err := r.DB(ctx).
		Where("payment_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

// ResolveApproval 解决审批记录
// 条件更新 (action 仍为 pending)，并发解决时第二个调用返回 ErrApprovalConflict
func (r *PaymentRepository) ResolveApproval(ctx context.Context, requestID int64, stage model.ApprovalStage, action model.ApprovalAction, userID, comment string) error {
	now := time.Now().UnixMilli()
	result := r.DB(ctx).
		Model(&model.PaymentApproval{}).
		Where("payment_request_id = ? AND stage = ? AND action = ?", requestID, stage, model.ApprovalActionPending).
		Updates(map[string]interface{}{
			"action":      action,
			"user_id":     userID,
			"comment":     comment,
			"resolved_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetApproval(ctx, requestID, stage); err != nil {
			return err
		}
		return ErrApprovalConflict
	}
	return nil
}
