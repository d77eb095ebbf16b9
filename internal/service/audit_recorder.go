package service

import (
	"context"

	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/repository"
)

// 审计主体类型
const (
	SubjectVendor         = "vendor"
	SubjectPaymentRequest = "payment_request"
	SubjectComplianceFlag = "compliance_flag"
	SubjectPerformance    = "performance_score"
)

// AuditRecorder 审计事件记录器
// 对外仅暴露追加语义，历史记录不可变由仓储保证
type AuditRecorder struct {
	repo *repository.AuditLogRepository
}

// NewAuditRecorder 创建审计事件记录器
func NewAuditRecorder(repo *repository.AuditLogRepository) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

// AppendAuditEvent 追加审计事件
func (a *AuditRecorder) AppendAuditEvent(ctx context.Context, kind model.AuditEventKind, subjectType string, subjectID int64, actorID string, before, after model.JSONMap, reason string) error {
	return a.repo.Append(ctx, &model.AuditLog{
		EventKind:   kind,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		ActorID:     actorID,
		BeforeState: before,
		AfterState:  after,
		Reason:      reason,
	})
}

// ListBySubject 查询某主体的审计记录
func (a *AuditRecorder) ListBySubject(ctx context.Context, subjectType string, subjectID int64, limit int) ([]*model.AuditLog, error) {
	return a.repo.ListBySubject(ctx, subjectType, subjectID, limit)
}
