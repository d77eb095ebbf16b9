package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procurelink/vendor-core/internal/model"
)

// AuditLogRepository 审计日志仓储
// 只追加：故意不提供 Update/Delete，历史记录不可变
type AuditLogRepository struct {
	*Repository
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(base *Repository) *AuditLogRepository {
	return &AuditLogRepository{Repository: base}
}

// Append 追加审计事件
func (r *AuditLogRepository) Append(ctx context.Context, entry *model.AuditLog) error {
	if entry.EventID == "" {
		entry.EventID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UnixMilli()
	return r.DB(ctx).Create(entry).Error
}

// ListBySubject 查询某主体的审计记录
func (r *AuditLogRepository) ListBySubject(ctx context.Context, subjectType string, subjectID int64, limit int) ([]*model.AuditLog, error) {
	var entries []*model.AuditLog
	err := r.DB(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListByKind 按事件类型查询审计记录
func (r *AuditLogRepository) ListByKind(ctx context.Context, kind model.AuditEventKind, limit int) ([]*model.AuditLog, error) {
	var entries []*model.AuditLog
	err := r.DB(ctx).
		Where("event_kind = ?", kind).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
