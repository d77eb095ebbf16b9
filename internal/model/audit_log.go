package model

// AuditEventKind 审计事件类型
type AuditEventKind string

const (
	AuditEventVendorTransition    AuditEventKind = "VENDOR_TRANSITION"
	AuditEventComplianceEvaluated AuditEventKind = "COMPLIANCE_EVALUATED"
	AuditEventFlagRaised          AuditEventKind = "FLAG_RAISED"
	AuditEventFlagResolved        AuditEventKind = "FLAG_RESOLVED"
	AuditEventPaymentCreated      AuditEventKind = "PAYMENT_CREATED"
	AuditEventPaymentStage        AuditEventKind = "PAYMENT_STAGE"
	AuditEventPaymentPaid         AuditEventKind = "PAYMENT_PAID"
	AuditEventPaymentCancelled    AuditEventKind = "PAYMENT_CANCELLED"
	AuditEventScoreRecorded       AuditEventKind = "SCORE_RECORDED"
	AuditEventScoreAggregated     AuditEventKind = "SCORE_AGGREGATED"
)

// AuditLog 审计日志
// 只追加，任何更新或删除历史记录的尝试都是程序错误
type AuditLog struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID     string         `gorm:"column:event_id;type:varchar(64);uniqueIndex;not null" json:"event_id"`
	EventKind   AuditEventKind `gorm:"column:event_kind;type:varchar(50);not null" json:"event_kind"`
	SubjectType string         `gorm:"column:subject_type;type:varchar(50);index:idx_subject;not null" json:"subject_type"`
	SubjectID   int64          `gorm:"column:subject_id;index:idx_subject;not null" json:"subject_id"`
	ActorID     string         `gorm:"column:actor_id;type:varchar(64)" json:"actor_id"`
	BeforeState JSONMap        `gorm:"column:before_state;type:jsonb" json:"before_state"`
	AfterState  JSONMap        `gorm:"column:after_state;type:jsonb" json:"after_state"`
	Reason      string         `gorm:"column:reason;type:varchar(500)" json:"reason"`
	CreatedAt   int64          `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName 返回表名
func (AuditLog) TableName() string {
	return "vendor_audit_logs"
}
