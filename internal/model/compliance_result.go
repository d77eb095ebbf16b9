package model

// ComplianceResultStatus 单条规则评估结果状态
type ComplianceResultStatus string

const (
	ResultStatusPass    ComplianceResultStatus = "pass"
	ResultStatusFail    ComplianceResultStatus = "fail"
	ResultStatusWarning ComplianceResultStatus = "warning"
)

// ComplianceResult 规则评估结果
// 每个 (vendor, rule) 对只保留一条当前结果，评估周期内按自然键 upsert
type ComplianceResult struct {
	ID          int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID    int64                  `gorm:"column:vendor_id;uniqueIndex:uk_vendor_rule;not null" json:"vendor_id"`
	RuleID      int64                  `gorm:"column:rule_id;uniqueIndex:uk_vendor_rule;not null" json:"rule_id"`
	Status      ComplianceResultStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Details     string                 `gorm:"column:details;type:varchar(1000)" json:"details"`
	Metadata    JSONMap                `gorm:"column:metadata;type:jsonb" json:"metadata"`
	EvaluatedAt int64                  `gorm:"column:evaluated_at;not null" json:"evaluated_at"`
	ResolvedAt  *int64                 `gorm:"column:resolved_at" json:"resolved_at"` // 仅在 status=pass 时填充
}

// TableName 返回表名
func (ComplianceResult) TableName() string {
	return "compliance_results"
}

// IsFail 检查是否失败
func (r *ComplianceResult) IsFail() bool {
	return r.Status == ResultStatusFail
}

// ComplianceFlagStatus 合规标记状态
type ComplianceFlagStatus string

const (
	FlagStatusOpen     ComplianceFlagStatus = "open"
	FlagStatusResolved ComplianceFlagStatus = "resolved"
)

// ComplianceFlagSeverity 合规标记严重程度
type ComplianceFlagSeverity string

const (
	FlagSeverityLow      ComplianceFlagSeverity = "low"
	FlagSeverityMedium   ComplianceFlagSeverity = "medium"
	FlagSeverityHigh     ComplianceFlagSeverity = "high"
	FlagSeverityCritical ComplianceFlagSeverity = "critical"
)

// ComplianceFlag 人工合规标记
// 任何 open 状态的标记都会强制供应商合规状态为 BLOCKED，与分数无关
type ComplianceFlag struct {
	ID         int64                  `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID   int64                  `gorm:"column:vendor_id;index;not null" json:"vendor_id"`
	Severity   ComplianceFlagSeverity `gorm:"column:severity;type:varchar(20);not null" json:"severity"`
	Status     ComplianceFlagStatus   `gorm:"column:status;type:varchar(20);index;not null;default:'open'" json:"status"`
	Reason     string                 `gorm:"column:reason;type:varchar(500);not null" json:"reason"`
	FlaggedBy  string                 `gorm:"column:flagged_by;type:varchar(64)" json:"flagged_by"`
	FlaggedAt  int64                  `gorm:"column:flagged_at;not null" json:"flagged_at"`
	ResolvedBy string                 `gorm:"column:resolved_by;type:varchar(64)" json:"resolved_by"`
	ResolvedAt *int64                 `gorm:"column:resolved_at" json:"resolved_at"`
}

// TableName 返回表名
func (ComplianceFlag) TableName() string {
	return "compliance_flags"
}

// IsOpen 检查是否未解决
func (f *ComplianceFlag) IsOpen() bool {
	return f.Status == FlagStatusOpen
}
