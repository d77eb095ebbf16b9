// Package model 定义供应商治理服务的数据模型
package model

// VendorStatus 供应商生命周期状态
type VendorStatus string

const (
	VendorStatusDraft       VendorStatus = "draft"        // 草稿
	VendorStatusSubmitted   VendorStatus = "submitted"    // 已提交
	VendorStatusUnderReview VendorStatus = "under_review" // 审核中
	VendorStatusApproved    VendorStatus = "approved"     // 已批准
	VendorStatusActive      VendorStatus = "active"       // 已激活
	VendorStatusSuspended   VendorStatus = "suspended"    // 已暂停
	VendorStatusRejected    VendorStatus = "rejected"     // 已拒绝 (终态)
	VendorStatusTerminated  VendorStatus = "terminated"   // 已终止 (终态)
)

// IsTerminal 检查是否为终态
func (s VendorStatus) IsTerminal() bool {
	return s == VendorStatusRejected || s == VendorStatusTerminated
}

// ComplianceStatus 合规状态
type ComplianceStatus string

const (
	ComplianceStatusPending      ComplianceStatus = "PENDING"       // 尚未评估
	ComplianceStatusCompliant    ComplianceStatus = "COMPLIANT"     // 合规 (score >= 80)
	ComplianceStatusAtRisk       ComplianceStatus = "AT_RISK"       // 存在风险 (score >= 50)
	ComplianceStatusNonCompliant ComplianceStatus = "NON_COMPLIANT" // 不合规
	ComplianceStatusBlocked      ComplianceStatus = "BLOCKED"       // 已冻结 (开放标记或阻断性失败)
)

// Vendor 供应商
type Vendor struct {
	ID               int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorNo         string           `gorm:"column:vendor_no;type:varchar(64);uniqueIndex;not null" json:"vendor_no"`
	Name             string           `gorm:"column:name;type:varchar(200);not null" json:"name"`
	ContactEmail     string           `gorm:"column:contact_email;type:varchar(200)" json:"contact_email"`
	Status           VendorStatus     `gorm:"column:status;type:varchar(20);index;not null;default:'draft'" json:"status"`
	ComplianceStatus ComplianceStatus `gorm:"column:compliance_status;type:varchar(20);not null;default:'PENDING'" json:"compliance_status"`
	ComplianceScore  int              `gorm:"column:compliance_score;type:int;not null;default:0" json:"compliance_score"` // 0-100
	PerformanceScore int              `gorm:"column:performance_score;type:int;not null;default:0" json:"performance_score"` // 0-100
	CreatedAt        int64            `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt        int64            `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName 返回表名
func (Vendor) TableName() string {
	return "vendors"
}

// IsActive 检查是否已激活
func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}

// IsCompliant 检查当前是否合规
func (v *Vendor) IsCompliant() bool {
	return v.ComplianceStatus == ComplianceStatusCompliant
}
