package model

// ComplianceRuleType 合规规则类型
type ComplianceRuleType string

const (
	RuleTypeDocumentRequired     ComplianceRuleType = "document_required"     // 必备文档检查
	RuleTypeDocumentExpiry       ComplianceRuleType = "document_expiry"       // 文档有效期检查
	RuleTypePerformanceThreshold ComplianceRuleType = "performance_threshold" // 绩效阈值检查
	RuleTypeCustom               ComplianceRuleType = "custom"                // 自定义扩展点
)

// ComplianceRule 合规规则
// 历史评估结果引用规则后规则语义视为不可变，调整通过停用旧规则并新建规则完成
type ComplianceRule struct {
	ID               int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	Code             string             `gorm:"column:code;type:varchar(64);uniqueIndex;not null" json:"code"`
	Name             string             `gorm:"column:name;type:varchar(200);not null" json:"name"`
	RuleType         ComplianceRuleType `gorm:"column:rule_type;type:varchar(40);not null" json:"rule_type"`
	Conditions       JSONMap            `gorm:"column:conditions;type:jsonb" json:"conditions"`
	PenaltyPoints    int                `gorm:"column:penalty_points;type:int;not null;default:0" json:"penalty_points"`
	BlocksPayment    bool               `gorm:"column:blocks_payment;not null;default:false" json:"blocks_payment"`
	BlocksActivation bool               `gorm:"column:blocks_activation;not null;default:false" json:"blocks_activation"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedBy        string             `gorm:"column:created_by;type:varchar(64)" json:"created_by"`
	CreatedAt        int64              `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt        int64              `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName 返回表名
func (ComplianceRule) TableName() string {
	return "compliance_rules"
}

// IsBlocking 检查规则失败时是否阻断支付或激活
func (r *ComplianceRule) IsBlocking() bool {
	return r.BlocksPayment || r.BlocksActivation
}
