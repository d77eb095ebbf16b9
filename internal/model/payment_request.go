package model

import "github.com/shopspring/decimal"

// PaymentRequestStatus 付款申请状态
type PaymentRequestStatus string

const (
	PaymentStatusRequested      PaymentRequestStatus = "requested"       // 已创建，运营校验待处理
	PaymentStatusPendingFinance PaymentRequestStatus = "pending_finance" // 财务审批待处理
	PaymentStatusApproved       PaymentRequestStatus = "approved"        // 已批准，待支付
	PaymentStatusPaid           PaymentRequestStatus = "paid"            // 已支付 (终态)
	PaymentStatusRejected       PaymentRequestStatus = "rejected"        // 已拒绝 (终态)
	PaymentStatusCancelled      PaymentRequestStatus = "cancelled"       // 已取消 (终态)
)

// IsTerminal 检查是否为终态
func (s PaymentRequestStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusRejected || s == PaymentStatusCancelled
}

// PaymentRequest 付款申请
type PaymentRequest struct {
	ID                  int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestNo           string               `gorm:"column:request_no;type:varchar(64);uniqueIndex;not null" json:"request_no"`
	VendorID            int64                `gorm:"column:vendor_id;index;not null" json:"vendor_id"`
	Amount              decimal.Decimal      `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	Currency            string               `gorm:"column:currency;type:varchar(10);not null;default:'USD'" json:"currency"`
	Description         string               `gorm:"column:description;type:varchar(500)" json:"description"`
	InvoiceNumber       string               `gorm:"column:invoice_number;type:varchar(100);index" json:"invoice_number"`
	DueDate             *int64               `gorm:"column:due_date" json:"due_date"`
	Status              PaymentRequestStatus `gorm:"column:status;type:varchar(20);index;not null;default:'requested'" json:"status"`
	IsComplianceBlocked bool                 `gorm:"column:is_compliance_blocked;not null;default:false" json:"is_compliance_blocked"` // 创建时快照
	IsDuplicateFlagged  bool                 `gorm:"column:is_duplicate_flagged;not null;default:false" json:"is_duplicate_flagged"`
	RejectionReason     string               `gorm:"column:rejection_reason;type:varchar(500)" json:"rejection_reason"`
	PaymentReference    string               `gorm:"column:payment_reference;type:varchar(100)" json:"payment_reference"`
	PaymentMethod       string               `gorm:"column:payment_method;type:varchar(50)" json:"payment_method"`
	PaidAt              *int64               `gorm:"column:paid_at" json:"paid_at"`
	CreatedAt           int64                `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt           int64                `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName 返回表名
func (PaymentRequest) TableName() string {
	return "payment_requests"
}

// ApprovalStage 审批阶段
type ApprovalStage string

const (
	StageOpsValidation   ApprovalStage = "ops_validation"   // 运营校验
	StageFinanceApproval ApprovalStage = "finance_approval" // 财务审批
)

// ApprovalAction 审批动作
type ApprovalAction string

const (
	ApprovalActionPending  ApprovalAction = "pending"
	ApprovalActionApproved ApprovalAction = "approved"
	ApprovalActionRejected ApprovalAction = "rejected"
)

// PaymentApproval 付款审批记录
// 每个 (request, stage) 对只有一条权威记录，先以 pending 创建再被解决一次
type PaymentApproval struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentRequestID int64          `gorm:"column:payment_request_id;uniqueIndex:uk_request_stage;not null" json:"payment_request_id"`
	Stage            ApprovalStage  `gorm:"column:stage;type:varchar(30);uniqueIndex:uk_request_stage;not null" json:"stage"`
	Action           ApprovalAction `gorm:"column:action;type:varchar(20);not null;default:'pending'" json:"action"`
	UserID           string         `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	Comment          string         `gorm:"column:comment;type:varchar(500)" json:"comment"`
	ResolvedAt       *int64         `gorm:"column:resolved_at" json:"resolved_at"`
	CreatedAt        int64          `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName 返回表名
func (PaymentApproval) TableName() string {
	return "payment_approvals"
}

// IsPending 检查是否待处理
func (a *PaymentApproval) IsPending() bool {
	return a.Action == ApprovalActionPending
}
