package model

// DocumentStatus 文档验证状态
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"  // 待验证
	DocumentStatusVerified DocumentStatus = "verified" // 已验证
	DocumentStatusRejected DocumentStatus = "rejected" // 已拒绝
)

// DocumentType 文档类型定义
type DocumentType struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string `gorm:"column:code;type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	IsMandatory bool   `gorm:"column:is_mandatory;not null;default:false" json:"is_mandatory"`
	IsActive    bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   int64  `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName 返回表名
func (DocumentType) TableName() string {
	return "vendor_document_types"
}

// VendorDocument 供应商文档
type VendorDocument struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID  int64          `gorm:"column:vendor_id;index;not null" json:"vendor_id"`
	TypeCode  string         `gorm:"column:type_code;type:varchar(50);index;not null" json:"type_code"`
	Status    DocumentStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	IsCurrent bool           `gorm:"column:is_current;not null;default:true" json:"is_current"`
	ExpiresAt *int64         `gorm:"column:expires_at" json:"expires_at"` // nil 表示无有效期
	CreatedAt int64          `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt int64          `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName 返回表名
func (VendorDocument) TableName() string {
	return "vendor_documents"
}

// IsVerified 检查是否已验证
func (d *VendorDocument) IsVerified() bool {
	return d.Status == DocumentStatusVerified
}

// IsExpiredAt 检查在指定时间点是否已过期
func (d *VendorDocument) IsExpiredAt(nowMilli int64) bool {
	return d.ExpiresAt != nil && *d.ExpiresAt < nowMilli
}
