// Package rules 定义合规规则检查器
package rules

import (
	"github.com/procurelink/vendor-core/internal/model"
)

// Outcome 单条规则的评估结论
type Outcome struct {
	Status   model.ComplianceResultStatus
	Details  string
	Metadata model.JSONMap
}

// NewPassOutcome 创建通过结论
func NewPassOutcome() *Outcome {
	return &Outcome{Status: model.ResultStatusPass}
}

// NewFailOutcome 创建失败结论
func NewFailOutcome(details string, metadata model.JSONMap) *Outcome {
	return &Outcome{
		Status:   model.ResultStatusFail,
		Details:  details,
		Metadata: metadata,
	}
}

// NewWarningOutcome 创建警告结论
func NewWarningOutcome(details string, metadata model.JSONMap) *Outcome {
	return &Outcome{
		Status:   model.ResultStatusWarning,
		Details:  details,
		Metadata: metadata,
	}
}

// IsFail 检查是否失败
func (o *Outcome) IsFail() bool {
	return o.Status == model.ResultStatusFail
}

// VendorFacts 评估一个供应商所需的全部事实
// 评估开始前一次性读出，保证单次评估是确定性的纯计算
type VendorFacts struct {
	Vendor            *model.Vendor
	MandatoryDocTypes []*model.DocumentType
	CurrentDocuments  []*model.VendorDocument
	NowMilli          int64
}

// Checker 规则检查器
// 每个检查器在规则目录加载时从规则条件解码一次，评估阶段不再解析条件
type Checker interface {
	// Rule 返回检查器对应的规则定义
	Rule() *model.ComplianceRule
	// Evaluate 对一个供应商求值
	Evaluate(facts *VendorFacts) *Outcome
}
