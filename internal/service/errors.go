// Package service 提供供应商治理的业务逻辑
package service

import (
	"errors"
	"fmt"
)

// ErrCommentRequired 拒绝/暂停/终止类操作必须附带说明
var ErrCommentRequired = errors.New("comment is required for this action")

// InvalidTransitionError 非法状态迁移
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// PreconditionError 前置条件不满足
// Condition 标识未满足的条件，供调用方呈现给操作员
type PreconditionError struct {
	Condition string
	Detail    string
}

func (e *PreconditionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("precondition not met: %s", e.Condition)
	}
	return fmt.Sprintf("precondition not met: %s (%s)", e.Condition, e.Detail)
}

// 前置条件标识
const (
	CondVendorActive        = "vendor_active"
	CondVendorCompliant     = "vendor_compliant"
	CondMandatoryDocuments  = "mandatory_documents_verified"
	CondComplianceThreshold = "compliance_score_threshold"
	CondNoOpenFlags         = "no_open_compliance_flags"
	CondNotComplianceBlock  = "payment_not_compliance_blocked"
)
