package rules

import (
	"fmt"
	"strings"

	"github.com/procurelink/vendor-core/internal/model"
)

// documentRequiredChecker 必备文档检查
// 全局必备文档类型减去供应商当前已验证文档，存在缺口即失败
type documentRequiredChecker struct {
	rule *model.ComplianceRule
}

func (c *documentRequiredChecker) Rule() *model.ComplianceRule { return c.rule }

func (c *documentRequiredChecker) Evaluate(facts *VendorFacts) *Outcome {
	verified := make(map[string]bool, len(facts.CurrentDocuments))
	for _, doc := range facts.CurrentDocuments {
		if doc.IsVerified() {
			verified[doc.TypeCode] = true
		}
	}

	var missing []string
	for _, docType := range facts.MandatoryDocTypes {
		if !verified[docType.Code] {
			missing = append(missing, docType.Name)
		}
	}

	if len(missing) > 0 {
		return NewFailOutcome(
			fmt.Sprintf("missing verified documents: %s", strings.Join(missing, ", ")),
			model.JSONMap{"missing_types": missing},
		)
	}
	return NewPassOutcome()
}
