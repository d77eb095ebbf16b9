package rules

import (
	"fmt"
	"strings"

	"github.com/procurelink/vendor-core/internal/model"
)

const dayMillis = 24 * 60 * 60 * 1000

// documentExpiryChecker 文档有效期检查
// 当前文档中已过期的记为失败，warning_days 内到期的记为警告，失败优先
type documentExpiryChecker struct {
	rule        *model.ComplianceRule
	warningDays int
}

func (c *documentExpiryChecker) Rule() *model.ComplianceRule { return c.rule }

func (c *documentExpiryChecker) Evaluate(facts *VendorFacts) *Outcome {
	warningWindow := facts.NowMilli + int64(c.warningDays)*dayMillis

	var expired, expiring []string
	for _, doc := range facts.CurrentDocuments {
		if doc.ExpiresAt == nil {
			continue
		}
		switch {
		case *doc.ExpiresAt < facts.NowMilli:
			expired = append(expired, doc.TypeCode)
		case *doc.ExpiresAt <= warningWindow:
			expiring = append(expiring, doc.TypeCode)
		}
	}

	if len(expired) > 0 {
		return NewFailOutcome(
			fmt.Sprintf("expired documents: %s", strings.Join(expired, ", ")),
			model.JSONMap{
				"expired_types":  expired,
				"expiring_types": expiring,
			},
		)
	}
	if len(expiring) > 0 {
		return NewWarningOutcome(
			fmt.Sprintf("documents expiring within %d days: %s", c.warningDays, strings.Join(expiring, ", ")),
			model.JSONMap{
				"expiring_types": expiring,
				"warning_days":   c.warningDays,
			},
		)
	}
	return NewPassOutcome()
}
