package rules

import (
	"fmt"

	"github.com/procurelink/vendor-core/internal/model"
)

// performanceThresholdChecker 绩效阈值检查
type performanceThresholdChecker struct {
	rule     *model.ComplianceRule
	minScore int
}

func (c *performanceThresholdChecker) Rule() *model.ComplianceRule { return c.rule }

func (c *performanceThresholdChecker) Evaluate(facts *VendorFacts) *Outcome {
	actual := facts.Vendor.PerformanceScore
	if actual < c.minScore {
		return NewFailOutcome(
			fmt.Sprintf("performance score %d below threshold %d", actual, c.minScore),
			model.JSONMap{
				"min_score":    c.minScore,
				"actual_score": actual,
			},
		)
	}
	return NewPassOutcome()
}
