package rules

import (
	"encoding/json"

	"github.com/procurelink/vendor-core/internal/model"
)

// 条件缺省值
const (
	DefaultWarningDays = 15 // document_expiry 预警窗口 (天)
	DefaultMinScore    = 50 // performance_threshold 最低分
)

// Decode 将规则条件解码为类型化检查器
// 未识别的规则类型落到 custom 检查器 (恒为 pass 的扩展点)
func Decode(rule *model.ComplianceRule) Checker {
	switch rule.RuleType {
	case model.RuleTypeDocumentRequired:
		return &documentRequiredChecker{rule: rule}
	case model.RuleTypeDocumentExpiry:
		return &documentExpiryChecker{
			rule:        rule,
			warningDays: intCondition(rule.Conditions, "warning_days", DefaultWarningDays),
		}
	case model.RuleTypePerformanceThreshold:
		return &performanceThresholdChecker{
			rule:     rule,
			minScore: intCondition(rule.Conditions, "min_score", DefaultMinScore),
		}
	default:
		return &customChecker{rule: rule}
	}
}

// DecodeAll 解码一组规则
func DecodeAll(ruleDefs []*model.ComplianceRule) []Checker {
	checkers := make([]Checker, 0, len(ruleDefs))
	for _, rule := range ruleDefs {
		checkers = append(checkers, Decode(rule))
	}
	return checkers
}

// intCondition 读取整型条件，缺失或畸形时回落到缺省值
func intCondition(conditions model.JSONMap, key string, defaultVal int) int {
	if conditions == nil {
		return defaultVal
	}
	raw, ok := conditions[key]
	if !ok {
		return defaultVal
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return defaultVal
}

// customChecker 自定义规则扩展点，默认恒为通过
type customChecker struct {
	rule *model.ComplianceRule
}

func (c *customChecker) Rule() *model.ComplianceRule { return c.rule }

func (c *customChecker) Evaluate(_ *VendorFacts) *Outcome {
	return NewPassOutcome()
}
