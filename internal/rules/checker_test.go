package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelink/vendor-core/internal/model"
)

func int64Ptr(v int64) *int64 { return &v }

func testFacts() *VendorFacts {
	return &VendorFacts{
		Vendor: &model.Vendor{
			ID:               1,
			Status:           model.VendorStatusActive,
			PerformanceScore: 75,
		},
		NowMilli: 1_700_000_000_000,
	}
}

func TestDocumentRequired_AllVerified(t *testing.T) {
	facts := testFacts()
	facts.MandatoryDocTypes = []*model.DocumentType{
		{Code: "TAX_CERT", Name: "Tax Certificate", IsMandatory: true},
		{Code: "INSURANCE", Name: "Insurance Certificate", IsMandatory: true},
	}
	facts.CurrentDocuments = []*model.VendorDocument{
		{TypeCode: "TAX_CERT", Status: model.DocumentStatusVerified},
		{TypeCode: "INSURANCE", Status: model.DocumentStatusVerified},
	}

	checker := Decode(&model.ComplianceRule{RuleType: model.RuleTypeDocumentRequired})
	outcome := checker.Evaluate(facts)

	assert.Equal(t, model.ResultStatusPass, outcome.Status)
}

func TestDocumentRequired_MissingAndUnverified(t *testing.T) {
	facts := testFacts()
	facts.MandatoryDocTypes = []*model.DocumentType{
		{Code: "TAX_CERT", Name: "Tax Certificate", IsMandatory: true},
		{Code: "INSURANCE", Name: "Insurance Certificate", IsMandatory: true},
	}
	// TAX_CERT 仅上传未验证，INSURANCE 完全缺失
	facts.CurrentDocuments = []*model.VendorDocument{
		{TypeCode: "TAX_CERT", Status: model.DocumentStatusPending},
	}

	checker := Decode(&model.ComplianceRule{RuleType: model.RuleTypeDocumentRequired})
	outcome := checker.Evaluate(facts)

	assert.Equal(t, model.ResultStatusFail, outcome.Status)
	assert.Contains(t, outcome.Details, "Tax Certificate")
	assert.Contains(t, outcome.Details, "Insurance Certificate")
}

func TestDocumentExpiry_Pass(t *testing.T) {
	facts := testFacts()
	facts.CurrentDocuments = []*model.VendorDocument{
		{TypeCode: "TAX_CERT", Status: model.DocumentStatusVerified, ExpiresAt: int64Ptr(facts.NowMilli + 100*dayMillis)},
		{TypeCode: "LICENSE", Status: model.DocumentStatusVerified}, // 无有效期
	}

	checker := Decode(&model.ComplianceRule{RuleType: model.RuleTypeDocumentExpiry})
	outcome := checker.Evaluate(facts)

	assert.Equal(t, model.ResultStatusPass, outcome.Status)
}

func TestDocumentExpiry_ExpiringSoonIsWarning(t *testing.T) {
	facts := testFacts()
	facts.CurrentDocuments = []*model.VendorDocument{
		{TypeCode: "TAX_CERT", Status: model.DocumentStatusVerified, ExpiresAt: int64Ptr(facts.NowMilli + 5*dayMillis)},
	}

	checker := Decode(&model.ComplianceRule{
		RuleType:   model.RuleTypeDocumentExpiry,
		Conditions: model.JSONMap{"warning_days": float64(10)},
	})
	outcome := checker.Evaluate(facts)

	assert.Equal(t, model.ResultStatusWarning, outcome.Status)
	assert.Contains(t, outcome.Details, "TAX_CERT")
}

func TestDocumentExpiry_ExpiredBeatsExpiring(t *testing.T) {
	facts := testFacts()
	facts.CurrentDocuments = []*model.VendorDocument{
		{TypeCode: "TAX_CERT", Status: model.DocumentStatusVerified, ExpiresAt: int64Ptr(facts.NowMilli - dayMillis)},
		{TypeCode: "INSURANCE", Status: model.DocumentStatusVerified, ExpiresAt: int64Ptr(facts.NowMilli + 3*dayMillis)},
	}

	checker := Decode(&model.ComplianceRule{RuleType: model.RuleTypeDocumentExpiry})
	outcome := checker.Evaluate(facts)

	// 存在已过期文档时整条规则为失败，即使另有即将到期的文档
	assert.Equal(t, model.ResultStatusFail, outcome.Status)
	assert.Contains(t, outcome.Details, "TAX_CERT")
}

func TestPerformanceThreshold(t *testing.T) {
	facts := testFacts()
	facts.Vendor.PerformanceScore = 40

	checker := Decode(&model.ComplianceRule{
		RuleType:   model.RuleTypePerformanceThreshold,
		Conditions: model.JSONMap{"min_score": float64(60)},
	})
	outcome := checker.Evaluate(facts)
	assert.Equal(t, model.ResultStatusFail, outcome.Status)

	facts.Vendor.PerformanceScore = 60
	outcome = checker.Evaluate(facts)
	assert.Equal(t, model.ResultStatusPass, outcome.Status)
}

func TestDecode_MalformedConditionsFallBackToDefaults(t *testing.T) {
	checker := Decode(&model.ComplianceRule{
		RuleType:   model.RuleTypePerformanceThreshold,
		Conditions: model.JSONMap{"min_score": "not a number"},
	})

	facts := testFacts()
	facts.Vendor.PerformanceScore = DefaultMinScore
	assert.Equal(t, model.ResultStatusPass, checker.Evaluate(facts).Status)

	facts.Vendor.PerformanceScore = DefaultMinScore - 1
	assert.Equal(t, model.ResultStatusFail, checker.Evaluate(facts).Status)
}

func TestDecode_UnknownTypeAlwaysPasses(t *testing.T) {
	checker := Decode(&model.ComplianceRule{RuleType: model.RuleTypeCustom})
	assert.Equal(t, model.ResultStatusPass, checker.Evaluate(testFacts()).Status)
}

func TestDecodeAll(t *testing.T) {
	checkers := DecodeAll([]*model.ComplianceRule{
		{ID: 1, RuleType: model.RuleTypeDocumentRequired},
		{ID: 2, RuleType: model.RuleTypeDocumentExpiry},
		{ID: 3, RuleType: model.RuleTypePerformanceThreshold},
	})
	require.Len(t, checkers, 3)
	for i, checker := range checkers {
		assert.Equal(t, int64(i+1), checker.Rule().ID)
	}
}
