package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelink/vendor-core/internal/model"
)

func TestEvaluateVendor_NoRules_FullScore(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, model.ComplianceStatusCompliant, result.Status)
	assert.Zero(t, result.RulesEvaluated)

	// 结果落库到供应商
	updated, err := env.vendorRepo.GetByID(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.ComplianceScore)
	assert.Equal(t, model.ComplianceStatusCompliant, updated.ComplianceStatus)
}

func TestEvaluateVendor_PenaltiesSumAndClamp(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")

	// 文档缺失：两条非阻断规则分别扣 30 和 25 分
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 30, false, nil)
	createTestRule(t, env, "perf-min", model.RuleTypePerformanceThreshold, 25, false, model.JSONMap{"min_score": float64(60)})

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, 45, result.Score)
	assert.Equal(t, model.ComplianceStatusNonCompliant, result.Status)
	assert.Len(t, result.Failures, 2)
}

func TestEvaluateVendor_ScoreNeverNegative(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")

	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 80, false, nil)
	createTestRule(t, env, "perf-min", model.RuleTypePerformanceThreshold, 60, false, model.JSONMap{"min_score": float64(60)})

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, model.ComplianceStatusNonCompliant, result.Status)
}

func TestEvaluateVendor_BlockingFailureForcesBlocked(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")

	// 扣 5 分的阻断性规则：分数 95 本应 COMPLIANT，但阻断失败强制 BLOCKED
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 5, true, nil)

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, 95, result.Score)
	assert.Equal(t, model.ComplianceStatusBlocked, result.Status)
}

func TestEvaluateVendor_WarningDoesNotPenalize(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)

	soon := time.Now().UnixMilli() + 3*dayMillis
	createVerifiedDocument(t, env, vendor.ID, "TAX_CERT", &soon)
	createTestRule(t, env, "doc-expiry", model.RuleTypeDocumentExpiry, 20, false, model.JSONMap{"warning_days": float64(15)})

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, model.ComplianceStatusCompliant, result.Status)
	assert.Empty(t, result.Failures)

	// 警告结论照常落库
	results, err := env.complianceRepo.ListResultsByVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.ResultStatusWarning, results[0].Status)
	assert.Nil(t, results[0].ResolvedAt)
}

func TestEvaluateVendor_Idempotent(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 30, false, nil)

	first, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	second, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Status, second.Status)

	// 每个 (vendor, rule) 对只保留一条当前结果
	results, err := env.complianceRepo.ListResultsByVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEvaluateVendor_ResolvedAtOnlyOnPass(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 30, false, nil)

	_, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	results, err := env.complianceRepo.ListResultsByVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.ResultStatusFail, results[0].Status)
	assert.Nil(t, results[0].ResolvedAt)

	// 补齐文档后重评，同一行翻转为 pass 并带上 resolved_at
	createVerifiedDocument(t, env, vendor.ID, "TAX_CERT", nil)
	_, err = env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	results, err = env.complianceRepo.ListResultsByVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.ResultStatusPass, results[0].Status)
	assert.NotNil(t, results[0].ResolvedAt)
}

func TestRaiseFlag_ForcesBlockedRegardlessOfScore(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	require.Equal(t, model.ComplianceStatusCompliant, result.Status)

	flag, err := env.complianceSvc.RaiseFlag(ctx(), vendor.ID, model.FlagSeverityHigh, "fraud investigation", "auditor-1")
	require.NoError(t, err)
	assert.True(t, flag.IsOpen())

	// 标记立即生效
	updated, err := env.vendorRepo.GetByID(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplianceStatusBlocked, updated.ComplianceStatus)
	assert.Equal(t, 100, updated.ComplianceScore)

	// 满分重评也不能洗掉开放标记
	result, err = env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, model.ComplianceStatusBlocked, result.Status)
	assert.Equal(t, int64(1), result.OpenFlagCount)
}

func TestEvaluateVendor_MultipleOpenFlagsCounted(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")

	// 非阻断规则扣 5 分：分数 95 本应 COMPLIANT
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 5, false, nil)

	for _, reason := range []string{"late delivery", "invoice dispute", "quality complaint"} {
		_, err := env.complianceSvc.RaiseFlag(ctx(), vendor.ID, model.FlagSeverityMedium, reason, "auditor-1")
		require.NoError(t, err)
	}

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, 95, result.Score)
	assert.Equal(t, model.ComplianceStatusBlocked, result.Status)
	assert.Equal(t, int64(3), result.OpenFlagCount)
}

func TestRaiseFlag_ReasonRequired(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)

	_, err := env.complianceSvc.RaiseFlag(ctx(), vendor.ID, model.FlagSeverityLow, "", "auditor-1")
	assert.ErrorIs(t, err, ErrCommentRequired)
}

func TestResolveFlag_StatusRestoredByNextEvaluation(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)

	flag, err := env.complianceSvc.RaiseFlag(ctx(), vendor.ID, model.FlagSeverityMedium, "late deliveries", "auditor-1")
	require.NoError(t, err)

	require.NoError(t, env.complianceSvc.ResolveFlag(ctx(), flag.ID, vendor.ID, "auditor-2"))

	// 解决标记不直接回退状态
	updated, err := env.vendorRepo.GetByID(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplianceStatusBlocked, updated.ComplianceStatus)

	// 下一次评估重新推导
	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplianceStatusCompliant, result.Status)
	assert.Zero(t, result.OpenFlagCount)
}

func TestEvaluateAllVendors_OnlyGovernedStatuses(t *testing.T) {
	env := setupTestEnv(t)
	active := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	suspended := createTestVendor(t, env, model.VendorStatusSuspended, model.ComplianceStatusPending, 0)
	createTestVendor(t, env, model.VendorStatusDraft, model.ComplianceStatusPending, 0)
	createTestVendor(t, env, model.VendorStatusTerminated, model.ComplianceStatusPending, 0)

	batch, err := env.complianceSvc.EvaluateAllVendors(ctx())
	require.NoError(t, err)

	assert.Len(t, batch.Results, 2)
	assert.Empty(t, batch.Errors)
	assert.Contains(t, batch.Results, active.ID)
	assert.Contains(t, batch.Results, suspended.ID)
}

func TestGetVendorCompliance(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 30, false, nil)

	_, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	_, err = env.complianceSvc.RaiseFlag(ctx(), vendor.ID, model.FlagSeverityLow, "manual review", "auditor-1")
	require.NoError(t, err)

	summary, err := env.complianceSvc.GetVendorCompliance(ctx(), vendor.ID)
	require.NoError(t, err)

	assert.Equal(t, vendor.ID, summary.Vendor.ID)
	assert.Len(t, summary.Results, 1)
	assert.Len(t, summary.OpenFlags, 1)
}

func TestComplianceAlert_DeliveredOnBlocked(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 5, true, nil)

	var alerts []*ComplianceAlert
	env.complianceSvc.SetOnComplianceAlert(func(_ context.Context, alert *ComplianceAlert) error {
		alerts = append(alerts, alert)
		return nil
	})

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	require.Equal(t, model.ComplianceStatusBlocked, result.Status)

	require.Len(t, alerts, 1)
	assert.Equal(t, vendor.ID, alerts[0].VendorID)
	assert.Equal(t, model.ComplianceStatusBlocked, alerts[0].Status)
	assert.Equal(t, 95, alerts[0].Score)
}

func TestComplianceAlert_NotDeliveredWhenCompliant(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)

	delivered := 0
	env.complianceSvc.SetOnComplianceAlert(func(_ context.Context, _ *ComplianceAlert) error {
		delivered++
		return nil
	})

	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	require.Equal(t, model.ComplianceStatusCompliant, result.Status)
	assert.Zero(t, delivered)
}

func TestComplianceAlert_DeliveryFailureDoesNotFailEvaluation(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)
	createMandatoryDocType(t, env, "TAX_CERT", "Tax Certificate")
	createTestRule(t, env, "doc-required", model.RuleTypeDocumentRequired, 5, true, nil)

	env.complianceSvc.SetOnComplianceAlert(func(_ context.Context, _ *ComplianceAlert) error {
		return errors.New("broker unavailable")
	})

	// 告警投递失败不影响已提交的评估结果
	result, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplianceStatusBlocked, result.Status)

	updated, err := env.vendorRepo.GetByID(ctx(), vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ComplianceStatusBlocked, updated.ComplianceStatus)
}

func TestEvaluateVendor_AuditTrail(t *testing.T) {
	env := setupTestEnv(t)
	vendor := createTestVendor(t, env, model.VendorStatusActive, model.ComplianceStatusPending, 0)

	_, err := env.complianceSvc.EvaluateVendor(ctx(), vendor.ID)
	require.NoError(t, err)

	entries, err := env.audit.ListBySubject(ctx(), SubjectVendor, vendor.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, model.AuditEventComplianceEvaluated, entries[0].EventKind)
}
