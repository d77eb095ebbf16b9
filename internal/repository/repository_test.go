package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/procurelink/vendor-core/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Vendor{},
		&model.ComplianceResult{},
		&model.ComplianceFlag{},
		&model.PaymentRequest{},
		&model.PaymentApproval{},
		&model.PerformanceScore{},
		&model.AuditLog{},
		&model.JobExecution{},
	)
	require.NoError(t, err)

	return db
}

func createVendor(t *testing.T, repo *VendorRepository, no string) *model.Vendor {
	vendor := &model.Vendor{
		VendorNo: no,
		Name:     "Test Vendor",
		Status:   model.VendorStatusDraft,
	}
	require.NoError(t, repo.Create(context.Background(), vendor))
	return vendor
}

func TestVendorRepository_UpdateStatus_StaleDetection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVendorRepository(NewRepository(db))
	ctx := context.Background()

	vendor := createVendor(t, repo, "V-001")

	require.NoError(t, repo.UpdateStatus(ctx, vendor.ID, model.VendorStatusDraft, model.VendorStatusSubmitted))

	// 基于过期的 from 状态更新失败关闭
	err := repo.UpdateStatus(ctx, vendor.ID, model.VendorStatusDraft, model.VendorStatusSubmitted)
	assert.ErrorIs(t, err, ErrStaleVendor)

	updated, err := repo.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VendorStatusSubmitted, updated.Status)
}

func TestVendorRepository_DuplicateVendorNo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVendorRepository(NewRepository(db))

	createVendor(t, repo, "V-001")
	err := repo.Create(context.Background(), &model.Vendor{VendorNo: "V-001", Name: "Other"})
	assert.ErrorIs(t, err, ErrVendorDuplicate)
}

func TestComplianceRepository_UpsertResult(t *testing.T) {
	db := setupTestDB(t)
	repo := NewComplianceRepository(NewRepository(db))
	ctx := context.Background()

	now := time.Now().UnixMilli()
	require.NoError(t, repo.UpsertResult(ctx, &model.ComplianceResult{
		VendorID: 1, RuleID: 10,
		Status: model.ResultStatusFail, Details: "missing docs", EvaluatedAt: now,
	}))

	// 同一自然键再次写入覆盖而非新增
	later := now + 1000
	require.NoError(t, repo.UpsertResult(ctx, &model.ComplianceResult{
		VendorID: 1, RuleID: 10,
		Status: model.ResultStatusPass, EvaluatedAt: later, ResolvedAt: &later,
	}))

	results, err := repo.ListResultsByVendor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.ResultStatusPass, results[0].Status)
	assert.Equal(t, later, results[0].EvaluatedAt)
	require.NotNil(t, results[0].ResolvedAt)
}

func TestComplianceRepository_ResolveFlag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewComplianceRepository(NewRepository(db))
	ctx := context.Background()

	flag := &model.ComplianceFlag{VendorID: 1, Severity: model.FlagSeverityHigh, Reason: "audit"}
	require.NoError(t, repo.CreateFlag(ctx, flag))

	count, err := repo.CountOpenFlags(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.ResolveFlag(ctx, flag.ID, "auditor-1"))

	// 重复解决与不存在的标记分别报错
	assert.ErrorIs(t, repo.ResolveFlag(ctx, flag.ID, "auditor-2"), ErrFlagAlreadyResolved)
	assert.ErrorIs(t, repo.ResolveFlag(ctx, 999, "auditor-2"), ErrFlagNotFound)

	count, err = repo.CountOpenFlags(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPaymentRepository_ApprovalLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(NewRepository(db))
	ctx := context.Background()

	req := &model.PaymentRequest{
		RequestNo: "req-1", VendorID: 1,
		Amount: decimal.NewFromInt(100), Currency: "USD",
		Status: model.PaymentStatusRequested,
	}
	require.NoError(t, repo.CreateRequest(ctx, req))

	require.NoError(t, repo.CreateApproval(ctx, &model.PaymentApproval{
		PaymentRequestID: req.ID, Stage: model.StageOpsValidation,
	}))

	// 同一 (request, stage) 不允许第二条审批记录
	err := repo.CreateApproval(ctx, &model.PaymentApproval{
		PaymentRequestID: req.ID, Stage: model.StageOpsValidation,
	})
	assert.ErrorIs(t, err, ErrApprovalConflict)

	require.NoError(t, repo.ResolveApproval(ctx, req.ID, model.StageOpsValidation, model.ApprovalActionApproved, "ops-1", "ok"))

	// 审批记录只能被解决一次
	err = repo.ResolveApproval(ctx, req.ID, model.StageOpsValidation, model.ApprovalActionRejected, "ops-2", "no")
	assert.ErrorIs(t, err, ErrApprovalConflict)

	approval, err := repo.GetApproval(ctx, req.ID, model.StageOpsValidation)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalActionApproved, approval.Action)
	assert.Equal(t, "ops-1", approval.UserID)
}

func TestPaymentRepository_UpdateRequestStatus_Stale(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(NewRepository(db))
	ctx := context.Background()

	req := &model.PaymentRequest{
		RequestNo: "req-1", VendorID: 1,
		Amount: decimal.NewFromInt(100), Currency: "USD",
		Status: model.PaymentStatusRequested,
	}
	require.NoError(t, repo.CreateRequest(ctx, req))

	require.NoError(t, repo.UpdateRequestStatus(ctx, req.ID,
		model.PaymentStatusRequested, model.PaymentStatusPendingFinance, nil))

	err := repo.UpdateRequestStatus(ctx, req.ID,
		model.PaymentStatusRequested, model.PaymentStatusRejected,
		map[string]interface{}{"rejection_reason": "late"})
	assert.ErrorIs(t, err, ErrStalePayment)
}

func TestPerformanceRepository_LatestScore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPerformanceRepository(NewRepository(db))
	ctx := context.Background()

	latest, err := repo.LatestScore(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)

	now := time.Now().UnixMilli()
	require.NoError(t, repo.CreateScore(ctx, &model.PerformanceScore{
		VendorID: 1, MetricID: 1, Score: decimal.NewFromInt(5),
		PeriodStart: now - 2000, PeriodEnd: now - 1000,
	}))
	require.NoError(t, repo.CreateScore(ctx, &model.PerformanceScore{
		VendorID: 1, MetricID: 1, Score: decimal.NewFromInt(8),
		PeriodStart: now - 1000, PeriodEnd: now,
	}))
	// 相同 period_end 时较晚写入的记录胜出
	require.NoError(t, repo.CreateScore(ctx, &model.PerformanceScore{
		VendorID: 1, MetricID: 1, Score: decimal.NewFromInt(9),
		PeriodStart: now - 1000, PeriodEnd: now,
	}))

	latest, err = repo.LatestScore(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Score.Equal(decimal.NewFromInt(9)))
}

func TestRepository_TransactionRollback(t *testing.T) {
	db := setupTestDB(t)
	base := NewRepository(db)
	vendorRepo := NewVendorRepository(base)
	auditRepo := NewAuditLogRepository(base)
	ctx := context.Background()

	vendor := createVendor(t, vendorRepo, "V-001")

	boom := errors.New("boom")
	err := base.Transaction(ctx, func(ctx context.Context) error {
		if err := vendorRepo.UpdateStatus(ctx, vendor.ID, model.VendorStatusDraft, model.VendorStatusSubmitted); err != nil {
			return err
		}
		if err := auditRepo.Append(ctx, &model.AuditLog{
			EventKind: model.AuditEventVendorTransition,
			SubjectType: "vendor", SubjectID: vendor.ID,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// 事务内的所有写入一并回滚
	updated, err := vendorRepo.GetByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VendorStatusDraft, updated.Status)

	entries, err := auditRepo.ListBySubject(ctx, "vendor", vendor.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecutionRepository_Latest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExecutionRepository(NewRepository(db))
	ctx := context.Background()

	latest, err := repo.GetLatestByJobName(ctx, "compliance-scan")
	require.NoError(t, err)
	assert.Nil(t, latest)

	now := time.Now().UnixMilli()
	require.NoError(t, repo.Create(ctx, &model.JobExecution{
		JobName: "compliance-scan", Status: model.JobStatusSuccess, StartedAt: now - 1000,
	}))
	require.NoError(t, repo.Create(ctx, &model.JobExecution{
		JobName: "compliance-scan", Status: model.JobStatusRunning, StartedAt: now,
	}))

	latest, err = repo.GetLatestByJobName(ctx, "compliance-scan")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, model.JobStatusRunning, latest.Status)
}
