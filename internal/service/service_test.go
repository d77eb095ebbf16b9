package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/procurelink/vendor-core/internal/config"
	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/repository"
)

// testEnv 服务层测试环境，全部仓储与服务在同一个内存库上组装
type testEnv struct {
	db             *gorm.DB
	vendorRepo     *repository.VendorRepository
	docRepo        *repository.DocumentRepository
	ruleRepo       *repository.RuleRepository
	complianceRepo *repository.ComplianceRepository
	paymentRepo    *repository.PaymentRepository
	perfRepo       *repository.PerformanceRepository
	auditRepo      *repository.AuditLogRepository

	audit          *AuditRecorder
	complianceSvc  *ComplianceService
	lifecycleSvc   *LifecycleService
	paymentSvc     *PaymentService
	performanceSvc *PerformanceService
}

func setupTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Vendor{},
		&model.DocumentType{},
		&model.VendorDocument{},
		&model.ComplianceRule{},
		&model.ComplianceResult{},
		&model.ComplianceFlag{},
		&model.PaymentRequest{},
		&model.PaymentApproval{},
		&model.PerformanceMetric{},
		&model.PerformanceScore{},
		&model.ScoreHistory{},
		&model.AuditLog{},
	)
	require.NoError(t, err)

	base := repository.NewRepository(db)
	env := &testEnv{
		db:             db,
		vendorRepo:     repository.NewVendorRepository(base),
		docRepo:        repository.NewDocumentRepository(base),
		ruleRepo:       repository.NewRuleRepository(base),
		complianceRepo: repository.NewComplianceRepository(base),
		paymentRepo:    repository.NewPaymentRepository(base),
		perfRepo:       repository.NewPerformanceRepository(base),
		auditRepo:      repository.NewAuditLogRepository(base),
	}

	cfg := &config.GovernanceConfig{
		CompliantThreshold:  80,
		AtRiskThreshold:     50,
		ActivationThreshold: 80,
		DuplicateWindowDays: 30,
	}

	env.audit = NewAuditRecorder(env.auditRepo)
	env.complianceSvc = NewComplianceService(env.vendorRepo, env.ruleRepo, env.complianceRepo, env.docRepo, env.audit, cfg)
	env.lifecycleSvc = NewLifecycleService(env.vendorRepo, env.docRepo, env.complianceRepo, env.audit, cfg)
	env.paymentSvc = NewPaymentService(env.paymentRepo, env.vendorRepo, env.audit, cfg)
	env.performanceSvc = NewPerformanceService(env.perfRepo, env.vendorRepo, env.audit)

	return env
}

func ctx() context.Context { return context.Background() }

var vendorSeq int

// createTestVendor 创建测试供应商
func createTestVendor(t *testing.T, env *testEnv, status model.VendorStatus, complianceStatus model.ComplianceStatus, score int) *model.Vendor {
	vendorSeq++
	vendor := &model.Vendor{
		VendorNo:         fmt.Sprintf("V-%04d", vendorSeq),
		Name:             "Acme Supplies",
		ContactEmail:     "ap@acme.example",
		Status:           status,
		ComplianceStatus: complianceStatus,
		ComplianceScore:  score,
	}
	require.NoError(t, env.vendorRepo.Create(ctx(), vendor))
	return vendor
}

// createMandatoryDocType 创建必备文档类型
func createMandatoryDocType(t *testing.T, env *testEnv, code, name string) *model.DocumentType {
	docType := &model.DocumentType{
		Code:        code,
		Name:        name,
		IsMandatory: true,
		IsActive:    true,
	}
	require.NoError(t, env.docRepo.CreateType(ctx(), docType))
	return docType
}

// createVerifiedDocument 创建已验证文档
func createVerifiedDocument(t *testing.T, env *testEnv, vendorID int64, typeCode string, expiresAt *int64) *model.VendorDocument {
	doc := &model.VendorDocument{
		VendorID:  vendorID,
		TypeCode:  typeCode,
		Status:    model.DocumentStatusVerified,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, env.docRepo.CreateDocument(ctx(), doc))
	return doc
}

// createTestRule 创建合规规则
func createTestRule(t *testing.T, env *testEnv, code string, ruleType model.ComplianceRuleType, penalty int, blocking bool, conditions model.JSONMap) *model.ComplianceRule {
	rule := &model.ComplianceRule{
		Code:          code,
		Name:          code,
		RuleType:      ruleType,
		Conditions:    conditions,
		PenaltyPoints: penalty,
		BlocksPayment: blocking,
		IsActive:      true,
	}
	require.NoError(t, env.ruleRepo.Create(ctx(), rule))
	return rule
}
