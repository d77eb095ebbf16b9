package app

import (
	"gorm.io/gorm"

	"github.com/procurelink/vendor-core/internal/model"
)

// AutoMigrate 同步治理域全部表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
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
		&model.JobExecution{},
	)
}
