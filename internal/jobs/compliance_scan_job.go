// Package jobs 定义供应商治理的定时任务
package jobs

import (
	"context"
	"time"

	"github.com/procurelink/vendor-core/internal/scheduler"
	"github.com/procurelink/vendor-core/internal/service"
)

// ComplianceScanJob 全量合规评估任务
// 遍历受治理的供应商逐个评估，单个供应商的失败被隔离，不中断整批
type ComplianceScanJob struct {
	scheduler.BaseJob
	complianceSvc *service.ComplianceService
}

// NewComplianceScanJob 创建全量合规评估任务
func NewComplianceScanJob(complianceSvc *service.ComplianceService) *ComplianceScanJob {
	return &ComplianceScanJob{
		BaseJob:       scheduler.NewBaseJob(scheduler.JobNameComplianceScan, 30*time.Minute, 35*time.Minute),
		complianceSvc: complianceSvc,
	}
}

// Execute 执行全量评估
func (j *ComplianceScanJob) Execute(ctx context.Context) (*scheduler.JobResult, error) {
	batch, err := j.complianceSvc.EvaluateAllVendors(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts := make(map[string]int)
	for _, result := range batch.Results {
		statusCounts[string(result.Status)]++
	}

	details := map[string]interface{}{
		"status_counts": statusCounts,
	}
	if len(batch.Errors) > 0 {
		details["vendor_errors"] = batch.Errors
	}

	return &scheduler.JobResult{
		ProcessedCount: len(batch.Results) + len(batch.Errors),
		ErrorCount:     len(batch.Errors),
		Details:        details,
	}, nil
}
