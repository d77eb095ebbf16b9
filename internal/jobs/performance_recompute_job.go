package jobs

import (
	"context"
	"time"

	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/scheduler"
	"github.com/procurelink/vendor-core/internal/service"
)

// PerformanceRecomputeJob 综合绩效分定时重算任务
type PerformanceRecomputeJob struct {
	scheduler.BaseJob
	perfSvc *service.PerformanceService
}

// NewPerformanceRecomputeJob 创建绩效重算任务
func NewPerformanceRecomputeJob(perfSvc *service.PerformanceService) *PerformanceRecomputeJob {
	return &PerformanceRecomputeJob{
		BaseJob: scheduler.NewBaseJob(scheduler.JobNamePerformanceRecompute, 15*time.Minute, 20*time.Minute),
		perfSvc: perfSvc,
	}
}

// Execute 执行重算
func (j *PerformanceRecomputeJob) Execute(ctx context.Context) (*scheduler.JobResult, error) {
	results, failures, err := j.perfSvc.RecalculateAll(ctx, model.ScoreSourceScheduled)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{}
	if len(failures) > 0 {
		details["vendor_errors"] = failures
	}

	return &scheduler.JobResult{
		ProcessedCount: len(results) + len(failures),
		ErrorCount:     len(failures),
		Details:        details,
	}, nil
}
