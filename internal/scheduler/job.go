// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"time"

	"github.com/procurelink/vendor-core/internal/model"
)

// Job 任务接口
type Job interface {
	// Name 任务名称
	Name() string
	// Execute 执行任务
	Execute(ctx context.Context) (*JobResult, error)
	// Timeout 任务超时时间
	Timeout() time.Duration
	// RequiresLock 是否需要分布式锁
	RequiresLock() bool
	// LockTTL 锁的TTL
	LockTTL() time.Duration
}

// JobResult 任务执行结果
type JobResult struct {
	// ProcessedCount 处理的记录数
	ProcessedCount int
	// ErrorCount 被隔离的单条错误数
	ErrorCount int
	// Details 详细信息
	Details map[string]interface{}
}

// ToJSONMap 转换为执行记录的结果字段
func (r *JobResult) ToJSONMap() model.JSONMap {
	if r == nil {
		return nil
	}
	result := model.JSONMap{
		"processed_count": r.ProcessedCount,
		"error_count":     r.ErrorCount,
	}
	for k, v := range r.Details {
		result[k] = v
	}
	return result
}

// BaseJob 基础任务实现
type BaseJob struct {
	name    string
	timeout time.Duration
	lockTTL time.Duration
}

// NewBaseJob 创建基础任务
func NewBaseJob(name string, timeout, lockTTL time.Duration) BaseJob {
	return BaseJob{
		name:    name,
		timeout: timeout,
		lockTTL: lockTTL,
	}
}

// Name 任务名称
func (j BaseJob) Name() string {
	return j.name
}

// Timeout 任务超时时间
func (j BaseJob) Timeout() time.Duration {
	return j.timeout
}

// RequiresLock 是否需要分布式锁
func (j BaseJob) RequiresLock() bool {
	return j.lockTTL > 0
}

// LockTTL 锁的TTL
func (j BaseJob) LockTTL() time.Duration {
	return j.lockTTL
}

// JobNames 任务名称常量
const (
	JobNameComplianceScan       = "compliance-scan"
	JobNamePerformanceRecompute = "performance-recompute"
)
