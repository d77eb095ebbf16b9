package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/procurelink/vendor-core/internal/metrics"
	"github.com/procurelink/vendor-core/internal/model"
	"github.com/procurelink/vendor-core/internal/repository"
	"github.com/procurelink/vendor-core/pkg/logger"
)

// Scheduler 任务调度器
type Scheduler struct {
	cron          *cron.Cron
	lockManager   *LockManager
	execRepo      *repository.ExecutionRepository
	jobs          map[string]Job
	mu            sync.RWMutex
	maxConcurrent int
	running       chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
}

// JobConfig 任务配置
type JobConfig struct {
	Cron    string
	Enabled bool
}

// Config 调度器配置
type Config struct {
	MaxConcurrentJobs int
	RedisClient       redis.UniversalClient
}

// New 创建调度器
func New(cfg *Config, execRepo *repository.ExecutionRepository) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	maxConcurrent := cfg.MaxConcurrentJobs
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}

	var lockManager *LockManager
	if cfg.RedisClient != nil {
		lockManager = NewLockManager(cfg.RedisClient)
	}

	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()), // 支持秒级调度
		lockManager:   lockManager,
		execRepo:      execRepo,
		jobs:          make(map[string]Job),
		maxConcurrent: maxConcurrent,
		running:       make(chan struct{}, maxConcurrent),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// RegisterJob 注册任务
func (s *Scheduler) RegisterJob(job Job, config JobConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name()]; exists {
		return fmt.Errorf("job %s already registered", job.Name())
	}
	s.jobs[job.Name()] = job

	if !config.Enabled {
		logger.Info("job registered but disabled", zap.String("job", job.Name()))
		return nil
	}

	_, err := s.cron.AddFunc(config.Cron, func() {
		s.executeJob(job)
	})
	if err != nil {
		delete(s.jobs, job.Name())
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	logger.Info("job registered",
		zap.String("job", job.Name()),
		zap.String("cron", config.Cron))
	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started")
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("scheduler stopped")
}

// TriggerJob 手动触发任务
func (s *Scheduler) TriggerJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	go s.executeJob(job)
	return nil
}

// executeJob 执行任务并记录结果
func (s *Scheduler) executeJob(job Job) {
	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	default:
		logger.Warn("max concurrent jobs reached, skipping", zap.String("job", job.Name()))
		s.recordSkipped(job.Name(), "max concurrent jobs reached")
		return
	}

	select {
	case <-s.ctx.Done():
		return
	default:
	}

	ctx, cancel := context.WithTimeout(s.ctx, job.Timeout())
	defer cancel()

	if job.RequiresLock() && s.lockManager.Enabled() {
		lock := s.lockManager.NewLock(job.Name(), job.LockTTL())
		acquired, err := lock.TryLock(ctx)
		if err != nil {
			logger.Error("failed to acquire lock",
				zap.String("job", job.Name()),
				zap.Error(err))
			s.recordSkipped(job.Name(), "failed to acquire lock: "+err.Error())
			return
		}
		if !acquired {
			logger.Debug("job already running on another instance", zap.String("job", job.Name()))
			s.recordSkipped(job.Name(), "job is running on another instance")
			return
		}
		defer func() {
			if err := lock.Unlock(context.Background()); err != nil {
				logger.Error("failed to release lock",
					zap.String("job", job.Name()),
					zap.Error(err))
			}
		}()
	}

	startTime := time.Now()
	exec := &model.JobExecution{
		JobName:   job.Name(),
		Status:    model.JobStatusRunning,
		StartedAt: startTime.UnixMilli(),
	}
	if err := s.execRepo.Create(s.ctx, exec); err != nil {
		logger.Error("failed to record job start",
			zap.String("job", job.Name()),
			zap.Error(err))
	}

	logger.Info("starting job", zap.String("job", job.Name()))
	result, err := job.Execute(ctx)

	finishTime := time.Now()
	duration := int(finishTime.Sub(startTime).Milliseconds())
	finishedAt := finishTime.UnixMilli()
	exec.FinishedAt = &finishedAt
	exec.DurationMs = &duration

	if err != nil {
		exec.Status = model.JobStatusFailed
		errMsg := err.Error()
		exec.ErrorMessage = &errMsg
		logger.Error("job failed",
			zap.String("job", job.Name()),
			zap.Duration("duration", finishTime.Sub(startTime)),
			zap.Error(err))
	} else {
		exec.Status = model.JobStatusSuccess
		exec.Result = result.ToJSONMap()
		logger.Info("job completed",
			zap.String("job", job.Name()),
			zap.Duration("duration", finishTime.Sub(startTime)))
	}

	metrics.JobRunsTotal.WithLabelValues(job.Name(), string(exec.Status)).Inc()
	metrics.JobDuration.WithLabelValues(job.Name()).Observe(finishTime.Sub(startTime).Seconds())

	if err := s.execRepo.Finish(context.Background(), exec); err != nil {
		logger.Error("failed to record job outcome",
			zap.String("job", job.Name()),
			zap.Error(err))
	}
}

// recordSkipped 记录被跳过的执行
func (s *Scheduler) recordSkipped(jobName, reason string) {
	now := time.Now().UnixMilli()
	exec := &model.JobExecution{
		JobName:      jobName,
		Status:       model.JobStatusSkipped,
		StartedAt:    now,
		FinishedAt:   &now,
		ErrorMessage: &reason,
	}
	if err := s.execRepo.Create(context.Background(), exec); err != nil {
		logger.Error("failed to record skipped job",
			zap.String("job", jobName),
			zap.Error(err))
	}
	metrics.JobRunsTotal.WithLabelValues(jobName, string(model.JobStatusSkipped)).Inc()
}
