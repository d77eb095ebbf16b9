// Package app 提供供应商治理服务的应用入口
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/procurelink/vendor-core/internal/cache"
	"github.com/procurelink/vendor-core/internal/config"
	"github.com/procurelink/vendor-core/internal/jobs"
	"github.com/procurelink/vendor-core/internal/repository"
	"github.com/procurelink/vendor-core/internal/scheduler"
	"github.com/procurelink/vendor-core/internal/service"
	"github.com/procurelink/vendor-core/pkg/logger"
)

// App 供应商治理应用
type App struct {
	cfg *config.Config

	db          *gorm.DB
	redisClient redis.UniversalClient
	httpServer  *http.Server // metrics + health

	sched *scheduler.Scheduler

	// 服务层
	complianceSvc  *service.ComplianceService
	lifecycleSvc   *service.LifecycleService
	paymentSvc     *service.PaymentService
	performanceSvc *service.PerformanceService
}

// New 创建应用实例
func New(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Run 启动应用
func (a *App) Run() error {
	if err := a.initStorage(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	a.initServices()

	if err := a.initScheduler(); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	a.startHTTP()
	a.sched.Start()

	logger.Info("application started",
		zap.String("service", a.cfg.Service.Name),
		zap.Int("http_port", a.cfg.Service.HTTPPort))
	return nil
}

// initStorage 初始化数据库与 Redis
func (a *App) initStorage() error {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		a.cfg.Postgres.Host, a.cfg.Postgres.Port,
		a.cfg.Postgres.User, a.cfg.Postgres.Password,
		a.cfg.Postgres.Database)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(a.cfg.Postgres.MaxConnections)
	sqlDB.SetMaxIdleConns(a.cfg.Postgres.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(a.cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	if err := AutoMigrate(db); err != nil {
		return err
	}
	a.db = db

	a.redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.cfg.Redis.Host, a.cfg.Redis.Port),
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		PoolSize: a.cfg.Redis.PoolSize,
	})
	if err := a.redisClient.Ping(context.Background()).Err(); err != nil {
		// Redis 不可用时降级运行：缓存与任务锁被禁用
		logger.Warn("redis unavailable, running without cache and job locks", zap.Error(err))
		a.redisClient = nil
	}

	return nil
}

// initServices 组装服务层
func (a *App) initServices() {
	base := repository.NewRepository(a.db)

	vendorRepo := repository.NewVendorRepository(base)
	docRepo := repository.NewDocumentRepository(base)
	ruleRepo := repository.NewRuleRepository(base)
	complianceRepo := repository.NewComplianceRepository(base)
	paymentRepo := repository.NewPaymentRepository(base)
	perfRepo := repository.NewPerformanceRepository(base)
	auditRepo := repository.NewAuditLogRepository(base)

	audit := service.NewAuditRecorder(auditRepo)

	a.complianceSvc = service.NewComplianceService(vendorRepo, ruleRepo, complianceRepo, docRepo, audit, &a.cfg.Governance)
	if a.redisClient != nil {
		a.complianceSvc.SetStatusCache(cache.NewComplianceCache(a.redisClient))
	}
	// 默认投递到日志，宿主可替换为消息通道
	a.complianceSvc.SetOnComplianceAlert(func(_ context.Context, alert *service.ComplianceAlert) error {
		logger.Warn("vendor compliance blocked",
			zap.Int64("vendor_id", alert.VendorID),
			zap.Int("score", alert.Score),
			zap.Int64("flag_count", alert.FlagCount))
		return nil
	})

	a.lifecycleSvc = service.NewLifecycleService(vendorRepo, docRepo, complianceRepo, audit, &a.cfg.Governance)
	a.paymentSvc = service.NewPaymentService(paymentRepo, vendorRepo, audit, &a.cfg.Governance)
	a.performanceSvc = service.NewPerformanceService(perfRepo, vendorRepo, audit)
}

// initScheduler 注册定时任务
func (a *App) initScheduler() error {
	base := repository.NewRepository(a.db)
	execRepo := repository.NewExecutionRepository(base)

	a.sched = scheduler.New(&scheduler.Config{
		MaxConcurrentJobs: a.cfg.Jobs.MaxConcurrentJobs,
		RedisClient:       a.redisClient,
	}, execRepo)

	if err := a.sched.RegisterJob(
		jobs.NewComplianceScanJob(a.complianceSvc),
		scheduler.JobConfig{Cron: a.cfg.Jobs.ComplianceScanCron, Enabled: a.cfg.Jobs.ComplianceScanOn},
	); err != nil {
		return err
	}

	return a.sched.RegisterJob(
		jobs.NewPerformanceRecomputeJob(a.performanceSvc),
		scheduler.JobConfig{Cron: a.cfg.Jobs.PerformanceCron, Enabled: a.cfg.Jobs.PerformanceRecompute},
	)
}

// startHTTP 启动 metrics + health 端口
func (a *App) startHTTP() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Service.HTTPPort),
		Handler: mux,
	}

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()
}

// ComplianceService 返回合规评估引擎
func (a *App) ComplianceService() *service.ComplianceService { return a.complianceSvc }

// LifecycleService 返回生命周期状态机
func (a *App) LifecycleService() *service.LifecycleService { return a.lifecycleSvc }

// PaymentService 返回付款审批服务
func (a *App) PaymentService() *service.PaymentService { return a.paymentSvc }

// PerformanceService 返回绩效评分服务
func (a *App) PerformanceService() *service.PerformanceService { return a.performanceSvc }

// Scheduler 返回任务调度器
func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }

// Shutdown 优雅关闭
func (a *App) Shutdown(ctx context.Context) error {
	if a.sched != nil {
		a.sched.Stop()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", zap.Error(err))
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}
