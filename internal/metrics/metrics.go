// Package metrics 提供供应商治理服务的 Prometheus 监控指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vendor_core"

// 合规评估指标
var (
	// EvaluationsTotal 合规评估总数
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compliance_evaluations_total",
			Help:      "合规评估总数",
		},
		[]string{"status"}, // COMPLIANT/AT_RISK/NON_COMPLIANT/BLOCKED
	)

	// EvaluationDuration 单个供应商评估耗时
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compliance_evaluation_duration_seconds",
			Help:      "单个供应商合规评估耗时(秒)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// BatchEvaluationErrors 批量评估中被隔离的单供应商错误数
	BatchEvaluationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compliance_batch_errors_total",
			Help:      "批量评估中被隔离的单供应商错误数",
		},
	)
)

// 生命周期与付款指标
var (
	// VendorTransitionsTotal 供应商状态迁移总数
	VendorTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_transitions_total",
			Help:      "供应商状态迁移总数",
		},
		[]string{"from", "to"},
	)

	// PaymentStageTotal 付款审批阶段处理总数
	PaymentStageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_stage_total",
			Help:      "付款审批阶段处理总数",
		},
		[]string{"stage", "action"},
	)

	// DuplicatePaymentsFlagged 标记为疑似重复的付款申请数
	DuplicatePaymentsFlagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_payments_flagged_total",
			Help:      "标记为疑似重复的付款申请数",
		},
	)
)

// 任务指标
var (
	// JobRunsTotal 定时任务执行总数
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "定时任务执行总数",
		},
		[]string{"job", "status"},
	)

	// JobDuration 定时任务执行耗时
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "定时任务执行耗时(秒)",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"job"},
	)
)
