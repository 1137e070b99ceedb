// Package metrics 定义推荐服务的 Prometheus 指标。
// 所有指标都通过 promauto 注册到默认 Registry，由宿主进程决定是否暴露 /metrics。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendations 按打分路径（cold / warm）统计推荐次数
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_recommendations_total",
			Help: "Total number of recommendation computations by scoring path",
		},
		[]string{"path"},
	)

	// PipelineDuration 推荐 Pipeline 的执行耗时
	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shoprec_pipeline_duration_seconds",
			Help:    "Duration of recommendation pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LearnerState 在线学习器当前状态（0 未初始化, 1 初始化中, 2 就绪, 3 训练中）
	LearnerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shoprec_learner_state",
			Help: "Current online learner state (0=uninitialized, 1=initializing, 2=ready, 3=training)",
		},
	)

	// TrainingRuns 按结果统计训练次数
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_training_runs_total",
			Help: "Total number of training attempts by outcome",
		},
		[]string{"outcome"}, // skipped, no_pairs, completed, failed, dropped
	)

	// TrainingDuration 训练耗时（只统计真正执行了 fit 的训练）
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shoprec_training_duration_seconds",
			Help:    "Duration of model fitting in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	// TrainingPairs 每次训练的样本数
	TrainingPairs = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shoprec_training_pairs",
			Help:    "Number of supervised pairs per training run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// ModelPersistence 按操作和结果统计模型持久化
	ModelPersistence = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_model_persistence_total",
			Help: "Model save/load operations by result",
		},
		[]string{"operation", "result"}, // save|load, ok|not_found|shape_mismatch|error
	)

	// ModerationChecks 按结果统计评论审核
	ModerationChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_moderation_checks_total",
			Help: "Toxicity oracle checks by result",
		},
		[]string{"result"}, // clean, toxic, unavailable
	)

	// CircuitBreakerState 熔断器状态（0 关闭, 1 半开, 2 打开）
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shoprec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CatalogFetches 按结果统计商品目录拉取
	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprec_catalog_fetches_total",
			Help: "Catalog fetches by source and result",
		},
		[]string{"source", "result"}, // http|file, ok|cached|retry|error
	)
)
