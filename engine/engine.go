// Package engine 把混合打分、可选的 Pipeline 和在线学习器组合成一个服务对象，
// 供宿主进程（CLI、HTTP 服务等）持有。
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/learner"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/rerank"
)

// Recommender 为目录中的每个商品打分，返回按分数降序的结果。
type Recommender interface {
	Recommend(catalog core.Catalog, log []core.Interaction) []core.RecommendationScore
}

// Trainer 是引擎使用的学习器能力，*learner.Learner 满足该接口。
type Trainer interface {
	Initialize(ctx context.Context, catalog core.Catalog) error
	Train(ctx context.Context, catalog core.Catalog, log []core.Interaction) (learner.TrainReport, error)
	Status() learner.Status
}

var _ Trainer = (*learner.Learner)(nil)

// Engine 是推荐服务对象，并发安全（并发安全性由 Recommender、Pipeline 与 Trainer 各自保证）。
type Engine struct {
	trainer     Trainer
	recommender Recommender
	pipeline    *pipeline.Pipeline
	log         zerolog.Logger
	newID       func() string
}

// Option 配置 Engine。
type Option func(*Engine)

// WithRecommender 替换默认的混合打分器。
func WithRecommender(r Recommender) Option {
	return func(e *Engine) {
		if r != nil {
			e.recommender = r
		}
	}
}

// WithRandom 使用指定随机源构建默认的混合打分器。
func WithRandom(r rank.Random) Option {
	return func(e *Engine) { e.recommender = rank.NewHybrid(r) }
}

// WithPipeline 在打分之后执行 Pipeline（过滤、截断等）。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.pipeline = p }
}

// WithLogger 设置 logger。
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "engine").Logger() }
}

// New 创建引擎。trainer 可以为 nil，此时 Initialize / Train 返回 learner.ErrLearnerNotReady。
func New(trainer Trainer, opts ...Option) *Engine {
	e := &Engine{
		trainer:     trainer,
		recommender: rank.NewHybrid(nil),
		log:         logging.WithComponent("engine"),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend 对目录打分，配置了 Pipeline 时再经过 Pipeline 处理。
// log 应是调用方拿到的快照，计算期间不会被修改。
func (e *Engine) Recommend(ctx context.Context, catalog core.Catalog, log []core.Interaction) ([]core.RecommendationScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := e.recommender.Recommend(catalog, log)
	if e.pipeline == nil || len(e.pipeline.Nodes) == 0 {
		return scores, nil
	}

	reqID := e.newID()
	logger := e.log.With().Str("request_id", reqID).Logger()
	ctx = logging.ContextWithRequestID(ctx, reqID)
	ctx = logging.ContextWithLogger(ctx, logger)

	rctx := &core.RecommendContext{
		RequestID:    reqID,
		Catalog:      catalog,
		Interactions: log,
	}
	out, err := e.pipeline.Run(ctx, rctx, scores)
	if err != nil {
		logger.Error().Err(err).Msg("recommendation pipeline failed")
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	logger.Debug().Int("in", len(scores)).Int("out", len(out)).Msg("pipeline completed")
	return out, nil
}

// Ordered 返回按推荐分重排后的目录。
func (e *Engine) Ordered(ctx context.Context, catalog core.Catalog, log []core.Interaction) (core.Catalog, error) {
	scores, err := e.Recommend(ctx, catalog, log)
	if err != nil {
		return nil, err
	}
	return rerank.OrderProducts(catalog, scores), nil
}

// Initialize 初始化学习器。学习器忙碌时直接返回 nil。
func (e *Engine) Initialize(ctx context.Context, catalog core.Catalog) error {
	if e.trainer == nil {
		return learner.ErrLearnerNotReady
	}
	err := e.trainer.Initialize(ctx, catalog)
	if errors.Is(err, learner.ErrLearnerBusy) {
		e.log.Debug().Int("catalog", len(catalog)).Msg("learner busy, initialize request ignored")
		return nil
	}
	return err
}

// Train 训练一次。学习器忙碌时本次请求被丢弃，返回 Outcome 为 dropped 的报告且不返回错误。
func (e *Engine) Train(ctx context.Context, catalog core.Catalog, log []core.Interaction) (learner.TrainReport, error) {
	if e.trainer == nil {
		return learner.TrainReport{Interactions: len(log)}, learner.ErrLearnerNotReady
	}
	report, err := e.trainer.Train(ctx, catalog, log)
	if errors.Is(err, learner.ErrLearnerBusy) {
		e.log.Debug().Int("interactions", len(log)).Msg("learner busy, training request dropped")
		metrics.TrainingRuns.WithLabelValues(string(learner.TrainDropped)).Inc()
		report.Outcome = learner.TrainDropped
		return report, nil
	}
	return report, err
}

// TrainAsync 在后台训练，结束后把报告写入返回的 channel（容量 1）并关闭。
// Train 返回的错误（例如未初始化）放在报告的 Err 中，Outcome 为 failed。
func (e *Engine) TrainAsync(ctx context.Context, catalog core.Catalog, log []core.Interaction) <-chan learner.TrainReport {
	ch := make(chan learner.TrainReport, 1)
	go func() {
		defer close(ch)
		report, err := e.Train(ctx, catalog, log)
		if err != nil {
			report.Outcome = learner.TrainFailed
			report.Err = err
			e.log.Warn().Err(err).Msg("background training failed")
		}
		ch <- report
	}()
	return ch
}

// Status 返回学习器状态。
func (e *Engine) Status() learner.Status {
	if e.trainer == nil {
		return learner.Status{State: learner.StateUninitialized}
	}
	return e.trainer.Status()
}
