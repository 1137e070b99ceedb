// Package learner 实现在线学习：根据行为日志构造“下一个商品”样本，增量训练分类器并持久化。
package learner

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/sequence"
)

// Learner 持有唯一的分类器实例，并用状态机保证同一时刻最多只有一个初始化或训练在进行。
//
// 互斥锁只保护状态切换；fit 与保存在锁外执行，期间 Status / PredictNext 仍然可以调用。
type Learner struct {
	mu    sync.Mutex
	state State
	net   *model.Network

	store core.Store
	log   zerolog.Logger
	now   func() time.Time

	slot                string
	seed                int64
	hidden              []int
	dropout             float64
	optimizer           model.Adam
	minInteractions     int
	epochs              int
	maxBatch            int
	discardIncompatible bool

	lastErr        string
	lastTrainedAt  time.Time
	trainedSamples int
	version        int
}

// New 创建学习器。store 为 nil 时模型只保存在内存中（Save 返回错误并被记录）。
func New(store core.Store, opts ...Option) *Learner {
	defaults := model.DefaultConfig(1, 1)
	l := &Learner{
		store:               store,
		log:                 logging.WithComponent("learner"),
		now:                 time.Now,
		slot:                DefaultSlot,
		hidden:              defaults.Hidden,
		dropout:             defaults.Dropout,
		optimizer:           defaults.Optimizer,
		minInteractions:     DefaultMinInteractions,
		epochs:              DefaultEpochs,
		maxBatch:            DefaultMaxBatchSize,
		discardIncompatible: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	metrics.LearnerState.Set(float64(l.state))
	return l
}

// setState 必须在持有 mu 时调用。
func (l *Learner) setState(s State) {
	l.state = s
	metrics.LearnerState.Set(float64(s))
}

// State 返回当前状态。
func (l *Learner) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Status 返回状态快照。
func (l *Learner) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Status{
		State:          l.state,
		LastError:      l.lastErr,
		LastTrainedAt:  l.lastTrainedAt,
		TrainedSamples: l.trainedSamples,
		ModelVersion:   l.version,
	}
	if l.net != nil {
		st.InputDim = l.net.InputDim()
		st.OutputDim = l.net.OutputDim()
	}
	return st
}

// Initialize 准备模型：优先从 Store 加载，否则新建。
//
//   - 正在初始化或训练：返回 ErrLearnerBusy，不做任何事
//   - 已就绪：直接返回 nil
//   - 新建失败（例如目录为空）：记录日志，回到 Uninitialized 并返回 nil，下次调用可重试
//   - 关闭丢弃且持久化模型维度不一致：返回 ErrModelShapeMismatch，保持 Uninitialized
func (l *Learner) Initialize(ctx context.Context, catalog core.Catalog) error {
	l.mu.Lock()
	switch l.state {
	case StateInitializing, StateTraining:
		l.mu.Unlock()
		return ErrLearnerBusy
	case StateReady:
		l.mu.Unlock()
		return nil
	}
	l.setState(StateInitializing)
	l.mu.Unlock()

	fingerprint := Fingerprint(catalog)
	net, err := l.Load(ctx, len(catalog))
	switch {
	case err == nil:
		if net.Fingerprint != "" && net.Fingerprint != fingerprint {
			l.log.Warn().
				Str("stored", net.Fingerprint).
				Str("current", fingerprint).
				Msg("persisted model was trained on a different catalog of the same size")
		}
		l.log.Info().Int("input", net.InputDim()).Int("output", net.OutputDim()).Msg("loaded persisted model")

	case errors.Is(err, ErrModelShapeMismatch) && !l.discardIncompatible:
		l.fail(err, StateUninitialized)
		return err

	default:
		if errors.Is(err, ErrModelShapeMismatch) {
			l.log.Warn().Err(err).Msg("discarding incompatible persisted model")
		} else {
			l.log.Debug().Err(err).Msg("no persisted model, creating a new one")
		}

		net, err = l.newNetwork(len(catalog))
		if err != nil {
			l.log.Error().Err(err).Int("catalog_size", len(catalog)).Msg("model initialization failed")
			l.fail(err, StateUninitialized)
			return nil
		}
		net.Fingerprint = fingerprint
	}

	l.mu.Lock()
	l.net = net
	l.lastErr = ""
	l.setState(StateReady)
	l.mu.Unlock()
	return nil
}

func (l *Learner) fail(err error, next State) {
	l.mu.Lock()
	l.lastErr = err.Error()
	l.setState(next)
	l.mu.Unlock()
}

func (l *Learner) recordError(err error) {
	l.mu.Lock()
	l.lastErr = err.Error()
	l.mu.Unlock()
}

// newNetwork 构建 输入 = 目录大小 + 数值特征数、输出 = 目录大小 的分类器。
func (l *Learner) newNetwork(catalogSize int) (*model.Network, error) {
	return model.NewNetwork(model.Config{
		Input:     catalogSize + feature.NumericFeatures,
		Output:    catalogSize,
		Hidden:    l.hidden,
		Dropout:   l.dropout,
		Optimizer: l.optimizer,
		Seed:      l.seed,
	})
}

// Train 用行为日志训练一次。
//
// 未初始化返回 ErrLearnerNotReady，忙碌返回 ErrLearnerBusy，两者都不改变状态。
// 其余情况返回 TrainReport：fit 和保存的失败只记录在报告与日志中，训练结束后总是回到 Ready。
func (l *Learner) Train(ctx context.Context, catalog core.Catalog, log []core.Interaction) (TrainReport, error) {
	report := TrainReport{Interactions: len(log)}

	l.mu.Lock()
	switch l.state {
	case StateUninitialized:
		l.mu.Unlock()
		return report, ErrLearnerNotReady
	case StateInitializing, StateTraining:
		l.mu.Unlock()
		return report, ErrLearnerBusy
	}
	if len(log) < l.minInteractions {
		l.mu.Unlock()
		report.Outcome = TrainSkipped
		metrics.TrainingRuns.WithLabelValues(string(report.Outcome)).Inc()
		return report, nil
	}
	l.setState(StateTraining)
	net := l.net
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.setState(StateReady)
		l.mu.Unlock()
		metrics.TrainingRuns.WithLabelValues(string(report.Outcome)).Inc()
	}()

	pairs := sequence.BuildPairs(catalog, sequence.Segment(log))
	report.Pairs = pairs.Len()
	if pairs.Len() == 0 {
		report.Outcome = TrainNoPairs
		return report, nil
	}
	metrics.TrainingPairs.Observe(float64(pairs.Len()))

	inputs := widenInputs(pairs.Inputs, net.InputDim())
	batch := l.maxBatch
	if pairs.Len() < batch {
		batch = pairs.Len()
	}

	start := l.now()
	l.log.Info().Int("pairs", pairs.Len()).Int("batch", batch).Int("epochs", l.epochs).Msg("training started")
	hist, err := net.Fit(ctx, inputs, pairs.Outputs, model.FitOptions{
		Epochs:    l.epochs,
		BatchSize: batch,
		Shuffle:   true,
	})
	report.Duration = l.now().Sub(start)
	report.History = hist
	metrics.TrainingDuration.Observe(report.Duration.Seconds())

	if err != nil {
		report.Outcome = TrainFailed
		report.Err = err
		l.log.Error().Err(err).Int("pairs", pairs.Len()).Msg("training failed")
		l.recordError(err)
		return report, nil
	}
	report.Outcome = TrainCompleted

	l.mu.Lock()
	l.lastTrainedAt = l.now()
	l.trainedSamples += pairs.Len()
	l.version++
	l.lastErr = ""
	l.mu.Unlock()

	ev := l.log.Info().Int("pairs", pairs.Len()).Dur("duration", report.Duration)
	if n := len(hist.Loss); n > 0 {
		ev = ev.Float64("loss", hist.Loss[n-1]).Float64("accuracy", hist.Accuracy[n-1])
	}
	ev.Msg("training completed")

	if err := l.Save(ctx); err != nil {
		report.SaveErr = err
		l.log.Warn().Err(err).Str("slot", l.slot).Msg("model save failed")
		l.recordError(err)
		return report, nil
	}
	report.Saved = true
	return report, nil
}

// widenInputs 把样本的类别块补零到模型的输入宽度。
// 特征向量长度为 类别数 + 4，而模型输入按 目录大小 + 4 构建。
func widenInputs(inputs [][]float64, width int) [][]float64 {
	out := make([][]float64, len(inputs))
	for i, v := range inputs {
		out[i] = feature.WidenCategoryBlock(v, len(v)-feature.NumericFeatures, width)
	}
	return out
}

// Save 把当前模型写入固定的 slot，覆盖旧值。
func (l *Learner) Save(ctx context.Context) error {
	l.mu.Lock()
	net := l.net
	l.mu.Unlock()
	if net == nil {
		return ErrLearnerNotReady
	}
	if l.store == nil {
		metrics.ModelPersistence.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("learner: no store configured")
	}

	data, err := net.Marshal()
	if err != nil {
		metrics.ModelPersistence.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := l.store.Set(ctx, l.slot, data); err != nil {
		metrics.ModelPersistence.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("save model to %s: %w", l.store.Name(), err)
	}
	metrics.ModelPersistence.WithLabelValues("save", "ok").Inc()
	return nil
}

// Load 从 slot 读取模型，并检查维度是否与 catalogSize 匹配。
//
// key 不存在、存储读取失败或数据无法解析都视为 ErrModelNotFound；
// 能解析但维度不符时返回 ErrModelShapeMismatch。
func (l *Learner) Load(ctx context.Context, catalogSize int) (*model.Network, error) {
	if l.store == nil {
		metrics.ModelPersistence.WithLabelValues("load", "not_found").Inc()
		return nil, ErrModelNotFound
	}
	data, err := l.store.Get(ctx, l.slot)
	if err != nil {
		metrics.ModelPersistence.WithLabelValues("load", "not_found").Inc()
		return nil, fmt.Errorf("%w: %v", ErrModelNotFound, err)
	}
	net, err := model.Unmarshal(data, l.seed)
	if err != nil {
		metrics.ModelPersistence.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrModelNotFound, err)
	}
	if net.OutputDim() != catalogSize || net.InputDim() != catalogSize+feature.NumericFeatures {
		metrics.ModelPersistence.WithLabelValues("load", "shape_mismatch").Inc()
		return nil, fmt.Errorf("%w: model %d→%d, catalog size %d",
			ErrModelShapeMismatch, net.InputDim(), net.OutputDim(), catalogSize)
	}
	metrics.ModelPersistence.WithLabelValues("load", "ok").Inc()
	return net, nil
}

// PredictNext 返回看过 p 之后下一个商品的概率分布（按目录顺序）。
// 只用于观察模型，推荐打分不使用它。
func (l *Learner) PredictNext(catalog core.Catalog, p core.Product) ([]float64, error) {
	l.mu.Lock()
	net := l.net
	l.mu.Unlock()
	if net == nil {
		return nil, ErrLearnerNotReady
	}
	if net.OutputDim() != len(catalog) {
		return nil, fmt.Errorf("%w: model output %d, catalog size %d", ErrModelShapeMismatch, net.OutputDim(), len(catalog))
	}

	v := feature.NewVectorizer(catalog).Vectorize(p)
	return net.Predict(feature.WidenCategoryBlock(v, len(v)-feature.NumericFeatures, net.InputDim()))
}

// Fingerprint 是商品目录（按顺序的 ID 列表）的 FNV-1a 摘要。
func Fingerprint(catalog core.Catalog) string {
	h := fnv.New64a()
	var buf [8]byte
	for _, id := range catalog.IDs() {
		binary.LittleEndian.PutUint64(buf[:], uint64(id))
		_, _ = h.Write(buf[:])
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
