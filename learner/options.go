package learner

import (
	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/model"
)

// 默认参数。
const (
	DefaultSlot            = "recommendation-model"
	DefaultMinInteractions = 5
	DefaultEpochs          = 3
	DefaultMaxBatchSize    = 32
)

// Option 配置 Learner。
type Option func(*Learner)

// WithLogger 设置 logger。
func WithLogger(l zerolog.Logger) Option {
	return func(ln *Learner) { ln.log = l.With().Str("component", "learner").Logger() }
}

// WithSeed 固定随机种子（权重初始化、dropout、shuffle），0 表示按时间。
func WithSeed(seed int64) Option {
	return func(ln *Learner) { ln.seed = seed }
}

// WithSlot 修改模型在 Store 中的 key。
func WithSlot(slot string) Option {
	return func(ln *Learner) {
		if slot != "" {
			ln.slot = slot
		}
	}
}

// WithNetwork 修改隐藏层结构、dropout 与优化器。
func WithNetwork(hidden []int, dropout float64, opt model.Adam) Option {
	return func(ln *Learner) {
		ln.hidden = hidden
		ln.dropout = dropout
		ln.optimizer = opt
	}
}

// WithTraining 修改训练阈值、epoch 数和最大 batch。非正数保持默认。
func WithTraining(minInteractions, epochs, maxBatch int) Option {
	return func(ln *Learner) {
		if minInteractions > 0 {
			ln.minInteractions = minInteractions
		}
		if epochs > 0 {
			ln.epochs = epochs
		}
		if maxBatch > 0 {
			ln.maxBatch = maxBatch
		}
	}
}

// WithDiscardIncompatible 控制加载到维度不一致的模型时的行为：
// true（默认）丢弃并新建模型；false 把 ErrModelShapeMismatch 返回给调用方。
func WithDiscardIncompatible(discard bool) Option {
	return func(ln *Learner) { ln.discardIncompatible = discard }
}
