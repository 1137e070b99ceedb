package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Config 描述下一个商品分类器的结构：
//
//	dense(Input→Hidden[0], relu) → dropout(Dropout) → dense(Hidden[0]→Hidden[1], relu) ... → dense(→Output, softmax)
//
// dropout 只跟在第一个隐藏层之后。
type Config struct {
	Input     int
	Output    int
	Hidden    []int
	Dropout   float64
	Optimizer Adam
	Seed      int64
}

// DefaultConfig 返回 64/32 两个隐藏层、dropout 0.2、Adam lr 0.001 的配置。
func DefaultConfig(input, output int) Config {
	return Config{
		Input:     input,
		Output:    output,
		Hidden:    []int{64, 32},
		Dropout:   0.2,
		Optimizer: DefaultAdam(),
	}
}

// Network 是一个小型前馈神经网络，softmax 输出 + 交叉熵损失。
//
// Predict / Marshal 与 Fit 可以并发调用：Fit 按 batch 加写锁，
// 推理看到的总是某个 batch 更新之后的完整权重。
type Network struct {
	mu sync.RWMutex

	Layers    []*Layer
	Optimizer Adam

	// Fingerprint 标记训练时的商品目录（由调用方设置，随模型一起持久化）
	Fingerprint string

	rng *rand.Rand
	opt *adamState
}

// FitOptions 训练参数。
type FitOptions struct {
	Epochs    int
	BatchSize int
	Shuffle   bool
}

// History 记录每个 epoch 的平均损失与准确率。
type History struct {
	Loss     []float64
	Accuracy []float64
}

// NewNetwork 按配置创建网络。
func NewNetwork(cfg Config) (*Network, error) {
	if cfg.Input <= 0 || cfg.Output <= 0 {
		return nil, fmt.Errorf("%w: input=%d output=%d", ErrShape, cfg.Input, cfg.Output)
	}
	if cfg.Dropout < 0 || cfg.Dropout >= 1 {
		return nil, fmt.Errorf("model: dropout rate %v out of [0,1)", cfg.Dropout)
	}
	if cfg.Optimizer.LearningRate <= 0 {
		cfg.Optimizer = DefaultAdam()
	}

	n := &Network{Optimizer: cfg.Optimizer, rng: newRand(cfg.Seed)}

	prev := cfg.Input
	for i, h := range cfg.Hidden {
		if h <= 0 {
			return nil, fmt.Errorf("%w: hidden layer %d size %d", ErrShape, i, h)
		}
		n.Layers = append(n.Layers, NewDense(prev, h, ActivationReLU, n.rng))
		if i == 0 && cfg.Dropout > 0 {
			n.Layers = append(n.Layers, NewDropout(h, cfg.Dropout))
		}
		prev = h
	}
	n.Layers = append(n.Layers, NewDense(prev, cfg.Output, ActivationSoftmax, n.rng))
	return n, nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)) //nolint:gosec // 权重初始化/dropout 不需要密码学随机
}

// InputDim 返回输入维度。
func (n *Network) InputDim() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.Layers[0].In
}

// OutputDim 返回输出维度（类别数）。
func (n *Network) OutputDim() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.Layers[len(n.Layers)-1].Out
}

// ParamCount 返回可训练参数个数。
func (n *Network) ParamCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := 0
	for _, l := range n.Layers {
		if l.Kind == LayerDense {
			total += l.In*l.Out + l.Out
		}
	}
	return total
}

// Predict 推理（dropout 关闭），返回各类别概率。
func (n *Network) Predict(x []float64) ([]float64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if len(x) != n.Layers[0].In {
		return nil, fmt.Errorf("%w: input length %d, want %d", ErrShape, len(x), n.Layers[0].In)
	}
	cur := x
	for _, l := range n.Layers {
		cur = l.forward(cur, false, nil).output
	}
	out := make([]float64, len(cur))
	copy(out, cur)
	return out, nil
}

// Fit 用 mini-batch 反向传播训练网络，损失为分类交叉熵，优化器为 Adam。
// 每个 batch 之间检查 ctx，取消时返回已完成 epoch 的历史和 ctx.Err()。
func (n *Network) Fit(ctx context.Context, xs, ys [][]float64, opts FitOptions) (History, error) {
	var hist History
	if len(xs) == 0 || len(xs) != len(ys) {
		return hist, fmt.Errorf("%w: %d inputs, %d targets", ErrShape, len(xs), len(ys))
	}

	in, out := n.InputDim(), n.OutputDim()
	for i := range xs {
		if len(xs[i]) != in || len(ys[i]) != out {
			return hist, fmt.Errorf("%w: sample %d has %d/%d columns, want %d/%d", ErrShape, i, len(xs[i]), len(ys[i]), in, out)
		}
	}

	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = 1
	}
	batch := opts.BatchSize
	if batch <= 0 || batch > len(xs) {
		batch = len(xs)
	}

	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < epochs; epoch++ {
		if opts.Shuffle {
			n.mu.Lock()
			n.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
			n.mu.Unlock()
		}

		var lossSum float64
		var correct int
		for start := 0; start < len(order); start += batch {
			if err := ctx.Err(); err != nil {
				return hist, err
			}
			end := start + batch
			if end > len(order) {
				end = len(order)
			}
			loss, hits := n.trainBatch(xs, ys, order[start:end])
			lossSum += loss
			correct += hits
		}
		hist.Loss = append(hist.Loss, lossSum/float64(len(xs)))
		hist.Accuracy = append(hist.Accuracy, float64(correct)/float64(len(xs)))
	}
	return hist, nil
}

// trainBatch 前向 + 反向一个 batch 并做一次参数更新，返回 batch 的损失和与命中数。
func (n *Network) trainBatch(xs, ys [][]float64, idx []int) (float64, int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.opt == nil {
		n.opt = newAdamState(n.Layers)
	}
	grads := make([]*layerGrad, len(n.Layers))
	for i, l := range n.Layers {
		grads[i] = newLayerGrad(l)
	}

	var (
		lossSum float64
		correct int
		traces  = make([]trace, len(n.Layers))
	)
	for _, s := range idx {
		cur := xs[s]
		for i, l := range n.Layers {
			traces[i] = l.forward(cur, true, n.rng)
			cur = traces[i].output
		}

		y := ys[s]
		lossSum += crossEntropy(cur, y)
		if argmax(cur) == argmax(y) {
			correct++
		}

		delta := make([]float64, len(cur))
		for j := range cur {
			delta[j] = cur[j] - y[j]
		}
		for i := len(n.Layers) - 1; i >= 0; i-- {
			delta = n.Layers[i].backward(traces[i], delta, grads[i])
		}
	}

	n.Optimizer.step(n.opt, n.Layers, grads, 1/float64(len(idx)))
	return lossSum, correct
}

func crossEntropy(p, y []float64) float64 {
	const eps = 1e-7
	var loss float64
	for i := range p {
		if y[i] > 0 {
			loss -= y[i] * math.Log(math.Max(p[i], eps))
		}
	}
	return loss
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
