package model

import (
	"math"
	"math/rand"
)

// Activation 是激活函数类型。
type Activation string

const (
	ActivationLinear  Activation = "linear"
	ActivationReLU    Activation = "relu"
	ActivationSoftmax Activation = "softmax"
)

// LayerKind 是层类型。
type LayerKind string

const (
	LayerDense   LayerKind = "dense"
	LayerDropout LayerKind = "dropout"
)

// Layer 是网络中的一层。
//
//   - dense：out = act(W·x + b)，W 形状为 [Out][In]
//   - dropout：训练时以 Rate 的概率把输入置 0，并把保留的值放大 1/(1-Rate)；推理时原样输出
type Layer struct {
	Kind       LayerKind   `json:"kind"`
	In         int         `json:"in"`
	Out        int         `json:"out"`
	Activation Activation  `json:"activation,omitempty"`
	Rate       float64     `json:"rate,omitempty"`
	W          [][]float64 `json:"weights,omitempty"`
	B          []float64   `json:"biases,omitempty"`
}

// NewDense 创建全连接层，权重使用 Glorot 均匀分布初始化，偏置为 0。
func NewDense(in, out int, act Activation, rng *rand.Rand) *Layer {
	limit := math.Sqrt(6.0 / float64(in+out))
	w := make([][]float64, out)
	for j := range w {
		w[j] = make([]float64, in)
		for k := range w[j] {
			w[j][k] = (rng.Float64()*2 - 1) * limit
		}
	}
	return &Layer{
		Kind:       LayerDense,
		In:         in,
		Out:        out,
		Activation: act,
		W:          w,
		B:          make([]float64, out),
	}
}

// NewDropout 创建 dropout 层。
func NewDropout(size int, rate float64) *Layer {
	return &Layer{Kind: LayerDropout, In: size, Out: size, Rate: rate}
}

// trace 记录一次前向传播中反向传播需要的中间量。
type trace struct {
	input  []float64
	output []float64
	mask   []float64 // 仅 dropout
}

// forward 前向传播；train 为 true 时启用 dropout。
func (l *Layer) forward(x []float64, train bool, rng *rand.Rand) trace {
	switch l.Kind {
	case LayerDropout:
		if !train || l.Rate <= 0 {
			return trace{input: x, output: x}
		}
		keep := 1 - l.Rate
		mask := make([]float64, len(x))
		out := make([]float64, len(x))
		for i := range x {
			if rng.Float64() < keep {
				mask[i] = 1 / keep
				out[i] = x[i] * mask[i]
			}
		}
		return trace{input: x, output: out, mask: mask}
	default:
		out := make([]float64, l.Out)
		for j := 0; j < l.Out; j++ {
			sum := l.B[j]
			row := l.W[j]
			for k, v := range x {
				sum += row[k] * v
			}
			out[j] = sum
		}
		activate(l.Activation, out)
		return trace{input: x, output: out}
	}
}

// backward 反向传播，返回对输入的梯度，并把参数梯度累加到 g。
//
// softmax 层只作为输出层与交叉熵一起使用：传入的 delta 已经是 p − y，
// 即对 softmax 输入的梯度，这里不再乘激活函数导数。
func (l *Layer) backward(tr trace, delta []float64, g *layerGrad) []float64 {
	if l.Kind == LayerDropout {
		if tr.mask == nil {
			return delta
		}
		out := make([]float64, len(delta))
		for i := range delta {
			out[i] = delta[i] * tr.mask[i]
		}
		return out
	}

	if l.Activation == ActivationReLU {
		d := make([]float64, len(delta))
		for j := range delta {
			if tr.output[j] > 0 {
				d[j] = delta[j]
			}
		}
		delta = d
	}

	in := make([]float64, l.In)
	for j := 0; j < l.Out; j++ {
		dj := delta[j]
		if dj == 0 {
			continue
		}
		g.B[j] += dj
		row := l.W[j]
		grow := g.W[j]
		for k, x := range tr.input {
			grow[k] += dj * x
			in[k] += row[k] * dj
		}
	}
	return in
}

func activate(act Activation, v []float64) {
	switch act {
	case ActivationReLU:
		for i := range v {
			if v[i] < 0 {
				v[i] = 0
			}
		}
	case ActivationSoftmax:
		softmax(v)
	}
}

// softmax 原地计算，减去最大值避免溢出。
func softmax(v []float64) {
	if len(v) == 0 {
		return
	}
	maxV := v[0]
	for _, x := range v[1:] {
		if x > maxV {
			maxV = x
		}
	}
	var sum float64
	for i := range v {
		v[i] = math.Exp(v[i] - maxV)
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
}

// layerGrad 是一层参数的梯度累加器。
type layerGrad struct {
	W [][]float64
	B []float64
}

func newLayerGrad(l *Layer) *layerGrad {
	if l.Kind != LayerDense {
		return nil
	}
	g := &layerGrad{W: make([][]float64, l.Out), B: make([]float64, l.Out)}
	for j := range g.W {
		g.W[j] = make([]float64, l.In)
	}
	return g
}
