package model

import "math"

// Adam 优化器参数。
type Adam struct {
	LearningRate float64 `json:"learning_rate"`
	Beta1        float64 `json:"beta1"`
	Beta2        float64 `json:"beta2"`
	Epsilon      float64 `json:"epsilon"`
}

// DefaultAdam 返回常用的默认参数（lr 0.001）。
func DefaultAdam() Adam {
	return Adam{LearningRate: 0.001, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7}
}

// adamState 是优化器的一阶/二阶矩估计，不参与序列化。
type adamState struct {
	t      int
	mW, vW [][][]float64
	mB, vB [][]float64
}

func newAdamState(layers []*Layer) *adamState {
	s := &adamState{
		mW: make([][][]float64, len(layers)),
		vW: make([][][]float64, len(layers)),
		mB: make([][]float64, len(layers)),
		vB: make([][]float64, len(layers)),
	}
	for i, l := range layers {
		if l.Kind != LayerDense {
			continue
		}
		s.mW[i] = zeros2(l.Out, l.In)
		s.vW[i] = zeros2(l.Out, l.In)
		s.mB[i] = make([]float64, l.Out)
		s.vB[i] = make([]float64, l.Out)
	}
	return s
}

// step 用平均后的梯度更新参数。
func (a Adam) step(s *adamState, layers []*Layer, grads []*layerGrad, scale float64) {
	s.t++
	bc1 := 1 - math.Pow(a.Beta1, float64(s.t))
	bc2 := 1 - math.Pow(a.Beta2, float64(s.t))
	lr := a.LearningRate * math.Sqrt(bc2) / bc1

	update := func(p, m, v *float64, g float64) {
		*m = a.Beta1**m + (1-a.Beta1)*g
		*v = a.Beta2**v + (1-a.Beta2)*g*g
		*p -= lr * *m / (math.Sqrt(*v) + a.Epsilon)
	}

	for i, l := range layers {
		g := grads[i]
		if g == nil {
			continue
		}
		for j := range l.W {
			for k := range l.W[j] {
				update(&l.W[j][k], &s.mW[i][j][k], &s.vW[i][j][k], g.W[j][k]*scale)
			}
			update(&l.B[j], &s.mB[i][j], &s.vB[i][j], g.B[j]*scale)
		}
	}
}

func zeros2(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}
