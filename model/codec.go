package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// blobVersion 是序列化格式版本，格式变化时递增。
const blobVersion = 1

// blob 是模型的持久化形式：结构 + 权重。优化器状态不保存，加载后从头开始累积。
type blob struct {
	Version     int      `json:"version"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Optimizer   Adam     `json:"optimizer"`
	Layers      []*Layer `json:"layers"`
}

// Marshal 序列化模型。
func (n *Network) Marshal() ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return json.Marshal(blob{
		Version:     blobVersion,
		Fingerprint: n.Fingerprint,
		Optimizer:   n.Optimizer,
		Layers:      n.Layers,
	})
}

// Unmarshal 反序列化模型并校验各层维度首尾相接；seed 用于之后训练时的 dropout/shuffle。
func Unmarshal(data []byte, seed int64) (*Network, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if b.Version != blobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidModel, b.Version)
	}
	if err := validateLayers(b.Layers); err != nil {
		return nil, err
	}
	if b.Optimizer.LearningRate <= 0 {
		b.Optimizer = DefaultAdam()
	}
	return &Network{
		Layers:      b.Layers,
		Optimizer:   b.Optimizer,
		Fingerprint: b.Fingerprint,
		rng:         newRand(seed),
	}, nil
}

func validateLayers(layers []*Layer) error {
	if len(layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidModel)
	}
	for i, l := range layers {
		if l == nil {
			return fmt.Errorf("%w: layer %d is null", ErrInvalidModel, i)
		}
	}
	prev := layers[0].In
	for i, l := range layers {
		if l.In != prev || l.In <= 0 || l.Out <= 0 {
			return fmt.Errorf("%w: layer %d does not chain", ErrInvalidModel, i)
		}
		switch l.Kind {
		case LayerDense:
			if len(l.W) != l.Out || len(l.B) != l.Out {
				return fmt.Errorf("%w: layer %d weight rows", ErrInvalidModel, i)
			}
			for _, row := range l.W {
				if len(row) != l.In {
					return fmt.Errorf("%w: layer %d weight columns", ErrInvalidModel, i)
				}
			}
		case LayerDropout:
			if l.In != l.Out || l.Rate < 0 || l.Rate >= 1 {
				return fmt.Errorf("%w: layer %d dropout", ErrInvalidModel, i)
			}
		default:
			return fmt.Errorf("%w: layer %d unknown kind %q", ErrInvalidModel, i, l.Kind)
		}
		prev = l.Out
	}
	if last := layers[len(layers)-1]; last.Kind != LayerDense || last.Activation != ActivationSoftmax {
		return fmt.Errorf("%w: output layer must be dense softmax", ErrInvalidModel)
	}
	return nil
}
