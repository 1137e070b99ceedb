package rank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// HybridNode 把 Hybrid 接入 Pipeline：忽略上游 scores，对 rctx 中的目录和日志快照重新打分。
// 通常作为 Pipeline 的第一个节点。
type HybridNode struct {
	Recommender *Hybrid
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	_ []core.RecommendationScore,
) ([]core.RecommendationScore, error) {
	if rctx == nil {
		return []core.RecommendationScore{}, nil
	}
	h := n.Recommender
	if h == nil {
		h = NewHybrid(nil)
		n.Recommender = h
	}
	return h.Recommend(rctx.Catalog, rctx.Interactions), nil
}
