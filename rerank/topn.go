package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// TopNNode 在排序之后截取前 N 个推荐分。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.HybridNode{},          // 打分
//	        &rerank.TopNNode{N: 8},      // 截取 Top 8
//	    },
//	}
type TopNNode struct {
	// N <= 0 或 N >= len(scores) 时不截断
	N int
}

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	scores []core.RecommendationScore,
) ([]core.RecommendationScore, error) {
	if n.N <= 0 || len(scores) <= n.N {
		return scores, nil
	}
	return scores[:n.N], nil
}
