package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// Diversity 限制同一类别在结果中出现的次数，超出部分按原顺序移到末尾（不丢弃）。
// 类别从 rctx 的目录快照中查找；找不到商品的分数原样保留在原位置。
type Diversity struct {
	// MaxPerCategory 每个类别在前段最多出现的次数，<= 0 时默认 1
	MaxPerCategory int
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	scores []core.RecommendationScore,
) ([]core.RecommendationScore, error) {
	if len(scores) == 0 || rctx == nil {
		return scores, nil
	}
	limit := n.MaxPerCategory
	if limit <= 0 {
		limit = 1
	}

	index := rctx.Catalog.Index()
	seen := make(map[string]int, 8)
	head := make([]core.RecommendationScore, 0, len(scores))
	var tail []core.RecommendationScore

	for _, s := range scores {
		i, ok := index[s.ProductID]
		if !ok {
			head = append(head, s)
			continue
		}
		cate := rctx.Catalog[i].Category
		if seen[cate] >= limit {
			tail = append(tail, s)
			continue
		}
		seen[cate]++
		head = append(head, s)
	}
	return append(head, tail...), nil
}
