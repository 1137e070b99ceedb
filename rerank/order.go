package rerank

import (
	"sort"

	"github.com/rushteam/shoprec/core"
)

// OrderProducts 按推荐分降序重排目录，用于展示。
//   - scores 为空时原样返回目录（不复制）
//   - 没有分数的商品按 0 分处理
//   - 同分保持目录顺序
//
// 返回新的切片，不修改入参。
func OrderProducts(catalog core.Catalog, scores []core.RecommendationScore) core.Catalog {
	if len(scores) == 0 {
		return catalog
	}

	byID := make(map[int64]float64, len(scores))
	for _, s := range scores {
		if _, ok := byID[s.ProductID]; !ok {
			byID[s.ProductID] = s.Score
		}
	}

	out := make(core.Catalog, len(catalog))
	copy(out, catalog)
	sort.SliceStable(out, func(i, j int) bool {
		return byID[out[i].ID] > byID[out[j].ID]
	})
	return out
}
