package rank

import (
	"math"

	"github.com/rushteam/shoprec/core"
)

// 内容相似度权重，三项之和为 1。
const (
	categoryWeight = 0.4
	priceWeight    = 0.3
	ratingWeight   = 0.3
)

// Similarity 计算两个商品的内容相似度，范围 [0,1]。
//
//   - 类别相同：+0.4
//   - 价格：0.3 × (1 − |p1−p2| / max(p1,p2))，两者都为 0 时视为相同（+0.3）
//   - 评分：0.3 × (1 − |r1−r2| / 5)
//
// 价格为正时 Similarity(p, p) == 1。
func Similarity(a, b core.Product) float64 {
	var sim float64

	if a.Category == b.Category {
		sim += categoryWeight
	}

	priceScore := 1.0
	if maxPrice := math.Max(a.Price, b.Price); maxPrice > 0 {
		priceScore = 1 - math.Abs(a.Price-b.Price)/maxPrice
	}
	sim += priceScore * priceWeight

	ratingScore := 1 - math.Abs(a.Rating.Rate-b.Rating.Rate)/5
	sim += ratingScore * ratingWeight

	return math.Min(sim, 1)
}
