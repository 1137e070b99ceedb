package core

// RecommendationScore 是单个商品的推荐分与解释。
// Score 始终被截断到 [0,1]；Reasons 按加入顺序排列，对外输出时至少包含一条兜底理由。
// 每次请求重新计算，不做持久化。
type RecommendationScore struct {
	ProductID int64    `json:"productId"`
	Score     float64  `json:"score"`
	Reasons   []string `json:"reasons"`
}

// Clamp01 把分数截断到 [0,1]。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
