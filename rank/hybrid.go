package rank

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// 各信号的权重与上限。
const (
	popularityWeight    = 0.2
	interactionWeight   = 0.3
	interactionCap      = 0.8
	categoryBonusWeight = 0.1
	categoryBonusCap    = 0.4
	similarityThreshold = 0.5
	similarityWeight    = 0.3
	explorationWeight   = 0.1
)

// 推荐理由文案。
const (
	ReasonFeatured = "Featured product"
	ReasonTrending = "Trending now"
	ReasonSimilar  = "Similar to products you viewed"
)

// Random 是推荐打分使用的随机源，返回 [0,1) 的均匀随机数。
// *rand.Rand 直接满足该接口；测试中可以注入确定性序列。
type Random interface {
	Float64() float64
}

// lockedRandom 让 *rand.Rand 可以被多个 goroutine 共用。
type lockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// NewRandom 基于 seed 创建并发安全的随机源；seed 为 0 时使用当前时间。
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRandom{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // 推荐探索项不需要密码学随机
}

// Hybrid 是混合推荐器：热度 + 历史交互 + 类别偏好 + 内容相似 + 探索项。
//
// 打分是 (catalog, log) 加一个外部随机源的纯函数，不做任何模型推理；
// 在线学习模块训练的分类器不参与这里的打分。
//
// 冷启动（日志为空）时每个商品得到 [0,1) 的均匀随机分和一条 "Featured product" 理由，
// 完全忽略内容信号，新用户看到的是无偏的随机排列。
type Hybrid struct {
	Rand Random
}

// NewHybrid 创建混合推荐器；r 为 nil 时使用基于时间种子的随机源。
func NewHybrid(r Random) *Hybrid {
	if r == nil {
		r = NewRandom(0)
	}
	return &Hybrid{Rand: r}
}

func (h *Hybrid) Name() string { return "rank.hybrid" }

// Recommend 为目录中每个商品生成一个推荐分，按分数降序返回（平局保持目录顺序）。
func (h *Hybrid) Recommend(catalog core.Catalog, log []core.Interaction) []core.RecommendationScore {
	if len(catalog) == 0 {
		return []core.RecommendationScore{}
	}

	var scores []core.RecommendationScore
	if len(log) == 0 {
		metrics.Recommendations.WithLabelValues("cold").Inc()
		scores = h.coldStart(catalog)
	} else {
		metrics.Recommendations.WithLabelValues("warm").Inc()
		scores = h.warm(catalog, log)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

func (h *Hybrid) coldStart(catalog core.Catalog) []core.RecommendationScore {
	scores := make([]core.RecommendationScore, len(catalog))
	for i, p := range catalog {
		scores[i] = core.RecommendationScore{
			ProductID: p.ID,
			Score:     core.Clamp01(h.Rand.Float64()),
			Reasons:   []string{ReasonFeatured},
		}
	}
	return scores
}

func (h *Hybrid) warm(catalog core.Catalog, log []core.Interaction) []core.RecommendationScore {
	agg := feature.AggregateInteractions(catalog, log)
	viewed := viewedProducts(catalog, log)

	scores := make([]core.RecommendationScore, len(catalog))
	for i, p := range catalog {
		var score float64
		reasons := make([]string, 0, 3)

		// 1. 热度：评分越高起点越高
		score += p.Rating.Rate / 5 * popularityWeight

		// 2. 历史交互
		if views := agg.Views[p.ID]; views > 0 {
			score += math.Min(float64(views)*interactionWeight, interactionCap)
			reasons = append(reasons, fmt.Sprintf("You viewed this %d time(s)", views))
		}

		// 3. 类别偏好
		if affinity := agg.Affinity[p.Category]; affinity > 0 {
			bonus := math.Min(float64(affinity)*categoryBonusWeight, categoryBonusCap)
			score += bonus
			reasons = append(reasons, fmt.Sprintf("You like products in the %s category", p.Category))
		}

		// 4. 与看过的其他商品的最大相似度，超过阈值才加分
		var maxSim float64
		for _, other := range viewed {
			if other.ID == p.ID {
				continue
			}
			maxSim = math.Max(maxSim, Similarity(p, other))
		}
		if maxSim > similarityThreshold {
			score += maxSim * similarityWeight
			reasons = append(reasons, ReasonSimilar)
		}

		// 5. 探索项，不附带理由
		score += h.Rand.Float64() * explorationWeight

		if len(reasons) == 0 {
			reasons = append(reasons, ReasonTrending)
		}

		scores[i] = core.RecommendationScore{
			ProductID: p.ID,
			Score:     core.Clamp01(score),
			Reasons:   reasons,
		}
	}
	return scores
}

// viewedProducts 返回日志中出现过、且能在目录中找到的去重商品（按首次出现顺序）。
func viewedProducts(catalog core.Catalog, log []core.Interaction) []core.Product {
	index := catalog.Index()
	seen := make(map[int64]struct{}, len(log))
	out := make([]core.Product, 0, len(log))
	for _, it := range log {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		if i, ok := index[it.ProductID]; ok {
			out = append(out, catalog[i])
		}
	}
	return out
}
