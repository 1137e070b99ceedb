package builders

import (
	"fmt"
	"sync"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/rerank"
)

func init() {
	config.Register("rank.hybrid", BuildHybridNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

var (
	blacklistStoreMu sync.RWMutex
	blacklistStore   *filter.StoreAdapter
)

// UseStore 设置 blacklist 过滤器从配置构建时使用的存储；之后构建的 filter 节点生效。
func UseStore(s core.Store) {
	blacklistStoreMu.Lock()
	defer blacklistStoreMu.Unlock()
	if s == nil {
		blacklistStore = nil
		return
	}
	blacklistStore = filter.NewStoreAdapter(s)
}

// BuildHybridNode 配置项：seed（可选，0 表示按时间取种子）。
func BuildHybridNode(cfg map[string]interface{}) (pipeline.Node, error) {
	seed := conv.ConfigGetInt64(cfg, "seed", 0)
	return &rank.HybridNode{Recommender: rank.NewHybrid(rank.NewRandom(seed))}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("n must be >= 0, got %d", n)
	}
	return &rerank.TopNNode{N: int(n)}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{MaxPerCategory: int(conv.ConfigGetInt64(cfg, "max_per_category", 1))}, nil
}

// BuildFilterNode 配置项 filters 为列表，每项按 type 区分：
//   - blacklist: product_ids, key
//   - exposed: time_window（毫秒）, min_count
//   - expr: expr, invert
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	blacklistStoreMu.RLock()
	adapter := blacklistStore
	blacklistStoreMu.RUnlock()

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		switch filterType := conv.ConfigGet(filterMap, "type", ""); filterType {
		case "blacklist":
			ids := conv.SliceAnyToInt64(filterMap["product_ids"])
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))

		case "exposed":
			timeWindow := conv.ConfigGetInt64(filterMap, "time_window", 0)
			minCount := conv.ConfigGetInt64(filterMap, "min_count", 1)
			filters = append(filters, filter.NewExposedFilter(timeWindow, int(minCount)))

		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""), conv.ConfigGet(filterMap, "invert", false))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}
