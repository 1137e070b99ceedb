package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// ExposedFilter 是已曝光过滤器，过滤掉用户近期已经交互过的商品。
// 数据来自请求上下文中的行为日志快照，不访问外部存储。
type ExposedFilter struct {
	// TimeWindow 是曝光时间窗口（毫秒），以日志中最新一条行为的时间为基准；0 表示不限
	TimeWindow int64

	// MinCount 是达到多少次交互才视为已曝光，默认 1
	MinCount int
}

// NewExposedFilter 创建一个已曝光过滤器。
func NewExposedFilter(timeWindow int64, minCount int) *ExposedFilter {
	return &ExposedFilter{TimeWindow: timeWindow, MinCount: minCount}
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

func (f *ExposedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	score core.RecommendationScore,
) (bool, error) {
	if rctx == nil || len(rctx.Interactions) == 0 {
		return false, nil
	}

	minCount := f.MinCount
	if minCount <= 0 {
		minCount = 1
	}

	var latest int64
	for _, it := range rctx.Interactions {
		if it.Timestamp > latest {
			latest = it.Timestamp
		}
	}
	cutoff := latest - f.TimeWindow

	count := 0
	for _, it := range rctx.Interactions {
		if it.ProductID != score.ProductID {
			continue
		}
		if f.TimeWindow > 0 && it.Timestamp < cutoff {
			continue
		}
		count++
		if count >= minCount {
			return true, nil
		}
	}
	return false, nil
}
