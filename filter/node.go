package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该商品就会被过滤掉；剩余结果保持原有顺序。
type FilterNode struct {
	Filters []Filter
	Logger  *zerolog.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	scores []core.RecommendationScore,
) ([]core.RecommendationScore, error) {
	if len(n.Filters) == 0 || len(scores) == 0 {
		return scores, nil
	}

	logger := n.Logger
	if logger == nil {
		logger = logging.Ctx(ctx)
	}

	out := make([]core.RecommendationScore, 0, len(scores))
	for _, s := range scores {
		filteredBy := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, s)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				logger.Debug().Err(err).Str("filter", f.Name()).Int64("product_id", s.ProductID).Msg("filter error, keeping item")
				continue
			}
			if ok {
				filteredBy = f.Name()
				break
			}
		}

		if filteredBy != "" {
			logger.Debug().Str("filter", filteredBy).Int64("product_id", s.ProductID).Msg("filtered")
			continue
		}
		out = append(out, s)
	}

	return out, nil
}
