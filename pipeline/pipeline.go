package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行每个 Node，任一 Node 出错即中止。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	scores []core.RecommendationScore,
) ([]core.RecommendationScore, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	cur := scores
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
