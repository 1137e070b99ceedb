package pipeline

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindRank        Kind = "rank"        // 排序阶段：为目录中的商品打分
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的商品
	KindReRank      Kind = "rerank"      // 重排阶段：截断或业务调优
	KindPostProcess Kind = "postprocess" // 后处理阶段
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 scores -> 输出 scores”的形态：Rank 节点生成，Filter 节点剔除，ReRank 节点截断/重排。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		scores []core.RecommendationScore,
	) ([]core.RecommendationScore, error)
}
