// Package shoprec 是单用户商品推荐引擎：按行为日志对商品目录重新排序，
// 并在浏览会话上在线训练“下一个商品”分类器。
//
// 设计要点：
// - Pipeline-first: 打分之后的过滤、截断通过 Node 串联（Rank → Filter → ReRank）
// - Reasons-first: 每个推荐分都带有可读的推荐理由
// - 状态显式: 在线学习器是显式状态机，忙碌时丢弃请求而不是排队
package shoprec

import (
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/pipeline"
)

// 轻量 facade：便于直接 import "shoprec" 使用核心抽象。
type (
	Engine   = engine.Engine
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
)

const (
	KindRank        = pipeline.KindRank
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewEngine 等价于 engine.New。
var NewEngine = engine.New
