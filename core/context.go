package core

// RecommendContext 承载一次推荐请求的输入快照，贯穿整个 Pipeline 透传。
//
// Catalog 与 Interactions 都是调用方提供的只读快照：
// 计算期间对日志的并发追加不可见（由调用方负责 snapshot）。
type RecommendContext struct {
	// RequestID 用于日志关联
	RequestID string

	// Catalog 当前商品目录快照
	Catalog Catalog

	// Interactions 当前用户的行为日志快照
	Interactions []Interaction

	// Params 请求级上下文参数（例如 scene、page），可在过滤表达式中通过 rctx.params 访问
	Params map[string]any
}

// Product 在目录快照中按 ID 查找商品。
func (rctx *RecommendContext) Product(id int64) (Product, bool) {
	if rctx == nil {
		return Product{}, false
	}
	return rctx.Catalog.Find(id)
}
