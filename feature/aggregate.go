package feature

import "github.com/rushteam/shoprec/core"

// Aggregate 是对行为日志的汇总统计。
type Aggregate struct {
	// Views 每个商品的交互次数（包括目录中已不存在的商品）
	Views map[int64]int

	// Affinity 每个类别的偏好计数，只统计能在目录中找到商品的交互
	Affinity map[string]int

	// Dwell 每个商品累计的停留时长（秒），只来自 time_spent 事件
	Dwell map[int64]float64
}

// AggregateInteractions 统计交互次数与类别偏好。纯函数。
func AggregateInteractions(catalog core.Catalog, log []core.Interaction) Aggregate {
	agg := Aggregate{
		Views:    make(map[int64]int),
		Affinity: make(map[string]int),
		Dwell:    make(map[int64]float64),
	}
	index := catalog.Index()
	for _, it := range log {
		agg.Views[it.ProductID]++
		if it.Kind == core.KindTimeSpent && it.Value != nil {
			agg.Dwell[it.ProductID] += *it.Value
		}
		if i, ok := index[it.ProductID]; ok {
			agg.Affinity[catalog[i].Category]++
		}
	}
	return agg
}
