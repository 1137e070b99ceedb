package sequence

import (
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
)

// Pairs 是监督学习样本：Inputs[i] 为当前商品的特征向量，Outputs[i] 为下一个商品的 One-Hot（长度为目录大小）。
type Pairs struct {
	Inputs  [][]float64
	Outputs [][]float64
}

// Len 返回样本数。
func (p Pairs) Len() int { return len(p.Inputs) }

// BuildPairs 从会话中构造训练样本。
//
// 长度不少于 2 的会话里，每对相邻行为 (cur, next) 只要两个商品都能在目录中找到，
// 就产出一条样本；任一商品已不存在时跳过这一对。所有向量共用同一个 Vectorizer，布局一致。
func BuildPairs(catalog core.Catalog, sessions []core.Session) Pairs {
	var pairs Pairs
	if len(catalog) == 0 {
		return pairs
	}

	vectorizer := feature.NewVectorizer(catalog)
	index := catalog.Index()

	for _, session := range sessions {
		if len(session) < 2 {
			continue
		}
		for i := 0; i < len(session)-1; i++ {
			cur, ok := index[session[i].ProductID]
			if !ok {
				continue
			}
			next, ok := index[session[i+1].ProductID]
			if !ok {
				continue
			}
			pairs.Inputs = append(pairs.Inputs, vectorizer.Vectorize(catalog[cur]))
			pairs.Outputs = append(pairs.Outputs, feature.OneHot(len(catalog), next))
		}
	}
	return pairs
}
