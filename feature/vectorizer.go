package feature

import (
	"sort"

	"github.com/rushteam/shoprec/core"
)

// NumericFeatures 是类别块之后的数值特征个数：价格、评分、评价数、热度排名。
const NumericFeatures = 4

// Vectorizer 把商品转换为定长特征向量。
//
// 向量布局：
//
//	[类别 One-Hot ..., 价格, 评分, 评价数, 热度排名]
//
// 所有分量都归一化到 [0,1]：
//   - 价格 = price / 目录最高价（最高价为 0 时取 0）
//   - 评分 = rate / 5
//   - 评价数 = count / 目录最大评价数（最大值为 0 时取 0）
//   - 热度排名 = 按评分降序排序后的位置 / 目录大小
//
// 一个 Vectorizer 绑定一次目录快照，类别顺序、最大值和排名都在构造时算好，
// 保证同一次计算产出的所有向量长度与类别顺序一致。
type Vectorizer struct {
	catalog  core.Catalog
	encoder  *OneHotEncoder
	maxPrice float64
	maxCount int
	rank     map[int64]int
}

// NewVectorizer 基于目录快照创建 Vectorizer。
func NewVectorizer(catalog core.Catalog) *Vectorizer {
	categories := make([]string, len(catalog))
	for i, p := range catalog {
		categories[i] = p.Category
	}

	v := &Vectorizer{
		catalog: catalog,
		encoder: NewOneHotEncoder(categories),
		rank:    make(map[int64]int, len(catalog)),
	}
	for _, p := range catalog {
		if p.Price > v.maxPrice {
			v.maxPrice = p.Price
		}
		if p.Rating.Count > v.maxCount {
			v.maxCount = p.Rating.Count
		}
	}

	// 评分降序，平局保持目录顺序
	order := make([]int, len(catalog))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return catalog[order[a]].Rating.Rate > catalog[order[b]].Rating.Rate
	})
	for pos, i := range order {
		if _, ok := v.rank[catalog[i].ID]; !ok {
			v.rank[catalog[i].ID] = pos
		}
	}
	return v
}

// Categories 返回类别顺序（首次出现顺序）。
func (v *Vectorizer) Categories() []string {
	return v.encoder.Categories
}

// Width 返回向量长度：类别数 + NumericFeatures。
func (v *Vectorizer) Width() int {
	return v.encoder.Len() + NumericFeatures
}

// Vectorize 生成商品的特征向量。
// 不在目录中的商品排名取目录大小（归一化后为 1）。
func (v *Vectorizer) Vectorize(p core.Product) Vector {
	out := make(Vector, 0, v.Width())
	out = append(out, v.encoder.Encode(p.Category)...)

	var price float64
	if v.maxPrice > 0 {
		price = p.Price / v.maxPrice
	}
	out = append(out, price)

	out = append(out, p.Rating.Rate/5)

	var count float64
	if v.maxCount > 0 {
		count = float64(p.Rating.Count) / float64(v.maxCount)
	}
	out = append(out, count)

	var rank float64
	if n := len(v.catalog); n > 0 {
		pos, ok := v.rank[p.ID]
		if !ok {
			pos = n
		}
		rank = float64(pos) / float64(n)
	}
	out = append(out, rank)

	return out
}

// Vectorize 是一次性的便捷形式：基于 catalog 生成 p 的特征向量。
// 批量生成时请复用 NewVectorizer，避免重复扫描目录。
func Vectorize(p core.Product, catalog core.Catalog) Vector {
	return NewVectorizer(catalog).Vectorize(p)
}

// WidenCategoryBlock 把类别块补零扩展，使向量长度等于 width，数值特征始终位于末尾。
// categories 是原向量中类别块的长度；width 不大于原长度时原样返回。
func WidenCategoryBlock(v Vector, categories, width int) Vector {
	if width <= len(v) || categories < 0 || categories > len(v) {
		return v
	}
	out := make(Vector, width)
	copy(out, v[:categories])
	copy(out[width-(len(v)-categories):], v[categories:])
	return out
}
