package core

// Rating 是商品评分：Rate ∈ [0,5]，Count 为评价数。
type Rating struct {
	Rate  float64 `json:"rate" validate:"gte=0,lte=5"`
	Count int     `json:"count" validate:"gte=0"`
}

// Product 是商品目录中的一条记录，字段与商品 API 的 JSON 保持一致。
// 一旦获取即视为不可变，归属于某一次目录快照。
type Product struct {
	ID          int64   `json:"id" validate:"required"`
	Title       string  `json:"title"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Image       string  `json:"image,omitempty"`
	Rating      Rating  `json:"rating"`
}

// Catalog 是一次商品目录快照，顺序即目录顺序（排序平局时的次序依据）。
type Catalog []Product

// Find 按 ID 查找商品；同 ID 多条时返回第一条。
func (c Catalog) Find(id int64) (Product, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return c[i], true
	}
	return Product{}, false
}

// IndexOf 返回商品在目录中的下标，不存在返回 -1。
func (c Catalog) IndexOf(id int64) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Index 构建 ID -> 下标 的索引，用于批量查找。同 ID 保留第一条。
func (c Catalog) Index() map[int64]int {
	idx := make(map[int64]int, len(c))
	for i := range c {
		if _, ok := idx[c[i].ID]; !ok {
			idx[c[i].ID] = i
		}
	}
	return idx
}

// IDs 按目录顺序返回所有商品 ID。
func (c Catalog) IDs() []int64 {
	ids := make([]int64, len(c))
	for i := range c {
		ids[i] = c[i].ID
	}
	return ids
}
