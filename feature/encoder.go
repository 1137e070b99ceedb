package feature

// Vector 是定长数值特征向量。
type Vector []float64

// OneHotEncoder One-Hot 编码（独热编码）
// 将类别特征转换为二进制向量，每个类别对应一个维度。
// 类别顺序按首次出现的顺序固定，同一个编码器产出的向量布局完全一致。
type OneHotEncoder struct {
	Categories []string
	index      map[string]int
}

// NewOneHotEncoder 创建 One-Hot 编码器，values 中重复的类别只保留首次出现。
func NewOneHotEncoder(values []string) *OneHotEncoder {
	e := &OneHotEncoder{index: make(map[string]int, len(values))}
	for _, v := range values {
		if _, ok := e.index[v]; ok {
			continue
		}
		e.index[v] = len(e.Categories)
		e.Categories = append(e.Categories, v)
	}
	return e
}

// Len 返回类别数（即编码维度）。
func (e *OneHotEncoder) Len() int {
	return len(e.Categories)
}

// Index 返回类别下标，未知类别返回 -1。
func (e *OneHotEncoder) Index(value string) int {
	if i, ok := e.index[value]; ok {
		return i
	}
	return -1
}

// Encode 把类别编码为 One-Hot 向量；未知类别返回全 0 向量。
func (e *OneHotEncoder) Encode(value string) Vector {
	out := make(Vector, e.Len())
	if i := e.Index(value); i >= 0 {
		out[i] = 1
	}
	return out
}

// OneHot 生成长度为 n、在 idx 处为 1 的向量；idx 越界时返回全 0 向量。
func OneHot(n, idx int) Vector {
	out := make(Vector, n)
	if idx >= 0 && idx < n {
		out[idx] = 1
	}
	return out
}
