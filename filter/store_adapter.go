package filter

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 黑名单以 JSON 数组（商品 ID）的形式保存在单个 key 下。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]int64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode blacklist %s: %w", key, err)
	}
	return ids, nil
}

// PutBlacklist 覆盖写入黑名单。
func (a *StoreAdapter) PutBlacklist(ctx context.Context, key string, ids []int64) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode blacklist %s: %w", key, err)
	}
	return a.store.Set(ctx, key, data)
}
