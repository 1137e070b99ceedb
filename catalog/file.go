package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// FileSource 从本地 JSON 文件（与商品 API 相同格式的数组）读取目录，读取后做校验。
type FileSource struct {
	Path string
}

func (s FileSource) Products(ctx context.Context) (core.Catalog, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		metrics.CatalogFetches.WithLabelValues("file", "error").Inc()
		return nil, fmt.Errorf("read catalog %s: %w", s.Path, err)
	}
	var catalog core.Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		metrics.CatalogFetches.WithLabelValues("file", "error").Inc()
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidCatalog, s.Path, err)
	}
	if err := Validate(catalog); err != nil {
		metrics.CatalogFetches.WithLabelValues("file", "error").Inc()
		return nil, err
	}
	metrics.CatalogFetches.WithLabelValues("file", "ok").Inc()
	return catalog, nil
}

var _ Source = FileSource{}
