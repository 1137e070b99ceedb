// Package catalog 提供商品目录的获取与校验：HTTP 商品 API、本地 JSON 文件。
package catalog

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Source 是商品目录来源。返回的 Catalog 是一次快照，调用方不应修改。
type Source interface {
	Products(ctx context.Context) (core.Catalog, error)
}

// 目录错误定义（使用统一的 DomainError）
var (
	// ErrProductNotFound 表示商品不存在
	ErrProductNotFound = core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "catalog: product not found")

	// ErrUnavailable 表示商品服务不可用（重试耗尽）
	ErrUnavailable = core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: source unavailable")

	// ErrInvalidCatalog 表示目录数据不满足约束
	ErrInvalidCatalog = core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "catalog: invalid catalog")
)
