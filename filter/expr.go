package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤商品。
//
// 默认语义是“表达式为 true 时保留”；Invert 为 true 时反过来，表达式为 true 时过滤。
//
//	filter.NewExprFilter(`item.price <= 100.0`, false)        // 只保留 100 以内的商品
//	filter.NewExprFilter(`item.category == "jewelery"`, true) // 去掉珠宝类
type ExprFilter struct {
	Expr   string
	Invert bool

	prg *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr, Invert: invert, prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	score core.RecommendationScore,
) (bool, error) {
	ok, err := f.prg.Eval(score, rctx)
	if err != nil {
		return false, err
	}
	if f.Invert {
		return ok, nil
	}
	return !ok, nil
}
