package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，使用 CEL (Common Expression Language) 语法。
// 编译一次后可以被多个 goroutine 并发求值。
//
// 可用变量：
//   - item.id / item.score / item.reasons：推荐分
//   - item.title / item.category / item.price / item.rate / item.count：商品字段（商品不在目录中时为零值）
//   - rctx.request_id / rctx.params：请求上下文
//
// 示例：
//   - `item.category == "electronics"`
//   - `item.price <= 100.0 && item.rate >= 4.0`
//   - `item.reasons.exists(r, r == "Trending now")`
//   - `"scene" in rctx.params && rctx.params.scene == "home"`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对一条推荐分求值。
func (p *Program) Eval(score core.RecommendationScore, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(score, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 是一次性的便捷形式：编译并求值。
func Evaluate(expr string, score core.RecommendationScore, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(score, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(score core.RecommendationScore, rctx *core.RecommendContext) map[string]interface{} {
	product, _ := rctx.Product(score.ProductID)

	reasons := score.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	item := map[string]interface{}{
		"id":       score.ProductID,
		"score":    score.Score,
		"reasons":  reasons,
		"title":    product.Title,
		"category": product.Category,
		"price":    product.Price,
		"rate":     product.Rating.Rate,
		"count":    int64(product.Rating.Count),
	}

	params := map[string]interface{}{}
	requestID := ""
	if rctx != nil {
		requestID = rctx.RequestID
		for k, v := range rctx.Params {
			params[k] = v
		}
	}

	return map[string]interface{}{
		"item": item,
		"rctx": map[string]interface{}{
			"request_id": requestID,
			"params":     params,
		},
	}
}
