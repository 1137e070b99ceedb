// Package moderation 在评论入库前调用外部毒性分类器。
//
// 分类器被当作不透明的布尔预言机：true 表示有毒。分类器不可用时一律返回
// ErrOracleUnavailable，永远不会被当成“无毒”放行。
package moderation

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Oracle 是毒性分类器。
type Oracle interface {
	Classify(ctx context.Context, text string) (toxic bool, err error)
}

// OracleFunc 把普通函数适配为 Oracle。
type OracleFunc func(ctx context.Context, text string) (bool, error)

func (f OracleFunc) Classify(ctx context.Context, text string) (bool, error) {
	return f(ctx, text)
}

// 审核错误定义（使用统一的 DomainError）
var (
	// ErrOracleUnavailable 表示分类器未就绪、出错或熔断
	ErrOracleUnavailable = core.NewDomainError(core.ModuleModeration, core.ErrorCodeUnavailable, "moderation: toxicity oracle unavailable")

	// ErrCommentRejected 表示评论被判定为含有不当内容
	ErrCommentRejected = core.NewDomainError(core.ModuleModeration, core.ErrorCodeRejected, "Comment contains inappropriate content. Please revise your message.")

	// ErrEmptyComment 表示评论内容为空
	ErrEmptyComment = core.NewDomainError(core.ModuleModeration, core.ErrorCodeInvalidInput, "moderation: empty comment")
)
