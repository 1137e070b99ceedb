package model

import "github.com/rushteam/shoprec/core"

// Classifier 是多分类模型的最小抽象：输入定长特征向量，输出每个类别的概率。
// 在线学习器只依赖这个接口做推理；训练和序列化使用具体的 *Network。
type Classifier interface {
	InputDim() int
	OutputDim() int
	Predict(x []float64) ([]float64, error)
}

var _ Classifier = (*Network)(nil)

// 模型错误定义（使用统一的 DomainError）
var (
	// ErrShape 表示输入/输出维度与网络结构不一致
	ErrShape = core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: shape mismatch")

	// ErrInvalidModel 表示序列化数据无法解析或结构不完整
	ErrInvalidModel = core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError, "model: invalid model blob")
)
