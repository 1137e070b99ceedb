package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Learner 错误：BUSY, NOT_READY, SHAPE_MISMATCH
//   - Moderation 错误：UNAVAILABLE, REJECTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "BUSY"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "learner", "moderation"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 状态机 / 模型相关
	ErrorCodeBusy          = "BUSY"           // 正在初始化或训练，本次调用被丢弃
	ErrorCodeNotReady      = "NOT_READY"      // 尚未初始化
	ErrorCodeShapeMismatch = "SHAPE_MISMATCH" // 持久化模型与当前商品目录尺寸不一致
	ErrorCodeRejected      = "REJECTED"       // 内容被拒绝（例如评论含有不当内容）
)

// 模块名称常量
const (
	ModuleStore      = "store"      // 存储模块
	ModuleFeature    = "feature"    // 特征模块
	ModuleCatalog    = "catalog"    // 商品目录模块
	ModuleModel      = "model"      // 模型模块
	ModuleLearner    = "learner"    // 在线学习模块
	ModuleModeration = "moderation" // 评论审核模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}
