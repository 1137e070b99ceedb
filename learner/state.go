package learner

import (
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
)

// State 是在线学习器的状态。
//
//	Uninitialized --Initialize--> Initializing --ok--> Ready
//	                                   |--fail--> Uninitialized
//	Ready --Train(≥ 阈值)--> Training --> Ready
//
// 任何时刻只有 Ready 状态可以开始训练；忙碌时的调用直接返回 ErrLearnerBusy，不排队。
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateTraining
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateTraining:
		return "training"
	default:
		return "unknown"
	}
}

// 学习器错误定义（使用统一的 DomainError）
var (
	// ErrLearnerBusy 表示正在初始化或训练，本次调用被丢弃
	ErrLearnerBusy = core.NewDomainError(core.ModuleLearner, core.ErrorCodeBusy, "learner: busy")

	// ErrLearnerNotReady 表示尚未初始化
	ErrLearnerNotReady = core.NewDomainError(core.ModuleLearner, core.ErrorCodeNotReady, "learner: not initialized")

	// ErrModelNotFound 表示存储中没有可用的模型（不存在或无法解析）
	ErrModelNotFound = core.NewDomainError(core.ModuleLearner, core.ErrorCodeNotFound, "learner: persisted model not found")

	// ErrModelShapeMismatch 表示持久化模型的输入/输出维度与当前商品目录不一致
	ErrModelShapeMismatch = core.NewDomainError(core.ModuleLearner, core.ErrorCodeShapeMismatch, "learner: persisted model shape does not match catalog")
)

// TrainOutcome 是一次训练请求的结果。
type TrainOutcome string

const (
	TrainSkipped   TrainOutcome = "skipped"   // 行为数不足
	TrainNoPairs   TrainOutcome = "no_pairs"  // 没有可用的样本对
	TrainCompleted TrainOutcome = "completed" // 训练完成
	TrainFailed    TrainOutcome = "failed"    // fit 失败
	TrainDropped   TrainOutcome = "dropped"   // 忙碌时被丢弃（由调用方标记）
)

// TrainReport 描述一次训练请求。fit/save 的失败记录在这里，不作为错误返回。
type TrainReport struct {
	Outcome      TrainOutcome
	Interactions int
	Pairs        int
	History      model.History
	Duration     time.Duration
	Saved        bool
	Err          error // fit 失败原因
	SaveErr      error // 保存失败原因
}

// Status 是学习器的只读快照。
type Status struct {
	State          State
	LastError      string
	LastTrainedAt  time.Time
	TrainedSamples int
	ModelVersion   int
	InputDim       int
	OutputDim      int
}
