package core

import (
	"fmt"
	"sync"
)

// InteractionKind 是用户行为类型。
type InteractionKind string

const (
	KindClick     InteractionKind = "click"
	KindView      InteractionKind = "view"
	KindTimeSpent InteractionKind = "time_spent"
)

// Valid 判断行为类型是否合法。
func (k InteractionKind) Valid() bool {
	switch k {
	case KindClick, KindView, KindTimeSpent:
		return true
	}
	return false
}

// Interaction 是一条用户行为事件。
//   - ProductID 可能指向已下架商品，下游必须能容忍
//   - Timestamp 为毫秒
//   - Value 仅对 time_spent 有意义（秒）
type Interaction struct {
	ProductID int64           `json:"productId"`
	Timestamp int64           `json:"timestamp"`
	Kind      InteractionKind `json:"type"`
	Value     *float64        `json:"value,omitempty"`
}

// Session 是时间上连续（相邻间隔不超过会话超时）的一段行为。
// 只在构建训练数据时临时计算，不做存储。
type Session []Interaction

// ErrInvalidInteraction 表示行为事件字段非法。
var ErrInvalidInteraction = NewDomainError("interaction", ErrorCodeInvalidInput, "interaction: invalid kind")

// InteractionLog 是只追加的行为日志，并发安全。
// 条目一经写入不会被修改或删除；读取方通过 Snapshot 拿到一致的副本。
type InteractionLog struct {
	mu      sync.RWMutex
	entries []Interaction
}

// NewInteractionLog 用已有的行为初始化日志（会复制一份）。
func NewInteractionLog(initial ...Interaction) *InteractionLog {
	l := &InteractionLog{entries: make([]Interaction, 0, len(initial))}
	l.entries = append(l.entries, initial...)
	return l
}

// Append 追加一条行为。
func (l *InteractionLog) Append(it Interaction) error {
	if !it.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidInteraction, it.Kind)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, it)
	return nil
}

// Len 返回当前条数。
func (l *InteractionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Snapshot 返回当前日志的副本，调用方可以在计算期间安全持有。
func (l *InteractionLog) Snapshot() []Interaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Interaction, len(l.entries))
	copy(out, l.entries)
	return out
}
