// Package sequence 把行为日志切分成会话，并从会话中构造“当前商品 -> 下一个商品”的监督样本。
package sequence

import (
	"sort"

	"github.com/rushteam/shoprec/core"
)

// SessionGap 是会话切分阈值（毫秒）：相邻两条行为间隔严格大于 30 分钟时开启新会话。
const SessionGap int64 = 30 * 60 * 1000

// Segment 按时间戳稳定排序后切分会话。
// 每个会话至少包含一条行为，最后一个会话（包括只有一条的）也会输出。
// 输入不会被修改。
func Segment(log []core.Interaction) []core.Session {
	if len(log) == 0 {
		return nil
	}

	sorted := make([]core.Interaction, len(log))
	copy(sorted, log)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var (
		sessions []core.Session
		current  = core.Session{sorted[0]}
	)
	for _, it := range sorted[1:] {
		if it.Timestamp-current[len(current)-1].Timestamp > SessionGap {
			sessions = append(sessions, current)
			current = core.Session{}
		}
		current = append(current, it)
	}
	return append(sessions, current)
}
