package pipeline

import (
	"context"

	"github.com/recbox/recbox/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的候选
	KindReRank      Kind = "rerank"      // 重排阶段：截断/调序
	KindPostProcess Kind = "postprocess" // 后处理阶段：最终结果修饰
)

// Node 是后处理链路的最小可组合单元。
// 统一采用"输入候选 -> 输出候选"的形态，过滤、截断都是一个 Node。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		qctx *core.QueryContext,
		items []core.ScoredItem,
	) ([]core.ScoredItem, error)
}
