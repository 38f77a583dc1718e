package filter

import (
	"context"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器。
// 任何一个过滤器返回 true，该候选就被移除；
// 单个过滤器出错时跳过该过滤器，不中断整条链路。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	qctx *core.QueryContext,
	items []core.ScoredItem,
) ([]core.ScoredItem, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]core.ScoredItem, 0, len(items))
	for _, item := range items {
		keep := true
		for _, f := range n.Filters {
			drop, err := f.ShouldFilter(ctx, qctx, item)
			if err != nil {
				continue
			}
			if drop {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out, nil
}
