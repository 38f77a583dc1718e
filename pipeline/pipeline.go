// Package pipeline 把推荐结果的合并后处理拆成可组合的 Node 链。
package pipeline

import (
	"context"

	"github.com/recbox/recbox/core"
)

// Pipeline 依次执行 Node 链，前一个 Node 的输出是后一个的输入。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	qctx *core.QueryContext,
	items []core.ScoredItem,
) ([]core.ScoredItem, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, qctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
