// Package rerank 提供排序结果上的重排/截断节点。
package rerank

import (
	"context"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/pipeline"
)

// TopNNode 是 Top-N 截断节点，保留前 N 个候选。
// 通常作为后处理链路的最后一个节点，控制返回结果数量。
// N <= 0 表示不截断。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.QueryContext,
	items []core.ScoredItem,
) ([]core.ScoredItem, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
