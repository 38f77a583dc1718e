package rerank

import (
	"context"
	"testing"

	"github.com/recbox/recbox/core"
)

func TestTopNNode(t *testing.T) {
	items := []core.ScoredItem{
		{ItemID: 1, Score: 5.0},
		{ItemID: 2, Score: 4.0},
		{ItemID: 3, Score: 3.0},
	}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "truncate", n: 2, want: 2},
		{name: "exact fit", n: 3, want: 3},
		{name: "larger than input", n: 10, want: 3},
		{name: "zero keeps all", n: 0, want: 3},
		{name: "negative keeps all", n: -1, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			got, err := node.Process(context.Background(), nil, items)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("kept %d items, want %d", len(got), tt.want)
			}
			// 截断保序：保留的必须是前缀
			for i, item := range got {
				if item.ItemID != items[i].ItemID {
					t.Errorf("order changed at %d: %v", i, got)
				}
			}
		})
	}
}
