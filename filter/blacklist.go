package filter

import (
	"context"

	"github.com/recbox/recbox/core"
)

// BlacklistFilter 是黑名单过滤器，移除名单内的物品。
type BlacklistFilter struct {
	itemIDs map[int64]struct{}
}

// NewBlacklistFilter 创建黑名单过滤器。
func NewBlacklistFilter(itemIDs []int64) *BlacklistFilter {
	set := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		set[id] = struct{}{}
	}
	return &BlacklistFilter{itemIDs: set}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.QueryContext,
	item core.ScoredItem,
) (bool, error) {
	_, blocked := f.itemIDs[item.ItemID]
	return blocked, nil
}
