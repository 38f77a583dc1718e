package filter

import (
	"context"

	"github.com/recbox/recbox/core"
)

// RatedFilter 移除查询用户已经评过分的物品。
// 引擎内部本就不会推已评分物品，协调器也会按排除集合并前剔除；
// 此过滤器面向配置驱动的链路，在引擎训练快照落后于评分集合时兜底。
type RatedFilter struct {
	Ratings core.RatingStore
}

func (f *RatedFilter) Name() string {
	return "filter.rated"
}

func (f *RatedFilter) ShouldFilter(
	ctx context.Context,
	qctx *core.QueryContext,
	item core.ScoredItem,
) (bool, error) {
	if f.Ratings == nil || qctx == nil {
		return false, nil
	}

	ratings, err := f.Ratings.RatingsByUser(ctx, qctx.UserID)
	if err != nil {
		return false, err
	}
	for _, r := range ratings {
		if r != nil && r.ItemID == item.ItemID {
			return true, nil
		}
	}
	return false, nil
}
