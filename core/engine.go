package core

import "context"

// Dataset 是一次训练的全量输入快照，由协调器从三个外部集合拉取拼装。
// 引擎每次 Train 都从这份快照整体重建内部状态，没有增量路径。
type Dataset struct {
	Users   []*User
	Items   []*Item
	Ratings []*Rating
}

// Engine 是推荐引擎的统一抽象。协调器只依赖这两个能力：
// 全量训练 + 针对单个用户产出候选。协同引擎与内容引擎各自实现，
// 二者除接口形状外不共享任何状态或行为。
//
// 约定：
//   - Train 必须完整执行；不存在"半训练"状态，引擎要么从未训练
//     （查询返回空），要么训练完成。
//   - 训练期间引擎独占自身状态；训练完成后查询是只读的，
//     可以被并发调用。
type Engine interface {
	Name() string
	Train(ctx context.Context, data *Dataset) error
	RecommendForUser(ctx context.Context, userID int64, limit int) ([]ScoredItem, error)
}
