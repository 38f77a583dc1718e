package core

// Item 是推荐链路中的物品实体：属性特征 + 类目归属。
// Features 是命名数值特征（时长、热度、年份等）；Categories 在内容引擎中
// 会被转换为 category_<name> 形式的二值特征，与属性特征共用一套词表。
type Item struct {
	ID         int64
	Name       string
	Categories []string
	Features   map[string]float64
}

// ScoredItem 是引擎输出的候选：物品 ID + 预测评分。
type ScoredItem struct {
	ItemID int64
	Score  float64
}

// Recommendation 是协调器最终输出的推荐记录，已补全展示信息。
type Recommendation struct {
	ItemID     int64
	Name       string
	Score      float64 // 保留 3 位小数
	Categories []string
}
