package core

// User 是推荐链路中的用户实体。
// Preferences 是显式的类目偏好（类目名 -> 权重 0..1），由上游保证取值范围；
// 内容引擎用它为用户画像的类目特征做种子，评分贡献在其上累加而不是覆盖。
type User struct {
	ID          int64
	Preferences map[string]float64
	History     []int64
}
