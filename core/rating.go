package core

// Rating 是一条评分记录。Value 的取值范围（0..5）由上游校验保证，
// 引擎内部不再重复校验；同一 (user, item) 不会出现多条记录，
// 这同样是上游契约，引擎不做去重。
type Rating struct {
	UserID int64
	ItemID int64
	Value  float64
}
