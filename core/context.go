package core

// QueryContext 承载一次推荐查询的上下文，贯穿合并后的处理链路透传。
type QueryContext struct {
	UserID int64
	Limit  int

	// Params 请求级参数，供表达式过滤器等节点按需读取。
	Params map[string]any
}
