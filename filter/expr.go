package filter

import (
	"context"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/pkg/dsl"
)

// ExprFilter 是表达式过滤器：CEL 表达式求值为 true 的候选被移除。
// 表达式可访问 item.id / item.score / query.user_id / query.params，
// 详见 pkg/dsl。
type ExprFilter struct {
	eval *dsl.Eval
}

// NewExprFilter 编译表达式并创建过滤器；表达式非法时报错。
func NewExprFilter(expr string) (*ExprFilter, error) {
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{eval: eval}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	qctx *core.QueryContext,
	item core.ScoredItem,
) (bool, error) {
	return f.eval.Evaluate(item, qctx)
}
