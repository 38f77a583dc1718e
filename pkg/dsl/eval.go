// Package dsl 提供基于 CEL (Common Expression Language) 的候选过滤表达式。
// 表达式在构造时编译一次，之后可以对任意候选重复求值，线程安全。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/recbox/recbox/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("query", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Eval 是一条已编译的候选过滤表达式。
//
// 表达式语法（CEL 标准语法），可用变量：
//   - item.id      候选物品 ID（int）
//   - item.score   合并后的预测分（double）
//   - query.user_id / query.limit / query.params
//
// 示例：
//   - `item.score < 2.0`            → 低分候选
//   - `item.id in [4, 5]`           → 指定物品
//   - `query.params.region == "eu"` → 按请求参数
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译表达式并缓存程序。空表达式合法，求值恒为 false（不过滤）。
func NewEval(expr string) (*Eval, error) {
	e := &Eval{expr: expr}
	if expr == "" {
		return e, nil
	}

	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	e.prg = prg
	return e, nil
}

// Evaluate 对单个候选求值，返回布尔结果。
// 表达式必须返回 bool，否则报错。
func (e *Eval) Evaluate(item core.ScoredItem, qctx *core.QueryContext) (bool, error) {
	if e.prg == nil {
		return false, nil
	}

	out, _, err := e.prg.Eval(buildInput(item, qctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", e.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", e.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item core.ScoredItem, qctx *core.QueryContext) map[string]any {
	query := map[string]any{
		"user_id": int64(0),
		"limit":   0,
		"params":  map[string]any{},
	}
	if qctx != nil {
		query["user_id"] = qctx.UserID
		query["limit"] = qctx.Limit
		if qctx.Params != nil {
			query["params"] = qctx.Params
		}
	}

	return map[string]any{
		"item": map[string]any{
			"id":    item.ItemID,
			"score": item.Score,
		},
		"query": query,
	}
}
