package dsl

import (
	"testing"

	"github.com/recbox/recbox/core"
)

func TestEvalExpressions(t *testing.T) {
	item := core.ScoredItem{ItemID: 4, Score: 1.5}
	qctx := &core.QueryContext{
		UserID: 7,
		Limit:  10,
		Params: map[string]any{"region": "eu"},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "score threshold hit", expr: `item.score < 2.0`, want: true},
		{name: "score threshold miss", expr: `item.score > 3.0`, want: false},
		{name: "id membership", expr: `item.id in [4, 5]`, want: true},
		{name: "user id", expr: `query.user_id == 7`, want: true},
		{name: "request params", expr: `query.params.region == "eu"`, want: true},
		{name: "combined", expr: `item.score < 2.0 && query.params.region == "eu"`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEval(tt.expr)
			if err != nil {
				t.Fatalf("NewEval(%q): %v", tt.expr, err)
			}
			got, err := e.Evaluate(item, qctx)
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvalEmptyExpression(t *testing.T) {
	e, err := NewEval("")
	if err != nil {
		t.Fatalf("NewEval: %v", err)
	}
	got, err := e.Evaluate(core.ScoredItem{ItemID: 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got {
		t.Error("empty expression must never filter")
	}
}

func TestEvalNilQueryContext(t *testing.T) {
	e, err := NewEval(`query.user_id == 0`)
	if err != nil {
		t.Fatalf("NewEval: %v", err)
	}
	got, err := e.Evaluate(core.ScoredItem{ItemID: 1}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error("nil query context should expose zero user_id")
	}
}

func TestEvalCompileError(t *testing.T) {
	if _, err := NewEval(`item.score <`); err == nil {
		t.Fatal("want compile error")
	}
}

func TestEvalNonBooleanResult(t *testing.T) {
	e, err := NewEval(`item.score + 1.0`)
	if err != nil {
		t.Fatalf("NewEval: %v", err)
	}
	if _, err := e.Evaluate(core.ScoredItem{Score: 1.0}, nil); err == nil {
		t.Fatal("non-boolean expression should error at evaluation")
	}
}
