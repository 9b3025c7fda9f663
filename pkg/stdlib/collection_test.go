package stdlib

import (
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func TestTransposeOfEmptyArrayKeepsRowType(t *testing.T) {
	rowType := types.NewArray(types.String(false), false, false)
	empty := types.NewArrayValue(nil, rowType)
	stubEval := func(e ast.Expression, env bindings.Bindings[types.Value]) (types.Value, error) {
		return empty, nil
	}
	v, err := transposeFn().Eval([]ast.Expression{strLit("unused")}, emptyEnv(), stubEval, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type().Kind != types.KindArray || v.Type().Item.Kind != types.KindArray || v.Type().Item.Item.Kind != types.KindString {
		t.Fatalf("expected Array[Array[String]], got %s", v.Type())
	}
}
