package stdlib

import (
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func TestAsMapTagsTypesFromFirstPair(t *testing.T) {
	pairs := ast.NewArrayLit([]ast.Expression{
		ast.NewPairLit(strLit("a"), ast.NewIntLit(1, pos()), pos()),
		ast.NewPairLit(strLit("b"), ast.NewFloatLit(2.5, pos()), pos()),
	}, pos())
	v, err := asMapFn().Eval([]ast.Expression{pairs}, emptyEnv(), litEval, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type().Elem.Kind != types.KindInt {
		t.Fatalf("expected Map[String, Int] from the first pair, got %s", v.Type())
	}
}

func TestCollectByKeyTagsTypesFromFirstPair(t *testing.T) {
	pairs := ast.NewArrayLit([]ast.Expression{
		ast.NewPairLit(strLit("a"), ast.NewIntLit(1, pos()), pos()),
		ast.NewPairLit(strLit("a"), ast.NewFloatLit(2.5, pos()), pos()),
	}, pos())
	v, err := collectByKeyFn().Eval([]ast.Expression{pairs}, emptyEnv(), litEval, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type().Elem.Item.Kind != types.KindInt {
		t.Fatalf("expected Map[String, Array[Int]] from the first pair, got %s", v.Type())
	}
}

func TestHeterogeneousMapLiteralTagsTypesFromFirstPair(t *testing.T) {
	lit := ast.NewMapLit(
		[]ast.Expression{strLit("a"), strLit("b")},
		[]ast.Expression{ast.NewIntLit(1, pos()), ast.NewFloatLit(2.5, pos())},
		pos(),
	)
	v, err := litEval(lit, emptyEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type().Elem.Kind != types.KindInt {
		t.Fatalf("expected Map[String, Int] from the first pair, got %s", v.Type())
	}
}
