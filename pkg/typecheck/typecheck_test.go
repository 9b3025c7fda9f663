package typecheck

import (
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func pos() types.SourcePosition { return types.SourcePosition{} }

func newChecker() *Checker {
	return New(stdlib.NewRegistry())
}

func TestInferArithmeticWidensToFloat(t *testing.T) {
	c := newChecker()
	expr := ast.NewBinaryOp(ast.OpAdd, ast.NewIntLit(1, pos()), ast.NewFloatLit(2.5, pos()), pos())
	ty, err := c.Infer(expr, bindings.Empty[types.Type]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != types.KindFloat {
		t.Fatalf("expected Float, got %s", ty)
	}
}

func TestInferIdentUnresolvedFails(t *testing.T) {
	c := newChecker()
	_, err := c.Infer(ast.NewIdent("missing", pos()), bindings.Empty[types.Type]())
	if err == nil {
		t.Fatal("expected a name resolution error")
	}
}

func TestInferArrayUnifiesElements(t *testing.T) {
	c := newChecker()
	expr := ast.NewArrayLit([]ast.Expression{ast.NewIntLit(1, pos()), ast.NewFloatLit(2.0, pos())}, pos())
	ty, err := c.Infer(expr, bindings.Empty[types.Type]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != types.KindArray || ty.Item.Kind != types.KindFloat {
		t.Fatalf("expected Array[Float], got %s", ty)
	}
}

func TestInferIfThenElseRequiresBooleanCond(t *testing.T) {
	c := newChecker()
	expr := ast.NewIfThenElse(ast.NewIntLit(1, pos()), ast.NewIntLit(1, pos()), ast.NewIntLit(2, pos()), pos())
	_, err := c.Infer(expr, bindings.Empty[types.Type]())
	if err == nil {
		t.Fatal("expected a static type mismatch for non-Boolean condition")
	}
}

func TestInferApplyDelegatesToStdlib(t *testing.T) {
	c := newChecker()
	expr := ast.NewApply("floor", []ast.Expression{ast.NewFloatLit(3.7, pos())}, pos())
	ty, err := c.Infer(expr, bindings.Empty[types.Type]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != types.KindInt {
		t.Fatalf("expected Int, got %s", ty)
	}
}

func TestInferGetOnPair(t *testing.T) {
	c := newChecker()
	env := bindings.Empty[types.Type]().Bind("p", types.NewPair(types.Int(false), types.String(false), false), nil)
	expr := ast.NewGet(ast.NewIdent("p", pos()), ast.NewIdent("left", pos()), pos())
	ty, err := c.Infer(expr, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != types.KindInt {
		t.Fatalf("expected Int, got %s", ty)
	}
}

func TestMultiErrorAccumulatesAcrossSiblings(t *testing.T) {
	c := newChecker()
	expr := ast.NewArrayLit([]ast.Expression{
		ast.NewIdent("missing1", pos()),
		ast.NewIdent("missing2", pos()),
	}, pos())
	_, err := c.Infer(expr, bindings.Empty[types.Type]())
	if err == nil {
		t.Fatal("expected an error")
	}
	me, ok := err.(*types.MultiError)
	if !ok {
		t.Fatalf("expected *types.MultiError, got %T", err)
	}
	if len(me.Errors) != 2 {
		t.Fatalf("expected 2 accumulated errors, got %d", len(me.Errors))
	}
}
