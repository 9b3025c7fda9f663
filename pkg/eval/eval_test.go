package eval

import (
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func pos() types.SourcePosition { return types.SourcePosition{} }

func newEvaluator() *Evaluator {
	return New(stdlib.NewRegistry(), nil)
}

func TestIntDivisionTruncates(t *testing.T) {
	e := newEvaluator()
	expr := ast.NewBinaryOp(ast.OpDiv, ast.NewIntLit(7, pos()), ast.NewIntLit(2, pos()), pos())
	v, err := e.Eval(expr, bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != types.VInt || v.AsInt() != 3 {
		t.Fatalf("expected Int 3, got %v", v)
	}
}

func TestFloatDivisionIsIEEE(t *testing.T) {
	e := newEvaluator()
	expr := ast.NewBinaryOp(ast.OpDiv, ast.NewFloatLit(7, pos()), ast.NewIntLit(2, pos()), pos())
	v, err := e.Eval(expr, bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != types.VFloat || v.AsFloat() != 3.5 {
		t.Fatalf("expected Float 3.5, got %v", v)
	}
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	e := newEvaluator()
	expr := ast.NewBinaryOp(ast.OpDiv, ast.NewIntLit(1, pos()), ast.NewIntLit(0, pos()), pos())
	_, err := e.Eval(expr, bindings.Empty[types.Value]())
	if err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}

func TestModuloIsIntOnly(t *testing.T) {
	e := newEvaluator()
	expr := ast.NewBinaryOp(ast.OpMod, ast.NewIntLit(7, pos()), ast.NewIntLit(3, pos()), pos())
	v, err := e.Eval(expr, bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsInt() != 1 {
		t.Fatalf("expected 1, got %v", v)
	}
}

func TestStringInterpolationBooleanOptions(t *testing.T) {
	e := newEvaluator()
	yes, no := "YES", "NO"
	parts := []ast.StringPart{
		{Placeholder: ast.NewBoolLit(true, pos()), Options: ast.PlaceholderOptions{True: &yes, False: &no}},
	}
	v, err := e.Eval(ast.NewStringExpr(parts, pos()), bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsString() != "YES" {
		t.Fatalf("expected YES, got %q", v.AsString())
	}
}

func TestStringInterpolationNullUsesDefault(t *testing.T) {
	e := newEvaluator()
	parts := []ast.StringPart{
		{Placeholder: ast.NewNullLit(pos()), Options: ast.PlaceholderOptions{Default: ast.NewStringExpr([]ast.StringPart{{Literal: "fallback", IsLiteral: true}}, pos())}},
	}
	v, err := e.Eval(ast.NewStringExpr(parts, pos()), bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsString() != "fallback" {
		t.Fatalf("expected fallback, got %q", v.AsString())
	}
}

func TestStringInterpolationArraySep(t *testing.T) {
	e := newEvaluator()
	sep := ","
	arr := ast.NewArrayLit([]ast.Expression{ast.NewIntLit(1, pos()), ast.NewIntLit(2, pos()), ast.NewIntLit(3, pos())}, pos())
	parts := []ast.StringPart{{Placeholder: arr, Options: ast.PlaceholderOptions{Sep: &sep}}}
	v, err := e.Eval(ast.NewStringExpr(parts, pos()), bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsString() != "1,2,3" {
		t.Fatalf("expected 1,2,3, got %q", v.AsString())
	}
}

func TestHeterogeneousMapLiteralTagsTypesFromFirstPair(t *testing.T) {
	e := newEvaluator()
	lit := ast.NewMapLit(
		[]ast.Expression{
			ast.NewStringExpr([]ast.StringPart{{Literal: "a", IsLiteral: true}}, pos()),
			ast.NewStringExpr([]ast.StringPart{{Literal: "b", IsLiteral: true}}, pos()),
		},
		[]ast.Expression{ast.NewIntLit(1, pos()), ast.NewFloatLit(2.5, pos())},
		pos(),
	)
	v, err := e.Eval(lit, bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type().Elem.Kind != types.KindInt {
		t.Fatalf("expected Map[String, Int] from the first pair, got %s", v.Type())
	}
}

func TestPlaceholderErrorRecoversToEmptyString(t *testing.T) {
	e := newEvaluator()
	parts := []ast.StringPart{{Placeholder: ast.NewIdent("undefined", pos())}}
	v, err := e.Eval(ast.NewStringExpr(parts, pos()), bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsString() != "" {
		t.Fatalf("expected empty string recovery, got %q", v.AsString())
	}
}

func TestGetOnPairLeftRight(t *testing.T) {
	e := newEvaluator()
	p := types.NewPairValue(types.NewInt(1), types.NewString("x"))
	env := bindings.Empty[types.Value]().Bind("p", p, nil)
	left, err := e.Eval(ast.NewGet(ast.NewIdent("p", pos()), ast.NewIdent("left", pos()), pos()), env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left.AsInt() != 1 {
		t.Fatalf("expected 1, got %v", left)
	}
}

func TestArrayOutOfBounds(t *testing.T) {
	e := newEvaluator()
	arr := types.NewArrayValue([]types.Value{types.NewInt(1)}, types.Int(false))
	env := bindings.Empty[types.Value]().Bind("xs", arr, nil)
	_, err := e.Eval(ast.NewGet(ast.NewIdent("xs", pos()), ast.NewIntLit(5, pos()), pos()), env)
	if err == nil {
		t.Fatal("expected an out-of-bounds error")
	}
}

func TestNonShortCircuitAndEvaluatesBothSides(t *testing.T) {
	e := newEvaluator()
	expr := ast.NewBinaryOp(ast.OpAnd, ast.NewBoolLit(false, pos()), ast.NewBoolLit(true, pos()), pos())
	v, err := e.Eval(expr, bindings.Empty[types.Value]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsBool() {
		t.Fatal("expected false")
	}
}

func TestCoerceIntToFloat(t *testing.T) {
	v, err := Coerce(types.NewInt(3), types.Float(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != types.VFloat || v.AsFloat() != 3.0 {
		t.Fatalf("expected Float 3.0, got %v", v)
	}
}

func TestCoerceStringToFile(t *testing.T) {
	v, err := Coerce(types.NewString("a.txt"), types.File(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != types.VFile || v.AsString() != "a.txt" {
		t.Fatalf("expected File a.txt, got %v", v)
	}
}

func TestCoerceNullToNonOptionalFails(t *testing.T) {
	_, err := Coerce(types.Null, types.Int(false))
	if err == nil {
		t.Fatal("expected an error coercing Null to non-optional Int")
	}
}
