package workflow

import (
	"context"
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func pos() types.SourcePosition { return types.SourcePosition{} }

func strExpr(s string) *ast.StringExpr {
	return ast.NewStringExpr([]ast.StringPart{{Literal: s, IsLiteral: true}}, pos())
}

func greetTask() *ast.Task {
	return &ast.Task{
		Name: "greet",
		Inputs: []*ast.Declaration{
			{Name: "name", Type: types.String(false), Position: pos()},
		},
		CommandExpr: ast.NewStringExpr([]ast.StringPart{
			{Literal: "echo hi ", IsLiteral: true},
			{Placeholder: ast.NewIdent("name", pos())},
		}, pos()),
		Outputs: []*ast.Declaration{
			{Name: "greeting", Type: types.String(false), Default: ast.NewApply("read_string", []ast.Expression{ast.NewIdent("stdout", pos())}, pos()), Position: pos()},
		},
	}
}

func TestExecuteSoleTaskDispatch(t *testing.T) {
	dir := t.TempDir()
	doc := &ast.Document{Tasks: map[string]*ast.Task{"greet": greetTask()}}
	inputs := bindings.Empty[types.Value]().Bind("name", types.NewString("world"), nil)

	res, err := Execute(context.Background(), doc, stdlib.NewRegistry(), Config{}, inputs, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := res.Outputs.Resolve("greeting")
	if !ok || v.AsString() != "hi world" {
		t.Fatalf("expected 'hi world', got %v (ok=%v)", v, ok)
	}
}

func TestExecuteWorkflowWithCall(t *testing.T) {
	dir := t.TempDir()
	greet := greetTask()
	wf := &ast.Workflow{
		Name: "w",
		Inputs: []*ast.Declaration{
			{Name: "who", Type: types.String(false), Position: pos()},
		},
		Body: []ast.WorkflowElement{
			&ast.Call{TaskRef: "greet", Inputs: map[string]ast.Expression{"name": ast.NewIdent("who", pos())}},
		},
		Outputs: []*ast.Declaration{
			{Name: "out", Type: types.String(false), Default: ast.NewGet(ast.NewIdent("greet", pos()), ast.NewIdent("greeting", pos()), pos()), Position: pos()},
		},
	}
	doc := &ast.Document{Tasks: map[string]*ast.Task{"greet": greet}, Workflow: wf}
	inputs := bindings.Empty[types.Value]().Bind("w.who", types.NewString("earth"), nil)

	res, err := Execute(context.Background(), doc, stdlib.NewRegistry(), Config{}, inputs, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := res.Outputs.Resolve("out")
	if !ok || v.AsString() != "hi earth" {
		t.Fatalf("expected 'hi earth', got %v (ok=%v)", v, ok)
	}
	if len(res.TaskResults["greet"]) != 1 {
		t.Fatalf("expected one recorded call result, got %d", len(res.TaskResults["greet"]))
	}
}

func TestExecuteScatterAggregatesArray(t *testing.T) {
	dir := t.TempDir()
	wf := &ast.Workflow{
		Name: "w",
		Body: []ast.WorkflowElement{
			&ast.Scatter{
				Variable: "x",
				Expr:     ast.NewArrayLit([]ast.Expression{ast.NewIntLit(1, pos()), ast.NewIntLit(2, pos()), ast.NewIntLit(3, pos())}, pos()),
				Body: []ast.WorkflowElement{
					&ast.DeclarationElement{Decl: ast.Declaration{
						Name:    "sq",
						Type:    types.Int(false),
						Default: ast.NewBinaryOp(ast.OpMul, ast.NewIdent("x", pos()), ast.NewIdent("x", pos()), pos()),
						Position: pos(),
					}},
				},
			},
		},
		Outputs: []*ast.Declaration{
			{Name: "ys", Type: types.NewArray(types.Int(false), false, false), Default: ast.NewIdent("sq", pos()), Position: pos()},
		},
	}
	doc := &ast.Document{Tasks: map[string]*ast.Task{}, Workflow: wf}

	res, err := Execute(context.Background(), doc, stdlib.NewRegistry(), Config{}, bindings.Empty[types.Value](), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := res.Outputs.Resolve("ys")
	if !ok {
		t.Fatal("expected a ys output")
	}
	arr := v.AsArray()
	if len(arr) != 3 || arr[0].AsInt() != 1 || arr[1].AsInt() != 4 || arr[2].AsInt() != 9 {
		t.Fatalf("expected [1,4,9], got %v", arr)
	}
}

func TestExecuteConditionalOptionalizesToNull(t *testing.T) {
	dir := t.TempDir()
	wf := &ast.Workflow{
		Name: "w",
		Body: []ast.WorkflowElement{
			&ast.Conditional{
				Expr: ast.NewBoolLit(false, pos()),
				Body: []ast.WorkflowElement{
					&ast.DeclarationElement{Decl: ast.Declaration{Name: "v", Type: types.Int(false), Default: ast.NewIntLit(42, pos()), Position: pos()}},
				},
			},
		},
		Outputs: []*ast.Declaration{
			{Name: "out", Type: types.Int(true), Default: ast.NewIdent("v", pos()), Position: pos()},
		},
	}
	doc := &ast.Document{Tasks: map[string]*ast.Task{}, Workflow: wf}

	res, err := Execute(context.Background(), doc, stdlib.NewRegistry(), Config{}, bindings.Empty[types.Value](), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := res.Outputs.Resolve("out")
	if !ok || !v.IsNull() {
		t.Fatalf("expected Null output, got %v", v)
	}
}
