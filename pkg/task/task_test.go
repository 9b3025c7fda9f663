package task

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func pos() types.SourcePosition { return types.SourcePosition{} }

func strExpr(s string) *ast.StringExpr {
	return ast.NewStringExpr([]ast.StringPart{{Literal: s, IsLiteral: true}}, pos())
}

func TestExecuteRunsCommandAndCollectsOutput(t *testing.T) {
	dir := t.TempDir()
	tk := &ast.Task{
		Name: "greet",
		Inputs: []*ast.Declaration{
			{Name: "name", Type: types.String(false), Position: pos()},
		},
		CommandExpr: ast.NewStringExpr([]ast.StringPart{
			{Literal: "echo hello ", IsLiteral: true},
			{Placeholder: ast.NewIdent("name", pos())},
		}, pos()),
		Outputs: []*ast.Declaration{
			{Name: "greeting", Type: types.String(false), Default: ast.NewApply("read_string", []ast.Expression{ast.NewIdent("stdout", pos())}, pos()), Position: pos()},
		},
	}
	inputs := bindings.Empty[types.Value]().Bind("name", types.NewString("world"), nil)

	res, err := Execute(context.Background(), tk, inputs, stdlib.NewRegistry(), Config{Timeout: 5 * time.Second}, dir, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
	greeting, ok := res.Outputs.Resolve("greeting")
	if !ok {
		t.Fatal("expected a greeting output binding")
	}
	if greeting.AsString() != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", greeting.AsString())
	}
}

func TestExecuteMissingRequiredInputFails(t *testing.T) {
	dir := t.TempDir()
	tk := &ast.Task{
		Name: "needs_input",
		Inputs: []*ast.Declaration{
			{Name: "x", Type: types.Int(false), Position: pos()},
		},
		CommandExpr: strExpr("echo hi"),
	}
	_, err := Execute(context.Background(), tk, bindings.Empty[types.Value](), stdlib.NewRegistry(), Config{}, dir, "")
	if err == nil {
		t.Fatal("expected a missing-input error")
	}
}

func TestExecuteNonZeroExitFails(t *testing.T) {
	dir := t.TempDir()
	tk := &ast.Task{
		Name:        "fails",
		CommandExpr: strExpr("exit 3"),
	}
	_, err := Execute(context.Background(), tk, bindings.Empty[types.Value](), stdlib.NewRegistry(), Config{}, dir, "")
	if err == nil {
		t.Fatal("expected a non-zero-exit error")
	}
}

func TestExecuteTimeout(t *testing.T) {
	dir := t.TempDir()
	tk := &ast.Task{
		Name:        "slow",
		CommandExpr: strExpr("sleep 5"),
	}
	_, err := Execute(context.Background(), tk, bindings.Empty[types.Value](), stdlib.NewRegistry(), Config{Timeout: 50 * time.Millisecond}, dir, "")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestExecuteWritesCommandScript(t *testing.T) {
	dir := t.TempDir()
	tk := &ast.Task{
		Name:        "script",
		CommandExpr: strExpr("true"),
	}
	_, err := Execute(context.Background(), tk, bindings.Empty[types.Value](), stdlib.NewRegistry(), Config{}, dir, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(dir + "/script/command.sh"); err != nil {
		t.Fatalf("expected command.sh to exist: %v", err)
	}
}
