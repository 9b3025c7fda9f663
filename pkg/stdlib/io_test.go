package stdlib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "f.tsv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return p
}

func TestReadObjectParsesHeaderAndSingleRow(t *testing.T) {
	path := writeTempFile(t, "name\tage\nalice\t30\n")
	args := []ast.Expression{strLit(path)}
	v, err := readObjectFn().Eval(args, emptyEnv(), litEval, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := v.AsMap()
	name, _ := m.Get("name")
	age, _ := m.Get("age")
	if name.AsString() != "alice" || age.AsString() != "30" {
		t.Fatalf("expected {name: alice, age: 30}, got %v", m)
	}
}

func TestReadObjectRejectsMoreThanOneDataRow(t *testing.T) {
	path := writeTempFile(t, "name\tage\nalice\t30\nbob\t40\n")
	args := []ast.Expression{strLit(path)}
	if _, err := readObjectFn().Eval(args, emptyEnv(), litEval, nil); err == nil {
		t.Fatal("expected an error for more than one data row")
	}
}

func TestReadObjectRejectsDuplicateColumnNames(t *testing.T) {
	path := writeTempFile(t, "name\tname\nalice\tbob\n")
	args := []ast.Expression{strLit(path)}
	if _, err := readObjectFn().Eval(args, emptyEnv(), litEval, nil); err == nil {
		t.Fatal("expected an error for duplicate column names")
	}
}

func TestReadObjectRejectsRaggedRow(t *testing.T) {
	path := writeTempFile(t, "name\tage\nalice\n")
	args := []ast.Expression{strLit(path)}
	if _, err := readObjectFn().Eval(args, emptyEnv(), litEval, nil); err == nil {
		t.Fatal("expected an error for a ragged data row")
	}
}

func TestReadTSVWithHeaderOnEmptyFileDoesNotPanic(t *testing.T) {
	path := writeTempFile(t, "")
	args := []ast.Expression{strLit(path), ast.NewBoolLit(true, pos())}
	v, err := readTSVFn().Eval(args, emptyEnv(), litEval, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.AsArray()) != 0 {
		t.Fatalf("expected an empty result, got %v", v)
	}
}

func TestWriteTSVWithHeadersAndCustomNames(t *testing.T) {
	rows := ast.NewArrayLit([]ast.Expression{
		ast.NewArrayLit([]ast.Expression{strLit("alice"), strLit("30")}, pos()),
	}, pos())
	headers := ast.NewArrayLit([]ast.Expression{strLit("name"), strLit("age")}, pos())
	args := []ast.Expression{rows, ast.NewBoolLit(true, pos()), headers}

	var written string
	io := &IOContext{WorkDir: t.TempDir(), NextNanos: func() int64 { return 1 }}
	v, err := writeTSVFn().Eval(args, emptyEnv(), litEval, io)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(v.AsString())
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	written = string(b)
	if written != "name\tage\nalice\t30\n" {
		t.Fatalf("unexpected content: %q", written)
	}
}

func TestWriteTSVHeadersWithoutNamesIsAnError(t *testing.T) {
	rows := ast.NewArrayLit([]ast.Expression{
		ast.NewArrayLit([]ast.Expression{strLit("alice"), strLit("30")}, pos()),
	}, pos())
	args := []ast.Expression{rows, ast.NewBoolLit(true, pos())}
	io := &IOContext{WorkDir: t.TempDir(), NextNanos: func() int64 { return 1 }}
	if _, err := writeTSVFn().Eval(args, emptyEnv(), litEval, io); err == nil {
		t.Fatal("expected an error when write_headers is set without header names")
	}
}
