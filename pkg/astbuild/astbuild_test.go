package astbuild

import (
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func TestBuildSimpleTask(t *testing.T) {
	src := []byte(`
version: "1.0"
tasks:
  greet:
    inputs:
      - {name: name, type: String}
    command:
      op: string
      parts:
        - {literal: "echo hello "}
        - {placeholder: {op: ident, name: name}}
    outputs:
      - name: greeting
        type: String
        expr: {op: apply, fn: read_string, args: [{op: ident, name: stdout}]}
`)
	doc, err := Build(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tk, ok := doc.Tasks["greet"]
	if !ok {
		t.Fatal("expected a 'greet' task")
	}
	if len(tk.Inputs) != 1 || tk.Inputs[0].Name != "name" {
		t.Fatalf("unexpected inputs: %+v", tk.Inputs)
	}
	if tk.CommandExpr == nil || len(tk.CommandExpr.Parts) != 2 {
		t.Fatalf("unexpected command expr: %+v", tk.CommandExpr)
	}
	if len(tk.Outputs) != 1 || tk.Outputs[0].Name != "greeting" {
		t.Fatalf("unexpected outputs: %+v", tk.Outputs)
	}
}

func TestBuildWorkflowWithCallAndScatter(t *testing.T) {
	src := []byte(`
tasks:
  square:
    inputs:
      - {name: x, type: Int}
    command: {op: string, parts: [{literal: "echo $((x*x))"}]}
    outputs:
      - name: y
        type: Int
        expr: {op: apply, fn: read_int, args: [{op: ident, name: stdout}]}
workflow:
  name: w
  inputs:
    - {name: xs, type: "Array[Int]"}
  body:
    - scatter:
        variable: x
        expr: {op: ident, name: xs}
        body:
          - call: {task: square, inputs: {x: {op: ident, name: x}}}
  outputs:
    - name: ys
      type: "Array[Int]"
      expr: {op: get, target: {op: ident, name: square}, index: {op: ident, name: y}}
`)
	doc, err := Build(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Workflow == nil {
		t.Fatal("expected a workflow")
	}
	if len(doc.Workflow.Body) != 1 {
		t.Fatalf("expected one body element, got %d", len(doc.Workflow.Body))
	}
	if doc.Workflow.Inputs[0].Type.Kind != types.KindArray || doc.Workflow.Inputs[0].Type.Item.Kind != types.KindInt {
		t.Fatalf("unexpected input type: %v", doc.Workflow.Inputs[0].Type)
	}
}

func TestBuildStructTypedef(t *testing.T) {
	src := []byte(`
structs:
  Person:
    members:
      - {name: name, type: String}
      - {name: age, type: Int}
tasks:
  noop:
    command: {op: string, parts: [{literal: "true"}]}
`)
	doc, err := Build(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	td, ok := doc.StructTypedefs["Person"]
	if !ok {
		t.Fatal("expected a Person struct typedef")
	}
	if len(td.MemberOrder) != 2 || td.Members["age"].Kind != types.KindInt {
		t.Fatalf("unexpected struct typedef: %+v", td)
	}
}

func TestBuildUnknownExprOpFails(t *testing.T) {
	src := []byte(`
tasks:
  bad:
    command: {op: something_unknown}
`)
	if _, err := Build(src); err == nil {
		t.Fatal("expected an error for an unknown expression op")
	}
}

func TestParseTypeArrayNonEmptyOptional(t *testing.T) {
	ty, err := parseType("Array[String]+?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != types.KindArray || !ty.NonEmpty || !ty.Optional || ty.Item.Kind != types.KindString {
		t.Fatalf("unexpected type: %+v", ty)
	}
}

func TestParseTypeMap(t *testing.T) {
	ty, err := parseType("Map[String,Int]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != types.KindMap || ty.Key.Kind != types.KindString || ty.Elem.Kind != types.KindInt {
		t.Fatalf("unexpected type: %+v", ty)
	}
}

func TestParseTypeStructName(t *testing.T) {
	ty, err := parseType("Person?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ty.Kind != types.KindStruct || ty.StructName != "Person" || !ty.Optional {
		t.Fatalf("unexpected type: %+v", ty)
	}
}
