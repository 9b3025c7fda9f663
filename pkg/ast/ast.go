// Package ast defines the Abstract Syntax Tree node types consumed by the
// WDL core: Document, Task, Workflow, Declaration, Expression, and struct
// typedefs (spec §3). These types are produced by an external parser (out
// of scope for this module, see spec.md §1) or by pkg/astbuild's JSON/YAML
// document builder; the core only ever reads them.
package ast

import "github.com/lemonberrylabs/wdl-engine/pkg/types"

// Document is the root AST node: {version, imports, struct_typedefs,
// tasks, workflow?}.
type Document struct {
	Version        string
	Imports        []string
	StructTypedefs map[string]*StructTypedef
	Tasks          map[string]*Task
	Workflow       *Workflow
}

// ResolveStructs fills in the lazily-resolved Members/MemberOrder of every
// StructInstance type reachable from this document's declarations, tasks,
// and workflow, against the document's own struct typedef registry. It is
// an explicit, separately testable pass (see SPEC_FULL.md §12) rather than
// an implicit side effect of first use.
func (d *Document) ResolveStructs() error {
	for _, td := range d.StructTypedefs {
		if err := td.resolve(d.StructTypedefs, map[string]bool{}); err != nil {
			return err
		}
	}
	for _, task := range d.Tasks {
		if task.Inputs != nil {
			resolveDecls(task.Inputs, d.StructTypedefs)
		}
		resolveDecls(task.Postinputs, d.StructTypedefs)
		resolveDecls(task.Outputs, d.StructTypedefs)
	}
	if d.Workflow != nil {
		resolveDecls(d.Workflow.Inputs, d.StructTypedefs)
		resolveDecls(d.Workflow.Outputs, d.StructTypedefs)
		resolveElements(d.Workflow.Body, d.StructTypedefs)
	}
	return nil
}

func resolveElements(body []WorkflowElement, reg map[string]*StructTypedef) {
	for _, el := range body {
		switch e := el.(type) {
		case *DeclarationElement:
			resolveDecl(&e.Decl, reg)
		case *Scatter:
			resolveElements(e.Body, reg)
		case *Conditional:
			resolveElements(e.Body, reg)
		}
	}
}

func resolveDecls(decls []*Declaration, reg map[string]*StructTypedef) {
	for _, d := range decls {
		resolveDecl(d, reg)
	}
}

func resolveDecl(d *Declaration, reg map[string]*StructTypedef) {
	d.Type = resolveType(d.Type, reg)
}

func resolveType(t types.Type, reg map[string]*StructTypedef) types.Type {
	switch t.Kind {
	case types.KindStruct:
		if t.Members != nil {
			return t
		}
		td, ok := reg[t.StructName]
		if !ok || td.Members == nil {
			return t
		}
		return types.NewStructResolved(t.StructName, td.MemberOrder, td.Members, t.Optional)
	case types.KindArray:
		item := resolveType(*t.Item, reg)
		return types.NewArray(item, t.Optional, t.NonEmpty)
	case types.KindMap:
		return types.NewMap(resolveType(*t.Key, reg), resolveType(*t.Elem, reg), t.Optional)
	case types.KindPair:
		return types.NewPair(resolveType(*t.Left, reg), resolveType(*t.Right, reg), t.Optional)
	default:
		return t
	}
}

// StructTypedef is a document-level named record type declaration.
type StructTypedef struct {
	Name        string
	MemberOrder []string
	Members     map[string]*types.Type
	Position    types.SourcePosition
}

func (s *StructTypedef) resolve(reg map[string]*StructTypedef, visiting map[string]bool) error {
	if visiting[s.Name] {
		return nil
	}
	visiting[s.Name] = true
	for name, mt := range s.Members {
		s.Members[name] = ptrType(resolveType(*mt, reg))
	}
	return nil
}

func ptrType(t types.Type) *types.Type { return &t }

// Declaration is {name, type, default_expr?, source_position}.
type Declaration struct {
	Name        string
	Type        types.Type
	Default     Expression // nil if required
	Position    types.SourcePosition
}

// Required reports whether this declaration has neither a default
// expression nor an optional type.
func (d *Declaration) Required() bool {
	return d.Default == nil && !d.Type.Optional
}

// Task is {name, inputs?, postinputs, command_expr, outputs, runtime,
// meta, parameter_meta}.
type Task struct {
	Name           string
	Inputs         []*Declaration // nil if no input{} block
	Postinputs     []*Declaration
	CommandExpr    *StringExpr
	Outputs        []*Declaration
	Runtime        map[string]Expression
	Meta           map[string]interface{}
	ParameterMeta  map[string]interface{}
	Position       types.SourcePosition
}

// Workflow is {name, inputs, body, outputs, parameter_meta, meta}.
type Workflow struct {
	Name          string
	Inputs        []*Declaration
	Body          []WorkflowElement
	Outputs       []*Declaration
	Meta          map[string]interface{}
	ParameterMeta map[string]interface{}
	Position      types.SourcePosition
}

// WorkflowElement is a closed sum type over a workflow body's statements:
// Declaration, Call, Scatter, Conditional.
type WorkflowElement interface {
	workflowElement()
}

// DeclarationElement is a let-binding within a workflow body.
type DeclarationElement struct {
	Decl Declaration
}

func (*DeclarationElement) workflowElement() {}

// Call invokes a Task or a Workflow (sub-workflow) by name.
type Call struct {
	TaskRef  string // name as written in source
	Alias    string // "" if none
	Inputs   map[string]Expression
	Callee   *Task     // resolved by a linking pass; never a back-pointer from Task
	Position types.SourcePosition
}

func (*Call) workflowElement() {}

// Name returns the alias if set, else the task reference as written.
func (c *Call) Name() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.TaskRef
}

// Scatter iterates Body once per element of Expr's array value, binding
// Variable to each element in turn.
type Scatter struct {
	Variable string
	Expr     Expression
	Body     []WorkflowElement
	Position types.SourcePosition
}

func (*Scatter) workflowElement() {}

// Conditional gates Body on Expr, optionalizing every name Body binds.
type Conditional struct {
	Expr     Expression
	Body     []WorkflowElement
	Position types.SourcePosition
}

func (*Conditional) workflowElement() {}
