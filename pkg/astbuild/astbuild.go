// Package astbuild constructs ast.Document values from a JSON/YAML document
// fixture, for the CLI `run`/`serve` commands and for tests, without a WDL
// source-text grammar (out of scope per spec §1). A fixture spells out
// tasks, the workflow, and struct typedefs directly in the shape of the AST
// itself: expressions are small tagged trees (e.g. {op: ident, name: x})
// rather than WDL syntax, and declared types are a short type-name notation
// ("Array[String]+?") rather than full WDL type syntax.
package astbuild

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// MaxSourceSize bounds a fixture's size the same way the teacher bounds
// workflow source (128 KB) — a fixture is source text too, just for this
// module's own format rather than WDL's.
const MaxSourceSize = 128 * 1024

// BuildError reports a malformed fixture, naming where in the document
// structure the problem was found.
type BuildError struct {
	Message  string
	Location string
}

func (e *BuildError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("astbuild: %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("astbuild: %s", e.Message)
}

func errAt(loc, format string, args ...interface{}) *BuildError {
	return &BuildError{Message: fmt.Sprintf(format, args...), Location: loc}
}

// Build parses a YAML (or JSON, a YAML subset) document fixture into an
// ast.Document, fully resolving struct member types before returning.
func Build(source []byte) (*ast.Document, error) {
	if len(source) > MaxSourceSize {
		return nil, &BuildError{Message: fmt.Sprintf("fixture size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var raw rawDocument
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, &BuildError{Message: fmt.Sprintf("invalid YAML/JSON: %v", err)}
	}

	doc := &ast.Document{
		Version:        raw.Version,
		Imports:        raw.Imports,
		StructTypedefs: map[string]*ast.StructTypedef{},
		Tasks:          map[string]*ast.Task{},
	}

	for name, sd := range raw.Structs {
		td, err := convertStructDef(name, sd)
		if err != nil {
			return nil, err
		}
		doc.StructTypedefs[name] = td
	}

	for name, rt := range raw.Tasks {
		t, err := convertTask(name, rt)
		if err != nil {
			return nil, err
		}
		doc.Tasks[name] = t
	}

	if raw.Workflow != nil {
		wf, err := convertWorkflow(raw.Workflow)
		if err != nil {
			return nil, err
		}
		doc.Workflow = wf
	}

	if err := doc.ResolveStructs(); err != nil {
		return nil, &BuildError{Message: err.Error(), Location: "struct resolution"}
	}

	return doc, nil
}

// --- raw fixture shape -----------------------------------------------------

type rawDocument struct {
	Version string                   `yaml:"version" json:"version"`
	Imports []string                 `yaml:"imports" json:"imports"`
	Structs map[string]*rawStructDef `yaml:"structs" json:"structs"`
	Tasks   map[string]*rawTask      `yaml:"tasks" json:"tasks"`
	Workflow *rawWorkflow            `yaml:"workflow" json:"workflow"`
}

type rawStructDef struct {
	Members []*rawMember `yaml:"members" json:"members"`
}

type rawMember struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

type rawDecl struct {
	Name string   `yaml:"name" json:"name"`
	Type string   `yaml:"type" json:"type"`
	Expr *rawExpr `yaml:"expr" json:"expr"`
}

type rawTask struct {
	Inputs        []*rawDecl          `yaml:"inputs" json:"inputs"`
	Postinputs    []*rawDecl          `yaml:"postinputs" json:"postinputs"`
	Command       *rawExpr            `yaml:"command" json:"command"`
	Outputs       []*rawDecl          `yaml:"outputs" json:"outputs"`
	Runtime       map[string]*rawExpr `yaml:"runtime" json:"runtime"`
	Meta          map[string]interface{} `yaml:"meta" json:"meta"`
	ParameterMeta map[string]interface{} `yaml:"parameter_meta" json:"parameter_meta"`
}

type rawWorkflow struct {
	Name          string                 `yaml:"name" json:"name"`
	Inputs        []*rawDecl             `yaml:"inputs" json:"inputs"`
	Body          []*rawElement          `yaml:"body" json:"body"`
	Outputs       []*rawDecl             `yaml:"outputs" json:"outputs"`
	Meta          map[string]interface{} `yaml:"meta" json:"meta"`
	ParameterMeta map[string]interface{} `yaml:"parameter_meta" json:"parameter_meta"`
}

// rawElement is a single-key union over the four WorkflowElement variants;
// exactly one of its fields should be set.
type rawElement struct {
	Decl        *rawDecl        `yaml:"decl" json:"decl"`
	Call        *rawCall        `yaml:"call" json:"call"`
	Scatter     *rawScatter     `yaml:"scatter" json:"scatter"`
	Conditional *rawConditional `yaml:"conditional" json:"conditional"`
}

type rawCall struct {
	Task   string              `yaml:"task" json:"task"`
	Alias  string              `yaml:"alias" json:"alias"`
	Inputs map[string]*rawExpr `yaml:"inputs" json:"inputs"`
}

type rawScatter struct {
	Variable string        `yaml:"variable" json:"variable"`
	Expr     *rawExpr      `yaml:"expr" json:"expr"`
	Body     []*rawElement `yaml:"body" json:"body"`
}

type rawConditional struct {
	Expr *rawExpr      `yaml:"expr" json:"expr"`
	Body []*rawElement `yaml:"body" json:"body"`
}

// rawExpr is a tagged union over every Expression variant; Op selects which
// of the remaining fields are meaningful.
type rawExpr struct {
	Op string `yaml:"op" json:"op"`

	Bool  *bool    `yaml:"bool" json:"bool"`
	Int   *int64   `yaml:"int" json:"int"`
	Float *float64 `yaml:"float" json:"float"`
	Name  string   `yaml:"name" json:"name"`

	Parts []*rawStringPart `yaml:"parts" json:"parts"`

	Elements []*rawExpr `yaml:"elements" json:"elements"`
	Left     *rawExpr   `yaml:"left" json:"left"`
	Right    *rawExpr   `yaml:"right" json:"right"`
	Keys     []*rawExpr `yaml:"keys" json:"keys"`
	Values   []*rawExpr `yaml:"values" json:"values"`

	StructName string              `yaml:"struct_name" json:"struct_name"`
	Order      []string            `yaml:"order" json:"order"`
	Members    map[string]*rawExpr `yaml:"members" json:"members"`

	Target *rawExpr `yaml:"target" json:"target"`
	Index  *rawExpr `yaml:"index" json:"index"`

	Cond *rawExpr `yaml:"cond" json:"cond"`
	Then *rawExpr `yaml:"then" json:"then"`
	Else *rawExpr `yaml:"else" json:"else"`

	Fn   string     `yaml:"fn" json:"fn"`
	Args []*rawExpr `yaml:"args" json:"args"`

	BinOp string `yaml:"binop" json:"binop"`
	UnOp  string `yaml:"unop" json:"unop"`

	Operand *rawExpr `yaml:"operand" json:"operand"`
}

type rawStringPart struct {
	Literal     string   `yaml:"literal" json:"literal"`
	Placeholder *rawExpr `yaml:"placeholder" json:"placeholder"`
	Sep         *string  `yaml:"sep" json:"sep"`
	True        *string  `yaml:"true" json:"true"`
	False       *string  `yaml:"false" json:"false"`
	Default     *rawExpr `yaml:"default" json:"default"`
}

var zeroPos types.SourcePosition

// --- conversion -------------------------------------------------------------

func convertStructDef(name string, sd *rawStructDef) (*ast.StructTypedef, error) {
	loc := fmt.Sprintf("struct '%s'", name)
	order := make([]string, 0, len(sd.Members))
	members := make(map[string]*types.Type, len(sd.Members))
	for _, m := range sd.Members {
		if m.Name == "" {
			return nil, errAt(loc, "member missing a name")
		}
		t, err := parseType(m.Type)
		if err != nil {
			return nil, errAt(loc, "member '%s': %v", m.Name, err)
		}
		order = append(order, m.Name)
		members[m.Name] = &t
	}
	return &ast.StructTypedef{Name: name, MemberOrder: order, Members: members}, nil
}

func convertDecl(r *rawDecl, loc string) (*ast.Declaration, error) {
	if r.Name == "" {
		return nil, errAt(loc, "declaration missing a name")
	}
	t, err := parseType(r.Type)
	if err != nil {
		return nil, errAt(loc, "declaration '%s': %v", r.Name, err)
	}
	var def ast.Expression
	if r.Expr != nil {
		def, err = convertExpr(r.Expr, loc+" default of '"+r.Name+"'")
		if err != nil {
			return nil, err
		}
	}
	return &ast.Declaration{Name: r.Name, Type: t, Default: def, Position: zeroPos}, nil
}

func convertDecls(rs []*rawDecl, loc string) ([]*ast.Declaration, error) {
	out := make([]*ast.Declaration, 0, len(rs))
	for _, r := range rs {
		d, err := convertDecl(r, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func convertTask(name string, r *rawTask) (*ast.Task, error) {
	loc := fmt.Sprintf("task '%s'", name)
	t := &ast.Task{Name: name, Position: zeroPos}

	if r.Inputs != nil {
		decls, err := convertDecls(r.Inputs, loc+" inputs")
		if err != nil {
			return nil, err
		}
		t.Inputs = decls
	}

	postinputs, err := convertDecls(r.Postinputs, loc+" postinputs")
	if err != nil {
		return nil, err
	}
	t.Postinputs = postinputs

	if r.Command == nil {
		return nil, errAt(loc, "missing a command")
	}
	cmdExpr, err := convertExpr(r.Command, loc+" command")
	if err != nil {
		return nil, err
	}
	se, ok := cmdExpr.(*ast.StringExpr)
	if !ok {
		return nil, errAt(loc, "command must be a string expression (op: string)")
	}
	t.CommandExpr = se

	outputs, err := convertDecls(r.Outputs, loc+" outputs")
	if err != nil {
		return nil, err
	}
	t.Outputs = outputs

	if r.Runtime != nil {
		rt := make(map[string]ast.Expression, len(r.Runtime))
		for key, v := range r.Runtime {
			expr, err := convertExpr(v, loc+" runtime."+key)
			if err != nil {
				return nil, err
			}
			rt[key] = expr
		}
		t.Runtime = rt
	}

	t.Meta = r.Meta
	t.ParameterMeta = r.ParameterMeta
	return t, nil
}

func convertWorkflow(r *rawWorkflow) (*ast.Workflow, error) {
	loc := fmt.Sprintf("workflow '%s'", r.Name)
	inputs, err := convertDecls(r.Inputs, loc+" inputs")
	if err != nil {
		return nil, err
	}
	outputs, err := convertDecls(r.Outputs, loc+" outputs")
	if err != nil {
		return nil, err
	}
	body, err := convertElements(r.Body, loc+" body")
	if err != nil {
		return nil, err
	}
	return &ast.Workflow{
		Name:          r.Name,
		Inputs:        inputs,
		Body:          body,
		Outputs:       outputs,
		Meta:          r.Meta,
		ParameterMeta: r.ParameterMeta,
		Position:      zeroPos,
	}, nil
}

func convertElements(rs []*rawElement, loc string) ([]ast.WorkflowElement, error) {
	out := make([]ast.WorkflowElement, 0, len(rs))
	for _, r := range rs {
		el, err := convertElement(r, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func convertElement(r *rawElement, loc string) (ast.WorkflowElement, error) {
	switch {
	case r.Decl != nil:
		d, err := convertDecl(r.Decl, loc)
		if err != nil {
			return nil, err
		}
		return &ast.DeclarationElement{Decl: *d}, nil

	case r.Call != nil:
		if r.Call.Task == "" {
			return nil, errAt(loc, "call missing a task reference")
		}
		inputs := make(map[string]ast.Expression, len(r.Call.Inputs))
		for name, v := range r.Call.Inputs {
			expr, err := convertExpr(v, loc+" call '"+r.Call.Task+"' input '"+name+"'")
			if err != nil {
				return nil, err
			}
			inputs[name] = expr
		}
		return &ast.Call{TaskRef: r.Call.Task, Alias: r.Call.Alias, Inputs: inputs, Position: zeroPos}, nil

	case r.Scatter != nil:
		if r.Scatter.Variable == "" {
			return nil, errAt(loc, "scatter missing a variable name")
		}
		expr, err := convertExpr(r.Scatter.Expr, loc+" scatter expr")
		if err != nil {
			return nil, err
		}
		body, err := convertElements(r.Scatter.Body, loc+" scatter body")
		if err != nil {
			return nil, err
		}
		return &ast.Scatter{Variable: r.Scatter.Variable, Expr: expr, Body: body, Position: zeroPos}, nil

	case r.Conditional != nil:
		expr, err := convertExpr(r.Conditional.Expr, loc+" conditional expr")
		if err != nil {
			return nil, err
		}
		body, err := convertElements(r.Conditional.Body, loc+" conditional body")
		if err != nil {
			return nil, err
		}
		return &ast.Conditional{Expr: expr, Body: body, Position: zeroPos}, nil

	default:
		return nil, errAt(loc, "body element must set exactly one of decl/call/scatter/conditional")
	}
}

func convertExpr(r *rawExpr, loc string) (ast.Expression, error) {
	if r == nil {
		return nil, errAt(loc, "missing expression")
	}
	switch r.Op {
	case "bool":
		if r.Bool == nil {
			return nil, errAt(loc, "bool expression missing 'bool'")
		}
		return ast.NewBoolLit(*r.Bool, zeroPos), nil
	case "int":
		if r.Int == nil {
			return nil, errAt(loc, "int expression missing 'int'")
		}
		return ast.NewIntLit(*r.Int, zeroPos), nil
	case "float":
		if r.Float == nil {
			return nil, errAt(loc, "float expression missing 'float'")
		}
		return ast.NewFloatLit(*r.Float, zeroPos), nil
	case "null":
		return ast.NewNullLit(zeroPos), nil
	case "ident":
		if r.Name == "" {
			return nil, errAt(loc, "ident expression missing 'name'")
		}
		return ast.NewIdent(r.Name, zeroPos), nil
	case "string":
		parts, err := convertStringParts(r.Parts, loc)
		if err != nil {
			return nil, err
		}
		return ast.NewStringExpr(parts, zeroPos), nil
	case "array":
		elems, err := convertExprs(r.Elements, loc+" elements")
		if err != nil {
			return nil, err
		}
		return ast.NewArrayLit(elems, zeroPos), nil
	case "pair":
		l, err := convertExpr(r.Left, loc+" left")
		if err != nil {
			return nil, err
		}
		rr, err := convertExpr(r.Right, loc+" right")
		if err != nil {
			return nil, err
		}
		return ast.NewPairLit(l, rr, zeroPos), nil
	case "map":
		keys, err := convertExprs(r.Keys, loc+" keys")
		if err != nil {
			return nil, err
		}
		values, err := convertExprs(r.Values, loc+" values")
		if err != nil {
			return nil, err
		}
		if len(keys) != len(values) {
			return nil, errAt(loc, "map has %d keys but %d values", len(keys), len(values))
		}
		return ast.NewMapLit(keys, values, zeroPos), nil
	case "struct":
		if r.StructName == "" {
			return nil, errAt(loc, "struct expression missing 'struct_name'")
		}
		members := make(map[string]ast.Expression, len(r.Members))
		for name, v := range r.Members {
			expr, err := convertExpr(v, loc+" member '"+name+"'")
			if err != nil {
				return nil, err
			}
			members[name] = expr
		}
		return ast.NewStructLit(r.StructName, r.Order, members, zeroPos), nil
	case "get":
		target, err := convertExpr(r.Target, loc+" target")
		if err != nil {
			return nil, err
		}
		index, err := convertExpr(r.Index, loc+" index")
		if err != nil {
			return nil, err
		}
		return ast.NewGet(target, index, zeroPos), nil
	case "if":
		cond, err := convertExpr(r.Cond, loc+" cond")
		if err != nil {
			return nil, err
		}
		then, err := convertExpr(r.Then, loc+" then")
		if err != nil {
			return nil, err
		}
		els, err := convertExpr(r.Else, loc+" else")
		if err != nil {
			return nil, err
		}
		return ast.NewIfThenElse(cond, then, els, zeroPos), nil
	case "apply":
		if r.Fn == "" {
			return nil, errAt(loc, "apply expression missing 'fn'")
		}
		args, err := convertExprs(r.Args, loc+" args of '"+r.Fn+"'")
		if err != nil {
			return nil, err
		}
		return ast.NewApply(r.Fn, args, zeroPos), nil
	case "binary":
		op, err := parseBinOp(r.BinOp, loc)
		if err != nil {
			return nil, err
		}
		l, err := convertExpr(r.Left, loc+" left")
		if err != nil {
			return nil, err
		}
		rr, err := convertExpr(r.Right, loc+" right")
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(op, l, rr, zeroPos), nil
	case "unary":
		op, err := parseUnOp(r.UnOp, loc)
		if err != nil {
			return nil, err
		}
		operand, err := convertExpr(r.Operand, loc+" operand")
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(op, operand, zeroPos), nil
	default:
		return nil, errAt(loc, "unknown expression op %q", r.Op)
	}
}

func convertExprs(rs []*rawExpr, loc string) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(rs))
	for _, r := range rs {
		e, err := convertExpr(r, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func convertStringParts(rs []*rawStringPart, loc string) ([]ast.StringPart, error) {
	out := make([]ast.StringPart, 0, len(rs))
	for _, r := range rs {
		if r.Placeholder == nil {
			out = append(out, ast.StringPart{Literal: r.Literal, IsLiteral: true})
			continue
		}
		placeholder, err := convertExpr(r.Placeholder, loc+" placeholder")
		if err != nil {
			return nil, err
		}
		opts := ast.PlaceholderOptions{Sep: r.Sep, True: r.True, False: r.False}
		if r.Default != nil {
			def, err := convertExpr(r.Default, loc+" placeholder default")
			if err != nil {
				return nil, err
			}
			opts.Default = def
		}
		out = append(out, ast.StringPart{Placeholder: placeholder, Options: opts})
	}
	return out, nil
}

func parseBinOp(s, loc string) (ast.BinOp, error) {
	switch s {
	case "add", "+":
		return ast.OpAdd, nil
	case "sub", "-":
		return ast.OpSub, nil
	case "mul", "*":
		return ast.OpMul, nil
	case "div", "/":
		return ast.OpDiv, nil
	case "mod", "%":
		return ast.OpMod, nil
	case "eq", "==":
		return ast.OpEq, nil
	case "neq", "!=":
		return ast.OpNeq, nil
	case "lt", "<":
		return ast.OpLt, nil
	case "le", "<=":
		return ast.OpLe, nil
	case "gt", ">":
		return ast.OpGt, nil
	case "ge", ">=":
		return ast.OpGe, nil
	case "and", "&&":
		return ast.OpAnd, nil
	case "or", "||":
		return ast.OpOr, nil
	default:
		return 0, errAt(loc, "unknown binary operator %q", s)
	}
}

func parseUnOp(s, loc string) (ast.UnOp, error) {
	switch s {
	case "not", "!":
		return ast.OpNot, nil
	case "negate", "-":
		return ast.OpNegate, nil
	default:
		return 0, errAt(loc, "unknown unary operator %q", s)
	}
}
