// Package stdlib implements the WDL standard library (spec §4.4): a
// registry mapping function name to a two-method dispatcher, grounded on
// the teacher module's Registry/StdlibFunc pattern but reshaped to the
// {infer_type, eval} capability set §4.4 and §9 mandate for overload
// resolution by arity and argument type.
package stdlib

import (
	"fmt"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// InferFunc recursively infers the type of a sub-expression; stdlib
// functions use it to type their own arguments without depending on the
// typecheck package directly.
type InferFunc func(expr ast.Expression, typeEnv bindings.Bindings[types.Type]) (types.Type, error)

// EvalFunc recursively evaluates a sub-expression; stdlib functions use
// it to evaluate their own arguments without depending on the eval
// package directly.
type EvalFunc func(expr ast.Expression, env bindings.Bindings[types.Value]) (types.Value, error)

// IOContext carries the path-mapping and output-directory state I/O
// functions need to cross the Value/filesystem boundary (§5).
type IOContext struct {
	// WorkDir is the task-scoped directory write_* functions emit into.
	WorkDir string
	// Devirtualize resolves a virtual path to a real filesystem path for
	// reads. A nil func means identity mapping (§5's default).
	Devirtualize func(virtual string) (string, error)
	// Virtualize converts a freshly-written real path into the virtual
	// path stored in the returned File value.
	Virtualize func(real string) (string, error)
	// NextNanos supplies a monotonically-distinct suffix for
	// write_<fn>_<nanos>.txt filenames (§6); tests can pin it.
	NextNanos func() int64
}

func (io *IOContext) devirtualize(v string) (string, error) {
	if io == nil || io.Devirtualize == nil {
		return v, nil
	}
	return io.Devirtualize(v)
}

func (io *IOContext) virtualize(v string) (string, error) {
	if io == nil || io.Virtualize == nil {
		return v, nil
	}
	return io.Virtualize(v)
}

func (io *IOContext) nanos() int64 {
	if io == nil || io.NextNanos == nil {
		return 0
	}
	return io.NextNanos()
}

func (io *IOContext) workDir() string {
	if io == nil {
		return "."
	}
	return io.WorkDir
}

// Function is the two-method capability set every stdlib entry implements
// (§4.4, §9): InferType validates arity/argument types and returns a
// result type; Eval evaluates arguments left-to-right and produces the
// result.
type Function interface {
	InferType(args []ast.Expression, typeEnv bindings.Bindings[types.Type], infer InferFunc) (types.Type, error)
	Eval(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error)
}

type simpleFunc struct {
	infer func([]ast.Expression, bindings.Bindings[types.Type], InferFunc) (types.Type, error)
	eval  func([]ast.Expression, bindings.Bindings[types.Value], EvalFunc, *IOContext) (types.Value, error)
}

func (f simpleFunc) InferType(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
	return f.infer(args, env, infer)
}

func (f simpleFunc) Eval(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
	return f.eval(args, env, eval, io)
}

// Registry holds every registered stdlib function by name.
type Registry struct {
	funcs map[string]Function
}

// NewRegistry builds a registry with every function named in §4.4
// registered.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Function)}
	r.registerMath()
	r.registerCollection()
	r.registerMapObject()
	r.registerStringPath()
	r.registerIO()
	return r
}

func (r *Registry) register(name string, fn Function) { r.funcs[name] = fn }

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Function, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// InferType dispatches to the named function's InferType, or a
// NameResolution-style error if it is unregistered.
func (r *Registry) InferType(name string, args []ast.Expression, typeEnv bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return types.Type{}, types.NewNameResolutionError(name, nil)
	}
	return fn.InferType(args, typeEnv, infer)
}

// Eval dispatches to the named function's Eval.
func (r *Registry) Eval(name string, args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return types.Null, types.NewNameResolutionError(name, nil)
	}
	return fn.Eval(args, env, eval, io)
}

func evalArgs(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc) ([]types.Value, error) {
	out := make([]types.Value, len(args))
	for i, a := range args {
		v, err := eval(a, env)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func inferArgs(args []ast.Expression, typeEnv bindings.Bindings[types.Type], infer InferFunc) ([]types.Type, error) {
	me := &types.MultiError{}
	out := make([]types.Type, len(args))
	for i, a := range args {
		t, err := infer(a, typeEnv)
		if err != nil {
			me.Add(err)
			continue
		}
		out[i] = t
	}
	return out, me.AsError()
}

func arity(name string, n, min, max int) error {
	if n < min || (max >= 0 && n > max) {
		return types.NewArgumentCountMismatch(name, min, n)
	}
	return nil
}

func errWrongArgType(fn string, got types.Type) error {
	return types.NewStaticTypeMismatch(fmt.Sprintf("a valid argument to %s", fn), got.String(), nil)
}
