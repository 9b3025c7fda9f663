package stdlib

import (
	"path"
	"regexp"
	"strings"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func (r *Registry) registerStringPath() {
	r.register("sub", subFn())
	r.register("find", findFn())
	r.register("basename", basenameFn())
	r.register("join_paths", joinPathsFn())
}

// posixERE compiles a POSIX extended regular expression as Go RE2 syntax,
// unchanged; RE2 accepts the ERE constructs WDL commonly uses.
func posixERE(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, types.NewRuntimeError("invalid regular expression: " + err.Error())
	}
	return re, nil
}

func subFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("sub", len(args), 3, 3); err != nil {
				return types.Type{}, err
			}
			for _, a := range args {
				if err := mustInfer(a, env, infer, types.KindString); err != nil {
					return types.Type{}, err
				}
			}
			return types.String(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			re, err := posixERE(vals[1].AsString())
			if err != nil {
				return types.Null, err
			}
			result := re.ReplaceAllString(vals[0].AsString(), vals[2].AsString())
			return types.NewString(result), nil
		},
	}
}

func findFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("find", len(args), 2, 2); err != nil {
				return types.Type{}, err
			}
			for _, a := range args {
				if err := mustInfer(a, env, infer, types.KindString); err != nil {
					return types.Type{}, err
				}
			}
			return types.String(true), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			re, err := posixERE(vals[1].AsString())
			if err != nil {
				return types.Null, err
			}
			m := re.FindString(vals[0].AsString())
			if m == "" && !re.MatchString(vals[0].AsString()) {
				return types.Null, nil
			}
			return types.NewString(m), nil
		},
	}
}

func basenameFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("basename", len(args), 1, 2); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindFile && t.Kind != types.KindDirectory && t.Kind != types.KindString {
				return types.Type{}, errWrongArgType("basename", t)
			}
			if len(args) == 2 {
				if err := mustInfer(args[1], env, infer, types.KindString); err != nil {
					return types.Type{}, err
				}
			}
			return types.String(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			base := path.Base(vals[0].AsString())
			if len(vals) == 2 {
				base = strings.TrimSuffix(base, vals[1].AsString())
			}
			return types.NewString(base), nil
		},
	}
}

func joinPathsFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("join_paths", len(args), 2, -1); err != nil {
				return types.Type{}, err
			}
			if _, err := inferArgs(args, env, infer); err != nil {
				return types.Type{}, err
			}
			return types.File(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			var parts []string
			if len(vals) == 2 && vals[1].Kind() == types.VArray {
				parts = append(parts, vals[0].AsString())
				for _, item := range vals[1].AsArray() {
					parts = append(parts, item.AsString())
				}
			} else {
				for _, v := range vals {
					parts = append(parts, v.AsString())
				}
			}
			result := parts[0]
			for _, p := range parts[1:] {
				if path.IsAbs(p) {
					result = p
				} else {
					result = path.Join(result, p)
				}
			}
			return types.NewFile(result), nil
		},
	}
}
