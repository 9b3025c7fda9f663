package stdlib

import (
	"math"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func (r *Registry) registerMath() {
	r.register("floor", roundingFunc("floor", math.Floor))
	r.register("ceil", roundingFunc("ceil", math.Ceil))
	r.register("round", roundingFunc("round", func(f float64) float64 { return math.Floor(f + 0.5) }))
	r.register("min", minMaxFunc("min", func(a, b float64) bool { return a < b }))
	r.register("max", minMaxFunc("max", func(a, b float64) bool { return a > b }))
}

func roundingFunc(name string, op func(float64) float64) Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity(name, len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindFloat && t.Kind != types.KindInt {
				return types.Type{}, errWrongArgType(name, t)
			}
			return types.Int(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			f, ok := vals[0].AsNumber()
			if !ok {
				return types.Null, errWrongArgType(name, vals[0].Type())
			}
			return types.NewInt(int64(op(f))), nil
		},
	}
}

func minMaxFunc(name string, prefer func(a, b float64) bool) Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity(name, len(args), 2, 2); err != nil {
				return types.Type{}, err
			}
			ts, err := inferArgs(args, env, infer)
			if err != nil {
				return types.Type{}, err
			}
			for _, t := range ts {
				if t.Kind != types.KindInt && t.Kind != types.KindFloat {
					return types.Type{}, errWrongArgType(name, t)
				}
			}
			if ts[0].Kind == types.KindFloat || ts[1].Kind == types.KindFloat {
				return types.Float(false), nil
			}
			return types.Int(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			a, ok1 := vals[0].AsNumber()
			b, ok2 := vals[1].AsNumber()
			if !ok1 || !ok2 {
				return types.Null, errWrongArgType(name, vals[0].Type())
			}
			chosen := a
			if prefer(b, a) {
				chosen = b
			}
			if vals[0].Kind() == types.VFloat || vals[1].Kind() == types.VFloat {
				return types.NewFloat(chosen), nil
			}
			return types.NewInt(int64(chosen)), nil
		},
	}
}
