package stdlib

import (
	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func (r *Registry) registerCollection() {
	r.register("length", lengthFn())
	r.register("range", rangeFn())
	r.register("select_first", selectFirstFn())
	r.register("select_all", selectAllFn())
	r.register("defined", definedFn())
	r.register("flatten", flattenFn())
	r.register("prefix", affixFn("prefix", true))
	r.register("suffix", affixFn("suffix", false))
	r.register("quote", quoteFn("quote", '"'))
	r.register("squote", quoteFn("squote", '\''))
	r.register("zip", zipFn("zip", false))
	r.register("cross", zipFn("cross", true))
	r.register("unzip", unzipFn())
	r.register("transpose", transposeFn())
	r.register("contains", containsFn())
	r.register("sep", sepFn())
}

func lengthFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("length", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			switch t.Kind {
			case types.KindArray, types.KindMap, types.KindObject, types.KindString, types.KindStruct:
				return types.Int(false), nil
			default:
				return types.Type{}, errWrongArgType("length", t)
			}
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			switch v.Kind() {
			case types.VArray:
				return types.NewInt(int64(len(v.AsArray()))), nil
			case types.VMap, types.VStruct:
				return types.NewInt(int64(v.AsMap().Len())), nil
			case types.VString:
				return types.NewInt(int64(len(v.AsString()))), nil
			default:
				return types.Null, errWrongArgType("length", v.Type())
			}
		},
	}
}

func rangeFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("range", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if err := mustInfer(args[0], env, infer, types.KindInt); err != nil {
				return types.Type{}, err
			}
			return types.NewArray(types.Int(false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			n := v.AsInt()
			items := make([]types.Value, 0, n)
			for i := int64(0); i < n; i++ {
				items = append(items, types.NewInt(i))
			}
			return types.NewArrayValue(items, types.Int(false)), nil
		},
	}
}

func selectFirstFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("select_first", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray {
				return types.Type{}, errWrongArgType("select_first", t)
			}
			return t.Item.WithOptional(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			for _, item := range v.AsArray() {
				if !item.IsNull() {
					return item, nil
				}
			}
			return types.Null, types.NewRuntimeError("select_first: all elements were null")
		},
	}
}

func selectAllFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("select_all", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray {
				return types.Type{}, errWrongArgType("select_all", t)
			}
			return types.NewArray(t.Item.WithOptional(false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			src := v.AsArray()
			out := make([]types.Value, 0, len(src))
			itemType := v.Type().Item.WithOptional(false)
			for _, item := range src {
				if !item.IsNull() {
					out = append(out, item)
				}
			}
			return types.NewArrayValue(out, itemType), nil
		},
	}
}

func definedFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("defined", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			if _, err := infer(args[0], env); err != nil {
				return types.Type{}, err
			}
			return types.Boolean(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			return types.NewBoolean(!v.IsNull()), nil
		},
	}
}

func flattenFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("flatten", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray || t.Item.Kind != types.KindArray {
				return types.Type{}, errWrongArgType("flatten", t)
			}
			return types.NewArray(*t.Item.Item, false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			var out []types.Value
			itemType := types.Any(false)
			for _, inner := range v.AsArray() {
				for _, item := range inner.AsArray() {
					out = append(out, item)
					itemType = item.Type()
				}
			}
			return types.NewArrayValue(out, itemType), nil
		},
	}
}

func affixFn(name string, isPrefix bool) Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity(name, len(args), 2, 2); err != nil {
				return types.Type{}, err
			}
			if err := mustInfer(args[0], env, infer, types.KindString); err != nil {
				return types.Type{}, err
			}
			arr, err := infer(args[1], env)
			if err != nil {
				return types.Type{}, err
			}
			if arr.Kind != types.KindArray {
				return types.Type{}, errWrongArgType(name, arr)
			}
			return types.NewArray(types.String(false), false, arr.NonEmpty), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			affix := vals[0].AsString()
			src := vals[1].AsArray()
			out := make([]types.Value, len(src))
			for i, item := range src {
				s := item.Stringify()
				if isPrefix {
					out[i] = types.NewString(affix + s)
				} else {
					out[i] = types.NewString(s + affix)
				}
			}
			return types.NewArrayValue(out, types.String(false)), nil
		},
	}
}

func quoteFn(name string, q byte) Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity(name, len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray {
				return types.Type{}, errWrongArgType(name, t)
			}
			return types.NewArray(types.String(false), false, t.NonEmpty), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			src := v.AsArray()
			out := make([]types.Value, len(src))
			for i, item := range src {
				out[i] = types.NewString(string(q) + item.Stringify() + string(q))
			}
			return types.NewArrayValue(out, types.String(false)), nil
		},
	}
}

func zipFn(name string, cross bool) Function {
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
				if t.Kind != types.KindArray {
					return types.Type{}, errWrongArgType(name, t)
				}
			}
			return types.NewArray(types.NewPair(*ts[0].Item, *ts[1].Item, false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			a := vals[0].AsArray()
			b := vals[1].AsArray()
			var out []types.Value
			if cross {
				for _, x := range a {
					for _, y := range b {
						out = append(out, types.NewPairValue(x, y))
					}
				}
			} else {
				n := len(a)
				if len(b) < n {
					n = len(b)
				}
				for i := 0; i < n; i++ {
					out = append(out, types.NewPairValue(a[i], b[i]))
				}
			}
			pairType := types.NewPair(vals[0].Type(), vals[1].Type(), false)
			if len(a) > 0 {
				pairType = types.NewPair(*vals[0].Type().Item, *vals[1].Type().Item, false)
			}
			return types.NewArrayValue(out, pairType), nil
		},
	}
}

func unzipFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("unzip", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray || t.Item.Kind != types.KindPair {
				return types.Type{}, errWrongArgType("unzip", t)
			}
			return types.NewPair(
				types.NewArray(*t.Item.Left, false, false),
				types.NewArray(*t.Item.Right, false, false),
				false,
			), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			src := v.AsArray()
			lefts := make([]types.Value, len(src))
			rights := make([]types.Value, len(src))
			leftType, rightType := types.Any(false), types.Any(false)
			for i, p := range src {
				pair := p.AsPair()
				lefts[i] = pair.Left
				rights[i] = pair.Right
				leftType, rightType = pair.Left.Type(), pair.Right.Type()
			}
			return types.NewPairValue(
				types.NewArrayValue(lefts, leftType),
				types.NewArrayValue(rights, rightType),
			), nil
		},
	}
}

func transposeFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("transpose", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray || t.Item.Kind != types.KindArray {
				return types.Type{}, errWrongArgType("transpose", t)
			}
			return t, nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			rows := v.AsArray()
			if len(rows) == 0 {
				return types.NewArrayValue(nil, *v.Type().Item), nil
			}
			cols := len(rows[0].AsArray())
			innerType := *v.Type().Item.Item
			outRows := make([]types.Value, cols)
			for c := 0; c < cols; c++ {
				row := make([]types.Value, len(rows))
				for r := range rows {
					row[r] = rows[r].AsArray()[c]
				}
				outRows[c] = types.NewArrayValue(row, innerType)
			}
			return types.NewArrayValue(outRows, types.NewArray(innerType, false, false)), nil
		},
	}
}

func containsFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("contains", len(args), 2, 2); err != nil {
				return types.Type{}, err
			}
			if _, err := inferArgs(args, env, infer); err != nil {
				return types.Type{}, err
			}
			return types.Boolean(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			for _, item := range vals[0].AsArray() {
				if item.Equal(vals[1]) {
					return types.NewBoolean(true), nil
				}
			}
			return types.NewBoolean(false), nil
		},
	}
}

func sepFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("sep", len(args), 2, 2); err != nil {
				return types.Type{}, err
			}
			if err := mustInfer(args[0], env, infer, types.KindString); err != nil {
				return types.Type{}, err
			}
			arr, err := infer(args[1], env)
			if err != nil {
				return types.Type{}, err
			}
			if arr.Kind != types.KindArray {
				return types.Type{}, errWrongArgType("sep", arr)
			}
			return types.String(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			sep := vals[0].AsString()
			var out string
			for i, item := range vals[1].AsArray() {
				if i > 0 {
					out += sep
				}
				out += item.Stringify()
			}
			return types.NewString(out), nil
		},
	}
}

func mustInfer(e ast.Expression, env bindings.Bindings[types.Type], infer InferFunc, want types.Kind) error {
	t, err := infer(e, env)
	if err != nil {
		return err
	}
	if t.Kind != want && t.Kind != types.KindAny {
		pos := e.Pos()
		return types.NewStaticTypeMismatch(want.String(), t.String(), &pos)
	}
	return nil
}
