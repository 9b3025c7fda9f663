package stdlib

import (
	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func (r *Registry) registerMapObject() {
	r.register("keys", keysFn())
	r.register("values", valuesFn())
	r.register("as_pairs", asPairsFn())
	r.register("as_map", asMapFn())
	r.register("collect_by_key", collectByKeyFn())
	r.register("contains_key", containsKeyFn())
}

func keysFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("keys", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			switch t.Kind {
			case types.KindMap:
				return types.NewArray(*t.Key, false, false), nil
			case types.KindStruct, types.KindObject:
				return types.NewArray(types.String(false), false, false), nil
			default:
				return types.Type{}, errWrongArgType("keys", t)
			}
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			m := v.AsMap()
			keyType := types.String(false)
			if v.Kind() == types.VMap {
				keyType = *v.Type().Key
			}
			out := make([]types.Value, 0, m.Len())
			for _, k := range m.Keys() {
				out = append(out, types.NewString(k))
			}
			return types.NewArrayValue(out, keyType), nil
		},
	}
}

func valuesFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("values", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindMap {
				return types.Type{}, errWrongArgType("values", t)
			}
			return types.NewArray(*t.Elem, false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			m := v.AsMap()
			out := make([]types.Value, 0, m.Len())
			for _, k := range m.Keys() {
				val, _ := m.Get(k)
				out = append(out, val)
			}
			return types.NewArrayValue(out, *v.Type().Elem), nil
		},
	}
}

func asPairsFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("as_pairs", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindMap {
				return types.Type{}, errWrongArgType("as_pairs", t)
			}
			return types.NewArray(types.NewPair(*t.Key, *t.Elem, false), false, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			m := v.AsMap()
			out := make([]types.Value, 0, m.Len())
			for _, k := range m.Keys() {
				val, _ := m.Get(k)
				out = append(out, types.NewPairValue(types.NewString(k), val))
			}
			pairType := types.NewPair(*v.Type().Key, *v.Type().Elem, false)
			return types.NewArrayValue(out, pairType), nil
		},
	}
}

func asMapFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("as_map", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray || t.Item.Kind != types.KindPair {
				return types.Type{}, errWrongArgType("as_map", t)
			}
			return types.NewMap(*t.Item.Left, *t.Item.Right, false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			src := v.AsArray()
			m := types.NewOrderedMap()
			keyType, valType := types.String(false), types.Any(false)
			for i, p := range src {
				pair := p.AsPair()
				m.Set(pair.Left.Stringify(), pair.Right)
				if i == 0 {
					keyType, valType = pair.Left.Type(), pair.Right.Type()
				}
			}
			return types.NewMapValue(m, keyType, valType), nil
		},
	}
}

func collectByKeyFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("collect_by_key", len(args), 1, 1); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindArray || t.Item.Kind != types.KindPair {
				return types.Type{}, errWrongArgType("collect_by_key", t)
			}
			return types.NewMap(*t.Item.Left, types.NewArray(*t.Item.Right, false, false), false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			v, err := eval(args[0], env)
			if err != nil {
				return types.Null, err
			}
			src := v.AsArray()
			order := []string{}
			grouped := map[string][]types.Value{}
			keyType, valType := types.String(false), types.Any(false)
			for i, p := range src {
				pair := p.AsPair()
				k := pair.Left.Stringify()
				if _, ok := grouped[k]; !ok {
					order = append(order, k)
				}
				grouped[k] = append(grouped[k], pair.Right)
				if i == 0 {
					keyType, valType = pair.Left.Type(), pair.Right.Type()
				}
			}
			m := types.NewOrderedMap()
			for _, k := range order {
				m.Set(k, types.NewArrayValue(grouped[k], valType))
			}
			return types.NewMapValue(m, keyType, types.NewArray(valType, false, false)), nil
		},
	}
}

func containsKeyFn() Function {
	return simpleFunc{
		infer: func(args []ast.Expression, env bindings.Bindings[types.Type], infer InferFunc) (types.Type, error) {
			if err := arity("contains_key", len(args), 2, 2); err != nil {
				return types.Type{}, err
			}
			t, err := infer(args[0], env)
			if err != nil {
				return types.Type{}, err
			}
			if t.Kind != types.KindMap {
				return types.Type{}, errWrongArgType("contains_key", t)
			}
			if _, err := infer(args[1], env); err != nil {
				return types.Type{}, err
			}
			return types.Boolean(false), nil
		},
		eval: func(args []ast.Expression, env bindings.Bindings[types.Value], eval EvalFunc, io *IOContext) (types.Value, error) {
			vals, err := evalArgs(args, env, eval)
			if err != nil {
				return types.Null, err
			}
			_, ok := vals[0].AsMap().Get(vals[1].Stringify())
			return types.NewBoolean(ok), nil
		},
	}
}
