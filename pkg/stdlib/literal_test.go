package stdlib

import (
	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func pos() types.SourcePosition { return types.SourcePosition{} }

func strLit(s string) *ast.StringExpr {
	return ast.NewStringExpr([]ast.StringPart{{Literal: s, IsLiteral: true}}, pos())
}

// litEval evaluates the handful of literal node kinds the stdlib tests
// build expressions out of, standing in for the real expression evaluator
// pkg/eval provides (which itself depends on this package, so it can't be
// imported here).
func litEval(e ast.Expression, env bindings.Bindings[types.Value]) (types.Value, error) {
	switch n := e.(type) {
	case *ast.StringExpr:
		out := ""
		for _, p := range n.Parts {
			out += p.Literal
		}
		return types.NewString(out), nil
	case *ast.BoolLit:
		return types.NewBoolean(n.Value), nil
	case *ast.IntLit:
		return types.NewInt(n.Value), nil
	case *ast.FloatLit:
		return types.NewFloat(n.Value), nil
	case *ast.ArrayLit:
		items := make([]types.Value, len(n.Elements))
		itemType := types.Any(false)
		for i, el := range n.Elements {
			v, err := litEval(el, env)
			if err != nil {
				return types.Null, err
			}
			items[i] = v
			if i == 0 {
				itemType = v.Type()
			}
		}
		return types.NewArrayValue(items, itemType), nil
	case *ast.PairLit:
		l, err := litEval(n.Left, env)
		if err != nil {
			return types.Null, err
		}
		r, err := litEval(n.Right, env)
		if err != nil {
			return types.Null, err
		}
		return types.NewPairValue(l, r), nil
	case *ast.MapLit:
		m := types.NewOrderedMap()
		keyType, valType := types.String(false), types.Any(false)
		for i := range n.Keys {
			k, err := litEval(n.Keys[i], env)
			if err != nil {
				return types.Null, err
			}
			v, err := litEval(n.Values[i], env)
			if err != nil {
				return types.Null, err
			}
			m.Set(k.Stringify(), v)
			if i == 0 {
				keyType, valType = k.Type(), v.Type()
			}
		}
		return types.NewMapValue(m, keyType, valType), nil
	default:
		return types.Null, nil
	}
}

func emptyEnv() bindings.Bindings[types.Value] { return bindings.Empty[types.Value]() }
