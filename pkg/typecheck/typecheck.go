// Package typecheck implements the bottom-up static type inference pass of
// spec §4.5: walk an ast.Expression tree, infer each child's type before its
// parent, and cache every result on the node via ast.Expression's
// SetInferredType. Inference is grounded on the teacher's pkg/expr.Evaluate
// recursive-switch shape (pkg/expr/eval.go), reworked from a value-producing
// walk into a type-producing one and extended with the multi-error
// accumulation spec §4.5 and §7 require.
package typecheck

import (
	"fmt"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// Checker threads the function registry through a tree walk; it carries no
// other state, so a single instance is reused across every expression in a
// document.
type Checker struct {
	Registry *stdlib.Registry
}

// New builds a Checker bound to reg.
func New(reg *stdlib.Registry) *Checker {
	return &Checker{Registry: reg}
}

// Infer recursively infers expr's type against typeEnv, caching the result
// on expr itself and returning it. It is also usable directly as a
// stdlib.InferFunc.
func (c *Checker) Infer(expr ast.Expression, typeEnv bindings.Bindings[types.Type]) (types.Type, error) {
	t, err := c.infer(expr, typeEnv)
	if err != nil {
		return types.Type{}, err
	}
	expr.SetInferredType(t)
	return t, nil
}

func (c *Checker) infer(expr ast.Expression, env bindings.Bindings[types.Type]) (types.Type, error) {
	switch n := expr.(type) {
	case *ast.BoolLit:
		return types.Boolean(false), nil
	case *ast.IntLit:
		return types.Int(false), nil
	case *ast.FloatLit:
		return types.Float(false), nil
	case *ast.NullLit:
		return types.None(), nil
	case *ast.StringExpr:
		return c.inferString(n, env)
	case *ast.ArrayLit:
		return c.inferArray(n, env)
	case *ast.PairLit:
		return c.inferPair(n, env)
	case *ast.MapLit:
		return c.inferMap(n, env)
	case *ast.StructLit:
		return c.inferStruct(n, env)
	case *ast.Ident:
		return c.inferIdent(n, env)
	case *ast.Get:
		return c.inferGet(n, env)
	case *ast.IfThenElse:
		return c.inferIfThenElse(n, env)
	case *ast.Apply:
		return c.Registry.InferType(n.Function, n.Args, env, c.Infer)
	case *ast.BinaryOp:
		return c.inferBinaryOp(n, env)
	case *ast.UnaryOp:
		return c.inferUnaryOp(n, env)
	default:
		return types.Type{}, types.NewValidationError(fmt.Sprintf("unsupported expression node %T", expr), nil)
	}
}

func (c *Checker) inferString(n *ast.StringExpr, env bindings.Bindings[types.Type]) (types.Type, error) {
	me := &types.MultiError{}
	for _, part := range n.Parts {
		if part.IsLiteral {
			continue
		}
		if _, err := c.Infer(part.Placeholder, env); err != nil {
			me.Add(err)
		}
		if part.Options.Default != nil {
			if _, err := c.Infer(part.Options.Default, env); err != nil {
				me.Add(err)
			}
		}
	}
	if me.HasErrors() {
		return types.Type{}, me.AsError()
	}
	return types.String(false), nil
}

func (c *Checker) inferArray(n *ast.ArrayLit, env bindings.Bindings[types.Type]) (types.Type, error) {
	me := &types.MultiError{}
	itemTypes := make([]types.Type, 0, len(n.Elements))
	for _, e := range n.Elements {
		t, err := c.Infer(e, env)
		if err != nil {
			me.Add(err)
			continue
		}
		itemTypes = append(itemTypes, t)
	}
	if me.HasErrors() {
		return types.Type{}, me.AsError()
	}
	item := types.Unify(itemTypes, true, false)
	return types.NewArray(item, false, len(n.Elements) > 0), nil
}

func (c *Checker) inferPair(n *ast.PairLit, env bindings.Bindings[types.Type]) (types.Type, error) {
	l, err := c.Infer(n.Left, env)
	if err != nil {
		return types.Type{}, err
	}
	r, err := c.Infer(n.Right, env)
	if err != nil {
		return types.Type{}, err
	}
	return types.NewPair(l, r, false), nil
}

func (c *Checker) inferMap(n *ast.MapLit, env bindings.Bindings[types.Type]) (types.Type, error) {
	me := &types.MultiError{}
	keyTypes := make([]types.Type, 0, len(n.Keys))
	valTypes := make([]types.Type, 0, len(n.Values))
	for i := range n.Keys {
		kt, err := c.Infer(n.Keys[i], env)
		if err != nil {
			me.Add(err)
		} else {
			keyTypes = append(keyTypes, kt)
		}
		vt, err := c.Infer(n.Values[i], env)
		if err != nil {
			me.Add(err)
		} else {
			valTypes = append(valTypes, vt)
		}
	}
	if me.HasErrors() {
		return types.Type{}, me.AsError()
	}
	keyType := types.Unify(keyTypes, true, false)
	valType := types.Unify(valTypes, true, false)
	return types.NewMap(keyType, valType, false), nil
}

func (c *Checker) inferStruct(n *ast.StructLit, env bindings.Bindings[types.Type]) (types.Type, error) {
	me := &types.MultiError{}
	for _, name := range n.Order {
		if _, err := c.Infer(n.Members[name], env); err != nil {
			me.Add(err)
		}
	}
	if me.HasErrors() {
		return types.Type{}, me.AsError()
	}
	return types.NewObject(n.Order, nil, false), nil
}

func (c *Checker) inferIdent(n *ast.Ident, env bindings.Bindings[types.Type]) (types.Type, error) {
	t, ok := env.Resolve(n.Name)
	if !ok {
		pos := n.Pos()
		return types.Type{}, types.NewNameResolutionError(n.Name, &pos)
	}
	return t, nil
}

func (c *Checker) inferGet(n *ast.Get, env bindings.Bindings[types.Type]) (types.Type, error) {
	targetType, err := c.Infer(n.Target, env)
	if err != nil {
		return types.Type{}, err
	}
	switch targetType.Kind {
	case types.KindArray:
		if _, err := c.Infer(n.Index, env); err != nil {
			return types.Type{}, err
		}
		return *targetType.Item, nil
	case types.KindMap:
		if _, err := c.Infer(n.Index, env); err != nil {
			return types.Type{}, err
		}
		return *targetType.Elem, nil
	case types.KindPair:
		lit, ok := n.Index.(*ast.Ident)
		if !ok {
			return types.Type{}, types.NewStaticTypeMismatch("'left' or 'right'", "non-identifier index", posOf(n.Index))
		}
		switch lit.Name {
		case "left":
			return *targetType.Left, nil
		case "right":
			return *targetType.Right, nil
		default:
			return types.Type{}, types.NewStaticTypeMismatch("'left' or 'right'", lit.Name, posOf(n.Index))
		}
	case types.KindStruct, types.KindObject:
		lit, ok := n.Index.(*ast.Ident)
		if !ok {
			return types.Type{}, types.NewStaticTypeMismatch("a member name", "non-identifier index", posOf(n.Index))
		}
		mt, ok := targetType.Members[lit.Name]
		if !ok {
			return types.Type{}, types.NewNameResolutionError(lit.Name, ptrPos(n.Pos()))
		}
		return *mt, nil
	default:
		return types.Type{}, types.NewStaticTypeMismatch("Array, Map, Pair, Struct, or Object", targetType.String(), ptrPos(n.Pos()))
	}
}

func posOf(e ast.Expression) *types.SourcePosition {
	p := e.Pos()
	return &p
}

func ptrPos(p types.SourcePosition) *types.SourcePosition { return &p }

func (c *Checker) inferIfThenElse(n *ast.IfThenElse, env bindings.Bindings[types.Type]) (types.Type, error) {
	me := &types.MultiError{}
	condType, err := c.Infer(n.Cond, env)
	if err != nil {
		me.Add(err)
	} else if !condType.CoercesTo(types.Boolean(false), true) {
		me.Add(types.NewStaticTypeMismatch("Boolean", condType.String(), ptrPos(n.Cond.Pos())))
	}
	thenType, err := c.Infer(n.Then, env)
	if err != nil {
		me.Add(err)
	}
	elseType, err := c.Infer(n.Else, env)
	if err != nil {
		me.Add(err)
	}
	if me.HasErrors() {
		return types.Type{}, me.AsError()
	}
	return types.Unify([]types.Type{thenType, elseType}, true, false), nil
}

func (c *Checker) inferBinaryOp(n *ast.BinaryOp, env bindings.Bindings[types.Type]) (types.Type, error) {
	me := &types.MultiError{}
	left, err := c.Infer(n.Left, env)
	if err != nil {
		me.Add(err)
	}
	right, err := c.Infer(n.Right, env)
	if err != nil {
		me.Add(err)
	}
	if me.HasErrors() {
		return types.Type{}, me.AsError()
	}
	switch n.Op {
	case ast.OpAdd:
		if left.Kind == types.KindString || right.Kind == types.KindString {
			return types.String(false), nil
		}
		if left.Kind == types.KindArray && right.Kind == types.KindArray {
			return types.NewArray(types.Unify([]types.Type{*left.Item, *right.Item}, true, false), false, left.NonEmpty || right.NonEmpty), nil
		}
		return arithResult(left, right), nil
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return arithResult(left, right), nil
	case ast.OpEq, ast.OpNeq:
		if !types.Equatable(left, right) {
			return types.Type{}, types.NewStaticTypeMismatch(left.String(), right.String(), ptrPos(n.Pos()))
		}
		return types.Boolean(false), nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !types.Comparable(left, right, true) {
			return types.Type{}, types.NewStaticTypeMismatch(left.String(), right.String(), ptrPos(n.Pos()))
		}
		return types.Boolean(false), nil
	case ast.OpAnd, ast.OpOr:
		return types.Boolean(false), nil
	default:
		return types.Type{}, types.NewValidationError("unknown binary operator", ptrPos(n.Pos()))
	}
}

func arithResult(left, right types.Type) types.Type {
	if left.Kind == types.KindFloat || right.Kind == types.KindFloat {
		return types.Float(false)
	}
	return types.Int(false)
}

func (c *Checker) inferUnaryOp(n *ast.UnaryOp, env bindings.Bindings[types.Type]) (types.Type, error) {
	t, err := c.Infer(n.Operand, env)
	if err != nil {
		return types.Type{}, err
	}
	switch n.Op {
	case ast.OpNot:
		return types.Boolean(false), nil
	case ast.OpNegate:
		if t.Kind != types.KindInt && t.Kind != types.KindFloat {
			return types.Type{}, types.NewStaticTypeMismatch("Int or Float", t.String(), ptrPos(n.Pos()))
		}
		return t, nil
	default:
		return types.Type{}, types.NewValidationError("unknown unary operator", ptrPos(n.Pos()))
	}
}
