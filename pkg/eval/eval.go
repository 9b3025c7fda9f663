// Package eval implements the expression evaluator of spec §4.6: given a
// type-checked ast.Expression and a Bindings<Value> environment, produce a
// Value. Grounded on the teacher's pkg/expr.Evaluate recursive-switch shape
// (pkg/expr/eval.go) with one eval<Kind> helper per node variant, adapted
// from GCW's value domain to the WDL one and its string-interpolation,
// truncated-division, and non-short-circuit boolean rules.
package eval

import (
	"errors"
	"strings"

	"github.com/lemonberrylabs/wdl-engine/pkg/ast"
	"github.com/lemonberrylabs/wdl-engine/pkg/bindings"
	"github.com/lemonberrylabs/wdl-engine/pkg/stdlib"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// Evaluator threads the function registry and I/O context through a tree
// walk.
type Evaluator struct {
	Registry *stdlib.Registry
	IO       *stdlib.IOContext
}

// New builds an Evaluator bound to reg and io. io may be nil for contexts
// that never touch the filesystem (e.g. pure workflow-level arithmetic).
func New(reg *stdlib.Registry, io *stdlib.IOContext) *Evaluator {
	return &Evaluator{Registry: reg, IO: io}
}

// Eval evaluates expr against env. It is also usable directly as a
// stdlib.EvalFunc.
func (e *Evaluator) Eval(expr ast.Expression, env bindings.Bindings[types.Value]) (types.Value, error) {
	switch n := expr.(type) {
	case *ast.BoolLit:
		return types.NewBoolean(n.Value), nil
	case *ast.IntLit:
		return types.NewInt(n.Value), nil
	case *ast.FloatLit:
		return types.NewFloat(n.Value), nil
	case *ast.NullLit:
		return types.Null, nil
	case *ast.StringExpr:
		return e.evalString(n, env)
	case *ast.ArrayLit:
		return e.evalArray(n, env)
	case *ast.PairLit:
		return e.evalPair(n, env)
	case *ast.MapLit:
		return e.evalMap(n, env)
	case *ast.StructLit:
		return e.evalStruct(n, env)
	case *ast.Ident:
		return e.evalIdent(n, env)
	case *ast.Get:
		return e.evalGet(n, env)
	case *ast.IfThenElse:
		return e.evalIfThenElse(n, env)
	case *ast.Apply:
		return e.Registry.Eval(n.Function, n.Args, env, e.Eval, e.IO)
	case *ast.BinaryOp:
		return e.evalBinaryOp(n, env)
	case *ast.UnaryOp:
		return e.evalUnaryOp(n, env)
	default:
		return types.Null, types.NewRuntimeError("unsupported expression node")
	}
}

func (e *Evaluator) evalString(n *ast.StringExpr, env bindings.Bindings[types.Value]) (types.Value, error) {
	var sb strings.Builder
	for _, part := range n.Parts {
		if part.IsLiteral {
			sb.WriteString(part.Literal)
			continue
		}
		v, err := e.Eval(part.Placeholder, env)
		if err != nil {
			var we *types.WorkflowError
			if errors.As(err, &we) && we.Kind == types.KindStaticTypeMismatch {
				return types.Null, err
			}
			continue
		}
		sb.WriteString(e.renderPlaceholder(part, v, env))
	}
	return types.NewString(sb.String()), nil
}

// renderPlaceholder implements §4.6's placeholder substitution rules for an
// already-evaluated placeholder value. evalString handles evaluation errors:
// a StaticTypeMismatch fails the whole string, any other error renders the
// placeholder as the empty string.
func (e *Evaluator) renderPlaceholder(part ast.StringPart, v types.Value, env bindings.Bindings[types.Value]) string {
	opts := part.Options

	if v.IsNull() {
		if opts.Default != nil {
			dv, derr := e.Eval(opts.Default, env)
			if derr == nil {
				return dv.Stringify()
			}
		}
		return ""
	}
	if v.Kind() == types.VBoolean {
		if v.AsBool() {
			if opts.True != nil {
				return *opts.True
			}
			return "true"
		}
		if opts.False != nil {
			return *opts.False
		}
		return "false"
	}
	if v.Kind() == types.VArray && opts.Sep != nil {
		parts := make([]string, len(v.AsArray()))
		for i, item := range v.AsArray() {
			parts[i] = item.Stringify()
		}
		return strings.Join(parts, *opts.Sep)
	}
	return v.Stringify()
}

func (e *Evaluator) evalArray(n *ast.ArrayLit, env bindings.Bindings[types.Value]) (types.Value, error) {
	items := make([]types.Value, len(n.Elements))
	for i, elem := range n.Elements {
		v, err := e.Eval(elem, env)
		if err != nil {
			return types.Null, err
		}
		items[i] = v
	}
	itemType := types.Any(false)
	if len(items) > 0 {
		itemType = items[0].Type()
	} else if n.InferredType().Kind == types.KindArray {
		itemType = *n.InferredType().Item
	}
	return types.NewArrayValue(items, itemType), nil
}

func (e *Evaluator) evalPair(n *ast.PairLit, env bindings.Bindings[types.Value]) (types.Value, error) {
	l, err := e.Eval(n.Left, env)
	if err != nil {
		return types.Null, err
	}
	r, err := e.Eval(n.Right, env)
	if err != nil {
		return types.Null, err
	}
	return types.NewPairValue(l, r), nil
}

func (e *Evaluator) evalMap(n *ast.MapLit, env bindings.Bindings[types.Value]) (types.Value, error) {
	m := types.NewOrderedMap()
	keyType, valType := types.String(false), types.Any(false)
	for i := range n.Keys {
		k, err := e.Eval(n.Keys[i], env)
		if err != nil {
			return types.Null, err
		}
		v, err := e.Eval(n.Values[i], env)
		if err != nil {
			return types.Null, err
		}
		m.Set(k.Stringify(), v)
		if i == 0 {
			keyType, valType = k.Type(), v.Type()
		}
	}
	return types.NewMapValue(m, keyType, valType), nil
}

func (e *Evaluator) evalStruct(n *ast.StructLit, env bindings.Bindings[types.Value]) (types.Value, error) {
	m := types.NewOrderedMap()
	members := make(map[string]*types.Type, len(n.Order))
	for _, name := range n.Order {
		v, err := e.Eval(n.Members[name], env)
		if err != nil {
			return types.Null, err
		}
		m.Set(name, v)
		t := v.Type()
		members[name] = &t
	}
	return types.NewStructValue(n.StructName, n.Order, members, m), nil
}

func (e *Evaluator) evalIdent(n *ast.Ident, env bindings.Bindings[types.Value]) (types.Value, error) {
	v, ok := env.Resolve(n.Name)
	if !ok {
		pos := n.Pos()
		return types.Null, types.NewNameResolutionError(n.Name, &pos)
	}
	return v, nil
}

func (e *Evaluator) evalGet(n *ast.Get, env bindings.Bindings[types.Value]) (types.Value, error) {
	target, err := e.Eval(n.Target, env)
	if err != nil {
		return types.Null, err
	}
	switch target.Kind() {
	case types.VArray:
		idx, err := e.Eval(n.Index, env)
		if err != nil {
			return types.Null, err
		}
		arr := target.AsArray()
		i := int(idx.AsInt())
		if i < 0 || i >= len(arr) {
			return types.Null, types.NewOutOfBoundsError("array index out of bounds")
		}
		return arr[i], nil
	case types.VMap:
		idx, err := e.Eval(n.Index, env)
		if err != nil {
			return types.Null, err
		}
		val, ok := target.AsMap().Get(idx.Stringify())
		if !ok {
			return types.Null, types.NewOutOfBoundsError("map key not found")
		}
		return val, nil
	case types.VPair:
		lit, ok := n.Index.(*ast.Ident)
		if !ok {
			return types.Null, types.NewRuntimeError("pair access requires 'left' or 'right'")
		}
		p := target.AsPair()
		switch lit.Name {
		case "left":
			return p.Left, nil
		case "right":
			return p.Right, nil
		default:
			return types.Null, types.NewRuntimeError("pair has no member '" + lit.Name + "'")
		}
	case types.VStruct:
		lit, ok := n.Index.(*ast.Ident)
		if !ok {
			return types.Null, types.NewRuntimeError("struct access requires a member name")
		}
		val, ok := target.AsMap().Get(lit.Name)
		if !ok {
			return types.Null, types.NewNameResolutionError(lit.Name, nil)
		}
		return val, nil
	default:
		return types.Null, types.NewRuntimeError("cannot index into " + target.Type().String())
	}
}

func (e *Evaluator) evalIfThenElse(n *ast.IfThenElse, env bindings.Bindings[types.Value]) (types.Value, error) {
	cond, err := e.Eval(n.Cond, env)
	if err != nil {
		return types.Null, err
	}
	if cond.AsBool() {
		return e.Eval(n.Then, env)
	}
	return e.Eval(n.Else, env)
}

func (e *Evaluator) evalBinaryOp(n *ast.BinaryOp, env bindings.Bindings[types.Value]) (types.Value, error) {
	// §4.6 specifies non-short-circuit evaluation as the default: both
	// sides are always evaluated for && and ||.
	left, err := e.Eval(n.Left, env)
	if err != nil {
		return types.Null, err
	}
	right, err := e.Eval(n.Right, env)
	if err != nil {
		return types.Null, err
	}
	switch n.Op {
	case ast.OpAdd:
		return evalAdd(left, right)
	case ast.OpSub:
		return evalArith(left, right, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case ast.OpMul:
		return evalArith(left, right, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case ast.OpDiv:
		return evalDivide(left, right)
	case ast.OpMod:
		return evalModulo(left, right)
	case ast.OpEq:
		return types.NewBoolean(left.Equal(right)), nil
	case ast.OpNeq:
		return types.NewBoolean(!left.Equal(right)), nil
	case ast.OpLt:
		return evalCompare(left, right, func(c int) bool { return c < 0 })
	case ast.OpLe:
		return evalCompare(left, right, func(c int) bool { return c <= 0 })
	case ast.OpGt:
		return evalCompare(left, right, func(c int) bool { return c > 0 })
	case ast.OpGe:
		return evalCompare(left, right, func(c int) bool { return c >= 0 })
	case ast.OpAnd:
		return types.NewBoolean(left.AsBool() && right.AsBool()), nil
	case ast.OpOr:
		return types.NewBoolean(left.AsBool() || right.AsBool()), nil
	default:
		return types.Null, types.NewRuntimeError("unsupported binary operator")
	}
}

// evalAdd implements + for numbers, strings (via Stringify, §4.6), and
// arrays (concatenation).
func evalAdd(left, right types.Value) (types.Value, error) {
	if left.Kind() == types.VString || right.Kind() == types.VString ||
		left.Kind() == types.VFile || right.Kind() == types.VFile {
		return types.NewString(left.Stringify() + right.Stringify()), nil
	}
	if left.Kind() == types.VArray && right.Kind() == types.VArray {
		items := append(append([]types.Value{}, left.AsArray()...), right.AsArray()...)
		itemType := types.Any(false)
		if len(items) > 0 {
			itemType = items[0].Type()
		}
		return types.NewArrayValue(items, itemType), nil
	}
	return evalArith(left, right, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

func evalArith(left, right types.Value, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (types.Value, error) {
	if left.Kind() == types.VInt && right.Kind() == types.VInt {
		return types.NewInt(intOp(left.AsInt(), right.AsInt())), nil
	}
	a, aOk := left.AsNumber()
	b, bOk := right.AsNumber()
	if !aOk || !bOk {
		return types.Null, types.NewRuntimeError("unsupported operand types for arithmetic: " + left.Type().String() + " and " + right.Type().String())
	}
	return types.NewFloat(floatOp(a, b)), nil
}

// evalDivide implements truncated Int/Int division and IEEE Float division
// per §4.6.
func evalDivide(left, right types.Value) (types.Value, error) {
	if left.Kind() == types.VInt && right.Kind() == types.VInt {
		if right.AsInt() == 0 {
			return types.Null, types.NewRuntimeError("division by zero")
		}
		return types.NewInt(left.AsInt() / right.AsInt()), nil
	}
	a, aOk := left.AsNumber()
	b, bOk := right.AsNumber()
	if !aOk || !bOk {
		return types.Null, types.NewRuntimeError("unsupported operand types for /: " + left.Type().String() + " and " + right.Type().String())
	}
	if b == 0 {
		return types.Null, types.NewRuntimeError("division by zero")
	}
	return types.NewFloat(a / b), nil
}

// evalModulo implements Int/Int modulo per §4.6; % is Int-only.
func evalModulo(left, right types.Value) (types.Value, error) {
	if left.Kind() != types.VInt || right.Kind() != types.VInt {
		return types.Null, types.NewRuntimeError("% requires Int operands")
	}
	if right.AsInt() == 0 {
		return types.Null, types.NewRuntimeError("division by zero")
	}
	return types.NewInt(left.AsInt() % right.AsInt()), nil
}

func evalCompare(left, right types.Value, test func(int) bool) (types.Value, error) {
	cmp, err := compare(left, right)
	if err != nil {
		return types.Null, err
	}
	return types.NewBoolean(test(cmp)), nil
}

func compare(a, b types.Value) (int, error) {
	if an, aOk := a.AsNumber(); aOk {
		if bn, bOk := b.AsNumber(); bOk {
			switch {
			case an < bn:
				return -1, nil
			case an > bn:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if (a.Kind() == types.VString || a.Kind() == types.VFile) && (b.Kind() == types.VString || b.Kind() == types.VFile) {
		return strings.Compare(a.AsString(), b.AsString()), nil
	}
	return 0, types.NewRuntimeError("cannot compare " + a.Type().String() + " and " + b.Type().String())
}

func (e *Evaluator) evalUnaryOp(n *ast.UnaryOp, env bindings.Bindings[types.Value]) (types.Value, error) {
	v, err := e.Eval(n.Operand, env)
	if err != nil {
		return types.Null, err
	}
	switch n.Op {
	case ast.OpNot:
		return types.NewBoolean(!v.AsBool()), nil
	case ast.OpNegate:
		switch v.Kind() {
		case types.VInt:
			return types.NewInt(-v.AsInt()), nil
		case types.VFloat:
			return types.NewFloat(-v.AsFloat()), nil
		default:
			return types.Null, types.NewRuntimeError("unary minus not supported for " + v.Type().String())
		}
	default:
		return types.Null, types.NewRuntimeError("unsupported unary operator")
	}
}

// Coerce applies the value-level coercion of §4.2 (coerce(&Value, target)),
// used by task/workflow output collection and input binding.
func Coerce(v types.Value, target types.Type) (types.Value, error) {
	if v.IsNull() {
		if target.Optional || target.Kind == types.KindAny {
			return types.Null, nil
		}
		return types.Null, types.NewRuntimeError("null is not assignable to non-optional " + target.String())
	}
	if target.Kind == types.KindAny {
		return v, nil
	}
	if v.Type().Kind == target.Kind && v.Type().Kind != types.KindArray && v.Type().Kind != types.KindMap {
		return v, nil
	}
	switch target.Kind {
	case types.KindFloat:
		if n, ok := v.AsNumber(); ok {
			return types.NewFloat(n), nil
		}
	case types.KindInt:
		if v.Kind() == types.VInt {
			return v, nil
		}
	case types.KindString:
		return types.NewString(v.Stringify()), nil
	case types.KindFile:
		if v.Kind() == types.VString || v.Kind() == types.VFile {
			return types.NewFile(v.AsString()), nil
		}
	case types.KindDirectory:
		if v.Kind() == types.VString || v.Kind() == types.VDirectory {
			return types.NewDirectory(v.AsString()), nil
		}
	case types.KindArray:
		if v.Kind() == types.VArray {
			items := make([]types.Value, len(v.AsArray()))
			for i, item := range v.AsArray() {
				cv, err := Coerce(item, *target.Item)
				if err != nil {
					return types.Null, err
				}
				items[i] = cv
			}
			if target.NonEmpty && len(items) == 0 {
				return types.Null, types.NewRuntimeError("non-empty array coercion received an empty array")
			}
			return types.NewArrayValue(items, *target.Item), nil
		}
		if v.Type().CoercesTo(*target.Item, false) {
			return types.NewArrayValue([]types.Value{v}, *target.Item), nil
		}
	case types.KindMap:
		if v.Kind() == types.VMap {
			m := types.NewOrderedMap()
			for _, k := range v.AsMap().Keys() {
				val, _ := v.AsMap().Get(k)
				cv, err := Coerce(val, *target.Elem)
				if err != nil {
					return types.Null, err
				}
				m.Set(k, cv)
			}
			return types.NewMapValue(m, *target.Key, *target.Elem), nil
		}
	case types.KindPair:
		if v.Kind() == types.VPair {
			p := v.AsPair()
			l, err := Coerce(p.Left, *target.Left)
			if err != nil {
				return types.Null, err
			}
			r, err := Coerce(p.Right, *target.Right)
			if err != nil {
				return types.Null, err
			}
			return types.NewPairValue(l, r), nil
		}
	case types.KindStruct:
		if v.Kind() == types.VStruct || v.Kind() == types.VMap {
			m := types.NewOrderedMap()
			for _, name := range target.MemberOrder {
				memberType := target.Members[name]
				val, ok := v.AsMap().Get(name)
				if !ok {
					if memberType.Optional {
						m.Set(name, types.Null)
						continue
					}
					return types.Null, types.NewRuntimeError("missing required member '" + name + "' for struct " + target.StructName)
				}
				cv, err := Coerce(val, *memberType)
				if err != nil {
					return types.Null, err
				}
				m.Set(name, cv)
			}
			return types.NewStructValue(target.StructName, target.MemberOrder, target.Members, m), nil
		}
	}
	return types.Null, types.NewRuntimeError("cannot coerce " + v.Type().String() + " to " + target.String())
}
