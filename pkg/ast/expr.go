package ast

import "github.com/lemonberrylabs/wdl-engine/pkg/types"

// Expression is the closed sum type of §3's Expression AST. Every variant
// embeds base, which carries a source position and a lazily-filled
// inferred type set once by the type checker (§4.5) and read thereafter;
// the executor never mutates an AST node after type-checking.
type Expression interface {
	exprNode()
	Pos() types.SourcePosition
	InferredType() types.Type
	SetInferredType(types.Type)
}

type base struct {
	position types.SourcePosition
	inferred types.Type
	hasType  bool
}

func (b *base) Pos() types.SourcePosition  { return b.position }
func (b *base) InferredType() types.Type   { return b.inferred }
func (b *base) SetInferredType(t types.Type) {
	b.inferred = t
	b.hasType = true
}

func newBase(pos types.SourcePosition) base { return base{position: pos} }

// BoolLit is a `true`/`false` literal.
type BoolLit struct {
	base
	Value bool
}

func NewBoolLit(v bool, pos types.SourcePosition) *BoolLit { return &BoolLit{newBase(pos), v} }
func (*BoolLit) exprNode()                                 {}

// IntLit is an integer literal.
type IntLit struct {
	base
	Value int64
}

func NewIntLit(v int64, pos types.SourcePosition) *IntLit { return &IntLit{newBase(pos), v} }
func (*IntLit) exprNode()                                 {}

// FloatLit is a floating-point literal.
type FloatLit struct {
	base
	Value float64
}

func NewFloatLit(v float64, pos types.SourcePosition) *FloatLit { return &FloatLit{newBase(pos), v} }
func (*FloatLit) exprNode()                                     {}

// NullLit is the `None`/`null` literal.
type NullLit struct{ base }

func NewNullLit(pos types.SourcePosition) *NullLit { return &NullLit{newBase(pos)} }
func (*NullLit) exprNode()                         {}

// PlaceholderOptions carries the {sep, true, false, default} options a
// `~{...}` placeholder may specify (§3, §4.6).
type PlaceholderOptions struct {
	Sep     *string
	True    *string
	False   *string
	Default Expression
}

// StringPart is one element of a String expression's Parts: exactly one
// of Literal (a plain text run) or Placeholder (an embedded expression)
// is set.
type StringPart struct {
	Literal     string
	IsLiteral   bool
	Placeholder Expression
	Options     PlaceholderOptions
}

// StringExpr is a string literal with embedded `~{}` placeholders; it is
// also used, unparameterized by placeholders, as a Task's command_expr.
type StringExpr struct {
	base
	Parts []StringPart
}

func NewStringExpr(parts []StringPart, pos types.SourcePosition) *StringExpr {
	return &StringExpr{newBase(pos), parts}
}
func (*StringExpr) exprNode() {}

// ArrayLit is an `[a, b, c]` compound literal.
type ArrayLit struct {
	base
	Elements []Expression
}

func NewArrayLit(elems []Expression, pos types.SourcePosition) *ArrayLit {
	return &ArrayLit{newBase(pos), elems}
}
func (*ArrayLit) exprNode() {}

// PairLit is a `(left, right)` compound literal.
type PairLit struct {
	base
	Left, Right Expression
}

func NewPairLit(l, r Expression, pos types.SourcePosition) *PairLit {
	return &PairLit{newBase(pos), l, r}
}
func (*PairLit) exprNode() {}

// MapLit is a `{k: v, ...}` compound literal; Keys are expressions
// (usually String literals) evaluated left-to-right with Values.
type MapLit struct {
	base
	Keys   []Expression
	Values []Expression
}

func NewMapLit(keys, values []Expression, pos types.SourcePosition) *MapLit {
	return &MapLit{newBase(pos), keys, values}
}
func (*MapLit) exprNode() {}

// StructLit is a `Foo { a: 1, b: "x" }` struct-initialization literal.
type StructLit struct {
	base
	StructName string
	Members    map[string]Expression
	Order      []string
}

func NewStructLit(name string, order []string, members map[string]Expression, pos types.SourcePosition) *StructLit {
	return &StructLit{newBase(pos), name, members, order}
}
func (*StructLit) exprNode() {}

// Ident is a bare variable reference.
type Ident struct {
	base
	Name string
}

func NewIdent(name string, pos types.SourcePosition) *Ident { return &Ident{newBase(pos), name} }
func (*Ident) exprNode()                                     {}

// Get is array/map index access or struct/pair member access via a
// string-literal index (e.g. `xs[0]`, `m["k"]`, `p.left`, `s.field`).
type Get struct {
	base
	Target Expression
	Index  Expression
}

func NewGet(target, index Expression, pos types.SourcePosition) *Get {
	return &Get{newBase(pos), target, index}
}
func (*Get) exprNode() {}

// IfThenElse is the `if cond then a else b` conditional expression.
type IfThenElse struct {
	base
	Cond, Then, Else Expression
}

func NewIfThenElse(cond, then, els Expression, pos types.SourcePosition) *IfThenElse {
	return &IfThenElse{newBase(pos), cond, then, els}
}
func (*IfThenElse) exprNode() {}

// Apply is a stdlib or user-defined function call.
type Apply struct {
	base
	Function string
	Args     []Expression
}

func NewApply(fn string, args []Expression, pos types.SourcePosition) *Apply {
	return &Apply{newBase(pos), fn, args}
}
func (*Apply) exprNode() {}

// BinOp tags a BinaryOp's operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

// BinaryOp is a two-operand arithmetic, comparison, or logical expression.
type BinaryOp struct {
	base
	Op          BinOp
	Left, Right Expression
}

func NewBinaryOp(op BinOp, l, r Expression, pos types.SourcePosition) *BinaryOp {
	return &BinaryOp{newBase(pos), op, l, r}
}
func (*BinaryOp) exprNode() {}

// UnOp tags a UnaryOp's operator.
type UnOp int

const (
	OpNot UnOp = iota
	OpNegate
)

// UnaryOp is a single-operand `!` or unary-minus expression.
type UnaryOp struct {
	base
	Op      UnOp
	Operand Expression
}

func NewUnaryOp(op UnOp, operand Expression, pos types.SourcePosition) *UnaryOp {
	return &UnaryOp{newBase(pos), op, operand}
}
func (*UnaryOp) exprNode() {}
