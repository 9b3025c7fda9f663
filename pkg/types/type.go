// Package types implements the WDL type lattice and value domain: the
// tagged Type variant with its coercion/unification/equatable/comparable
// rules (spec §4.1), the tagged Value variant that carries a Type
// alongside every non-null value (§4.2), and the error taxonomy (§7).
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the tag of a Type's closed sum type.
type Kind int

const (
	KindAny Kind = iota
	KindBoolean
	KindInt
	KindFloat
	KindString
	KindFile
	KindDirectory
	KindArray
	KindMap
	KindPair
	KindStruct
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "Any"
	case KindBoolean:
		return "Boolean"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindFile:
		return "File"
	case KindDirectory:
		return "Directory"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindPair:
		return "Pair"
	case KindStruct:
		return "Struct"
	case KindObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// Type is a tagged variant over the WDL type lattice. Only the fields
// relevant to Kind are meaningful; the zero Type is Any (non-optional)
// which is never constructed directly — always go through a constructor.
type Type struct {
	Kind     Kind
	Optional bool

	// Array
	Item     *Type
	NonEmpty bool

	// Map
	Key         *Type
	Elem        *Type // map value type
	LiteralKeys []string

	// Pair
	Left  *Type
	Right *Type

	// Struct / Object
	StructName   string
	Members      map[string]*Type
	MemberOrder  []string
	IsCallOutput bool // Object only
}

func prim(k Kind, optional bool) Type { return Type{Kind: k, Optional: optional} }

func Any(optional bool) Type       { return prim(KindAny, optional) }
func Boolean(optional bool) Type   { return prim(KindBoolean, optional) }
func Int(optional bool) Type       { return prim(KindInt, optional) }
func Float(optional bool) Type     { return prim(KindFloat, optional) }
func String(optional bool) Type    { return prim(KindString, optional) }
func File(optional bool) Type      { return prim(KindFile, optional) }
func Directory(optional bool) Type { return prim(KindDirectory, optional) }

// None is Any with optional=true, per §3's invariant.
func None() Type { return Any(true) }

// NewArray constructs Array{item, optional, nonempty}.
func NewArray(item Type, optional, nonEmpty bool) Type {
	it := item
	return Type{Kind: KindArray, Optional: optional, Item: &it, NonEmpty: nonEmpty}
}

// NewMap constructs Map{key, value, optional}, with no literal key set.
func NewMap(key, value Type, optional bool) Type {
	k, v := key, value
	return Type{Kind: KindMap, Optional: optional, Key: &k, Elem: &v}
}

// NewMapLiteral constructs a Map type annotated with the compile-time key
// set of a map literal, enabling later coercion to a matching struct.
func NewMapLiteral(key, value Type, optional bool, literalKeys []string) Type {
	t := NewMap(key, value, optional)
	t.LiteralKeys = literalKeys
	return t
}

// NewPair constructs Pair{left, right, optional}.
func NewPair(left, right Type, optional bool) Type {
	l, r := left, right
	return Type{Kind: KindPair, Optional: optional, Left: &l, Right: &r}
}

// NewStruct constructs an unresolved StructInstance (Members nil until a
// resolution pass fills it in against a document-level struct registry).
func NewStruct(name string, optional bool) Type {
	return Type{Kind: KindStruct, Optional: optional, StructName: name}
}

// NewStructResolved constructs a StructInstance with its members filled in.
func NewStructResolved(name string, order []string, members map[string]*Type, optional bool) Type {
	return Type{Kind: KindStruct, Optional: optional, StructName: name, MemberOrder: order, Members: members}
}

// NewObject constructs the transient Object type used for struct
// initialization literals and call-output namespaces.
func NewObject(order []string, members map[string]*Type, isCallOutput bool) Type {
	return Type{Kind: KindObject, MemberOrder: order, Members: members, IsCallOutput: isCallOutput}
}

// WithOptional returns a copy of t with the optional flag set.
func (t Type) WithOptional(optional bool) Type {
	t.Optional = optional
	return t
}

func (t Type) isPrimitive() bool {
	switch t.Kind {
	case KindBoolean, KindInt, KindFloat, KindString, KindFile, KindDirectory:
		return true
	default:
		return false
	}
}

// String renders the type the way WDL source would spell it.
func (t Type) String() string {
	opt := ""
	if t.Optional {
		opt = "?"
	}
	switch t.Kind {
	case KindAny:
		if t.Optional {
			return "None"
		}
		return "Any"
	case KindBoolean, KindInt, KindFloat, KindString, KindFile, KindDirectory:
		return t.Kind.String() + opt
	case KindArray:
		plus := ""
		if t.NonEmpty {
			plus = "+"
		}
		return fmt.Sprintf("Array[%s]%s%s", t.Item.String(), plus, opt)
	case KindMap:
		return fmt.Sprintf("Map[%s,%s]%s", t.Key.String(), t.Elem.String(), opt)
	case KindPair:
		return fmt.Sprintf("Pair[%s,%s]%s", t.Left.String(), t.Right.String(), opt)
	case KindStruct:
		return t.StructName + opt
	case KindObject:
		return "Object"
	default:
		return "?"
	}
}

// CanonicalSignature renders a struct's member set as a sorted, recursive
// signature string used for struct-equality (§4.1).
func (t Type) CanonicalSignature() string {
	names := make([]string, 0, len(t.Members))
	for n := range t.Members {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", n, t.Members[n].String()))
	}
	return "struct(" + strings.Join(parts, ", ") + ")"
}

// CoercesTo implements check_coercion(from, to, check_quant) from §4.1.
func (from Type) CoercesTo(to Type, checkQuant bool) bool {
	if checkQuant && from.Optional && !to.Optional && to.Kind != KindAny {
		return false
	}

	if to.Kind == KindAny || from.Kind == KindAny {
		return true
	}

	if !checkQuant && to.Kind == KindArray && from.CoercesTo(*to.Item, checkQuant) {
		return true
	}

	if from.Kind == to.Kind && from.isPrimitive() {
		return true
	}

	switch {
	case from.Kind == KindInt && to.Kind == KindFloat:
		return true
	case (from.Kind == KindBoolean || from.Kind == KindInt || from.Kind == KindFloat || from.Kind == KindFile) && to.Kind == KindString:
		return true
	case from.Kind == KindString && (to.Kind == KindFile || to.Kind == KindDirectory || to.Kind == KindInt || to.Kind == KindFloat):
		return true
	}

	if from.Kind == KindArray && to.Kind == KindArray {
		return from.Item.CoercesTo(*to.Item, checkQuant)
	}
	if from.Kind == KindArray && to.Kind == KindString {
		return from.Item.CoercesTo(String(false), checkQuant)
	}
	if from.Kind == KindMap && to.Kind == KindMap {
		return from.Key.CoercesTo(*to.Key, checkQuant) && from.Elem.CoercesTo(*to.Elem, checkQuant)
	}
	if from.Kind == KindMap && to.Kind == KindStruct {
		return from.coercesMapToStruct(to)
	}
	if from.Kind == KindPair && to.Kind == KindPair {
		return from.Left.CoercesTo(*to.Left, checkQuant) && from.Right.CoercesTo(*to.Right, checkQuant)
	}
	if from.Kind == KindStruct && to.Kind == KindStruct {
		return from.CanonicalSignature() == to.CanonicalSignature()
	}
	if from.Kind == KindObject && to.Kind == KindStruct {
		return from.coercesObjectToStruct(to)
	}
	if from.Kind == KindObject && to.Kind == KindMap {
		for _, m := range from.Members {
			if !m.CoercesTo(*to.Elem, checkQuant) {
				return false
			}
		}
		return true
	}
	if from.Kind == KindObject && to.Kind == KindObject {
		if len(to.Members) == 0 {
			return true
		}
		for name, m := range to.Members {
			src, ok := from.Members[name]
			if !ok {
				if m.Optional {
					continue
				}
				return false
			}
			if !src.CoercesTo(*m, checkQuant) {
				return false
			}
		}
		return true
	}
	if from.Kind == KindMap && to.Kind == KindObject {
		if from.Elem == nil {
			return false
		}
		for _, m := range to.Members {
			if !from.Elem.CoercesTo(*m, checkQuant) {
				return false
			}
		}
		return true
	}

	return false
}

func (from Type) coercesMapToStruct(to Type) bool {
	if from.LiteralKeys == nil {
		return false
	}
	keySet := make(map[string]bool, len(from.LiteralKeys))
	for _, k := range from.LiteralKeys {
		keySet[k] = true
	}
	for name, m := range to.Members {
		if !m.Optional && !keySet[name] {
			return false
		}
	}
	for _, k := range from.LiteralKeys {
		if _, ok := to.Members[k]; !ok {
			return false
		}
		if !from.Elem.CoercesTo(*to.Members[k], false) {
			return false
		}
	}
	return true
}

func (from Type) coercesObjectToStruct(to Type) bool {
	for name, m := range to.Members {
		src, ok := from.Members[name]
		if !ok {
			if m.Optional {
				continue
			}
			return false
		}
		if !src.CoercesTo(*m, false) {
			return false
		}
	}
	return true
}

// Equatable implements equatable(a, b, compound) from §4.1.
func Equatable(a, b Type) bool {
	if a.Kind == KindObject || b.Kind == KindObject {
		return false
	}
	if a.Kind == b.Kind && a.isPrimitive() {
		return true
	}
	if (a.Kind == KindInt && b.Kind == KindFloat) || (a.Kind == KindFloat && b.Kind == KindInt) {
		return true
	}
	if (a.Kind == KindFile && b.Kind == KindString) || (a.Kind == KindString && b.Kind == KindFile) {
		return true
	}
	if a.Kind == KindArray && b.Kind == KindArray {
		return Equatable(*a.Item, *b.Item)
	}
	if a.Kind == KindMap && b.Kind == KindMap {
		return Equatable(*a.Key, *b.Key) && Equatable(*a.Elem, *b.Elem)
	}
	if a.Kind == KindPair && b.Kind == KindPair {
		return Equatable(*a.Left, *b.Left) && Equatable(*a.Right, *b.Right)
	}
	if a.Kind == KindStruct && b.Kind == KindStruct {
		return a.CanonicalSignature() == b.CanonicalSignature()
	}
	return false
}

// Comparable implements comparable(a, b, check_quant) from §4.1: only
// primitives participate in ordering comparisons.
func Comparable(a, b Type, checkQuant bool) bool {
	if !a.isPrimitive() || !b.isPrimitive() {
		return false
	}
	if checkQuant && (a.Optional || b.Optional) {
		return false
	}
	if a.Kind == b.Kind {
		return true
	}
	return (a.Kind == KindInt && b.Kind == KindFloat) || (a.Kind == KindFloat && b.Kind == KindInt)
}

// Unify implements unify(types, check_quant, force_string) from §4.1.
func Unify(types []Type, checkQuant, forceString bool) Type {
	if len(types) == 0 {
		return Any(false)
	}
	seed := types[0]
	for _, t := range types {
		if t.Kind != KindString && t.Kind != KindAny {
			seed = t
			break
		}
	}
	result := seed
	ok := true
	for _, t := range types {
		widened, widenOK := widen(result, t, checkQuant)
		if !widenOK {
			ok = false
			break
		}
		result = widened
	}
	if ok {
		return result
	}
	if forceString {
		allString := true
		for _, t := range types {
			if !t.CoercesTo(String(false), false) {
				allString = false
				break
			}
		}
		if allString {
			opt := false
			for _, t := range types {
				if t.Optional {
					opt = true
				}
			}
			return String(opt)
		}
	}
	return Any(false)
}

// widen returns a type that both acc and next coerce to, if one exists.
func widen(acc, next Type, checkQuant bool) (Type, bool) {
	opt := acc.Optional || next.Optional
	if acc.Kind == next.Kind {
		if acc.Kind == KindArray {
			item, ok := widen(*acc.Item, *next.Item, checkQuant)
			if !ok {
				return Type{}, false
			}
			return NewArray(item, opt, acc.NonEmpty && next.NonEmpty), true
		}
		return acc.WithOptional(opt), true
	}
	if acc.Kind == KindInt && next.Kind == KindFloat {
		return Float(opt), true
	}
	if acc.Kind == KindFloat && next.Kind == KindInt {
		return Float(opt), true
	}
	if next.CoercesTo(acc, false) {
		return acc.WithOptional(opt), true
	}
	if acc.CoercesTo(next, false) {
		return next.WithOptional(opt), true
	}
	return Type{}, false
}
