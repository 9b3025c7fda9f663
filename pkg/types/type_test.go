package types

import "testing"

func TestCoercionReflexivity(t *testing.T) {
	cases := []Type{
		Boolean(false), Int(false), Float(false), String(false),
		File(false), Directory(false),
		NewArray(Int(false), false, false),
		NewMap(String(false), Int(false), false),
		NewPair(Int(false), String(false), false),
	}
	for _, tc := range cases {
		if !tc.CoercesTo(tc, true) {
			t.Errorf("expected %s to coerce to itself", tc)
		}
	}
}

func TestCoercionTransitivity(t *testing.T) {
	// Int -> Float -> String
	if !Int(false).CoercesTo(Float(false), false) {
		t.Fatal("Int should coerce to Float")
	}
	if !Float(false).CoercesTo(String(false), false) {
		t.Fatal("Float should coerce to String")
	}
	if !Int(false).CoercesTo(String(false), false) {
		t.Error("Int should transitively coerce to String")
	}
}

func TestOptionalMonotonicity(t *testing.T) {
	intT := Int(false)
	optT := Int(true)
	if !intT.CoercesTo(optT, true) {
		t.Error("non-optional should coerce to optional under quantifier check")
	}
	if optT.CoercesTo(intT, true) {
		t.Error("optional should not coerce to non-optional under quantifier check")
	}
}

func TestIntFloatCoercionValue(t *testing.T) {
	v := NewInt(7)
	f, ok := v.AsNumber()
	if !ok || f != 7.0 {
		t.Fatalf("expected 7.0, got %v", f)
	}
}

func TestUnifyStability(t *testing.T) {
	a, b, c := Int(false), Float(false), Int(false)
	ab := Unify([]Type{a, b}, false, false)
	abc1 := Unify([]Type{ab, c}, false, false)
	abc2 := Unify([]Type{a, b, c}, false, false)
	if abc1.String() != abc2.String() {
		t.Errorf("unify not stable: %s vs %s", abc1, abc2)
	}
}

func TestStructCanonicalSignature(t *testing.T) {
	members := map[string]*Type{}
	iType := Int(false)
	sType := String(true)
	members["a"] = &iType
	members["b"] = &sType
	s1 := NewStructResolved("Foo", []string{"a", "b"}, members, false)
	s2 := NewStructResolved("Bar", []string{"b", "a"}, members, false)
	if s1.CanonicalSignature() != s2.CanonicalSignature() {
		t.Errorf("expected matching canonical signatures, got %q vs %q", s1.CanonicalSignature(), s2.CanonicalSignature())
	}
	if !s1.CoercesTo(s2, false) {
		t.Error("structs with identical member signatures should coerce to one another")
	}
}

func TestMapLiteralToStructCoercion(t *testing.T) {
	iType := Int(false)
	members := map[string]*Type{"a": &iType}
	structT := NewStructResolved("Foo", []string{"a"}, members, false)
	mapT := NewMapLiteral(String(false), Int(false), false, []string{"a"})
	if !mapT.CoercesTo(structT, false) {
		t.Error("map literal with matching keys should coerce to struct")
	}
}
