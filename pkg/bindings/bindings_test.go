package bindings

import "testing"

func TestShadowing(t *testing.T) {
	env := Empty[int]().Bind("k", 1, nil).Bind("k", 2, nil)
	v, ok := env.Resolve("k")
	if !ok || v != 2 {
		t.Fatalf("expected 2, got %v ok=%v", v, ok)
	}
	if env.Len() != 1 {
		t.Fatalf("expected 1 distinct name, got %d", env.Len())
	}
}

func TestNamespaceRoundTrip(t *testing.T) {
	env := Empty[int]().Bind("a", 1, nil).Bind("b", 2, nil)
	wrapped := env.WrapNamespace("ns")
	back := wrapped.EnterNamespace("ns")

	origNames := map[string]bool{}
	for _, e := range env.Iter() {
		origNames[e.Name] = true
	}
	backNames := map[string]bool{}
	for _, e := range back.Iter() {
		backNames[e.Name] = true
	}
	if len(origNames) != len(backNames) {
		t.Fatalf("expected same name set, got %v vs %v", origNames, backNames)
	}
	for n := range origNames {
		if !backNames[n] {
			t.Errorf("missing name %q after round trip", n)
		}
	}
}

func TestMergeEarlierWins(t *testing.T) {
	a := Empty[int]().Bind("x", 1, nil)
	b := Empty[int]().Bind("x", 2, nil).Bind("y", 3, nil)
	merged := Merge(a, b)
	v, _ := merged.Resolve("x")
	if v != 1 {
		t.Errorf("expected earlier chain to win, got %d", v)
	}
	y, ok := merged.Resolve("y")
	if !ok || y != 3 {
		t.Errorf("expected y=3 from second chain, got %d ok=%v", y, ok)
	}
}

func TestSubtract(t *testing.T) {
	a := Empty[int]().Bind("x", 1, nil).Bind("y", 2, nil)
	b := Empty[int]().Bind("y", 99, nil)
	result := a.Subtract(b)
	if _, ok := result.Resolve("y"); ok {
		t.Error("expected y to be subtracted")
	}
	if _, ok := result.Resolve("x"); !ok {
		t.Error("expected x to remain")
	}
}
