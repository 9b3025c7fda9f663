// Package bindings implements the immutable, shadowing binding chain of
// spec §4.3: a persistent singly-linked list of (name, value, info?)
// frames shared by every binding chain derived from a common ancestor.
package bindings

import (
	"strings"
)

// Bindings is an immutable environment mapping names to values of type T.
// The zero value is a valid empty chain. Every mutating-looking operation
// returns a new chain sharing the old chain's tail (§5: "safe to clone
// across scatter iterations by sharing the tail").
type Bindings[T any] struct {
	head *frame[T]
}

type frame[T any] struct {
	name  string
	value T
	info  any
	prev  *frame[T]
}

// Empty returns the empty binding chain.
func Empty[T any]() Bindings[T] { return Bindings[T]{} }

// Bind prepends a frame; it shadows any existing binding with the same
// name. A name may be dotted: WrapNamespace produces "<call>.<output>"
// qualified names for call dispatch (spec §4.8), and a document's
// top-level inputs are legitimately keyed "<workflow>.<input>" per §6 — so
// this is not restricted to plain identifiers the way a declaration name
// is.
func (b Bindings[T]) Bind(name string, value T, info any) Bindings[T] {
	if name == "" {
		panic("bindings: cannot bind an empty name")
	}
	return Bindings[T]{head: &frame[T]{name: name, value: value, info: info, prev: b.head}}
}

// Resolve returns the most recent binding for name, if any.
func (b Bindings[T]) Resolve(name string) (T, bool) {
	for f := b.head; f != nil; f = f.prev {
		if f.name == name {
			return f.value, true
		}
	}
	var zero T
	return zero, false
}

// Entry is a single (name, value) pair as produced by Iter.
type Entry[T any] struct {
	Name  string
	Value T
	Info  any
}

// Iter enumerates bindings most-recent-first, deduplicated by name (a
// shadowed frame is never yielded).
func (b Bindings[T]) Iter() []Entry[T] {
	seen := make(map[string]bool)
	var out []Entry[T]
	for f := b.head; f != nil; f = f.prev {
		if seen[f.name] {
			continue
		}
		seen[f.name] = true
		out = append(out, Entry[T]{Name: f.name, Value: f.value, Info: f.info})
	}
	return out
}

// Len returns the number of distinct names bound in this chain.
func (b Bindings[T]) Len() int { return len(b.Iter()) }

// EnterNamespace keeps bindings named "ns.X", stripping the "ns." prefix;
// all other bindings are dropped.
func (b Bindings[T]) EnterNamespace(ns string) Bindings[T] {
	prefix := ns + "."
	entries := b.Iter()
	out := Empty[T]()
	// Iter is most-recent-first; rebuild in the same relative order by
	// binding from the end so the most recent ends up last (most recent
	// in the new chain too).
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if strings.HasPrefix(e.Name, prefix) {
			out = out.Bind(strings.TrimPrefix(e.Name, prefix), e.Value, e.Info)
		}
	}
	return out
}

// WrapNamespace prepends "ns." to every name, preserving insertion order.
func (b Bindings[T]) WrapNamespace(ns string) Bindings[T] {
	entries := b.Iter()
	out := Empty[T]()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		out = out.Bind(ns+"."+e.Name, e.Value, e.Info)
	}
	return out
}

// Filter returns the subchain of bindings for which keep returns true.
func (b Bindings[T]) Filter(keep func(name string, value T) bool) Bindings[T] {
	entries := b.Iter()
	out := Empty[T]()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if keep(e.Name, e.Value) {
			out = out.Bind(e.Name, e.Value, e.Info)
		}
	}
	return out
}

// Subtract drops names that appear in other.
func (b Bindings[T]) Subtract(other Bindings[T]) Bindings[T] {
	return b.Filter(func(name string, _ T) bool {
		_, ok := other.Resolve(name)
		return !ok
	})
}

// Map applies fn to every value, preserving names and order.
func (b Bindings[T]) Map(fn func(name string, value T) T) Bindings[T] {
	entries := b.Iter()
	out := Empty[T]()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		out = out.Bind(e.Name, fn(e.Name, e.Value), e.Info)
	}
	return out
}

// Merge combines chains left-to-right; for name conflicts, the earlier
// (lower-index) chain wins.
func Merge[T any](chains ...Bindings[T]) Bindings[T] {
	out := Empty[T]()
	// Bind from the last chain first so that earlier chains, bound last,
	// shadow (win over) later ones.
	for i := len(chains) - 1; i >= 0; i-- {
		for _, e := range reversed(chains[i].Iter()) {
			out = out.Bind(e.Name, e.Value, e.Info)
		}
	}
	return out
}

func reversed[T any](entries []Entry[T]) []Entry[T] {
	out := make([]Entry[T], len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
