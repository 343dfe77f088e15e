// Package bindings implements the Binding Environment: an immutable,
// namespaceable map from dotted names to typed WDL values, with a
// right-biased merge rule used throughout the job graph.
package bindings

import (
	"fmt"
	"sort"
	"strings"

	"dario.cat/mergo"

	"github.com/wdlrun/wdlrun/engine/value"
)

// Bindings is an immutable persistent map from dotted-path names to typed
// values. The zero value is a valid empty environment.
type Bindings struct {
	m map[string]value.Value
}

// New returns an empty Bindings.
func New() Bindings {
	return Bindings{m: map[string]value.Value{}}
}

// FromMap builds a Bindings from an existing name->value map. The map is
// copied; the caller's map is not retained.
func FromMap(m map[string]value.Value) Bindings {
	cp := make(map[string]value.Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Bindings{m: cp}
}

func (b Bindings) snapshot() map[string]value.Value {
	if b.m == nil {
		return map[string]value.Value{}
	}
	return b.m
}

// Len reports how many names are bound at the top level of b.
func (b Bindings) Len() int {
	return len(b.snapshot())
}

// Has reports whether name is present.
func (b Bindings) Has(name string) bool {
	_, ok := b.snapshot()[name]
	return ok
}

// Lookup returns the value bound to name and whether it was present.
// Dotted names are looked up as literal keys only (the common case after
// WrapNamespace/EnterNamespace have already flattened the structure); there
// is no fallback to a nested lookup.
func (b Bindings) Lookup(name string) (value.Value, bool) {
	v, ok := b.snapshot()[name]
	return v, ok
}

// MustLookup returns the value bound to name, or a name-resolution error if
// absent — the error every expression evaluation must raise per the core
// invariant that every name read must be present in the combined
// environment.
func (b Bindings) MustLookup(name string) (value.Value, error) {
	v, ok := b.Lookup(name)
	if !ok {
		return value.Value{}, fmt.Errorf("name resolution error: %q is not bound", name)
	}
	return v, nil
}

// Bind returns a new Bindings with name set to v. The receiver is never
// mutated; if name already existed, the new value shadows it in the result.
func (b Bindings) Bind(name string, v value.Value) Bindings {
	next := make(map[string]value.Value, len(b.snapshot())+1)
	for k, existing := range b.snapshot() {
		next[k] = existing
	}
	next[name] = v
	return Bindings{m: next}
}

// Names returns the sorted list of top-level names bound in b.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b.snapshot()))
	for k := range b.snapshot() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// EnterNamespace returns the sub-namespace "name.*" as a top-level
// environment (the "name." prefix stripped). An absent sub-namespace
// yields an empty environment, never an error.
func (b Bindings) EnterNamespace(name string) Bindings {
	prefix := name + "."
	next := map[string]value.Value{}
	for k, v := range b.snapshot() {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			next[rest] = v
		}
	}
	return Bindings{m: next}
}

// WrapNamespace lifts every current binding under name, so that a binding
// "x" becomes "name.x".
func (b Bindings) WrapNamespace(name string) Bindings {
	next := make(map[string]value.Value, len(b.snapshot()))
	for k, v := range b.snapshot() {
		next[name+"."+k] = v
	}
	return Bindings{m: next}
}

// Merge returns the right-biased union of bs: for any name present in more
// than one input, the value from the last Bindings that defines it wins.
// Precondition (enforced by callers, e.g. the Combine Job): bs must be
// sorted by ascending cardinality so the largest, most authoritative
// environment is last — this is what makes "downstream bindings win over
// upstream defaults" deterministic regardless of submission order.
func Merge(bs ...Bindings) Bindings {
	result := map[string]value.Value{}
	for _, b := range bs {
		src := b.snapshot()
		if len(src) == 0 {
			continue
		}
		if err := mergo.Merge(&result, src, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
			// mergo only fails on fundamentally incompatible destination
			// types, which cannot happen for map[string]value.Value; a
			// plain last-wins copy is the correct fallback.
			for k, v := range src {
				result[k] = v
			}
		}
	}
	return Bindings{m: result}
}

// CombineSorted sorts bs by ascending cardinality (breaking ties by
// original order) and merges them, satisfying the Combine operation's
// sort-then-merge precondition without requiring every caller to sort by
// hand.
func CombineSorted(bs ...Bindings) Bindings {
	sorted := make([]Bindings, len(bs))
	copy(sorted, bs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Len() < sorted[j].Len()
	})
	return Merge(sorted...)
}

// AsMap returns a defensive copy of b's top-level bindings.
func (b Bindings) AsMap() map[string]value.Value {
	src := b.snapshot()
	cp := make(map[string]value.Value, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return cp
}
