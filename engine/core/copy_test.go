package core

import (
	"reflect"
	"testing"
)

func TestMerge_SourceOverridesDestination(t *testing.T) {
	dst := map[string]any{"a": 1, "b": 2}
	src := map[string]any{"b": 3, "c": 4}
	got, err := Merge(dst, src, "test")
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	want := map[string]any{"a": 1, "b": 3, "c": 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Merge mismatch.\n got: %#v\nwant: %#v", got, want)
	}
	// dst must be untouched
	if dst["b"] != 2 {
		t.Fatalf("Merge mutated its destination argument")
	}
}

func TestCloneMap_NilYieldsEmpty(t *testing.T) {
	var src map[string]int
	got := CloneMap(src)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

func TestCopyMaps_LaterOverridesEarlier(t *testing.T) {
	got := CopyMaps(
		map[string]int{"a": 1, "b": 1},
		nil,
		map[string]int{"b": 2},
	)
	want := map[string]int{"a": 1, "b": 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CopyMaps mismatch.\n got: %#v\nwant: %#v", got, want)
	}
}

func TestDeepCopy_Generic_StructDeepSemantics(t *testing.T) {
	type nestedStruct struct {
		K string
		V map[string]int
	}
	type genericStruct struct {
		N   int
		S   string
		Arr []int
		Nst *nestedStruct
	}
	orig := genericStruct{
		N:   7,
		S:   "abc",
		Arr: []int{1, 2, 3},
		Nst: &nestedStruct{K: "k", V: map[string]int{"x": 1}},
	}

	cpy, err := DeepCopy(orig)
	if err != nil {
		t.Fatalf("DeepCopy(genericStruct) error: %v", err)
	}
	if !reflect.DeepEqual(cpy, orig) {
		t.Fatalf("DeepCopy struct mismatch.\n got: %#v\nwant: %#v", cpy, orig)
	}

	cpy.N = 8
	cpy.Arr[0] = 999
	cpy.Nst.K = "k2"
	cpy.Nst.V["x"] = 77

	want := genericStruct{
		N:   7,
		S:   "abc",
		Arr: []int{1, 2, 3},
		Nst: &nestedStruct{K: "k", V: map[string]int{"x": 1}},
	}
	if !reflect.DeepEqual(orig, want) {
		t.Fatalf("original mutated unexpectedly.\n got: %#v\nwant: %#v", orig, want)
	}
}

func TestDeepCopy_Generic_MapAny(t *testing.T) {
	orig := map[string]any{
		"a": 1,
		"b": []string{"a", "b"},
		"c": map[string]any{"z": 1},
	}
	cpy, err := DeepCopy(orig)
	if err != nil {
		t.Fatalf("DeepCopy(map[string]any) error: %v", err)
	}
	if !reflect.DeepEqual(cpy, orig) {
		t.Fatalf("not deep equal.\n got: %#v\nwant: %#v", cpy, orig)
	}

	cpy["a"] = 2
	cpy["b"].([]string)[0] = "changed"
	cpy["c"].(map[string]any)["z"] = 9

	want := map[string]any{
		"a": 1,
		"b": []string{"a", "b"},
		"c": map[string]any{"z": 1},
	}
	if !reflect.DeepEqual(orig, want) {
		t.Fatalf("DeepCopy did not isolate original from mutation.\n got: %#v\nwant: %#v", orig, want)
	}
}
