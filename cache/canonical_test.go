package cache

import (
	"strings"
	"testing"
	"time"
)

func TestCanonicalize_Determinism(t *testing.T) {
	type filter struct {
		Field string
		Value any
	}

	tests := []struct {
		name string
		a    any
		b    any
		same bool
	}{
		{"nil values", nil, nil, true},
		{"equal ints", 42, 42, true},
		{"int vs string", 42, "42", false},
		{"equal strings", "selectUser", "selectUser", true},
		{"equal bools", true, true, true},
		{"equal floats", 3.14, 3.14, true},
		{"equal slices", []int{1, 2, 3}, []int{1, 2, 3}, true},
		{"slice order", []int{1, 2, 3}, []int{3, 2, 1}, false},
		{"nil vs empty slice", []int(nil), []int{}, false},
		{"equal maps differently built", map[string]int{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}, true},
		{"map value differs", map[string]int{"a": 1}, map[string]int{"a": 2}, false},
		{"equal structs", filter{"name", "ana"}, filter{"name", "ana"}, true},
		{"struct field differs", filter{"name", "ana"}, filter{"name", "bob"}, false},
		{"pointer dereferenced", ptrTo(42), 42, true},
		{"nil pointer is nil", (*int)(nil), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ea, eb := canonicalize(tt.a), canonicalize(tt.b)
			if (ea == eb) != tt.same {
				t.Errorf("canonicalize(%v) = %q, canonicalize(%v) = %q, same = %v, want %v",
					tt.a, ea, tt.b, eb, ea == eb, tt.same)
			}
		})
	}
}

func ptrTo[T any](v T) *T { return &v }

func TestCanonicalize_MapRepeatable(t *testing.T) {
	// Go randomizes map iteration; the encoding must not depend on it.
	m := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}
	first := canonicalize(m)
	for i := 0; i < 20; i++ {
		if got := canonicalize(m); got != first {
			t.Fatalf("encoding varies across runs: %q vs %q", got, first)
		}
	}
}

func TestCanonicalize_FuncByPointer(t *testing.T) {
	f := func() {}
	g := func() {}

	if canonicalize(f) != canonicalize(f) {
		t.Error("the same func value must encode identically")
	}
	if canonicalize(f) == canonicalize(g) {
		t.Error("distinct func values must encode differently")
	}
	if !strings.HasPrefix(canonicalize(f), "func:") {
		t.Errorf("func encoding = %q, want func: prefix", canonicalize(f))
	}
}

func TestCanonicalize_UnexportedStructFallsBack(t *testing.T) {
	// time.Time has no exported fields; without the fallback every instant
	// would encode identically.
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	e1, e2 := canonicalize(t1), canonicalize(t2)
	if e1 == e2 {
		t.Errorf("distinct instants encode identically: %q", e1)
	}
	if !strings.HasPrefix(e1, "msgpack:") {
		t.Errorf("encoding = %q, want msgpack fallback", e1)
	}
	if canonicalize(t1) != e1 {
		t.Error("fallback encoding must be repeatable")
	}
}

func TestCanonicalize_NestedComposite(t *testing.T) {
	type page struct {
		Limit  int
		Offset int
	}
	type query struct {
		Statement string
		Params    []any
		Page      page
	}

	a := query{"selectUsers", []any{"active", 10}, page{25, 0}}
	b := query{"selectUsers", []any{"active", 10}, page{25, 0}}
	c := query{"selectUsers", []any{"active", 10}, page{25, 25}}

	if canonicalize(a) != canonicalize(b) {
		t.Error("structurally equal composites must encode identically")
	}
	if canonicalize(a) == canonicalize(c) {
		t.Error("differing nested field must change the encoding")
	}
}
