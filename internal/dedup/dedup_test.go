package dedup

import (
	"reflect"
	"testing"
)

func TestKey_NilVersusEmpty(t *testing.T) {
	t.Parallel()

	var nilF *float64
	var nilS *string
	zero := 0.0
	empty := ""

	if Key("a", nilF) == Key("a", &zero) {
		t.Fatalf("nil float key collides with zero")
	}
	if Key("a", nilS) == Key("a", &empty) {
		t.Fatalf("nil string key collides with empty string")
	}
	if Key(nil) != Key(nilF) {
		t.Fatalf("untyped nil and typed nil pointer should encode alike")
	}
}

func TestKey_SeparatorPreventsJoining(t *testing.T) {
	t.Parallel()

	// ("ab","c") and ("a","bc") must not produce the same key.
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatalf("adjacent fields merged into the same key")
	}
}

func TestRows_KeepFirstPreservesOrder(t *testing.T) {
	t.Parallel()

	type row struct {
		ID   string
		Year int32
	}
	in := []row{
		{"S1", 1985},
		{"S2", 0},
		{"S1", 1985}, // exact dup of the first
		{"S1", 1986}, // same id, different year: distinct row
		{"S2", 0},
	}
	got := Rows(in, func(r row) string { return Key(r.ID, r.Year) })
	want := []row{{"S1", 1985}, {"S2", 0}, {"S1", 1986}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows = %v, want %v", got, want)
	}
}

func TestRows_Idempotent(t *testing.T) {
	t.Parallel()

	in := []string{"a", "b", "a", "c", "b"}
	key := func(s string) string { return s }

	once := Rows(in, key)
	twice := Rows(once, key)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second pass changed output: %v vs %v", once, twice)
	}
}

func TestRows_SmallInputsUntouched(t *testing.T) {
	t.Parallel()

	key := func(s string) string { return s }
	if got := Rows(nil, key); len(got) != 0 {
		t.Fatalf("nil input: %v", got)
	}
	one := []string{"only"}
	if got := Rows(one, key); !reflect.DeepEqual(got, one) {
		t.Fatalf("single input: %v", got)
	}
}
