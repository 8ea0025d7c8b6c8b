package keys

import (
	"testing"
	"time"
)

func TestCanonical_BasicTypes(t *testing.T) {
	n := 5

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: "~"},
		{name: "int", value: 42, want: "42"},
		{name: "int64 matches int", value: int64(42), want: "42"},
		{name: "uint8", value: uint8(7), want: "7"},
		{name: "float", value: 3.14, want: "3.14"},
		{name: "whole float", value: float64(2), want: "2"},
		{name: "bool", value: true, want: "true"},
		{name: "string with separators", value: "a|1:b", want: "a|1:b"},
		{name: "bytes", value: []byte("raw"), want: "raw"},
		{name: "nil pointer", value: (*int)(nil), want: "~"},
		{name: "pointer", value: &n, want: "5"},
		{
			name:  "time normalised to UTC",
			value: time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("plus1", 3600)),
			want:  "2024-01-02T02:04:05Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.value); got != tt.want {
				t.Errorf("Canonical(%#v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestCanonical_Composites(t *testing.T) {
	type point struct {
		X      int
		hidden int
	}

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "slice", value: []int{1, 22}, want: "[1:1,2:22]"},
		{name: "nil slice", value: []int(nil), want: "~"},
		{name: "array", value: [2]string{"a", ""}, want: "[1:a,0:]"},
		{name: "map sorted by key", value: map[string]int{"b": 2, "a": 1}, want: "{1:a=1:1,1:b=1:2}"},
		{name: "nil map", value: map[string]int(nil), want: "~"},
		{name: "struct exported fields", value: point{X: 1, hidden: 2}, want: "(X=1:1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.value); got != tt.want {
				t.Errorf("Canonical(%#v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestCanonical_MapIsDeterministic(t *testing.T) {
	m := map[string]any{"z": 1, "a": "x", "m": []int{3}}
	first := Canonical(m)
	for i := 0; i < 50; i++ {
		if got := Canonical(m); got != first {
			t.Fatalf("Canonical() not stable: %q != %q", got, first)
		}
	}
}

func TestSegment(t *testing.T) {
	if got := segment(nil); got != "~" {
		t.Errorf("segment(nil) = %q, want ~", got)
	}
	if got := segment(""); got != "0:" {
		t.Errorf("segment(\"\") = %q, want 0:", got)
	}
	if got := segment("abc"); got != "3:abc" {
		t.Errorf("segment(abc) = %q, want 3:abc", got)
	}
}

func TestEqual(t *testing.T) {
	n := 7
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "int widths", a: 7, b: int64(7), want: true},
		{name: "signed and unsigned", a: uint8(7), b: int32(7), want: true},
		{name: "pointer and value", a: &n, b: 7, want: true},
		{name: "both nil", a: nil, b: (*int)(nil), want: true},
		{name: "strings", a: "x", b: "x", want: true},
		{name: "nil and marker", a: nil, b: "~", want: false},
		{name: "zero and digit", a: 0, b: "0", want: false},
		{name: "bool and word", a: true, b: "true", want: false},
		{name: "bytes and string", a: []byte("abc"), b: "abc", want: false},
		{name: "different numbers", a: 1, b: 2, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
