package keys

import (
	"strings"
	"testing"
)

func TestTemplate_Render(t *testing.T) {
	tpl := newTemplate("t:", GetsTemplate, []string{"type", "status"}, ParseOrder("-created"))

	if tpl.Prefix() != "t:g(status,type)/-created" {
		t.Fatalf("Prefix() = %q", tpl.Prefix())
	}

	got := tpl.Render(map[string]any{"type": "b", "status": "a"})
	want := "t:g(status,type)/-created|1:a|1:b"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestTemplate_RenderIgnoresInsertionOrder(t *testing.T) {
	tpl := newTemplate("t:", GetsTemplate, []string{"a", "b", "c"}, ParseOrder("id"))

	first := map[string]any{}
	first["a"] = 1
	first["b"] = "two"
	first["c"] = 3.5

	second := map[string]any{}
	second["c"] = 3.5
	second["a"] = int64(1)
	second["b"] = "two"

	if tpl.Render(first) != tpl.Render(second) {
		t.Errorf("Render() differs for equal maps: %q vs %q", tpl.Render(first), tpl.Render(second))
	}
}

func TestTemplate_RenderAvoidsSeparatorCollisions(t *testing.T) {
	tpl := newTemplate("t:", GetsTemplate, []string{"status", "type"}, nil)

	tests := []struct {
		name string
		a, b map[string]any
	}{
		{
			name: "value containing separator",
			a:    map[string]any{"status": "a|1:b", "type": ""},
			b:    map[string]any{"status": "a", "type": "b"},
		},
		{
			name: "nil versus marker string",
			a:    map[string]any{"status": nil, "type": "x"},
			b:    map[string]any{"status": "~", "type": "x"},
		},
		{
			name: "shifted boundary",
			a:    map[string]any{"status": "ab", "type": "c"},
			b:    map[string]any{"status": "a", "type": "bc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tpl.Render(tt.a) == tpl.Render(tt.b) {
				t.Errorf("Render() collided: %q", tpl.Render(tt.a))
			}
		})
	}
}

func TestTemplate_RenderIgnoresUnrelatedFields(t *testing.T) {
	tpl := newTemplate("t:", CountTemplate, []string{"status"}, nil)

	a := tpl.Render(map[string]any{"status": "on", "note": "x"})
	b := tpl.Render(map[string]any{"status": "on", "note": "y"})
	if a != b {
		t.Errorf("fields outside the template changed the key: %q vs %q", a, b)
	}
}

func TestTemplate_RenderLongKeys(t *testing.T) {
	tpl := newTemplate("t:", GetsTemplate, []string{"body"}, ParseOrder("id"))

	long := strings.Repeat("x", 300)
	key := tpl.Render(map[string]any{"body": long})

	if len(key) > MaxKeyLength {
		t.Errorf("rendered key length %d exceeds %d", len(key), MaxKeyLength)
	}
	if !strings.HasPrefix(key, tpl.Prefix()+"#") {
		t.Errorf("long key should keep the prefix and fold values, got %q", key)
	}
	if len(key) != len(tpl.Prefix())+1+16 {
		t.Errorf("unexpected digest length in %q", key)
	}

	if key != tpl.Render(map[string]any{"body": long}) {
		t.Error("folded key is not deterministic")
	}
	if key == tpl.Render(map[string]any{"body": long + "y"}) {
		t.Error("different long values folded to the same key")
	}
}
