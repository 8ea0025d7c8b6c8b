package cacheinfra

import (
	"context"
	"testing"
	"time"
)

func newTestBadger(t *testing.T) *badgerBackend {
	t.Helper()
	b, err := NewBadgerBackend(DefaultBadgerConfig(), WithBadgerKeyPrefix("test:"))
	if err != nil {
		t.Fatalf("NewBadgerBackend() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerBackend_SetAndGet(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	if err := b.Set(ctx, "key1", []byte("value1"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found, err := b.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if string(val) != "value1" {
		t.Errorf("expected 'value1', got '%s'", string(val))
	}
}

func TestBadgerBackend_GetNonexistent(t *testing.T) {
	b := newTestBadger(t)

	val, found, err := b.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found || val != nil {
		t.Errorf("expected miss, got %q found=%v", val, found)
	}
}

func TestBadgerBackend_GetListAndDeleteMulti(t *testing.T) {
	b := newTestBadger(t)
	ctx := context.Background()

	for key, value := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		if err := b.Set(ctx, key, []byte(value), 0); err != nil {
			t.Fatalf("Set(%s) failed: %v", key, err)
		}
	}

	list, err := b.GetList(ctx, []string{"c", "zz", "a"})
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	if len(list) != 3 || string(list[0]) != "3" || list[1] != nil || string(list[2]) != "1" {
		t.Errorf("GetList() = %q, want aligned [3 <nil> 1]", list)
	}

	if err := b.DeleteMulti(ctx, []string{"a", "c", "zz"}); err != nil {
		t.Fatalf("DeleteMulti failed: %v", err)
	}

	list, _ = b.GetList(ctx, []string{"a", "b", "c"})
	if list[0] != nil || string(list[1]) != "2" || list[2] != nil {
		t.Errorf("after DeleteMulti GetList() = %q", list)
	}
}

func TestBadgerBackend_CloseIsIdempotent(t *testing.T) {
	b, err := NewBadgerBackend(DefaultBadgerConfig())
	if err != nil {
		t.Fatalf("NewBadgerBackend() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
