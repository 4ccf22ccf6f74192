package memory

import (
	"context"
	"testing"
	"time"
)

func TestMemWorkingStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	ws := NewMemWorkingStore(time.Minute, 0)

	if err := ws.Set(ctx, "s1", "k1", 42, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := ws.Get(ctx, "s1", "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %v, want 42", got)
	}

	if err := ws.Delete(ctx, "s1", "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ws.Get(ctx, "s1", "k1"); err != ErrNotFound {
		t.Fatalf("Get after delete: got %v, want ErrNotFound", err)
	}
}

func TestMemWorkingStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	ws := NewMemWorkingStore(time.Minute, 0).(*memWorkingStore)

	if err := ws.Set(ctx, "s1", "k1", "v", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ws.Get(ctx, "s1", "k1"); err != ErrNotFound {
		t.Fatalf("expected expired key to be ErrNotFound, got %v", err)
	}
}

func TestMemWorkingStore_ClearSession(t *testing.T) {
	ctx := context.Background()
	ws := NewMemWorkingStore(time.Minute, 0)

	_ = ws.Set(ctx, "s1", "a", 1, 0)
	_ = ws.Set(ctx, "s1", "b", 2, 0)
	_ = ws.Set(ctx, "s2", "c", 3, 0)

	if err := ws.ClearSession(ctx, "s1"); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	keys, err := ws.Keys(ctx, "s1")
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected no keys left for s1, got %v err=%v", keys, err)
	}
	keys, err = ws.Keys(ctx, "s2")
	if err != nil || len(keys) != 1 {
		t.Fatalf("expected s2 untouched, got %v err=%v", keys, err)
	}
}

func TestMemWorkingStore_InvalidKey(t *testing.T) {
	ctx := context.Background()
	ws := NewMemWorkingStore(time.Minute, 0)
	if err := ws.Set(ctx, "s1", "", "v", 0); err != ErrInvalidKey {
		t.Fatalf("got %v, want ErrInvalidKey", err)
	}
}
