package store

import (
	"context"
	"path/filepath"
	"testing"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}

	if err := kv.Put(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v, ok, _ := kv.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("Get a = %q, %v", v, ok)
	}

	if err := kv.Put(ctx, map[string]string{"a": "3"}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if v, _, _ := kv.Get(ctx, "a"); v != "3" {
		t.Fatalf("expected overwrite, got %q", v)
	}

	if err := kv.Delete(ctx, "a", "b", "never-set"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "b"); ok {
		t.Fatal("expected b to be deleted")
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("NewSQLiteKV: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	exerciseKV(t, kv)
}

func TestSQLiteKVSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("NewSQLiteKV: %v", err)
	}
	if err := kv.Put(context.Background(), map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_ = kv.Close()

	kv, err = NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	if v, ok, _ := kv.Get(context.Background(), "k"); !ok || v != "v" {
		t.Fatalf("expected persisted value, got %q, %v", v, ok)
	}
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}
