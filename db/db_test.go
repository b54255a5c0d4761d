package db

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Failed to overwrite value: %v", err)
	}

	value, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Failed to get value: ok=%v err=%v", ok, err)
	}
	if value != "v2" {
		t.Errorf("expected 'v2', got '%s'", value)
	}
}

func TestSummaryStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	summaries := NewSummaryStore(openTestStore(t))

	if got, err := summaries.Load(ctx); err != nil || got != "" {
		t.Fatalf("expected empty slot, got %q err=%v", got, err)
	}

	if err := summaries.Save(ctx, "S1"); err != nil {
		t.Fatal(err)
	}
	s2 := "1. **Second**\n2. café & <tags>\n"
	if err := summaries.Save(ctx, s2); err != nil {
		t.Fatal(err)
	}

	got, err := summaries.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != s2 {
		t.Errorf("expected %q, got %q", s2, got)
	}
}

func TestSummaryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := NewSummaryStore(store).Save(ctx, "kept"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if got, _ := NewSummaryStore(store).Load(ctx); got != "kept" {
		t.Errorf("expected summary to persist, got %q", got)
	}
}

func TestCredentialsSubscribe(t *testing.T) {
	ctx := context.Background()
	creds := NewCredentials(openTestStore(t))

	var mu sync.Mutex
	var seen []string
	cancel := creds.Subscribe(func(key string) {
		mu.Lock()
		seen = append(seen, key)
		mu.Unlock()
	})

	if err := creds.Set(ctx, "sk-1"); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := creds.Set(ctx, "sk-2"); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 1 || seen[0] != "sk-1" {
		t.Errorf("expected one notification for sk-1, got %v", seen)
	}

	key, err := creds.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if key != "sk-2" {
		t.Errorf("expected stored key sk-2, got %q", key)
	}
}

func TestCredentialsEmpty(t *testing.T) {
	creds := NewCredentials(openTestStore(t))
	key, err := creds.Get(context.Background())
	if err != nil || key != "" {
		t.Errorf("expected no key, got %q err=%v", key, err)
	}
}
