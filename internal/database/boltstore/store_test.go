package boltstore

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadBlob(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, found, err := store.LoadBlob(ctx, "quest_system/alice"); err != nil || found {
		t.Fatalf("load missing blob: found=%v err=%v", found, err)
	}

	if err := store.SaveBlob(ctx, "quest_system/alice", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save blob: %v", err)
	}
	if err := store.SaveBlob(ctx, "quest_system/alice", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("replace blob: %v", err)
	}

	blob, found, err := store.LoadBlob(ctx, "quest_system/alice")
	if err != nil || !found {
		t.Fatalf("load blob: found=%v err=%v", found, err)
	}
	if string(blob) != `{"v":2}` {
		t.Fatalf("expected replaced blob, got %s", blob)
	}
}

func TestBlobSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.SaveBlob(ctx, "k", []byte("data")); err != nil {
		t.Fatalf("save blob: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	blob, found, err := reopened.LoadBlob(ctx, "k")
	if err != nil || !found || string(blob) != "data" {
		t.Fatalf("expected data after reopen, got %q found=%v err=%v", blob, found, err)
	}
}

func TestKeysByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"quest_system/bob", "quest_system/alice", "other/carol"} {
		if err := store.SaveBlob(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("save %s: %v", key, err)
		}
	}

	keys, err := store.Keys(ctx, "quest_system/")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"quest_system/alice", "quest_system/bob"}
	if !slices.Equal(keys, want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
}

func TestRejectsInvalidInput(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}

	store := openTestStore(t)
	if err := store.SaveBlob(context.Background(), "", []byte("x")); err == nil {
		t.Fatal("expected error for empty key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := store.LoadBlob(ctx, "k"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
