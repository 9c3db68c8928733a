package objects

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(t.TempDir(), "source.bin")
	content := []byte("the quick brown fox jumps over the lazy dog")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}

	contentHash, err := store.Put(src, nil)
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !store.Exists(contentHash) {
		t.Fatal("Exists returned false after Put")
	}

	dst := filepath.Join(t.TempDir(), "dest.bin")
	if err := store.Get(contentHash, dst); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("round-tripped content mismatch: got %q, want %q", got, content)
	}
}

func TestPutDedupesIdenticalContent(t *testing.T) {
	store := newTestStore(t)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("same bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	hashA, err := store.Put(a, nil)
	if err != nil {
		t.Fatal(err)
	}
	hashB, err := store.Put(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if hashA != hashB {
		t.Fatalf("identical content produced different hashes: %q != %q", hashA, hashB)
	}
}

func TestGetCorruptBlobDetected(t *testing.T) {
	store := newTestStore(t)

	src := filepath.Join(t.TempDir(), "source.bin")
	if err := os.WriteFile(src, []byte("original content"), 0644); err != nil {
		t.Fatal(err)
	}
	contentHash, err := store.Put(src, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt the stored blob directly.
	objectPath := store.objectPath(contentHash)
	if err := os.WriteFile(objectPath, []byte("tampered bytes that do not gzip or match"), 0644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "dest.bin")
	err = store.Get(contentHash, dst)
	if err == nil {
		t.Fatal("expected error reading corrupted blob")
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Fatal("corrupted destination file was not cleaned up")
	}
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)

	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.bin")
	drop := filepath.Join(dir, "drop.bin")
	if err := os.WriteFile(keep, []byte("keep this"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(drop, []byte("drop this"), 0644); err != nil {
		t.Fatal(err)
	}

	keepHash, err := store.Put(keep, nil)
	if err != nil {
		t.Fatal(err)
	}
	dropHash, err := store.Put(drop, nil)
	if err != nil {
		t.Fatal(err)
	}

	result, err := store.Prune(map[string]bool{keepHash: true})
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if result.RemovedCount != 1 {
		t.Fatalf("RemovedCount = %d, want 1", result.RemovedCount)
	}
	if !store.Exists(keepHash) {
		t.Fatal("live blob was removed by Prune")
	}
	if store.Exists(dropHash) {
		t.Fatal("unreferenced blob survived Prune")
	}
}

func TestPutReportsAuditedBytes(t *testing.T) {
	store := newTestStore(t)

	content := []byte("progress is reported per logical byte written, not per compressed byte")
	src := filepath.Join(t.TempDir(), "source.bin")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}

	var total uint64
	_, err := store.Put(src, func(n uint64) { total += n })
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if total != uint64(len(content)) {
		t.Fatalf("audited byte total = %d, want %d", total, len(content))
	}
}

func TestGetMissingBlob(t *testing.T) {
	store := newTestStore(t)
	err := store.Get("0000000000000000", filepath.Join(t.TempDir(), "dest.bin"))
	if err != ErrNotFound {
		t.Fatalf("Get on missing blob = %v, want ErrNotFound", err)
	}
}
