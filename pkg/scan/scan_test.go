package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ddloads/networksync/pkg/ignore"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanBasic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "dir", "b.txt"), "world")
	writeFile(t, filepath.Join(root, "node_modules", "pkg.js"), "ignored")

	matcher, err := ignore.New(ignore.DefaultPatterns)
	if err != nil {
		t.Fatal(err)
	}

	result, err := Scan(context.Background(), root, matcher, Options{})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.FileCount != 2 {
		t.Fatalf("FileCount = %d, want 2", result.FileCount)
	}

	paths := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		paths[i] = e.Path
	}
	sort.Strings(paths)
	want := []string{"a.txt", "dir/b.txt"}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestScanIsIdempotentAndCaches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")

	matcher, err := ignore.New(ignore.DefaultPatterns)
	if err != nil {
		t.Fatal(err)
	}

	first, err := Scan(context.Background(), root, matcher, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Scan(context.Background(), root, matcher, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if first.Entries[0].Hash != second.Entries[0].Hash {
		t.Fatalf("hash changed between scans: %q != %q", first.Entries[0].Hash, second.Entries[0].Hash)
	}

	if _, err := os.Stat(filepath.Join(root, cacheDir, cacheFile)); err != nil {
		t.Fatalf("expected cache file to exist: %v", err)
	}
}

func TestScanProgressCallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	writeFile(t, filepath.Join(root, "b.txt"), "world")

	matcher, err := ignore.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	var calls int
	_, err = Scan(context.Background(), root, matcher, Options{
		Progress: func(count int, path string) { calls++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("progress callback invoked %d times, want 2", calls)
	}
}
