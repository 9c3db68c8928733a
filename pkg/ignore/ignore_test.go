package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcherBasics(t *testing.T) {
	m, err := New([]string{
		"*.log",
		"/build",
		"vendor/",
		"!important.log",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	cases := []struct {
		path      string
		directory bool
		ignored   bool
	}{
		{"debug.log", false, true},
		{"important.log", false, false},
		{"build", false, true},
		{"src/build", false, false},
		{"vendor", true, true},
		{"vendor/lib.go", false, false},
		{"src/main.go", false, false},
	}

	for _, c := range cases {
		if got := m.Ignores(c.path, c.directory); got != c.ignored {
			t.Errorf("Ignores(%q, %v) = %v, want %v", c.path, c.directory, got, c.ignored)
		}
	}
}

func TestMatcherFilter(t *testing.T) {
	m, err := New([]string{"*.tmp"})
	if err != nil {
		t.Fatal(err)
	}
	got := m.Filter([]string{"a.txt", "b.tmp", "c.go"})
	want := []string{"a.txt", "c.go"}
	if len(got) != len(want) {
		t.Fatalf("Filter result length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Filter()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsUnrealEngineProject(t *testing.T) {
	root := t.TempDir()
	if IsUnrealEngineProject(root) {
		t.Fatal("empty directory incorrectly detected as Unreal Engine project")
	}
	if err := os.WriteFile(filepath.Join(root, "Game.uproject"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !IsUnrealEngineProject(root) {
		t.Fatal("directory with .uproject file not detected as Unreal Engine project")
	}
}

func TestForProjectReadsSyncignore(t *testing.T) {
	root := t.TempDir()
	content := "# comment\nSecrets/\n\ncustom.bin\n"
	if err := os.WriteFile(filepath.Join(root, syncignoreFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := ForProject(root)
	if err != nil {
		t.Fatalf("ForProject returned error: %v", err)
	}

	if !m.Ignores(".git", true) {
		t.Error("default pattern .git/ not applied")
	}
	if !m.Ignores("Secrets", true) {
		t.Error(".syncignore pattern Secrets/ not applied")
	}
	if !m.Ignores("custom.bin", false) {
		t.Error(".syncignore pattern custom.bin not applied")
	}
}
