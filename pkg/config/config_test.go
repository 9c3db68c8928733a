package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Projects == nil {
		t.Fatal("expected non-nil Projects map on fresh config")
	}
	if cfg.MachineName == "" {
		t.Fatal("expected MachineName to default to hostname")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &Config{NASPath: "/mnt/shared", MachineName: "workstation-a"}
	cfg.BindProject("project-1", "/home/user/project-1")

	if err := cfg.Save(path, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.NASPath != "/mnt/shared" {
		t.Errorf("NASPath = %q, want %q", loaded.NASPath, "/mnt/shared")
	}
	if loaded.Projects["project-1"].LocalPath != "/home/user/project-1" {
		t.Errorf("Projects[project-1].LocalPath = %q, want %q", loaded.Projects["project-1"].LocalPath, "/home/user/project-1")
	}
}

func TestUnbindProject(t *testing.T) {
	cfg := &Config{}
	cfg.BindProject("p1", "/path")
	cfg.UnbindProject("p1")
	if _, ok := cfg.Projects["p1"]; ok {
		t.Fatal("project binding survived UnbindProject")
	}
}
