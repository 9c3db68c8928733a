package catalog

import (
	"path/filepath"
	"testing"

	"github.com/ddloads/networksync/pkg/model"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(filepath.Join(t.TempDir(), "sync.db"), nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return c
}

func TestCreateAndListProjects(t *testing.T) {
	c := newTestCatalog(t)

	p, err := c.CreateProject("demo")
	if err != nil {
		t.Fatalf("CreateProject returned error: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected non-empty project id")
	}

	projects := c.ListProjects()
	if len(projects) != 1 || projects[0].ID != p.ID {
		t.Fatalf("ListProjects = %+v, want one project with id %q", projects, p.ID)
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	c := newTestCatalog(t)
	p, err := c.CreateProject("demo")
	if err != nil {
		t.Fatal(err)
	}

	snap := model.Snapshot{ID: model.NewID(), ProjectID: p.ID, Branch: "main", ManifestHash: "abc"}
	entries := []model.FileEntry{{SnapshotID: snap.ID, Path: "a.txt", Hash: "h1"}}
	if err := c.CreateSnapshot(snap, entries); err != nil {
		t.Fatalf("CreateSnapshot returned error: %v", err)
	}

	latest, err := c.LatestSnapshot(p.ID, "main")
	if err != nil {
		t.Fatalf("LatestSnapshot returned error: %v", err)
	}
	if latest.ID != snap.ID {
		t.Fatalf("LatestSnapshot = %q, want %q", latest.ID, snap.ID)
	}

	got := c.SnapshotEntries(snap.ID)
	if len(got) != 1 || got[0].Path != "a.txt" {
		t.Fatalf("SnapshotEntries = %+v", got)
	}

	if err := c.DeleteSnapshot(snap.ID); err != nil {
		t.Fatalf("DeleteSnapshot returned error: %v", err)
	}
	if _, err := c.LatestSnapshot(p.ID, "main"); err != ErrNotFound {
		t.Fatalf("LatestSnapshot after delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	c := newTestCatalog(t)
	p, err := c.CreateProject("demo")
	if err != nil {
		t.Fatal(err)
	}
	snap := model.Snapshot{ID: model.NewID(), ProjectID: p.ID, Branch: "main"}
	if err := c.CreateSnapshot(snap, []model.FileEntry{{SnapshotID: snap.ID, Path: "a.txt", Hash: "h1"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AcquireFileLock(p.ID, "a.txt", "machine-a"); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteProject(p.ID); err != nil {
		t.Fatalf("DeleteProject returned error: %v", err)
	}

	if len(c.ListProjects()) != 0 {
		t.Fatal("project survived DeleteProject")
	}
	if len(c.SnapshotEntries(snap.ID)) != 0 {
		t.Fatal("file entries survived cascading DeleteProject")
	}
	if len(c.ListFileLocks(p.ID)) != 0 {
		t.Fatal("file locks survived cascading DeleteProject")
	}
}

func TestFileLockSemantics(t *testing.T) {
	c := newTestCatalog(t)
	p, err := c.CreateProject("demo")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := c.AcquireFileLock(p.ID, "a.txt", "machine-a")
	if err != nil || !ok {
		t.Fatalf("first AcquireFileLock = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = c.AcquireFileLock(p.ID, "a.txt", "machine-b")
	if err != nil || ok {
		t.Fatalf("conflicting AcquireFileLock = (%v, %v), want (false, nil)", ok, err)
	}

	ok, err = c.ReleaseFileLock(p.ID, "a.txt", "machine-b")
	if err != nil || ok {
		t.Fatalf("ReleaseFileLock by non-holder = (%v, %v), want (false, nil)", ok, err)
	}

	ok, err = c.ReleaseFileLock(p.ID, "a.txt", "machine-a")
	if err != nil || !ok {
		t.Fatalf("ReleaseFileLock by holder = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestLoadPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.db")
	c, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateProject("demo"); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(reloaded.ListProjects()) != 1 {
		t.Fatalf("reloaded catalog has %d projects, want 1", len(reloaded.ListProjects()))
	}
}
