// Package catalog implements the durable, in-memory relational registry of
// projects, branches, snapshots, file entries, and advisory file locks. The
// catalog is loaded from a single file on the shared mount at engine
// startup and, on every logical mutation, serialized and atomically
// rewritten in full, matching the spec's whole-file persistence model.
package catalog

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/filesystem"
	"github.com/ddloads/networksync/pkg/logging"
	"github.com/ddloads/networksync/pkg/model"
)

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("catalog: not found")

// document is the on-disk representation of the catalog.
type document struct {
	Projects    []model.Project   `json:"projects"`
	Branches    []model.Branch    `json:"branches"`
	Snapshots   []model.Snapshot  `json:"snapshots"`
	FileEntries []model.FileEntry `json:"file_entries"`
	FileLocks   []model.FileLock  `json:"file_locks"`
}

// Catalog is the in-memory image of the catalog document, guarded by a
// mutex since Status reads may race a concurrent replacement by another
// peer's save (torn reads are retried, see Load).
type Catalog struct {
	mu   sync.RWMutex
	doc  document
	path string
	log  *logging.Logger
}

// Load reads the catalog document from path. If the file does not exist, an
// empty catalog is returned (first use on a fresh mount).
func Load(path string, logger *logging.Logger) (*Catalog, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	return &Catalog{doc: doc, path: path, log: logger}, nil
}

// loadDocument reads and decodes the catalog document, retrying the read once
// on decode failure to tolerate a torn read racing a concurrent save.
func loadDocument(path string) (document, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return document{}, nil
			}
			return document{}, errors.Wrap(err, "unable to read catalog")
		}
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			lastErr = err
			continue
		}
		return doc, nil
	}
	return document{}, errors.Wrap(lastErr, "unable to decode catalog after retry")
}

// Reload re-reads the catalog document from disk, replacing the in-memory
// image. Used by read-only operations (Status) that do not hold the
// exclusion lock and must observe the latest durable state.
func (c *Catalog) Reload() error {
	doc, err := loadDocument(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.doc = doc
	c.mu.Unlock()
	return nil
}

// save serializes the entire catalog and atomically rewrites the document
// file. Callers must hold the exclusion lock for the duration of any
// mutation that calls save.
func (c *Catalog) save() error {
	data, err := json.MarshalIndent(c.doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode catalog")
	}
	if err := filesystem.WriteFileAtomic(c.path, data, 0644, c.log); err != nil {
		return errors.Wrap(err, "unable to write catalog")
	}
	return nil
}

// CreateProject adds a new project row and persists the catalog.
func (c *Catalog) CreateProject(name string) (model.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	project := model.Project{
		ID:        model.NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	c.doc.Projects = append(c.doc.Projects, project)
	if err := c.save(); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

// DeleteProject removes a project and cascades to its branches, snapshots,
// file entries, and file locks. Blobs are not touched; GC reclaims them.
func (c *Catalog) DeleteProject(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	c.doc.Projects = filterProjects(c.doc.Projects, func(p model.Project) bool {
		if p.ID == id {
			found = true
			return false
		}
		return true
	})
	if !found {
		return ErrNotFound
	}

	snapshotIDs := make(map[string]bool)
	c.doc.Snapshots = filterSnapshots(c.doc.Snapshots, func(s model.Snapshot) bool {
		if s.ProjectID == id {
			snapshotIDs[s.ID] = true
			return false
		}
		return true
	})
	c.doc.Branches = filterBranches(c.doc.Branches, func(b model.Branch) bool { return b.ProjectID != id })
	c.doc.FileEntries = filterFileEntries(c.doc.FileEntries, func(e model.FileEntry) bool { return !snapshotIDs[e.SnapshotID] })
	c.doc.FileLocks = filterFileLocks(c.doc.FileLocks, func(l model.FileLock) bool { return l.ProjectID != id })

	return c.save()
}

// ListProjects returns all projects, ordered by name.
func (c *Catalog) ListProjects() []model.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]model.Project, len(c.doc.Projects))
	copy(result, c.doc.Projects)
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// GetProject looks up a project by id.
func (c *Catalog) GetProject(id string) (model.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.doc.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Project{}, ErrNotFound
}

// UpdateProjectSyncTime sets a project's last_sync_at and persists it.
func (c *Catalog) UpdateProjectSyncTime(id string, when time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.doc.Projects {
		if c.doc.Projects[i].ID == id {
			c.doc.Projects[i].LastSyncAt = when
			return c.save()
		}
	}
	return ErrNotFound
}

// ensureBranch upserts a branch row, which is otherwise implicit; it is
// called by CreateSnapshot so the first snapshot on a new branch name creates
// the row. It does not save; the caller persists the catalog.
func (c *Catalog) ensureBranch(projectID, name string) {
	for _, b := range c.doc.Branches {
		if b.ProjectID == projectID && b.Name == name {
			return
		}
	}
	c.doc.Branches = append(c.doc.Branches, model.Branch{ProjectID: projectID, Name: name, CreatedAt: time.Now().UTC()})
}

// CreateSnapshot appends a snapshot row and its file entries as a single
// atomically-durable write, upserting the branch if it does not yet exist.
func (c *Catalog) CreateSnapshot(snapshot model.Snapshot, entries []model.FileEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if snapshot.Branch == "" {
		snapshot.Branch = model.DefaultBranch
	}
	c.ensureBranch(snapshot.ProjectID, snapshot.Branch)
	c.doc.Snapshots = append(c.doc.Snapshots, snapshot)
	c.doc.FileEntries = append(c.doc.FileEntries, entries...)

	return c.save()
}

// DeleteSnapshot removes a snapshot and its file entries.
func (c *Catalog) DeleteSnapshot(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	c.doc.Snapshots = filterSnapshots(c.doc.Snapshots, func(s model.Snapshot) bool {
		if s.ID == id {
			found = true
			return false
		}
		return true
	})
	if !found {
		return ErrNotFound
	}
	c.doc.FileEntries = filterFileEntries(c.doc.FileEntries, func(e model.FileEntry) bool { return e.SnapshotID != id })

	return c.save()
}

// LatestSnapshot returns the most recent snapshot for (project, branch), or
// ErrNotFound if none exists yet.
func (c *Catalog) LatestSnapshot(projectID, branch string) (model.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if branch == "" {
		branch = model.DefaultBranch
	}

	var latest model.Snapshot
	found := false
	for _, s := range c.doc.Snapshots {
		if s.ProjectID != projectID || s.Branch != branch {
			continue
		}
		if !found || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
			found = true
		}
	}
	if !found {
		return model.Snapshot{}, ErrNotFound
	}
	return latest, nil
}

// ListSnapshots returns snapshots for a project, optionally filtered by
// branch and limited to the most recent `limit` (0 = unlimited), newest
// first.
func (c *Catalog) ListSnapshots(projectID, branch string, limit int) []model.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []model.Snapshot
	for _, s := range c.doc.Snapshots {
		if s.ProjectID != projectID {
			continue
		}
		if branch != "" && s.Branch != branch {
			continue
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// GetSnapshot looks up a snapshot by id.
func (c *Catalog) GetSnapshot(id string) (model.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.doc.Snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Snapshot{}, ErrNotFound
}

// SnapshotEntries returns the manifest rows for a snapshot.
func (c *Catalog) SnapshotEntries(snapshotID string) []model.FileEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []model.FileEntry
	for _, e := range c.doc.FileEntries {
		if e.SnapshotID == snapshotID {
			result = append(result, e)
		}
	}
	return result
}

// LiveHashes returns the set of content hashes referenced by any file entry
// in the catalog, the live set used by garbage collection.
func (c *Catalog) LiveHashes() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	live := make(map[string]bool)
	for _, e := range c.doc.FileEntries {
		live[e.Hash] = true
	}
	return live
}

// AcquireFileLock takes an advisory lock on (project, path) for machine. It
// succeeds iff no row currently exists for that path.
func (c *Catalog) AcquireFileLock(projectID, path, machine string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range c.doc.FileLocks {
		if l.ProjectID == projectID && l.Path == path {
			return false, nil
		}
	}
	c.doc.FileLocks = append(c.doc.FileLocks, model.FileLock{
		ProjectID:   projectID,
		Path:        path,
		MachineName: machine,
		LockedAt:    time.Now().UTC(),
	})
	return true, c.save()
}

// ReleaseFileLock releases an advisory lock. It succeeds iff either no row
// exists, or the row belongs to the calling machine; it never deletes
// another machine's lock.
func (c *Catalog) ReleaseFileLock(projectID, path, machine string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := -1
	for i, l := range c.doc.FileLocks {
		if l.ProjectID == projectID && l.Path == path {
			index = i
			break
		}
	}
	if index == -1 {
		return true, nil
	}
	if c.doc.FileLocks[index].MachineName != machine {
		return false, nil
	}
	c.doc.FileLocks = append(c.doc.FileLocks[:index], c.doc.FileLocks[index+1:]...)
	return true, c.save()
}

// ListFileLocks returns all advisory locks for a project.
func (c *Catalog) ListFileLocks(projectID string) []model.FileLock {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []model.FileLock
	for _, l := range c.doc.FileLocks {
		if l.ProjectID == projectID {
			result = append(result, l)
		}
	}
	return result
}

func filterProjects(in []model.Project, keep func(model.Project) bool) []model.Project {
	out := in[:0]
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func filterBranches(in []model.Branch, keep func(model.Branch) bool) []model.Branch {
	out := in[:0]
	for _, b := range in {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func filterSnapshots(in []model.Snapshot, keep func(model.Snapshot) bool) []model.Snapshot {
	out := in[:0]
	for _, s := range in {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func filterFileEntries(in []model.FileEntry, keep func(model.FileEntry) bool) []model.FileEntry {
	out := in[:0]
	for _, e := range in {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func filterFileLocks(in []model.FileLock, keep func(model.FileLock) bool) []model.FileLock {
	out := in[:0]
	for _, l := range in {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
