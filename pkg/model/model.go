// Package model defines the entities of the synchronization engine's data
// model: projects, branches, snapshots, file entries, and the advisory and
// exclusion locks that coordinate peers over the shared mount.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultBranch is the implicit branch name used when none is specified. A
// reference to a branch with no row behaves as though the branch existed.
const DefaultBranch = "main"

// NewID generates a new opaque 128-bit identifier, rendered in canonical
// 36-character form.
func NewID() string {
	return uuid.New().String()
}

// Project is a synchronized tree, identified across peers by an opaque id.
// The local path a project maps to is per-peer and is never recorded here.
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	LastSyncAt time.Time `json:"last_sync_at"`
}

// Branch identifies a named line of history within a project.
type Branch struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is an immutable, named version of a project at a point in time,
// scoped to a branch. It owns exactly one manifest: the set of FileEntry rows
// that share its ID.
type Snapshot struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	Branch        string    `json:"branch"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
	ManifestHash  string    `json:"manifest_hash"`
	FileCount     int       `json:"file_count"`
	TotalSize     int64     `json:"total_size"`
}

// FileEntry is one row of a snapshot's manifest: the content-hash, logical
// size, and modification time of one project-relative path. No directory
// entries are recorded; directories are implied by the paths of their files.
type FileEntry struct {
	SnapshotID string    `json:"snapshot_id"`
	Path       string    `json:"path"`
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// FileLock is an advisory, informational per-path lock. The engine never
// refuses a transfer because of one; it is surfaced to callers as workflow
// policy, not enforced.
type FileLock struct {
	ProjectID   string    `json:"project_id"`
	Path        string    `json:"path"`
	MachineName string    `json:"machine_name"`
	LockedAt    time.Time `json:"locked_at"`
}

// Manifest is the set of FileEntry rows belonging to one snapshot, exposed as
// a plain slice since the domain has no tree structure to preserve.
type Manifest []FileEntry

// ByPath returns the manifest indexed by path for diffing.
func (m Manifest) ByPath() map[string]FileEntry {
	index := make(map[string]FileEntry, len(m))
	for _, entry := range m {
		index[entry.Path] = entry
	}
	return index
}
