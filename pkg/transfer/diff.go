// Package transfer implements manifest comparison, conflict detection, and
// the parallel blob transfer pool used by push, pull, and restore.
package transfer

import (
	"github.com/ddloads/networksync/pkg/model"
)

// Diff is the result of comparing a local manifest L against a remote
// manifest R (the latest snapshot on the target branch, or empty).
type Diff struct {
	Added     []model.FileEntry
	Modified  []model.FileEntry
	Deleted   []model.FileEntry
	Unchanged []model.FileEntry
}

// Compare computes the diff between local and remote manifests.
func Compare(local, remote []model.FileEntry) Diff {
	remoteByPath := model.Manifest(remote).ByPath()
	localByPath := model.Manifest(local).ByPath()

	var diff Diff
	for path, l := range localByPath {
		r, existsRemote := remoteByPath[path]
		switch {
		case !existsRemote:
			diff.Added = append(diff.Added, l)
		case r.Hash != l.Hash:
			diff.Modified = append(diff.Modified, l)
		default:
			diff.Unchanged = append(diff.Unchanged, l)
		}
	}
	for path, r := range remoteByPath {
		if _, existsLocal := localByPath[path]; !existsLocal {
			diff.Deleted = append(diff.Deleted, r)
		}
	}

	return diff
}

// Conflict is a path whose local content diverges from remote content in a
// way that cannot be silently resolved in remote's favor.
type Conflict struct {
	Path        string
	LocalEntry  model.FileEntry
	RemoteEntry model.FileEntry
}

// Resolution is the caller's choice for resolving one conflicting path.
type Resolution string

// Recognized conflict resolutions.
const (
	ResolutionKeepLocal  Resolution = "keep_local"
	ResolutionKeepRemote Resolution = "keep_remote"
	ResolutionKeepBoth   Resolution = "keep_both"
)

// DetectConflicts finds paths present in both local and remote manifests
// whose content differs and whose local modification time is strictly
// later than remote's. Ties and earlier local mtimes resolve silently in
// remote's favor and are not reported as conflicts; this mtime-ties-favor
// remote policy is a deliberate, documented design choice, not an oversight.
func DetectConflicts(local, remote []model.FileEntry) []Conflict {
	remoteByPath := model.Manifest(remote).ByPath()

	var conflicts []Conflict
	for _, l := range local {
		r, ok := remoteByPath[l.Path]
		if !ok || r.Hash == l.Hash {
			continue
		}
		if l.ModifiedAt.After(r.ModifiedAt) {
			conflicts = append(conflicts, Conflict{Path: l.Path, LocalEntry: l, RemoteEntry: r})
		}
	}
	return conflicts
}
