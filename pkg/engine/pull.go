package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/catalog"
	"github.com/ddloads/networksync/pkg/ignore"
	"github.com/ddloads/networksync/pkg/lock"
	"github.com/ddloads/networksync/pkg/model"
	"github.com/ddloads/networksync/pkg/scan"
	"github.com/ddloads/networksync/pkg/transfer"
)

// ConflictInfo is the caller-facing view of a pull conflict.
type ConflictInfo struct {
	Path string
}

// PullResult reports the outcome of a Pull operation. When Conflicts is
// non-empty and Resolutions were not supplied, Success is false and no
// filesystem I/O was performed.
type PullResult struct {
	Success      bool
	Downloaded   int
	Deleted      int
	Conflicts    []ConflictInfo
}

// Pull brings localPath in line with the latest snapshot on branch. If
// conflicting paths are found and no resolutions are supplied, it returns
// them without performing any I/O; the caller then calls Pull again with a
// resolutions map. A conflicting path missing from a non-nil map is resolved
// as keep_remote.
func (e *Engine) Pull(ctx context.Context, projectID, localPath, branch string, resolutions map[string]transfer.Resolution, progress scan.ProgressFunc, includePatterns []string) (PullResult, error) {
	if branch == "" {
		branch = model.DefaultBranch
	}

	handle, err := e.acquireLock(ctx, lock.OperationPull)
	if err != nil {
		return PullResult{}, err
	}
	defer handle.Release()

	remoteSnapshot, err := e.catalog.LatestSnapshot(projectID, branch)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return PullResult{}, newError(KindNotFound, err)
		}
		return PullResult{}, newError(KindIOFailure, err)
	}
	remoteEntries := e.catalog.SnapshotEntries(remoteSnapshot.ID)

	matcher, err := ignore.ForProject(localPath)
	if err != nil {
		return PullResult{}, newError(KindIOFailure, err)
	}
	scanResult, err := scan.Scan(ctx, localPath, matcher, scan.Options{Progress: progress, Logger: e.logger})
	if err != nil {
		return PullResult{}, newError(KindIOFailure, err)
	}
	localEntries := scan.ToFileEntries("", scanResult.Entries)

	// Diff from the remote's perspective: Added and Modified hold the remote
	// entries to download, Deleted holds the local-only entries to remove.
	diff := transfer.Compare(remoteEntries, localEntries)
	conflicts := filterConflictsBySelectiveSync(transfer.DetectConflicts(localEntries, remoteEntries), includePatterns)

	if len(conflicts) > 0 && resolutions == nil {
		infos := make([]ConflictInfo, len(conflicts))
		for i, c := range conflicts {
			infos[i] = ConflictInfo{Path: c.Path}
		}
		return PullResult{Success: false, Conflicts: infos}, nil
	}

	toDownload := filterBySelectiveSync(append(append([]model.FileEntry{}, diff.Added...), diff.Modified...), includePatterns)
	toDelete := filterBySelectiveSync(diff.Deleted, includePatterns)

	for _, conflict := range conflicts {
		resolution, ok := resolutions[conflict.Path]
		if !ok {
			resolution = transfer.ResolutionKeepRemote
		}
		switch resolution {
		case transfer.ResolutionKeepLocal:
			toDownload = removeByPath(toDownload, conflict.Path)
		case transfer.ResolutionKeepBoth:
			if err := keepBothRename(localPath, conflict.Path); err != nil {
				return PullResult{}, newError(KindIOFailure, err)
			}
		case transfer.ResolutionKeepRemote:
			// Default diff behavior already downloads the remote version.
		}
	}

	tasks := make([]transfer.Task, len(toDownload))
	for i, entry := range toDownload {
		entry := entry
		destination := localFilePath(localPath, entry.Path)
		tasks[i] = func(ctx context.Context) (int64, error) {
			if err := e.store.Get(entry.Hash, destination); err != nil {
				return 0, errors.Wrapf(err, "unable to download %q", entry.Path)
			}
			return entry.Size, nil
		}
	}
	if _, err := transfer.Run(ctx, transfer.DefaultConcurrency, tasks, nil); err != nil {
		return PullResult{}, newError(KindIOFailure, err)
	}

	for _, entry := range toDelete {
		target := localFilePath(localPath, entry.Path)
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return PullResult{}, newError(KindIOFailure, errors.Wrapf(err, "unable to delete %q", entry.Path))
		}
	}

	return PullResult{Success: true, Downloaded: len(toDownload), Deleted: len(toDelete)}, nil
}

func filterBySelectiveSync(entries []model.FileEntry, patterns []string) []model.FileEntry {
	if len(patterns) == 0 {
		return entries
	}
	result := make([]model.FileEntry, 0, len(entries))
	for _, e := range entries {
		if selectiveSyncMatches(patterns, e.Path) {
			result = append(result, e)
		}
	}
	return result
}

// filterConflictsBySelectiveSync drops conflicts on paths the selective-sync
// patterns exclude. A path outside includePatterns is skipped entirely per
// the selective-sync policy, so it must not force a conflict return either.
func filterConflictsBySelectiveSync(conflicts []transfer.Conflict, patterns []string) []transfer.Conflict {
	if len(patterns) == 0 {
		return conflicts
	}
	result := make([]transfer.Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		if selectiveSyncMatches(patterns, c.Path) {
			result = append(result, c)
		}
	}
	return result
}

func removeByPath(entries []model.FileEntry, path string) []model.FileEntry {
	result := entries[:0]
	for _, e := range entries {
		if e.Path != path {
			result = append(result, e)
		}
	}
	return result
}

// keepBothRename renames the local file at path to "<stem>.local<ext>"
// before the caller fetches the remote version, preserving both copies.
func keepBothRename(localPath, relPath string) error {
	source := localFilePath(localPath, relPath)
	ext := filepath.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)
	destination := localFilePath(localPath, stem+".local"+ext)

	if _, err := os.Stat(source); os.IsNotExist(err) {
		return nil
	}
	return os.Rename(source, destination)
}
