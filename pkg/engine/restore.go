package engine

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/catalog"
	"github.com/ddloads/networksync/pkg/ignore"
	"github.com/ddloads/networksync/pkg/lock"
	"github.com/ddloads/networksync/pkg/model"
	"github.com/ddloads/networksync/pkg/scan"
	"github.com/ddloads/networksync/pkg/transfer"
)

// RestoreResult reports the outcome of a Restore operation.
type RestoreResult struct {
	Downloaded int
	Deleted    int
}

// Restore overwrites localPath to match the named snapshot exactly. Unlike
// Pull, it performs no conflict detection: the caller has already opted
// into overwriting local state.
func (e *Engine) Restore(ctx context.Context, localPath, snapshotID string, progress scan.ProgressFunc, includePatterns []string) (RestoreResult, error) {
	handle, err := e.acquireLock(ctx, lock.OperationRestore)
	if err != nil {
		return RestoreResult{}, err
	}
	defer handle.Release()

	if _, err := e.catalog.GetSnapshot(snapshotID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return RestoreResult{}, newError(KindNotFound, err)
		}
		return RestoreResult{}, newError(KindIOFailure, err)
	}
	remoteEntries := e.catalog.SnapshotEntries(snapshotID)

	matcher, err := ignore.ForProject(localPath)
	if err != nil {
		return RestoreResult{}, newError(KindIOFailure, err)
	}
	scanResult, err := scan.Scan(ctx, localPath, matcher, scan.Options{Progress: progress, Logger: e.logger})
	if err != nil {
		return RestoreResult{}, newError(KindIOFailure, err)
	}
	localEntries := scan.ToFileEntries("", scanResult.Entries)

	// Diff from the snapshot's perspective: Added and Modified hold the
	// snapshot entries to download, Deleted holds the local-only entries.
	diff := transfer.Compare(remoteEntries, localEntries)
	toDownload := filterBySelectiveSync(append(append([]model.FileEntry{}, diff.Added...), diff.Modified...), includePatterns)
	toDelete := filterBySelectiveSync(diff.Deleted, includePatterns)

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
		return RestoreResult{}, newError(KindIOFailure, err)
	}

	for _, entry := range toDelete {
		target := localFilePath(localPath, entry.Path)
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return RestoreResult{}, newError(KindIOFailure, errors.Wrapf(err, "unable to delete %q", entry.Path))
		}
	}

	return RestoreResult{Downloaded: len(toDownload), Deleted: len(toDelete)}, nil
}
