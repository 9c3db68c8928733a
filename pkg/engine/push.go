package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/hash"
	"github.com/ddloads/networksync/pkg/ignore"
	"github.com/ddloads/networksync/pkg/lock"
	"github.com/ddloads/networksync/pkg/model"
	"github.com/ddloads/networksync/pkg/scan"
	"github.com/ddloads/networksync/pkg/transfer"
)

// PushResult reports the outcome of a Push operation.
type PushResult struct {
	SnapshotID string
	Added      int
	Modified   int
	Deleted    int
	Bytes      int64
}

// Push scans localPath, diffs it against the latest snapshot on branch, and
// transfers any new or changed blobs into the object store before writing a
// new snapshot whose manifest is exactly the scanned tree.
func (e *Engine) Push(ctx context.Context, projectID, localPath, message, branch string, progress scan.ProgressFunc) (PushResult, error) {
	if branch == "" {
		branch = model.DefaultBranch
	}

	handle, err := e.acquireLock(ctx, lock.OperationPush)
	if err != nil {
		return PushResult{}, err
	}
	defer handle.Release()

	matcher, err := ignore.ForProject(localPath)
	if err != nil {
		return PushResult{}, newError(KindIOFailure, err)
	}

	scanResult, err := scan.Scan(ctx, localPath, matcher, scan.Options{Progress: progress, Logger: e.logger})
	if err != nil {
		return PushResult{}, newError(KindIOFailure, err)
	}

	snapshotID := model.NewID()
	localEntries := scan.ToFileEntries(snapshotID, scanResult.Entries)

	remote, err := e.catalog.LatestSnapshot(projectID, branch)
	var remoteEntries []model.FileEntry
	if err == nil {
		remoteEntries = e.catalog.SnapshotEntries(remote.ID)
	}

	diff := transfer.Compare(localEntries, remoteEntries)

	toUpload := append(append([]model.FileEntry{}, diff.Added...), diff.Modified...)
	tasks := make([]transfer.Task, len(toUpload))
	for i, entry := range toUpload {
		entry := entry
		sourcePath := localFilePath(localPath, entry.Path)
		tasks[i] = func(ctx context.Context) (int64, error) {
			if _, err := e.store.Put(sourcePath, nil); err != nil {
				return 0, errors.Wrapf(err, "unable to upload %q", entry.Path)
			}
			return entry.Size, nil
		}
	}

	bytes, err := transfer.Run(ctx, transfer.DefaultConcurrency, tasks, nil)
	if err != nil {
		return PushResult{}, newError(KindIOFailure, err)
	}

	manifestDigest := hash.ManifestDigest(scan.ToDigestEntries(scanResult.Entries))
	snapshot := model.Snapshot{
		ID:           snapshotID,
		ProjectID:    projectID,
		Branch:       branch,
		Message:      message,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    e.machine,
		ManifestHash: manifestDigest,
		FileCount:    len(localEntries),
		TotalSize:    scanResult.TotalSize,
	}

	if err := e.catalog.CreateSnapshot(snapshot, localEntries); err != nil {
		return PushResult{}, newError(KindIOFailure, err)
	}
	if err := e.catalog.UpdateProjectSyncTime(projectID, snapshot.CreatedAt); err != nil {
		return PushResult{}, newError(KindIOFailure, err)
	}

	return PushResult{
		SnapshotID: snapshotID,
		Added:      len(diff.Added),
		Modified:   len(diff.Modified),
		Deleted:    len(diff.Deleted),
		Bytes:      bytes,
	}, nil
}
