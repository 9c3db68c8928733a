package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/catalog"
	"github.com/ddloads/networksync/pkg/ignore"
	"github.com/ddloads/networksync/pkg/model"
	"github.com/ddloads/networksync/pkg/scan"
	"github.com/ddloads/networksync/pkg/transfer"
)

// StatusResult is a pure, lock-free read comparing local state to the
// latest snapshot on branch.
type StatusResult struct {
	LatestSnapshotID string
	Diff             transfer.Diff
}

// Status scans localPath and diffs it against the latest snapshot on branch
// without acquiring the exclusion lock. Because the catalog may be
// concurrently replaced by another peer's save, a torn read is tolerated by
// retrying the catalog load once internally (see catalog.Load).
func (e *Engine) Status(ctx context.Context, projectID, localPath, branch string) (StatusResult, error) {
	if branch == "" {
		branch = model.DefaultBranch
	}

	if err := e.catalog.Reload(); err != nil {
		return StatusResult{}, newError(KindIOFailure, err)
	}

	remoteSnapshot, err := e.catalog.LatestSnapshot(projectID, branch)
	var remoteEntries []model.FileEntry
	var snapshotID string
	if err == nil {
		remoteEntries = e.catalog.SnapshotEntries(remoteSnapshot.ID)
		snapshotID = remoteSnapshot.ID
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return StatusResult{}, newError(KindIOFailure, err)
	}

	matcher, err := ignore.ForProject(localPath)
	if err != nil {
		return StatusResult{}, newError(KindIOFailure, err)
	}
	scanResult, err := scan.Scan(ctx, localPath, matcher, scan.Options{Logger: e.logger})
	if err != nil {
		return StatusResult{}, newError(KindIOFailure, err)
	}
	localEntries := scan.ToFileEntries("", scanResult.Entries)

	return StatusResult{
		LatestSnapshotID: snapshotID,
		Diff:             transfer.Compare(localEntries, remoteEntries),
	}, nil
}
