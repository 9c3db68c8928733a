package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/catalog"
)

// SnapshotSummary is the caller-facing view of one snapshot in a project's
// history.
type SnapshotSummary struct {
	ID        string
	Branch    string
	Message   string
	CreatedAt time.Time
	CreatedBy string
	FileCount int
	TotalSize int64
}

// History returns a project's snapshots, optionally filtered to one branch
// and capped to the most recent limit entries (0 = unlimited), newest first.
// Like Status, it takes no lock; it reloads the catalog first so it observes
// the latest durable state rather than whatever was loaded at Open.
func (e *Engine) History(ctx context.Context, projectID, branch string, limit int) ([]SnapshotSummary, error) {
	if err := e.catalog.Reload(); err != nil {
		return nil, newError(KindIOFailure, err)
	}

	if _, err := e.catalog.GetProject(projectID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, newError(KindNotFound, err)
		}
		return nil, newError(KindIOFailure, err)
	}

	snapshots := e.catalog.ListSnapshots(projectID, branch, limit)
	result := make([]SnapshotSummary, len(snapshots))
	for i, s := range snapshots {
		result[i] = SnapshotSummary{
			ID:        s.ID,
			Branch:    s.Branch,
			Message:   s.Message,
			CreatedAt: s.CreatedAt,
			CreatedBy: s.CreatedBy,
			FileCount: s.FileCount,
			TotalSize: s.TotalSize,
		}
	}
	return result, nil
}
