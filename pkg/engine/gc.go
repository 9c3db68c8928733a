package engine

import (
	"context"

	"github.com/ddloads/networksync/pkg/lock"
)

// GCResult reports the outcome of a garbage collection pass.
type GCResult struct {
	BlobsRemoved int
	BytesFreed   int64
}

// GC removes any blob in the object store that is not referenced by any
// file entry currently in the catalog, then clears the store's temp
// directory of orphaned in-flight uploads.
func (e *Engine) GC(ctx context.Context) (GCResult, error) {
	handle, err := e.acquireLock(ctx, lock.OperationGC)
	if err != nil {
		return GCResult{}, err
	}
	defer handle.Release()

	live := e.catalog.LiveHashes()
	result, err := e.store.Prune(live)
	if err != nil {
		return GCResult{}, newError(KindIOFailure, err)
	}

	return GCResult{BlobsRemoved: result.RemovedCount, BytesFreed: result.FreedBytes}, nil
}
