package transfer

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the default bound on concurrent blob transfers.
const DefaultConcurrency = 20

// ProgressFunc reports aggregate bytes transferred so far. Per-file
// granular progress inside parallel workers is suppressed by design; only
// completion of a file updates the total.
type ProgressFunc func(bytesTransferred int64)

// Task is one unit of transfer work: move the blob for one file entry, in
// either direction, reporting the number of bytes it accounted for.
type Task func(ctx context.Context) (bytes int64, err error)

// Run executes tasks with a bounded concurrency (DefaultConcurrency if
// concurrency <= 0) using errgroup.SetLimit, the same fan-out primitive used
// by the scanner. The first task failure aborts further task spawning and is
// returned to the caller; tasks already in flight are allowed to complete.
func Run(ctx context.Context, concurrency int, tasks []Task, progress ProgressFunc) (int64, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	var totalBytes int64

	for _, task := range tasks {
		task := task
		group.Go(func() error {
			bytes, err := task(groupCtx)
			if err != nil {
				return err
			}
			current := atomic.AddInt64(&totalBytes, bytes)
			if progress != nil {
				invokeProgress(progress, current)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return atomic.LoadInt64(&totalBytes), err
	}
	return atomic.LoadInt64(&totalBytes), nil
}

// invokeProgress calls fn, recovering from and swallowing any panic, since
// progress callbacks are advisory and must never abort a transfer.
func invokeProgress(fn ProgressFunc, bytes int64) {
	defer func() { _ = recover() }()
	fn(bytes)
}
