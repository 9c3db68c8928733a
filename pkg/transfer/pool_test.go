package transfer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunAggregatesBytes(t *testing.T) {
	var tasks []Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, func(ctx context.Context) (int64, error) {
			return 100, nil
		})
	}

	var progressCalls int32
	total, err := Run(context.Background(), 4, tasks, func(bytesTransferred int64) {
		atomic.AddInt32(&progressCalls, 1)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if total != 1000 {
		t.Fatalf("total = %d, want 1000", total)
	}
	if progressCalls != 10 {
		t.Fatalf("progress called %d times, want 10", progressCalls)
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	wantErr := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context) (int64, error) { return 1, nil },
		func(ctx context.Context) (int64, error) { return 0, wantErr },
	}

	_, err := Run(context.Background(), 2, tasks, nil)
	if err != wantErr {
		t.Fatalf("Run error = %v, want %v", err, wantErr)
	}
}
