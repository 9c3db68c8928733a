package lock

import (
	"testing"
	"time"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	root := t.TempDir()

	handle, err := Acquire(root, "machine-a", OperationPush, nil)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}

	holder, err := Holder(root)
	if err != nil {
		t.Fatalf("Holder returned error: %v", err)
	}
	if holder.Machine != "machine-a" || holder.Operation != OperationPush {
		t.Fatalf("unexpected holder info: %+v", holder)
	}

	if err := handle.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}

	if _, err := Holder(root); err == nil {
		t.Fatal("expected Holder to fail after Release removed info file")
	}
}

func TestAcquireBusy(t *testing.T) {
	root := t.TempDir()

	handle, err := Acquire(root, "machine-a", OperationPush, nil)
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	defer handle.Release()

	_, err = Acquire(root, "machine-b", OperationPull, nil)
	if err == nil {
		t.Fatal("expected second Acquire to fail while lock is held")
	}
	busy, ok := err.(*BusyError)
	if !ok {
		t.Fatalf("expected *BusyError, got %T: %v", err, err)
	}
	if busy.Holder.Machine != "machine-a" {
		t.Fatalf("BusyError holder = %q, want %q", busy.Holder.Machine, "machine-a")
	}
}

func TestForceRelease(t *testing.T) {
	root := t.TempDir()

	handle, err := Acquire(root, "machine-a", OperationGC, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = handle // simulate a crash: never call Release.

	if err := ForceRelease(root, nil); err != nil {
		t.Fatalf("ForceRelease returned error: %v", err)
	}

	newHandle, err := Acquire(root, "machine-b", OperationPush, nil)
	if err != nil {
		t.Fatalf("Acquire after ForceRelease returned error: %v", err)
	}
	newHandle.Release()
}

func TestStaleAfterConstant(t *testing.T) {
	if StaleAfter != 5*time.Minute {
		t.Fatalf("StaleAfter = %v, want 5m", StaleAfter)
	}
}
