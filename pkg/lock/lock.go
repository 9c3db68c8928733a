// Package lock implements the coarse, whole-mount exclusion lock that
// serializes mutating engine operations across peers. It layers a JSON
// holder-identity file on top of the OS-level advisory lock provided by
// pkg/filesystem/locking, following the same sentinel-plus-info-file
// discipline the teacher uses for its own session and daemon locks.
package lock

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/filesystem"
	"github.com/ddloads/networksync/pkg/filesystem/locking"
	"github.com/ddloads/networksync/pkg/logging"
	"github.com/ddloads/networksync/pkg/must"
)

// StaleAfter is the age of an info file's locked_at beyond which Acquire
// retries the advisory lock without waiting out the backoff. The advisory
// lock itself is not broken: a lock still held at the OS level is not seized,
// and a crashed holder's lock is reclaimed only once the OS releases it.
const StaleAfter = 5 * time.Minute

const (
	sentinelName = "sync.lock"
	infoName     = "sync.lock.info"
)

// Operation identifies the kind of mutating operation holding the lock.
type Operation string

// Recognized lock operations.
const (
	OperationPush    Operation = "push"
	OperationPull    Operation = "pull"
	OperationRestore Operation = "restore"
	OperationGC      Operation = "gc"
)

// Info is the holder-identity record written alongside the advisory lock.
type Info struct {
	Machine   string    `json:"machine_name"`
	LockedAt  time.Time `json:"locked_at"`
	Operation Operation `json:"operation"`
}

// BusyError is returned when the lock is held by another peer and has not
// gone stale.
type BusyError struct {
	Holder Info
}

func (e *BusyError) Error() string {
	return "lock held by " + e.Holder.Machine + " (" + string(e.Holder.Operation) + ") since " + e.Holder.LockedAt.Format(time.RFC3339)
}

// Handle is a held exclusion lock; callers must call Release when done.
type Handle struct {
	locker   *locking.Locker
	infoPath string
	logger   *logging.Logger
}

// Acquire attempts to take the exclusion lock rooted at mountRoot, making up
// to three attempts with jittered backoff between 1 and 3 seconds before
// giving up. On success, it writes the info file recording the caller's
// identity and returns a release handle.
func Acquire(mountRoot, machine string, operation Operation, logger *logging.Logger) (*Handle, error) {
	sentinelPath := filepath.Join(mountRoot, sentinelName)
	infoPath := filepath.Join(mountRoot, infoName)

	locker, err := locking.NewLocker(sentinelPath, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock sentinel")
	}

	const attempts = 3
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := locker.Lock(false); err == nil {
			if err := writeInfo(infoPath, Info{Machine: machine, LockedAt: time.Now().UTC(), Operation: operation}, logger); err != nil {
				must.Unlock(locker, logger)
				must.Close(locker, logger)
				return nil, errors.Wrap(err, "unable to write lock info")
			}
			return &Handle{locker: locker, infoPath: infoPath, logger: logger}, nil
		} else {
			lastErr = err
		}

		if holder, staleErr := readInfo(infoPath); staleErr == nil {
			if time.Since(holder.LockedAt) > StaleAfter {
				continue
			}
		}

		if attempt < attempts-1 {
			jitter := time.Duration(1000+rand.Intn(2000)) * time.Millisecond
			time.Sleep(jitter)
		}
	}

	must.Close(locker, logger)

	if holder, err := readInfo(infoPath); err == nil {
		return nil, &BusyError{Holder: holder}
	}
	return nil, errors.Wrap(lastErr, "unable to acquire exclusion lock")
}

// Release deletes the info file and releases the advisory lock. Failure to
// remove the info file is logged but not returned, matching the spec's
// "info deletion failures are swallowed" requirement.
func (h *Handle) Release() error {
	must.OSRemove(h.infoPath, h.logger)
	err := h.locker.Unlock()
	must.Close(h.locker, h.logger)
	if err != nil {
		return errors.Wrap(err, "unable to release exclusion lock")
	}
	return nil
}

// ForceRelease removes the sentinel's info file and, best-effort, the
// sentinel itself, unconditionally. It is exposed for administrative
// recovery when a lock is known to be abandoned.
func ForceRelease(mountRoot string, logger *logging.Logger) error {
	infoPath := filepath.Join(mountRoot, infoName)
	sentinelPath := filepath.Join(mountRoot, sentinelName)

	must.OSRemove(infoPath, logger)

	locker, err := locking.NewLocker(sentinelPath, 0644)
	if err != nil {
		return errors.Wrap(err, "unable to open lock sentinel")
	}
	defer must.Close(locker, logger)

	if err := locker.Lock(false); err != nil {
		// The lock is held elsewhere. Removing the sentinel lets the next
		// acquirer create and lock a fresh one (best-effort).
		must.OSRemove(sentinelPath, logger)
		return nil
	}
	return locker.Unlock()
}

// Holder reads the current holder identity from the info file, if any.
func Holder(mountRoot string) (Info, error) {
	return readInfo(filepath.Join(mountRoot, infoName))
}

func writeInfo(path string, info Info, logger *logging.Logger) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode lock info")
	}
	return filesystem.WriteFileAtomic(path, data, 0644, logger)
}

func readInfo(path string) (Info, error) {
	var info Info
	data, err := os.ReadFile(path)
	if err != nil {
		return info, errors.Wrap(err, "unable to read lock info")
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, errors.Wrap(err, "unable to decode lock info")
	}
	return info, nil
}
