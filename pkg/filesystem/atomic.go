// Package filesystem provides the atomic-write primitives the engine relies
// on to make durable changes on a shared network mount that offers no
// transactional guarantees beyond a single rename.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ddloads/networksync/pkg/logging"
	"github.com/ddloads/networksync/pkg/must"
)

const (
	// TemporaryNamePrefix is the file name prefix used for all temporary files
	// created during atomic writes, so that any left behind by an interrupted
	// operation are recognizable. The scanner and the ignore matcher do not
	// filter on it.
	TemporaryNamePrefix = ".networksync-temporary-"

	// atomicWriteTemporaryNamePrefix is the file name prefix used for
	// intermediate temporary files used in atomic writes.
	atomicWriteTemporaryNamePrefix = TemporaryNamePrefix + "atomic-write"
)

// WriteFileAtomic writes data to disk in an atomic fashion by using an
// intermediate temporary file in the same directory that is swapped into
// place using a rename operation. The caller's filesystem must guarantee that
// rename is atomic (this holds for local filesystems and is the documented
// behavior of SMB/CIFS and NFSv3+, which is what the engine requires of its
// shared mount).
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), atomicWriteTemporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}

	if _, err = temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to write data to temporary file: %w", err)
	}

	if err = temporary.Sync(); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to sync temporary file: %w", err)
	}

	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to change file permissions: %w", err)
	}

	if err = os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to rename file into place: %w", err)
	}

	return nil
}
