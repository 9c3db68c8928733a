package filesystem

import (
	"errors"
	"os"
	"path/filepath"
)

// EnsureParentDirectory ensures that the parent directory of path exists,
// creating it (and any missing ancestors) with the specified permissions if
// necessary.
func EnsureParentDirectory(path string, permissions os.FileMode) error {
	return os.MkdirAll(filepath.Dir(path), permissions)
}

// IsCrossDeviceError reports whether err represents a failed rename because
// the source and destination reside on different devices. The object store's
// temp directory and its objects directory must share a device for the
// put-then-rename sequence to be atomic; this is used to surface a clearer
// diagnostic when that assumption is violated.
func IsCrossDeviceError(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return isCrossDeviceErrno(linkErr.Err)
}
