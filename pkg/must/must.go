// Package must provides helpers for invoking operations whose errors can only
// be logged, not propagated, because they occur during best-effort cleanup
// paths (closing a file after a previous error, removing a temporary file,
// releasing a lock that's being abandoned anyway).
package must

import (
	"io"
	"os"

	"github.com/ddloads/networksync/pkg/logging"
)

// Close closes c, logging any error as a warning.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("Unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging any error as a warning.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}

// Unlock releases locker, logging any error as a warning.
func Unlock(locker interface{ Unlock() error }, logger *logging.Logger) {
	if err := locker.Unlock(); err != nil {
		logger.Warnf("Unable to unlock locker: %s", err.Error())
	}
}

// Succeed logs err as a warning against the named task if it's non-nil.
func Succeed(err error, task string, logger *logging.Logger) {
	if err != nil {
		logger.Warnf("Unable to succeed at %s: %s", task, err.Error())
	}
}
