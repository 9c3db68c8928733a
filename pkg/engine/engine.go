// Package engine implements the top-level synchronization facade: push,
// pull, restore, status, and gc, plus the project and advisory-lock
// administrative operations. It owns the catalog image, the object store
// root, and the logger for one bound shared mount, following the teacher's
// pattern of an explicitly opened and closed value rather than package-level
// globals.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/catalog"
	"github.com/ddloads/networksync/pkg/lock"
	"github.com/ddloads/networksync/pkg/logging"
	"github.com/ddloads/networksync/pkg/objects"
)

const catalogFileName = "sync.db"

// Engine is a bound synchronization endpoint over a single shared mount. It
// must be created with Open and released with Close.
type Engine struct {
	mountRoot string
	machine   string
	catalog   *catalog.Catalog
	store     *objects.Store
	logger    *logging.Logger
}

// Open binds the engine to mountRoot, loading the catalog and preparing the
// object store. mountRoot must already exist; the engine does not create
// the shared mount itself, only the directories within it.
func Open(mountRoot, machine string, logger *logging.Logger) (*Engine, error) {
	if mountRoot == "" {
		return nil, newError(KindNotConfigured, errors.New("shared mount path is empty"))
	}
	if info, err := os.Stat(mountRoot); err != nil || !info.IsDir() {
		return nil, newError(KindNotConfigured, errors.Errorf("shared mount %q is not accessible", mountRoot))
	}

	cat, err := catalog.Load(filepath.Join(mountRoot, catalogFileName), logger)
	if err != nil {
		return nil, newError(KindIOFailure, err)
	}

	store, err := objects.New(mountRoot, logger)
	if err != nil {
		return nil, newError(KindIOFailure, err)
	}

	return &Engine{
		mountRoot: mountRoot,
		machine:   machine,
		catalog:   cat,
		store:     store,
		logger:    logger,
	}, nil
}

// Close releases any resources held by the engine. It currently holds no
// long-lived handles beyond in-memory state, but is provided so callers
// have a single, explicit lifecycle boundary to rely on.
func (e *Engine) Close() error {
	return nil
}

func (e *Engine) acquireLock(ctx context.Context, operation lock.Operation) (*lock.Handle, error) {
	handle, err := lock.Acquire(e.mountRoot, e.machine, operation, e.logger)
	if err != nil {
		var busy *lock.BusyError
		if errors.As(err, &busy) {
			return nil, newError(KindLockBusy, err)
		}
		return nil, newError(KindIOFailure, err)
	}
	return handle, nil
}

// CreateProject registers a new project in the catalog.
func (e *Engine) CreateProject(ctx context.Context, name string) (ProjectSummary, error) {
	handle, err := e.acquireLock(ctx, lock.OperationPush)
	if err != nil {
		return ProjectSummary{}, err
	}
	defer handle.Release()

	project, err := e.catalog.CreateProject(name)
	if err != nil {
		return ProjectSummary{}, newError(KindIOFailure, err)
	}
	return ProjectSummary{ID: project.ID, Name: project.Name, CreatedAt: project.CreatedAt, LastSyncAt: project.LastSyncAt}, nil
}

// ListProjects returns all registered projects.
func (e *Engine) ListProjects() []ProjectSummary {
	projects := e.catalog.ListProjects()
	result := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		result[i] = ProjectSummary{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt, LastSyncAt: p.LastSyncAt}
	}
	return result
}

// ProjectSummary is the read-only view of a project returned by ListProjects.
type ProjectSummary struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	LastSyncAt time.Time
}

// DeleteProject removes a project and its history.
func (e *Engine) DeleteProject(ctx context.Context, id string) error {
	handle, err := e.acquireLock(ctx, lock.OperationPush)
	if err != nil {
		return err
	}
	defer handle.Release()

	if err := e.catalog.DeleteProject(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return newError(KindNotFound, err)
		}
		return newError(KindIOFailure, err)
	}
	return nil
}

// AcquireFileLock takes an advisory lock on a path for this engine's machine.
func (e *Engine) AcquireFileLock(ctx context.Context, projectID, path string) (bool, error) {
	handle, err := e.acquireLock(ctx, lock.OperationPush)
	if err != nil {
		return false, err
	}
	defer handle.Release()

	ok, err := e.catalog.AcquireFileLock(projectID, path, e.machine)
	if err != nil {
		return false, newError(KindIOFailure, err)
	}
	return ok, nil
}

// ReleaseFileLock releases an advisory lock held by this engine's machine.
func (e *Engine) ReleaseFileLock(ctx context.Context, projectID, path string) (bool, error) {
	handle, err := e.acquireLock(ctx, lock.OperationPush)
	if err != nil {
		return false, err
	}
	defer handle.Release()

	ok, err := e.catalog.ReleaseFileLock(projectID, path, e.machine)
	if err != nil {
		return false, newError(KindIOFailure, err)
	}
	return ok, nil
}

// ListFileLocks returns the advisory locks held on a project.
func (e *Engine) ListFileLocks(projectID string) []FileLockSummary {
	locks := e.catalog.ListFileLocks(projectID)
	result := make([]FileLockSummary, len(locks))
	for i, l := range locks {
		result[i] = FileLockSummary{Path: l.Path, MachineName: l.MachineName, LockedAt: l.LockedAt}
	}
	return result
}

// FileLockSummary is the read-only view of an advisory lock.
type FileLockSummary struct {
	Path        string
	MachineName string
	LockedAt    time.Time
}
