// Package scan walks a local project tree, applies ignore filtering, and
// produces manifest candidates by hashing each non-ignored file, accelerated
// by a persistent mtime/size cache. Hashing fans out with bounded
// concurrency using golang.org/x/sync/errgroup, the same pattern used
// elsewhere in the pack for bounded parallel work.
package scan

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ddloads/networksync/pkg/filesystem"
	"github.com/ddloads/networksync/pkg/hash"
	"github.com/ddloads/networksync/pkg/ignore"
	"github.com/ddloads/networksync/pkg/logging"
	"github.com/ddloads/networksync/pkg/model"
	"github.com/ddloads/networksync/pkg/must"
)

// DefaultConcurrency is the default bound on concurrent file hashing.
const DefaultConcurrency = 10

// cacheDir and cacheFile locate the scanner's hash cache within a project.
const (
	cacheDir  = ".sync"
	cacheFile = "cache.json"
)

// cacheEntry is one row of the on-disk hash cache.
type cacheEntry struct {
	ModTime int64  `json:"mtime"`
	Size    int64  `json:"size"`
	Hash    string `json:"hash"`
}

// ProgressFunc reports scan progress: the cumulative number of files
// processed and the path most recently completed. Implementations must not
// panic; callback failures are swallowed by the scanner.
type ProgressFunc func(filesScanned int, currentPath string)

// Entry is a candidate FileEntry produced by a scan, prior to being attached
// to a snapshot.
type Entry struct {
	Path       string
	Hash       string
	Size       int64
	ModifiedAt time.Time
}

// Result is the output of a single scan.
type Result struct {
	Entries    []Entry
	TotalSize  int64
	FileCount  int
	DirCount   int
	ScannedAt  time.Time
}

// Options configures a scan.
type Options struct {
	// Concurrency bounds the number of files hashed in parallel. Zero
	// selects DefaultConcurrency.
	Concurrency int
	// Progress, if non-nil, is invoked after each file is processed.
	Progress ProgressFunc
	// Logger receives diagnostic output; nil is treated as a no-op logger.
	Logger *logging.Logger
}

// Scan walks root, applying ignore filtering from matcher, and returns a
// manifest candidate for every non-ignored regular file. Directories
// themselves matched by matcher are not recursed into.
func Scan(ctx context.Context, root string, matcher *ignore.Matcher, opts Options) (*Result, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	cache := loadCache(root, opts.Logger)
	observed := make(map[string]bool)

	type candidate struct {
		relPath string
		size    int64
		modTime time.Time
	}
	var candidates []candidate
	var dirCount int

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Wrap(err, "unable to compute relative path")
		}
		relSlash := filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.Ignores(relSlash, true) {
				return filepath.SkipDir
			}
			dirCount++
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher.Ignores(relSlash, false) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.Wrapf(err, "unable to stat %q", relSlash)
		}

		candidates = append(candidates, candidate{relPath: relSlash, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(walkErr, "unable to walk project tree")
	}

	entries := make([]Entry, len(candidates))
	var totalSize int64
	var mu sync.Mutex
	var processed int

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	for i, c := range candidates {
		i, c := i, c
		observed[c.relPath] = true
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			var fileHash string
			if cached, ok := cache[c.relPath]; ok && cached.ModTime == c.modTime.UnixNano() && cached.Size == c.size {
				fileHash = cached.Hash
			} else {
				computed, err := hashFile(filepath.Join(root, filepath.FromSlash(c.relPath)), opts.Logger)
				if err != nil {
					return errors.Wrapf(err, "unable to hash %q", c.relPath)
				}
				fileHash = computed
			}

			entries[i] = Entry{Path: c.relPath, Hash: fileHash, Size: c.size, ModifiedAt: c.modTime}

			mu.Lock()
			totalSize += c.size
			processed++
			count := processed
			mu.Unlock()

			invokeProgress(opts.Progress, count, c.relPath)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	newCache := make(map[string]cacheEntry, len(entries))
	for _, e := range entries {
		newCache[e.Path] = cacheEntry{ModTime: e.ModifiedAt.UnixNano(), Size: e.Size, Hash: e.Hash}
	}
	saveCache(root, newCache, opts.Logger)

	return &Result{
		Entries:   entries,
		TotalSize: totalSize,
		FileCount: len(entries),
		DirCount:  dirCount,
		ScannedAt: time.Now().UTC(),
	}, nil
}

// invokeProgress calls fn, recovering from and swallowing any panic, since
// progress callbacks are advisory and must never abort a scan.
func invokeProgress(fn ProgressFunc, count int, path string) {
	if fn == nil {
		return
	}
	defer func() { _ = recover() }()
	fn(count, path)
}

func hashFile(path string, logger *logging.Logger) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer must.Close(file, logger)
	return hash.ContentHash(file)
}

func loadCache(root string, logger *logging.Logger) map[string]cacheEntry {
	path := filepath.Join(root, cacheDir, cacheFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cache map[string]cacheEntry
	if err := json.Unmarshal(data, &cache); err != nil {
		logWarn(logger, "unable to parse scan cache, proceeding without acceleration: %v", err)
		return nil
	}
	return cache
}

// saveCache replaces the cache file with only the entries observed during
// this scan, implicitly pruning stale rows. Errors are non-fatal; the scan
// already produced a valid result.
func saveCache(root string, cache map[string]cacheEntry, logger *logging.Logger) {
	dir := filepath.Join(root, cacheDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logWarn(logger, "unable to create scan cache directory: %v", err)
		return
	}
	data, err := json.Marshal(cache)
	if err != nil {
		logWarn(logger, "unable to encode scan cache: %v", err)
		return
	}
	path := filepath.Join(dir, cacheFile)
	if err := filesystem.WriteFileAtomic(path, data, 0644, logger); err != nil {
		logWarn(logger, "unable to write scan cache: %v", err)
	}
}

func logWarn(logger *logging.Logger, format string, args ...any) {
	if logger == nil {
		return
	}
	logger.Warnf(format, args...)
}

// ToDigestEntries converts scan entries into hash.DigestEntry values for
// manifest digest computation.
func ToDigestEntries(entries []Entry) []hash.DigestEntry {
	result := make([]hash.DigestEntry, len(entries))
	for i, e := range entries {
		result[i] = hash.DigestEntry{Path: e.Path, Hash: e.Hash}
	}
	return result
}

// ToFileEntries attaches scan entries to a snapshot id, producing the
// model.FileEntry rows that a push would write.
func ToFileEntries(snapshotID string, entries []Entry) []model.FileEntry {
	result := make([]model.FileEntry, len(entries))
	for i, e := range entries {
		result[i] = model.FileEntry{
			SnapshotID: snapshotID,
			Path:       e.Path,
			Hash:       e.Hash,
			Size:       e.Size,
			ModifiedAt: e.ModifiedAt,
		}
	}
	return result
}
