// Package objects implements the content-addressable blob store that backs
// the synchronization engine, modeled on the teacher's staging store
// (pkg/synchronization/endpoint/local/staging/store). Blobs are sharded by
// the first two hex characters of their content hash and stored gzip-framed,
// with the framing auto-detected on read so the store stays forward
// compatible with blobs written uncompressed.
package objects

import (
	"bufio"
	"compress/gzip"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ddloads/networksync/pkg/filesystem"
	"github.com/ddloads/networksync/pkg/hash"
	"github.com/ddloads/networksync/pkg/logging"
	"github.com/ddloads/networksync/pkg/must"
	"github.com/ddloads/networksync/pkg/random"
	"github.com/ddloads/networksync/pkg/stream"
)

// gzipMagic is the two-byte header that identifies a gzip-framed blob.
var gzipMagic = [2]byte{0x1f, 0x8b}

// ErrCorrupt is returned by Get when a blob's on-disk contents do not hash
// back to the requested key. The corrupt destination file is removed before
// this error is returned.
var ErrCorrupt = errors.New("object store: content does not match requested hash")

// ErrNotFound is returned when a blob does not exist for a given hash.
var ErrNotFound = errors.New("object store: blob not found")

// Store is a content-addressable blob repository rooted at a directory on
// the shared mount.
type Store struct {
	root   string
	logger *logging.Logger
}

// New creates a Store rooted at root, creating the root, objects, and temp
// directories if they do not already exist.
func New(root string, logger *logging.Logger) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, "objects"), filepath.Join(root, "temp")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "unable to create object store directory %q", dir)
		}
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) objectPath(contentHash string) string {
	return filepath.Join(s.root, "objects", contentHash[:2], contentHash)
}

func (s *Store) tempPath(nonce string) string {
	return filepath.Join(s.root, "temp", nonce)
}

// Exists reports whether a blob for the given hash is present in the store.
func (s *Store) Exists(contentHash string) bool {
	_, err := os.Lstat(s.objectPath(contentHash))
	return err == nil
}

// Size returns the on-disk size of a blob, which is the compressed size when
// the blob is gzip-framed. Manifest FileEntry.Size always records the
// logical (uncompressed) size separately; this split is intentional, see
// the engine's design notes.
func (s *Store) Size(contentHash string) (int64, error) {
	info, err := os.Lstat(s.objectPath(contentHash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNotFound
		}
		return 0, errors.Wrap(err, "unable to stat blob")
	}
	return info.Size(), nil
}

// Put streams the file at sourcePath into the store, gzip-framed, keyed by
// its content hash. If a blob with that hash already exists, Put returns its
// hash immediately without further I/O (the existing blob is assumed
// correct; corruption is detected lazily on Get). If audit is non-nil, it is
// invoked with the cumulative count of logical (pre-compression) bytes
// written as the source is streamed, for per-chunk progress on large assets.
func (s *Store) Put(sourcePath string, audit stream.Auditor) (string, error) {
	source, err := os.Open(sourcePath)
	if err != nil {
		return "", errors.Wrap(err, "unable to open source file")
	}
	defer must.Close(source, s.logger)

	contentHash, err := hash.ContentHash(source)
	if err != nil {
		return "", errors.Wrap(err, "unable to hash source file")
	}

	if s.Exists(contentHash) {
		return contentHash, nil
	}

	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "unable to rewind source file")
	}

	nonceBytes, err := random.Bytes(8)
	if err != nil {
		return "", errors.Wrap(err, "unable to generate staging nonce")
	}
	nonce := hex.EncodeToString(nonceBytes)
	tempName := contentHash + "." + nonce + ".tmp"
	tempPath := s.tempPath(tempName)

	if err := s.writeCompressed(tempPath, source, audit); err != nil {
		must.OSRemove(tempPath, s.logger)
		return "", err
	}

	target := s.objectPath(contentHash)
	if err := filesystem.EnsureParentDirectory(target, 0755); err != nil {
		must.OSRemove(tempPath, s.logger)
		return "", errors.Wrap(err, "unable to create prefix directory")
	}
	if err := os.Rename(tempPath, target); err != nil {
		must.OSRemove(tempPath, s.logger)
		if filesystem.IsCrossDeviceError(err) {
			return "", errors.Wrap(err, "unable to relocate blob into place: temp and objects directories are on different devices")
		}
		return "", errors.Wrap(err, "unable to relocate blob into place")
	}

	return contentHash, nil
}

func (s *Store) writeCompressed(tempPath string, source io.Reader, audit stream.Auditor) error {
	temp, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrap(err, "unable to create temporary blob file")
	}

	writer := gzip.NewWriter(temp)
	audited := stream.NewAuditWriter(writer, audit)
	if _, err := io.Copy(audited, source); err != nil {
		must.Close(writer, s.logger)
		must.Close(temp, s.logger)
		return errors.Wrap(err, "unable to compress blob content")
	}
	if err := writer.Close(); err != nil {
		must.Close(temp, s.logger)
		return errors.Wrap(err, "unable to finalize gzip stream")
	}
	if err := temp.Sync(); err != nil {
		must.Close(temp, s.logger)
		return errors.Wrap(err, "unable to sync temporary blob file")
	}
	if err := temp.Close(); err != nil {
		return errors.Wrap(err, "unable to close temporary blob file")
	}
	return nil
}

// Get retrieves the blob for contentHash into destinationPath. The blob's
// framing is auto-detected: if its first two bytes are the gzip magic
// number, it is gunzipped; otherwise it is copied verbatim. The content is
// hashed as it is written; if that hash does not match contentHash, the
// destination is deleted and ErrCorrupt is returned.
func (s *Store) Get(contentHash, destinationPath string) error {
	source, err := os.Open(s.objectPath(contentHash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return errors.Wrap(err, "unable to open blob")
	}
	defer must.Close(source, s.logger)

	reader := bufio.NewReader(source)
	magic, err := reader.Peek(2)
	isGzip := err == nil && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1]

	if err := filesystem.EnsureParentDirectory(destinationPath, 0755); err != nil {
		return errors.Wrap(err, "unable to create destination directory")
	}

	destination, err := os.OpenFile(destinationPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "unable to create destination file")
	}

	var reader2 io.Reader = reader
	var gz *gzip.Reader
	if isGzip {
		gz, err = gzip.NewReader(reader)
		if err != nil {
			must.Close(destination, s.logger)
			must.OSRemove(destinationPath, s.logger)
			return errors.Wrap(err, "unable to open gzip stream")
		}
		reader2 = gz
	}

	// Hash the content as it's written rather than in a separate verification
	// pass, using the same hashed-writer composition the teacher uses to
	// attach a hash function to an in-flight write.
	hasher := hash.NewContentHasher()
	hashedDestination := stream.NewHashedWriter(destination, hasher)

	if _, err := io.Copy(hashedDestination, reader2); err != nil {
		must.Close(destination, s.logger)
		must.OSRemove(destinationPath, s.logger)
		return errors.Wrap(err, "unable to write destination content")
	}
	if gz != nil {
		must.Close(gz, s.logger)
	}
	if err := destination.Close(); err != nil {
		must.OSRemove(destinationPath, s.logger)
		return errors.Wrap(err, "unable to close destination file")
	}

	if actual := hash.FormatContentHash(hasher.Sum64()); actual != contentHash {
		must.OSRemove(destinationPath, s.logger)
		return ErrCorrupt
	}

	return nil
}

// Delete unlinks the blob for contentHash. It reports whether the blob was
// removed; any error (including non-existence) is reported as false.
func (s *Store) Delete(contentHash string) bool {
	return os.Remove(s.objectPath(contentHash)) == nil
}

// PruneResult summarizes a Prune invocation.
type PruneResult struct {
	RemovedCount int
	FreedBytes   int64
}

// Prune removes every blob whose hash is not present in live, then attempts
// to remove any prefix directories left empty. The temp directory is emptied
// separately, since orphaned uploads never appear in the live set.
func (s *Store) Prune(live map[string]bool) (PruneResult, error) {
	var result PruneResult
	objectsRoot := filepath.Join(s.root, "objects")

	prefixes, err := os.ReadDir(objectsRoot)
	if err != nil {
		return result, errors.Wrap(err, "unable to read objects directory")
	}

	for _, prefix := range prefixes {
		if !prefix.IsDir() {
			continue
		}
		prefixPath := filepath.Join(objectsRoot, prefix.Name())
		entries, err := os.ReadDir(prefixPath)
		if err != nil {
			return result, errors.Wrapf(err, "unable to read prefix directory %q", prefix.Name())
		}
		for _, entry := range entries {
			if live[entry.Name()] {
				continue
			}
			info, err := entry.Info()
			if err == nil {
				result.FreedBytes += info.Size()
			}
			if err := os.Remove(filepath.Join(prefixPath, entry.Name())); err == nil {
				result.RemovedCount++
			}
		}
		// Attempt to remove the prefix directory if it's now empty; ignore
		// errors since a concurrent put may have repopulated it.
		_ = os.Remove(prefixPath)
	}

	if err := s.clearTemp(); err != nil {
		return result, err
	}

	return result, nil
}

func (s *Store) clearTemp() error {
	tempRoot := filepath.Join(s.root, "temp")
	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		return errors.Wrap(err, "unable to read temp directory")
	}
	for _, entry := range entries {
		must.OSRemove(filepath.Join(tempRoot, entry.Name()), s.logger)
	}
	return nil
}

