// Package hash provides the two hash functions used throughout the
// synchronization engine: a fast non-cryptographic content hash used to key
// blobs in the object store, and a cryptographic manifest digest used to
// identify the content of an entire tree.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"
)

// ContentHashSize is the length, in hex characters, of a content hash.
const ContentHashSize = 16

// ManifestDigestSize is the length, in hex characters, of a manifest digest.
const ManifestDigestSize = 64

// ContentHash computes the fast, non-cryptographic content hash of a stream,
// returning it as a lowercase, zero-padded 16-character hex string. Collisions
// are accepted at the scale of a single project tree; the hash is chosen for
// throughput on large binary assets, not collision resistance.
func ContentHash(r io.Reader) (string, error) {
	hasher := NewContentHasher()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", errors.Wrap(err, "unable to stream content through hasher")
	}
	return FormatContentHash(hasher.Sum64()), nil
}

// NewContentHasher returns a fresh streaming hasher producing the same
// algorithm ContentHash uses, for callers that want to compute a content
// hash incrementally alongside another streaming operation (for example
// hashing a file while it's being written, via pkg/stream's hashed writer)
// rather than in a dedicated pass.
func NewContentHasher() *xxh3.Hasher {
	return xxh3.New()
}

// FormatContentHash renders a raw 64-bit sum from NewContentHasher's Sum64
// in the same lowercase, zero-padded 16-character hex form ContentHash
// returns.
func FormatContentHash(sum uint64) string {
	return hex.EncodeToString(encodeUint64(sum))
}

// encodeUint64 renders a uint64 as 8 big-endian bytes suitable for hex
// encoding into a fixed-width 16-character string.
func encodeUint64(v uint64) []byte {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf[:]
}

// DigestEntry is the minimal information about a file entry required to
// compute a manifest digest: its path and its content hash.
type DigestEntry struct {
	Path string
	Hash string
}

// ManifestDigest computes the cryptographic digest of a manifest: the SHA-256
// hash of the sorted concatenation of "path\tcontent-hash\n" records, ordered
// lexicographically by path. The result is deterministic regardless of the
// input order, which is the defining property required of a tree identity.
func ManifestDigest(entries []DigestEntry) string {
	sorted := make([]DigestEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	var builder strings.Builder
	for _, e := range sorted {
		builder.WriteString(e.Path)
		builder.WriteByte('\t')
		builder.WriteString(e.Hash)
		builder.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:])
}
