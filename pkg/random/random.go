// Package random provides a small helper for generating unpredictable byte
// sequences, used to mint per-attempt identifiers such as the object store's
// staging filenames.
package random

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// Bytes returns a byte slice of the specified length with cryptographically
// random contents.
func Bytes(length int) ([]byte, error) {
	result := make([]byte, length)
	if _, err := rand.Read(result); err != nil {
		return nil, errors.Wrap(err, "unable to read random data")
	}
	return result, nil
}
