package hash

import (
	"strings"
	"testing"
)

func TestContentHashEmpty(t *testing.T) {
	h, err := ContentHash(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ContentHash returned error: %v", err)
	}
	if len(h) != ContentHashSize {
		t.Fatalf("content hash length = %d, want %d", len(h), ContentHashSize)
	}
	// Empty input must hash to the same value on every call.
	h2, err := ContentHash(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ContentHash returned error: %v", err)
	}
	if h != h2 {
		t.Fatalf("empty content hash is not stable: %q != %q", h, h2)
	}
}

func TestContentHashDeterministic(t *testing.T) {
	a, err := ContentHash(strings.NewReader("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ContentHash(strings.NewReader("hello world"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("identical content hashed differently: %q != %q", a, b)
	}

	c, err := ContentHash(strings.NewReader("hello worlds"))
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatalf("different content hashed identically: %q", a)
	}
}

func TestManifestDigestOrderIndependent(t *testing.T) {
	entries := []DigestEntry{
		{Path: "b.txt", Hash: "2222222222222222"},
		{Path: "a.txt", Hash: "1111111111111111"},
		{Path: "c/d.txt", Hash: "3333333333333333"},
	}
	reversed := []DigestEntry{entries[2], entries[1], entries[0]}

	d1 := ManifestDigest(entries)
	d2 := ManifestDigest(reversed)
	if d1 != d2 {
		t.Fatalf("manifest digest depends on input order: %q != %q", d1, d2)
	}
	if len(d1) != ManifestDigestSize {
		t.Fatalf("manifest digest length = %d, want %d", len(d1), ManifestDigestSize)
	}
}

func TestManifestDigestSensitiveToContent(t *testing.T) {
	a := ManifestDigest([]DigestEntry{{Path: "a.txt", Hash: "1111111111111111"}})
	b := ManifestDigest([]DigestEntry{{Path: "a.txt", Hash: "2222222222222222"}})
	if a == b {
		t.Fatal("manifest digest did not change with differing content hash")
	}
}

func TestManifestDigestEmpty(t *testing.T) {
	d := ManifestDigest(nil)
	if len(d) != ManifestDigestSize {
		t.Fatalf("empty manifest digest length = %d, want %d", len(d), ManifestDigestSize)
	}
}
