// Package ignore provides gitignore-style path filtering, used by the
// scanner to exclude paths from synchronization. Matching is performed with
// github.com/bmatcuk/doublestar/v4, the same glob engine the teacher codebase
// uses for its own ignore pattern matching.
package ignore

import (
	"bufio"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// DefaultPatterns is the minimal built-in ignore set applied to every
// project regardless of engine.
var DefaultPatterns = []string{
	".git/",
	".sync/",
	"node_modules/",
	".DS_Store",
	"Thumbs.db",
	"*.tmp",
	"*.log",
	"*.swp",
}

// UnrealEnginePatterns is the overlay applied to projects detected as Unreal
// Engine projects (root directory contains a file ending in ".uproject").
var UnrealEnginePatterns = []string{
	"Binaries/",
	"Intermediate/",
	"DerivedDataCache/",
	"Saved/",
	".vs/",
	"*.sln",
	"*.VC.db",
	"*.opensdf",
	"*.sdf",
}

// pattern represents a single parsed ignore pattern.
type pattern struct {
	negated       bool
	directoryOnly bool
	matchLeaf     bool
	glob          string
}

// cleanPreservingTrailingSlash cleans a path while preserving a meaningful
// trailing slash, which path.Clean would otherwise strip.
func cleanPreservingTrailingSlash(p string) string {
	var trailingSlash bool
	if l := len(p); l > 1 {
		trailingSlash = p[l-1] == '/'
	}
	cleaned := pathpkg.Clean(p)
	if trailingSlash {
		return cleaned + "/"
	}
	return cleaned
}

func newPattern(raw string) (*pattern, error) {
	if raw == "" {
		return nil, errors.New("empty pattern")
	}

	negated := false
	if raw[0] == '!' {
		negated = true
		raw = raw[1:]
	}
	if raw == "" {
		return nil, errors.New("negated empty pattern")
	}

	raw = cleanPreservingTrailingSlash(raw)
	if raw == "/" || raw == "//" {
		return nil, errors.New("pattern targets synchronization root")
	}

	anchored := false
	if raw[0] == '/' {
		anchored = true
		raw = raw[1:]
	}

	directoryOnly := false
	if raw[len(raw)-1] == '/' {
		directoryOnly = true
		raw = raw[:len(raw)-1]
	}

	containsSlash := strings.IndexByte(raw, '/') >= 0

	if _, err := doublestar.Match(raw, "a"); err != nil {
		return nil, errors.Wrap(err, "invalid ignore pattern")
	}

	return &pattern{
		negated:       negated,
		directoryOnly: directoryOnly,
		matchLeaf:     !anchored && !containsSlash,
		glob:          raw,
	}, nil
}

func (p *pattern) matches(path string, directory bool) bool {
	if p.directoryOnly && !directory {
		return false
	}
	if match, _ := doublestar.Match(p.glob, path); match {
		return true
	}
	if p.matchLeaf && path != "" {
		if match, _ := doublestar.Match(p.glob, pathpkg.Base(path)); match {
			return true
		}
	}
	return false
}

// Matcher evaluates whether a path should be excluded from synchronization.
type Matcher struct {
	patterns []*pattern
	negated  uint
}

// New builds a Matcher from an ordered list of gitignore-syntax patterns.
// Later patterns take precedence over earlier ones, matching gitignore
// semantics for negation.
func New(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	if err := m.Add(patterns...); err != nil {
		return nil, err
	}
	return m, nil
}

// Add appends patterns to the matcher, parsed in order.
func (m *Matcher) Add(patterns ...string) error {
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		p, err := newPattern(raw)
		if err != nil {
			return errors.Wrapf(err, "unable to parse pattern %q", raw)
		}
		m.patterns = append(m.patterns, p)
		if p.negated {
			m.negated++
		}
	}
	return nil
}

// Ignores reports whether path (forward-slash separated, relative to the
// project root) should be excluded. directory indicates whether path refers
// to a directory, since some patterns are directory-only.
func (m *Matcher) Ignores(path string, directory bool) bool {
	path = filepathToSlash(path)

	ignored := false
	remainingNegated := m.negated
	for _, p := range m.patterns {
		if ignored && remainingNegated == 0 {
			break
		}
		if p.negated {
			remainingNegated--
			if !ignored {
				continue
			}
		} else if ignored {
			continue
		}

		if !p.matches(path, directory) {
			continue
		}
		ignored = !p.negated
	}
	return ignored
}

// Filter returns the subset of paths that are not ignored. Each path is
// treated as a non-directory entry.
func (m *Matcher) Filter(paths []string) []string {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if !m.Ignores(p, false) {
			result = append(result, p)
		}
	}
	return result
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// IsUnrealEngineProject reports whether root contains a file whose name ends
// with ".uproject", the marker used to detect Unreal Engine project trees.
func IsUnrealEngineProject(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".uproject") {
			return true
		}
	}
	return false
}

// syncignoreFile is the name of the optional project-root file that
// contributes extra ignore patterns after the built-in defaults.
const syncignoreFile = ".syncignore"

// ForProject builds the effective matcher for a project root: default
// patterns, optionally the Unreal Engine overlay, and the contents of a
// .syncignore file if present.
func ForProject(root string) (*Matcher, error) {
	patterns := append([]string{}, DefaultPatterns...)
	if IsUnrealEngineProject(root) {
		patterns = append(patterns, UnrealEnginePatterns...)
	}

	extra, err := readSyncignore(filepath.Join(root, syncignoreFile))
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, extra...)

	return New(patterns)
}

func readSyncignore(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "unable to open .syncignore")
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read .syncignore")
	}
	return lines, nil
}
