package engine

import (
	"github.com/bmatcuk/doublestar/v4"
)

// selectiveSyncMatches reports whether path matches at least one of the
// given gitignore-syntax include patterns. An empty pattern list means no
// selective-sync restriction is in effect and every path matches.
func selectiveSyncMatches(patterns []string, path string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if match, err := doublestar.Match(pattern, path); err == nil && match {
			return true
		}
	}
	return false
}
