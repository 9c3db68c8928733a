package engine

import "path/filepath"

// localFilePath converts a slash-separated, project-relative path into an
// absolute local filesystem path under root.
func localFilePath(root, relPath string) string {
	return filepath.Join(root, filepath.FromSlash(relPath))
}
