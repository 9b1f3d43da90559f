// Package store provides the file-backed tenant state: conversation
// transcripts, the append-only voting-history log, and per-tenant
// personality and override files.
//
// All paths are validated against their base directory. Tenant and
// entity identifiers must be single path elements; ".." escapes and
// absolute paths are rejected.
package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

// safeJoin joins elems under base and verifies the result stays inside
// base. Each element must be a plain name, not a path.
func safeJoin(base string, elems ...string) (string, error) {
	for _, e := range elems {
		if e == "" {
			return "", fmt.Errorf("empty path element")
		}
		if e != filepath.Base(e) || e == ".." || e == "." {
			return "", fmt.Errorf("invalid path element %q", e)
		}
	}

	joined := filepath.Join(append([]string{base}, elems...)...)
	cleanBase := filepath.Clean(base)
	if joined != cleanBase && !strings.HasPrefix(joined, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes base directory", joined)
	}
	return joined, nil
}
