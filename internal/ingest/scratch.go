package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"thirdcoast.systems/vodload/pkg/utils/filename"
)

// scratchDir is an item's private transcoder output directory.
type scratchDir struct {
	path     string
	log      *slog.Logger
	released bool
}

// scratchPath is <root>/<id>, with the id made safe as a path component.
func scratchPath(root, id string) string {
	return filepath.Join(root, filename.SanitizeUnique(id, 0))
}

// acquireScratch creates a fresh directory for id. Leftovers from an
// interrupted run are removed first.
func acquireScratch(root, id string, log *slog.Logger) (*scratchDir, error) {
	dir := scratchPath(root, id)

	if _, err := os.Stat(dir); err == nil {
		log.Warn("removing stale scratch directory", "path", dir)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("remove stale scratch dir %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	return &scratchDir{path: dir, log: log}, nil
}

// release removes the directory once; later calls do nothing. Failures
// are logged only.
func (s *scratchDir) release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	if err := os.RemoveAll(s.path); err != nil {
		s.log.Warn("failed to remove scratch directory", "path", s.path, "error", err)
		return
	}
	s.log.Debug("scratch directory removed", "path", s.path)
}
