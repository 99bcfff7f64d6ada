// Package reportfile persists rendered Markdown reports to disk.
package reportfile

import (
	"fmt"
	"os"
	"path/filepath"

	"chaingraph/internal/logger"
)

// Writer writes one report per file under a target directory.
type Writer struct {
	dir string
}

// NewWriter prepares the output directory.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	logger.Infof("Report writer initialized: %s", dir)
	return &Writer{dir: dir}, nil
}

// WriteReport writes the report under a name derived from the trace
// id, replacing any previous run's output.
func (w *Writer) WriteReport(traceID, report string) (string, error) {
	name := traceID
	if name == "" {
		name = "incident"
	}
	path := filepath.Join(w.dir, name+".md")
	if err := os.WriteFile(path, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
