package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"support-kb-ingest/internal/domain/model"
	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.ArtifactWriter = (*FileWriter)(nil)

// FileWriter writes a run's failures as pretty-printed JSON into dir.
type FileWriter struct {
	dir string
}

func NewFileWriter(dir string) *FileWriter {
	if dir == "" {
		dir = "."
	}
	return &FileWriter{dir: dir}
}

// FileName is migration_errors_YYYYMMDD_HHMMSS.json for the run's finish time.
func FileName(run *model.BatchRun) string {
	return "migration_errors_" + run.FinishedAt.Format("20060102_150405") + ".json"
}

func (w *FileWriter) WriteFailures(ctx context.Context, run *model.BatchRun) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	failures := run.Failures
	if failures == nil {
		failures = []model.BatchFailure{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(failures); err != nil {
		return "", fmt.Errorf("encode failures: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(w.dir, FileName(run))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
