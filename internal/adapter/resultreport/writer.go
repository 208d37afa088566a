package resultreport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists the raw per-iteration values of a run as a flat JSON
// list, the format the downstream comparison tooling consumes.
type Writer struct {
	Path string
}

func New(path string) *Writer {
	return &Writer{Path: path}
}

// Save writes the values and returns the path written.
func (w *Writer) Save(values []float64) (string, error) {
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create result directory: %w", err)
		}
	}

	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}

	if err := os.WriteFile(w.Path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return w.Path, nil
}
