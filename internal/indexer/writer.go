package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriter writes the components document using the temp → rename pattern.
type AtomicWriter struct {
	path string
}

// NewAtomicWriter creates a writer for the document at path, creating its
// directory when missing.
func NewAtomicWriter(path string) (*AtomicWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &AtomicWriter{path: path}, nil
}

// Path returns the destination of the document.
func (w *AtomicWriter) Path() string {
	return w.path
}

// WriteResult writes result as indented JSON.
func (w *AtomicWriter) WriteResult(result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal components: %w", err)
	}
	data = append(data, '\n')

	// Temp file in the destination directory so rename stays on one filesystem
	tmp, err := os.CreateTemp(filepath.Dir(w.path), "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, w.path); err != nil {
		// Clean up temp file on error
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ReadResult reads a previously written document.
func (w *AtomicWriter) ReadResult() (*Result, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read components: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal components: %w", err)
	}
	return &result, nil
}
