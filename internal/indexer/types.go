package indexer

import (
	"time"

	"github.com/mvp-joe/archextract/internal/components"
)

// Result is the outcome of one extraction run over a project.
type Result struct {
	RunID       string                      `json:"runId"`
	GeneratedAt time.Time                   `json:"generatedAt"`
	RootDir     string                      `json:"-"`
	Files       []string                    `json:"-"`
	Components  []components.DraftComponent `json:"components"`
	Stats       *ProcessingStats            `json:"-"`
}

// ProcessingStats contains statistics about an extraction run.
type ProcessingStats struct {
	FilesDiscovered  int
	FilesParsed      int
	FilesCached      int
	FilesByLanguage  map[string]int
	Components       int
	ComponentsByType map[string]int
	ProcessingTime   time.Duration
}

func newProcessingStats() *ProcessingStats {
	return &ProcessingStats{
		FilesByLanguage:  make(map[string]int),
		ComponentsByType: make(map[string]int),
	}
}
