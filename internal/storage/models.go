package storage

import (
	"time"

	"github.com/mvp-joe/archextract/internal/components"
	"github.com/mvp-joe/archextract/internal/config"
)

// timeLayout is RFC3339 with fixed-width nanoseconds so stored timestamps
// sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Domain models that mirror SQL tables in schema.go.
// These are lightweight data transfer structs, NOT ORM models.

// Run is one extraction pass over a project.
// Maps to the extraction_runs table.
type Run struct {
	ID              string        // run_id: UUID assigned by the indexer
	RootDir         string        // root_dir: absolute project root
	GeneratedAt     time.Time     // generated_at: timeLayout, UTC
	FilesDiscovered int           // files_discovered
	ComponentCount  int           // component_count: denormalized count
	Duration        time.Duration // duration_ms
}

// Component is a stored draft component.
// Maps to the components table.
type Component struct {
	ID       string         // component_id: UUID
	RunID    string         // run_id: FK to extraction_runs
	Position int            // position: order within the run
	Type     string         // type: api, useCase, ... or a custom type
	Name     string         // name
	Domain   string         // domain: owning module name
	FilePath string         // file_path: relative path from project root
	Line     int            // line: 1-based declaration line
	Metadata map[string]any // metadata: JSON object (nullable)
}

// Draft converts the stored row back into the extractor's representation.
func (c *Component) Draft() components.DraftComponent {
	return components.DraftComponent{
		Type:     config.ComponentType(c.Type),
		Name:     c.Name,
		Location: components.Location{File: c.FilePath, Line: c.Line},
		Domain:   c.Domain,
		Metadata: c.Metadata,
	}
}
