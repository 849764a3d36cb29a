// Package components turns parsed source files into draft architectural
// components according to a resolved configuration.
package components

import (
	"github.com/mvp-joe/archextract/internal/config"
	"github.com/mvp-joe/archextract/internal/syntax"
)

// Location points at the declaration a component was derived from.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// DraftComponent is a component detected in source, before any persistence.
type DraftComponent struct {
	Type     config.ComponentType `json:"type"`
	Name     string               `json:"name"`
	Location Location             `json:"location"`
	Domain   string               `json:"domain"`

	// Metadata holds one value per extract entry of the matching rule.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SourceSet gives access to parsed files by path.
type SourceSet interface {
	File(path string) (*syntax.File, bool)
}

// Files is an in-memory SourceSet keyed by path.
type Files map[string]*syntax.File

// File returns the parsed file stored under path.
func (f Files) File(path string) (*syntax.File, bool) {
	file, ok := f[path]
	return file, ok && file != nil
}
