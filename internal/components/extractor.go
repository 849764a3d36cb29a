package components

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/archextract/internal/config"
	"github.com/mvp-joe/archextract/internal/extract"
	"github.com/mvp-joe/archextract/internal/predicate"
	"github.com/mvp-joe/archextract/internal/syntax"
)

// modulePattern is a module with its path glob compiled.
type modulePattern struct {
	module *config.Module
	glob   glob.Glob
	root   glob.Glob // pattern without a leading "**/", for root-level files
}

// Extractor matches files to modules and applies their rules.
type Extractor struct {
	modules []modulePattern
}

// NewExtractor compiles the module path globs of cfg.
func NewExtractor(cfg *config.ResolvedConfig) (*Extractor, error) {
	e := &Extractor{}
	for _, m := range cfg.Modules {
		g, err := glob.Compile(m.Path, '/')
		if err != nil {
			return nil, fmt.Errorf("module '%s': invalid path pattern '%s': %w", m.Name, m.Path, err)
		}
		mp := modulePattern{module: m, glob: g}
		if strings.HasPrefix(m.Path, "**/") {
			if root, err := glob.Compile(strings.TrimPrefix(m.Path, "**/"), '/'); err == nil {
				mp.root = root
			}
		}
		e.modules = append(e.modules, mp)
	}
	return e, nil
}

// MatchModule returns the first module whose path glob matches path, or nil.
// With a non-empty baseDir, path is made relative to it first and paths
// outside baseDir match nothing.
func (e *Extractor) MatchModule(path, baseDir string) *config.Module {
	rel, ok := relativize(path, baseDir)
	if !ok {
		return nil
	}

	for _, mp := range e.modules {
		if mp.glob.Match(rel) {
			return mp.module
		}
		if mp.root != nil && !strings.Contains(rel, "/") && mp.root.Match(rel) {
			return mp.module
		}
	}
	return nil
}

// Extract runs every module rule over the files at paths. Output follows the
// order of paths, then built-in types in fixed order, then custom types by
// name, then declaration order. The first extraction failure aborts the call.
func (e *Extractor) Extract(files SourceSet, paths []string, baseDir string) ([]DraftComponent, error) {
	var out []DraftComponent

	for _, path := range paths {
		file, ok := files.File(path)
		if !ok {
			continue
		}
		module := e.MatchModule(path, baseDir)
		if module == nil {
			continue
		}

		for _, t := range config.BuiltinTypes {
			comps, err := extractRule(file, module, t, module.Rules[t])
			if err != nil {
				return nil, err
			}
			out = append(out, comps...)
		}

		names := make([]string, 0, len(module.CustomTypes))
		for name := range module.CustomTypes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			comps, err := extractRule(file, module, config.ComponentType(name), module.CustomTypes[name])
			if err != nil {
				return nil, err
			}
			out = append(out, comps...)
		}
	}

	if out == nil {
		out = []DraftComponent{}
	}
	return out, nil
}

// ExtractComponents is the one-shot form of NewExtractor followed by Extract.
func ExtractComponents(cfg *config.ResolvedConfig, files SourceSet, paths []string, baseDir string) ([]DraftComponent, error) {
	e, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return e.Extract(files, paths, baseDir)
}

func extractRule(file *syntax.File, module *config.Module, t config.ComponentType, rule *config.Rule) ([]DraftComponent, error) {
	if rule == nil || rule.NotUsed {
		return nil, nil
	}

	var out []DraftComponent
	for _, decl := range file.Declarations(rule.Find) {
		if decl.Name == "" && decl.Kind != syntax.KindMethod {
			continue
		}
		if !predicate.Evaluate(decl, rule.Where) {
			continue
		}

		comp := DraftComponent{
			Type:     t,
			Name:     decl.Name,
			Location: Location{File: decl.File, Line: decl.Line},
			Domain:   module.Name,
		}

		if len(rule.Extract) > 0 {
			metadata, err := evaluateMetadata(rule.Extract, decl)
			if err != nil {
				return nil, fmt.Errorf("%s '%s' in module '%s': %w", t, decl.DisplayName(), module.Name, err)
			}
			comp.Metadata = metadata
		}

		out = append(out, comp)
	}
	return out, nil
}

func evaluateMetadata(rules map[string]extract.Rule, decl *syntax.Declaration) (map[string]any, error) {
	fields := make([]string, 0, len(rules))
	for field := range rules {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	metadata := make(map[string]any, len(rules))
	for _, field := range fields {
		value, err := extract.Evaluate(rules[field], decl)
		if err != nil {
			return nil, fmt.Errorf("extract.%s: %w", field, err)
		}
		metadata[field] = value
	}
	return metadata, nil
}

// relativize normalizes separators and strips baseDir. ok is false when
// path lies outside baseDir.
func relativize(path, baseDir string) (string, bool) {
	path = toSlash(path)
	if baseDir == "" {
		return strings.TrimPrefix(path, "./"), true
	}

	rel, err := filepath.Rel(filepath.FromSlash(toSlash(baseDir)), filepath.FromSlash(path))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

// toSlash converts both separator styles to "/", independent of the host OS.
func toSlash(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "\\", "/")
}
