package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dominikbraun/graph"
	"go.yaml.in/yaml/v3"
)

// FileConfigLoader loads base module documents from YAML or JSON files.
// A module document has the same keys as a module entry; name and path are
// optional. Documents may extend other documents, resolved relative to the
// extending file.
type FileConfigLoader struct {
	baseDir string

	mu      sync.Mutex
	deps    graph.Graph[string, string] // extending file -> extended file
	modules map[string]*Module
}

// NewFileConfigLoader creates a loader resolving top-level extends sources
// against baseDir, normally the directory of the config file.
func NewFileConfigLoader(baseDir string) *FileConfigLoader {
	return &FileConfigLoader{
		baseDir: baseDir,
		deps:    graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
		modules: make(map[string]*Module),
	}
}

// Load returns the module defined by source. It has the ConfigLoader
// signature, so l.Load can be passed to Resolve.
func (l *FileConfigLoader) Load(source string) (*Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load(resolveSource(l.baseDir, source))
}

func (l *FileConfigLoader) load(path string) (*Module, error) {
	if m, ok := l.modules[path]; ok {
		return m, nil
	}

	if err := l.addVertex(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module document: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse module document %s: %w", path, err)
	}

	var mc ModuleConfig
	if err := decode(raw, &mc); err != nil {
		return nil, fmt.Errorf("failed to decode module document %s: %w", path, err)
	}
	if err := validateModuleRules(path, &mc); err != nil {
		return nil, fmt.Errorf("invalid module document: %w", err)
	}

	m, err := compileModule(&mc)
	if err != nil {
		return nil, err
	}

	if mc.Extends != "" {
		basePath := resolveSource(filepath.Dir(path), mc.Extends)
		if err := l.addVertex(basePath); err != nil {
			return nil, err
		}
		if err := l.deps.AddEdge(path, basePath); err != nil {
			switch {
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, fmt.Errorf("%w: %s extends %s", ErrExtendsCycle, path, basePath)
			case !errors.Is(err, graph.ErrEdgeAlreadyExists):
				return nil, fmt.Errorf("failed to record extends edge: %w", err)
			}
		}

		base, err := l.load(basePath)
		if err != nil {
			return nil, err
		}
		m = merge(m, base)
	}

	l.modules[path] = m
	return m, nil
}

func (l *FileConfigLoader) addVertex(path string) error {
	if err := l.deps.AddVertex(path); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to record module document %s: %w", path, err)
	}
	return nil
}

func resolveSource(dir, source string) string {
	if filepath.IsAbs(source) {
		return filepath.Clean(source)
	}
	return filepath.Join(dir, source)
}
