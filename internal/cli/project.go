package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/archextract/internal/config"
)

// project is a configuration loaded for a project directory and resolved.
type project struct {
	rootDir    string
	configPath string
	config     *config.Config
	resolved   *config.ResolvedConfig
}

// loadProject loads the configuration for rootDir. An empty configFile
// selects the default config file in rootDir.
func loadProject(rootDir, configFile string) (*project, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	if configFile == "" {
		configFile, err = config.FindConfigFile(absRoot)
		if err != nil {
			return nil, err
		}
	}
	if configFile, err = filepath.Abs(configFile); err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	cfg, err := config.LoadConfigFromFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	resolved, err := config.Resolve(cfg, config.NewFileConfigLoader(cfg.Dir).Load)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration: %w", err)
	}

	return &project{
		rootDir:    absRoot,
		configPath: configFile,
		config:     cfg,
		resolved:   resolved,
	}, nil
}

// relPath returns path relative to the project root, slash-separated, or ""
// when path lies outside the root.
func (p *project) relPath(path string) string {
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.rootDir, path)
	}
	rel, err := filepath.Rel(p.rootDir, path)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return ""
	}
	return rel
}
