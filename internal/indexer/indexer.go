// Package indexer runs extraction over a project directory: it discovers
// source files, parses them concurrently, and applies the configured module
// rules to produce draft components.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/archextract/internal/components"
	"github.com/mvp-joe/archextract/internal/config"
	"github.com/mvp-joe/archextract/internal/indexer/parsers"
	"github.com/mvp-joe/archextract/internal/syntax"
)

// Indexer provides the main interface for extracting components.
type Indexer interface {
	// Index discovers, parses and extracts the whole project.
	Index(ctx context.Context) (*Result, error)

	// Includes reports whether a path relative to the root is a source file
	// taking part in extraction.
	Includes(relPath string) bool

	// SkipsDir reports whether a directory relative to the root is ignored
	// as a whole.
	SkipsDir(relPath string) bool

	// Invalidate drops cached parses of the given paths so the next Index
	// re-reads them regardless of modification time.
	Invalidate(paths ...string)

	// Close releases all resources held by the indexer.
	Close() error
}

// Parser extracts declarations from source files.
type Parser interface {
	// ParseFile parses the file at relPath under rootDir. Files in an
	// unsupported language yield nil without error.
	ParseFile(ctx context.Context, rootDir, relPath string) (*syntax.File, error)

	// SupportsLanguage checks if this parser supports the given language.
	SupportsLanguage(language string) bool
}

// Config contains configuration for the indexer.
type Config struct {
	// Root directory of the codebase to extract from
	RootDir string

	// Resolved module configuration
	Resolved *config.ResolvedConfig

	// Optional; defaults to NewParser()
	Parser Parser

	// Optional; defaults to NoOpProgressReporter
	Progress ProgressReporter

	// Maximum concurrent parses; defaults to GOMAXPROCS
	Concurrency int

	// Parsed files kept between runs; defaults to DefaultCacheSize
	CacheSize int
}

type indexer struct {
	rootDir     string
	discovery   *FileDiscovery
	extractor   *components.Extractor
	parser      Parser
	progress    ProgressReporter
	cache       *parseCache
	concurrency int
}

// New creates an indexer for cfg.
func New(cfg Config) (Indexer, error) {
	if cfg.Resolved == nil {
		return nil, errors.New("resolved configuration is required")
	}

	rootDir, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", rootDir)
	}

	discovery, err := NewFileDiscovery(rootDir, cfg.Resolved.Include, cfg.Resolved.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to compile discovery patterns: %w", err)
	}
	extractor, err := components.NewExtractor(cfg.Resolved)
	if err != nil {
		return nil, err
	}
	cache, err := newParseCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	idx := &indexer{
		rootDir:     rootDir,
		discovery:   discovery,
		extractor:   extractor,
		parser:      cfg.Parser,
		progress:    cfg.Progress,
		cache:       cache,
		concurrency: cfg.Concurrency,
	}
	if idx.parser == nil {
		idx.parser = NewParser()
	}
	if idx.progress == nil {
		idx.progress = &NoOpProgressReporter{}
	}
	if idx.concurrency <= 0 {
		idx.concurrency = runtime.GOMAXPROCS(0)
	}
	return idx, nil
}

// Index runs discovery, parsing and extraction once.
func (idx *indexer) Index(ctx context.Context) (*Result, error) {
	start := time.Now()
	stats := newProcessingStats()

	idx.progress.OnDiscoveryStart()
	paths, err := idx.discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.FilesDiscovered = len(paths)
	idx.progress.OnDiscoveryComplete(len(paths))

	idx.progress.OnFileProcessingStart(len(paths))
	files, err := idx.parseAll(ctx, paths, stats)
	if err != nil {
		return nil, err
	}

	idx.progress.OnExtractionStart()
	all := make([]*syntax.File, 0, len(files))
	for _, path := range paths {
		if f, ok := files[path]; ok {
			all = append(all, f)
		}
	}
	parsers.LinkBases(all)

	comps, err := idx.extractor.Extract(files, paths, "")
	if err != nil {
		return nil, err
	}

	stats.Components = len(comps)
	for _, c := range comps {
		stats.ComponentsByType[string(c.Type)]++
	}
	stats.ProcessingTime = time.Since(start)
	idx.progress.OnComplete(stats)

	return &Result{
		RunID:       uuid.New().String(),
		GeneratedAt: start.UTC(),
		RootDir:     idx.rootDir,
		Files:       paths,
		Components:  comps,
		Stats:       stats,
	}, nil
}

// parseAll parses paths concurrently, reusing cached files whose
// modification time and size are unchanged.
func (idx *indexer) parseAll(ctx context.Context, paths []string, stats *ProcessingStats) (components.Files, error) {
	parsed := make([]*syntax.File, len(paths))
	cached := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			file, hit, err := idx.parseFile(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			parsed[i], cached[i] = file, hit
			idx.progress.OnFileProcessed(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := make(components.Files, len(paths))
	for i, path := range paths {
		if parsed[i] == nil {
			continue
		}
		files[path] = parsed[i]
		stats.FilesByLanguage[detectLanguage(path)]++
		if cached[i] {
			stats.FilesCached++
		} else {
			stats.FilesParsed++
		}
	}
	return files, nil
}

func (idx *indexer) parseFile(ctx context.Context, relPath string) (*syntax.File, bool, error) {
	info, err := os.Stat(filepath.Join(idx.rootDir, filepath.FromSlash(relPath)))
	if err != nil {
		idx.cache.invalidate(relPath)
		return nil, false, err
	}
	if file, ok := idx.cache.get(relPath, info); ok {
		return file, true, nil
	}

	file, err := idx.parser.ParseFile(ctx, idx.rootDir, relPath)
	if err != nil || file == nil {
		return nil, false, err
	}
	idx.cache.put(relPath, info, file)
	return file, false, nil
}

// Includes reports whether relPath is a source file taking part in extraction.
func (idx *indexer) Includes(relPath string) bool {
	return idx.discovery.Includes(relPath)
}

// SkipsDir reports whether the directory relPath is ignored.
func (idx *indexer) SkipsDir(relPath string) bool {
	return idx.discovery.SkipsDir(relPath)
}

// Invalidate drops cached parses of paths.
func (idx *indexer) Invalidate(paths ...string) {
	idx.cache.invalidate(paths...)
}

// Close releases all resources held by the indexer.
func (idx *indexer) Close() error {
	idx.cache.close()
	return nil
}
