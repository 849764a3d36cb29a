package indexer

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	root    glob.Glob // pattern without its leading "**/", nil otherwise
}

// FileDiscovery finds source files under a root directory using include and
// ignore glob patterns.
type FileDiscovery struct {
	rootDir         string
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir: rootDir,
	}

	var err error
	if fd.includePatterns, err = compilePatterns(includePatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if strings.HasPrefix(pattern, "**/") {
			if root, err := glob.Compile(strings.TrimPrefix(pattern, "**/"), '/'); err == nil {
				cp.root = root
			}
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}

// DiscoverFiles walks the directory tree and returns the slash-separated
// paths, relative to the root, of files matching an include pattern and no
// ignore pattern. Paths are returned in lexical order.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}
		if matchesAnyPattern(relPath, fd.includePatterns) {
			files = append(files, relPath)
		}
		return nil
	})

	return files, err
}

// Includes reports whether relPath would be discovered.
func (fd *FileDiscovery) Includes(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return !fd.shouldIgnore(relPath) && matchesAnyPattern(relPath, fd.includePatterns)
}

// SkipsDir reports whether the directory relPath and everything below it
// is ignored.
func (fd *FileDiscovery) SkipsDir(relPath string) bool {
	return fd.shouldIgnore(filepath.ToSlash(relPath))
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// Also check if this is a directory that would match with /** suffix
	// For example, "node_modules" should match pattern "node_modules/**"
	pathWithSuffix := relPath + "/**"
	return matchesAnyPattern(pathWithSuffix, fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
// Root-level paths also match patterns with a leading "**/", so "**/*.ts"
// matches both "main.ts" and "src/main.ts".
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if cp.root != nil && cp.root.Match(path) {
				return true
			}
		}
	}

	return false
}
