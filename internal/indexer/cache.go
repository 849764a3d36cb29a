package indexer

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// DefaultCacheSize bounds the number of parsed files kept between runs.
const DefaultCacheSize = 10_000

type cachedFile struct {
	modTime time.Time
	size    int64
	file    *syntax.File
}

// parseCache keeps parsed files keyed by relative path. An entry is valid
// while the file's modification time and size are unchanged.
type parseCache struct {
	cache otter.Cache[string, cachedFile]
}

func newParseCache(capacity int) (*parseCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, err := otter.MustBuilder[string, cachedFile](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}
	return &parseCache{cache: cache}, nil
}

func (c *parseCache) get(path string, info fs.FileInfo) (*syntax.File, bool) {
	entry, ok := c.cache.Get(path)
	if !ok {
		return nil, false
	}
	if !entry.modTime.Equal(info.ModTime()) || entry.size != info.Size() {
		c.cache.Delete(path)
		return nil, false
	}
	return entry.file, true
}

func (c *parseCache) put(path string, info fs.FileInfo, file *syntax.File) {
	c.cache.Set(path, cachedFile{modTime: info.ModTime(), size: info.Size(), file: file})
}

func (c *parseCache) invalidate(paths ...string) {
	for _, path := range paths {
		c.cache.Delete(path)
	}
}

func (c *parseCache) close() {
	c.cache.Close()
}
