package parsers

import (
	"context"
	"sort"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// Parser turns the source of one file into the declaration model.
type Parser interface {
	// Parse builds the declarations of source. path is recorded on the file
	// and on every declaration, unchanged.
	Parse(ctx context.Context, path string, source []byte) (*syntax.File, error)
}

// LinkBases resolves each class's BaseName to a class declared in files,
// by simple name. A class in the same file wins over classes elsewhere;
// among several candidates elsewhere the one in the lexically first path
// wins. Previous links are replaced.
func LinkBases(files []*syntax.File) {
	byName := make(map[string][]*syntax.Declaration)
	for _, f := range files {
		for _, c := range f.Classes {
			if c.Name != "" {
				byName[c.Name] = append(byName[c.Name], c)
			}
		}
	}
	for _, candidates := range byName {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].File < candidates[j].File
		})
	}

	for _, f := range files {
		for _, c := range f.Classes {
			c.Base = nil
			if c.BaseName == "" {
				continue
			}
			candidates := byName[splitQualified(c.BaseName)]
			for _, candidate := range candidates {
				if candidate != c && candidate.File == c.File {
					c.Base = candidate
					break
				}
			}
			if c.Base != nil {
				continue
			}
			for _, candidate := range candidates {
				if candidate != c {
					c.Base = candidate
					break
				}
			}
		}
	}
}
