package rarity

import (
	"strings"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
)

// Extractor pulls one raw rarity hint out of an item's metadata.
type Extractor struct {
	Name    string
	Extract func(item catalog.Item) (string, bool)
}

// PathExtractor reads a string at a dotted path below the item's "flags" or "system" data,
// e.g. PathExtractor("system.rarity").
func PathExtractor(path string) Extractor {
	parts := strings.Split(path, ".")
	return Extractor{
		Name: path,
		Extract: func(item catalog.Item) (string, bool) {
			if len(parts) < 2 {
				return "", false
			}

			var node any
			switch parts[0] {
			case "flags":
				node = item.Flags
			case "system":
				node = item.System
			default:
				return "", false
			}

			for _, key := range parts[1:] {
				m, ok := node.(map[string]any)
				if !ok {
					return "", false
				}
				if node, ok = m[key]; !ok {
					return "", false
				}
			}

			s, ok := node.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return "", false
			}
			return s, true
		},
	}
}

// DefaultExtractors lists the metadata locations checked before falling back to text search,
// importer fields first.
func DefaultExtractors() []Extractor {
	return []Extractor{
		PathExtractor("flags.ddbimporter.dndbeyond.rarity"),
		PathExtractor("flags.ddbimporter.dndbeyond.type"),
		PathExtractor("system.rarity"),
	}
}

func ExtractorsFor(paths []string) []Extractor {
	if len(paths) == 0 {
		return DefaultExtractors()
	}
	out := make([]Extractor, 0, len(paths))
	for _, p := range paths {
		out = append(out, PathExtractor(p))
	}
	return out
}
