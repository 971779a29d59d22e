package rarity

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
)

// DefaultFallbackCommon lists name fragments that mark an otherwise untagged item as common.
var DefaultFallbackCommon = []string{
	"potion", "scroll", "dagger", "leather", "torch", "rations",
	"sling", "club", "robe", "kit", "tools", "basic", "simple",
}

const (
	SourceText     = "text"
	SourceFallback = "fallback"
)

// Classification is the outcome of classifying one item. Source names the extractor,
// SourceText or SourceFallback that produced the tag.
type Classification struct {
	Tag    Tag
	Source string
	OK     bool
}

type Classifier struct {
	table      *Table
	extractors []Extractor
	fallback   []string
	patterns   map[string]*regexp.Regexp
}

func NewClassifier(table *Table, extractors []Extractor, fallbackCommon []string) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	if extractors == nil {
		extractors = DefaultExtractors()
	}
	if fallbackCommon == nil {
		fallbackCommon = DefaultFallbackCommon
	}

	fallback := make([]string, 0, len(fallbackCommon))
	for _, kw := range fallbackCommon {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			fallback = append(fallback, kw)
		}
	}

	patterns := make(map[string]*regexp.Regexp, len(table.tags))
	for _, tag := range table.tags {
		patterns[tag.Name] = wordPattern(tag.Name)
	}

	return &Classifier{
		table:      table,
		extractors: append([]Extractor(nil), extractors...),
		fallback:   fallback,
		patterns:   patterns,
	}
}

func (c *Classifier) Table() *Table {
	return c.table
}

// Classify returns the item's best-guess rarity. candidates restricts the free-text search;
// when empty every tag in the table is searched.
func (c *Classifier) Classify(item catalog.Item, candidates []Tag) (Tag, bool) {
	res := c.Explain(item, candidates)
	return res.Tag, res.OK
}

// Explain classifies the item and reports which rule decided it.
func (c *Classifier) Explain(item catalog.Item, candidates []Tag) Classification {
	// Structured metadata: the heaviest valid tag wins, earlier extractors break ties.
	var best Classification
	for _, ex := range c.extractors {
		raw, ok := ex.Extract(item)
		if !ok {
			continue
		}
		tag, ok := c.table.Lookup(raw)
		if !ok {
			continue
		}
		if !best.OK || tag.Weight > best.Tag.Weight {
			best = Classification{Tag: tag, Source: ex.Name, OK: true}
		}
	}
	if best.OK {
		return best
	}

	if len(candidates) == 0 {
		candidates = c.table.tags
	}
	ordered := append([]Tag(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight > ordered[j].Weight
	})

	text := searchText(item)
	for _, cand := range ordered {
		tag, ok := c.table.Lookup(cand.Name)
		if !ok {
			continue
		}
		if c.patterns[tag.Name].MatchString(text) {
			return Classification{Tag: tag, Source: SourceText, OK: true}
		}
	}

	if c.MatchesFallback(item.Name) {
		if tag, ok := c.table.Lookup(Common); ok {
			return Classification{Tag: tag, Source: SourceFallback, OK: true}
		}
	}

	return Classification{}
}

// MatchesFallback reports whether the lowercased name contains a fallback-common keyword.
func (c *Classifier) MatchesFallback(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range c.fallback {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

func searchText(item catalog.Item) string {
	var b strings.Builder
	b.WriteString(item.Name)
	for _, data := range []map[string]any{item.System, item.Flags} {
		if len(data) == 0 {
			continue
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		// markup stays unescaped so tags next to HTML keep their word boundary
		enc.SetEscapeHTML(false)
		if err := enc.Encode(data); err == nil {
			b.WriteByte(' ')
			b.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		}
	}
	return b.String()
}

// wordPattern matches the tag as a whole word, case-insensitively. Words of multi-word tags
// may be joined by spaces, underscores, hyphens or nothing at all.
func wordPattern(name string) *regexp.Regexp {
	words := strings.Fields(Normalize(name))
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `[\s_-]*`) + `\b`)
}
