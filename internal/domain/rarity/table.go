package rarity

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrUnknownTag = errors.New("unknown rarity tag")

const Common = "common"

// Tag is one rarity tier. Weight orders tiers when several metadata fields disagree.
type Tag struct {
	Name   string `toml:"name"`
	Weight int    `toml:"weight"`
	Icon   string `toml:"icon"`
}

// Table is the closed set of valid rarity tags. It is immutable once built.
type Table struct {
	tags  []Tag
	byKey map[string]Tag
}

var defaultTags = []Tag{
	{Name: "common", Weight: 1, Icon: "⚪"},
	{Name: "uncommon", Weight: 2, Icon: "🟢"},
	{Name: "rare", Weight: 3, Icon: "🔵"},
	{Name: "very rare", Weight: 4, Icon: "🟣"},
	{Name: "legendary", Weight: 5, Icon: "🟠"},
	{Name: "exotic", Weight: 5, Icon: "🌀"},
	{Name: "cursed", Weight: 2, Icon: "💀"},
	{Name: "forged", Weight: 4, Icon: "⚒️"},
	{Name: "sanctum-blessed", Weight: 6, Icon: "🧿"},
}

func DefaultTags() []Tag {
	return append([]Tag(nil), defaultTags...)
}

func DefaultTable() *Table {
	t, _ := NewTable(defaultTags)
	return t
}

func NewTable(tags []Tag) (*Table, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("rarity table needs at least one tag")
	}

	t := &Table{
		tags:  make([]Tag, 0, len(tags)),
		byKey: make(map[string]Tag, len(tags)),
	}
	for _, tag := range tags {
		key := Normalize(tag.Name)
		if key == "" {
			return nil, fmt.Errorf("rarity tag with empty name")
		}
		if _, dup := t.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate rarity tag %q", tag.Name)
		}
		t.byKey[key] = tag
		t.tags = append(t.tags, tag)
	}
	return t, nil
}

// Tags returns the table's tags in declaration order.
func (t *Table) Tags() []Tag {
	return append([]Tag(nil), t.tags...)
}

func (t *Table) Lookup(raw string) (Tag, bool) {
	tag, ok := t.byKey[Normalize(raw)]
	return tag, ok
}

// Resolve maps operator supplied names onto tags, rejecting anything outside the table.
func (t *Table) Resolve(names []string) ([]Tag, error) {
	out := make([]Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		tag, ok := t.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTag, name)
		}
		if _, dup := seen[tag.Name]; dup {
			continue
		}
		seen[tag.Name] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}

// Normalize lowercases s, splits camelCase words and collapses runs of whitespace,
// underscores and hyphens into single spaces, so "Very_Rare", "very-rare", "veryRare"
// and " Very  Rare " all become "very rare".
func Normalize(s string) string {
	runes := []rune(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsUpper(r):
			if i > 0 && unicode.IsLower(runes[i-1]) {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
