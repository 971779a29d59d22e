package merchant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
)

const (
	ImportPrefix = "import:"
	SpacesPrefix = "spaces:"
)

var ErrSpacesDisabled = errors.New("spaces pack storage is not configured")

// ResolveSource maps a source reference onto a catalog source:
// "import:<id>" is a pasted collection, "spaces:<pack>" an object storage pack and
// anything else a Postgres compendium pack. An empty ref selects the default pack.
func (b *Bot) ResolveSource(_ context.Context, ref string) (catalog.Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = b.Cfg.Merchant.DefaultSource
	}

	switch {
	case strings.HasPrefix(ref, ImportPrefix):
		return b.Imports.Source(strings.TrimPrefix(ref, ImportPrefix))
	case strings.HasPrefix(ref, SpacesPrefix):
		if b.SpacesService == nil {
			return nil, ErrSpacesDisabled
		}
		return b.SpacesService.Source(strings.TrimPrefix(ref, SpacesPrefix)), nil
	default:
		return b.CompendiumRepository.Source(ref), nil
	}
}

// SourceInfo describes one selectable item source.
type SourceInfo struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Items int    `json:"items,omitempty"`
}

// ListSources returns every source a stocking run can draw from. Backends that fail to
// list are left out.
func (b *Bot) ListSources(ctx context.Context) []SourceInfo {
	var out []SourceInfo
	if packs, err := b.CompendiumRepository.ListPacks(ctx); err == nil {
		for _, p := range packs {
			label := p.Name
			if p.Label != "" {
				label = fmt.Sprintf("%s (%s)", p.Label, p.Name)
			}
			out = append(out, SourceInfo{Ref: p.Name, Label: label, Kind: "compendium", Items: p.ItemCount})
		}
	}
	if b.SpacesService != nil {
		if packs, err := b.SpacesService.ListPacks(ctx); err == nil {
			for _, p := range packs {
				out = append(out, SourceInfo{Ref: SpacesPrefix + p, Label: SpacesPrefix + p, Kind: "spaces"})
			}
		}
	}
	for _, col := range b.Imports.List() {
		out = append(out, SourceInfo{
			Ref:   ImportPrefix + col.ID,
			Label: fmt.Sprintf("%s (%d items, import)", col.Name, len(col.Items)),
			Kind:  "import",
			Items: len(col.Items),
		})
	}
	return out
}
