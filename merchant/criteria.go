package merchant

import (
	"context"
	"fmt"
	"strings"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/dice"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
)

// CriteriaOverrides are per-run changes to the configured criteria. Nil means unset.
type CriteriaOverrides struct {
	Preset  string  `json:"preset"`
	Formula *string `json:"formula"`
	Types   *string `json:"types"`
	Tags    *string `json:"tags"`
	Strict  *bool   `json:"strict"`
}

// Criteria starts from the preset, or the configured defaults, and applies overrides.
func (m MerchantConfig) Criteria(o CriteriaOverrides) (stocking.Criteria, error) {
	criteria := m.Defaults
	if preset := strings.TrimSpace(o.Preset); preset != "" {
		p, ok := m.Preset(preset)
		if !ok {
			return stocking.Criteria{}, fmt.Errorf("unknown preset %q", preset)
		}
		criteria = p
	}

	if o.Formula != nil {
		criteria.Formula = strings.TrimSpace(*o.Formula)
	}
	if o.Types != nil {
		criteria.Types = catalog.SplitList(*o.Types)
	}
	if o.Tags != nil {
		criteria.Tags = catalog.SplitList(*o.Tags)
	}
	if o.Strict != nil {
		criteria.Strict = *o.Strict
	}

	if _, err := dice.Parse(criteria.Formula); err != nil {
		return stocking.Criteria{}, err
	}
	return criteria, nil
}

// ResolveMerchants looks up each named merchant of a guild as a stocking target.
// The first unknown name fails the lookup with a *repositories.NotFoundError.
func (b *Bot) ResolveMerchants(ctx context.Context, guild string, names []string) ([]stocking.InventoryTarget, error) {
	targets := make([]stocking.InventoryTarget, 0, len(names))
	for _, name := range names {
		m, err := b.MerchantRepository.GetByName(ctx, guild, name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, b.MerchantRepository.Target(m))
	}
	return targets, nil
}
