package merchant

import (
	"context"
	"testing"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/dice"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMerchantConfig() MerchantConfig {
	return MerchantConfig{
		Defaults: stocking.Criteria{
			Types:   []string{"weapon", "loot"},
			Tags:    []string{"rare"},
			Formula: "1d6+2",
			Strict:  true,
		},
		Presets: map[string]stocking.Criteria{
			"black market": {Tags: []string{"cursed"}, Strict: true, Formula: "1d4"},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestCriteria(t *testing.T) {
	cfg := testMerchantConfig()
	no := false

	tests := []struct {
		name    string
		opts    CriteriaOverrides
		want    stocking.Criteria
		wantErr bool
	}{
		{
			name: "defaults",
			want: cfg.Defaults,
		},
		{
			name: "preset",
			opts: CriteriaOverrides{Preset: "Black Market"},
			want: stocking.Criteria{Types: []string{"weapon", "loot"}, Tags: []string{"cursed"}, Strict: true, Formula: "1d4"},
		},
		{
			name: "overrides",
			opts: CriteriaOverrides{
				Formula: strPtr(" 2d4 "),
				Types:   strPtr("consumable, loot"),
				Tags:    strPtr("legendary"),
				Strict:  &no,
			},
			want: stocking.Criteria{Types: []string{"consumable", "loot"}, Tags: []string{"legendary"}, Strict: false, Formula: "2d4"},
		},
		{
			name: "overrides win over preset",
			opts: CriteriaOverrides{Preset: "black market", Formula: strPtr("3")},
			want: stocking.Criteria{Types: []string{"weapon", "loot"}, Tags: []string{"cursed"}, Strict: true, Formula: "3"},
		},
		{
			name:    "unknown preset",
			opts:    CriteriaOverrides{Preset: "bazaar"},
			wantErr: true,
		},
		{
			name:    "bad formula",
			opts:    CriteriaOverrides{Formula: strPtr("2d")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.Criteria(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCriteriaFormulaError(t *testing.T) {
	_, err := testMerchantConfig().Criteria(CriteriaOverrides{Formula: strPtr("d")})
	var formulaErr *dice.FormulaError
	assert.ErrorAs(t, err, &formulaErr)
}

type fakeMerchants struct {
	repositories.MerchantRepository
	known map[string]*models.Merchant
}

func (f *fakeMerchants) GetByName(_ context.Context, _ string, name string) (*models.Merchant, error) {
	m, ok := f.known[name]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "merchant", ID: name}
	}
	return m, nil
}

func (f *fakeMerchants) Target(m *models.Merchant) stocking.InventoryTarget {
	return namedTarget(m.Name)
}

type namedTarget string

func (n namedTarget) Name() string { return string(n) }
func (n namedTarget) ListItemNames(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
func (n namedTarget) AddItems(context.Context, []catalog.Payload) error { return nil }

func TestResolveMerchants(t *testing.T) {
	b := &Bot{MerchantRepository: &fakeMerchants{known: map[string]*models.Merchant{
		"Gorm": {ID: 1, Name: "Gorm"},
		"Ilsa": {ID: 2, Name: "Ilsa"},
	}}}
	ctx := context.Background()

	targets, err := b.ResolveMerchants(ctx, "1", []string{"Gorm", "Ilsa"})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "Ilsa", targets[1].Name())

	targets, err = b.ResolveMerchants(ctx, "1", nil)
	require.NoError(t, err)
	assert.Empty(t, targets)

	_, err = b.ResolveMerchants(ctx, "1", []string{"Gorm", "Vex"})
	var notFound *repositories.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Vex", notFound.ID)
}
