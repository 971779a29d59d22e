package merchant

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/imports"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[bot]
token = "abc"
dev_guilds = [123]
`))
	require.NoError(t, err)

	assert.Equal(t, []snowflake.ID{123}, cfg.Bot.DevGuilds)
	assert.Equal(t, DefaultSource, cfg.Merchant.DefaultSource)
	assert.Equal(t, DefaultTypes, cfg.Merchant.Defaults.Types)
	assert.Equal(t, DefaultTags, cfg.Merchant.Defaults.Tags)
	assert.Equal(t, DefaultFormula, cfg.Merchant.Defaults.Formula)
	assert.True(t, cfg.Merchant.Defaults.Strict)
	assert.Equal(t, 3, cfg.Merchant.Weights.Match)
	assert.Equal(t, 1, cfg.Merchant.Weights.Base)
	assert.Equal(t, imports.DefaultCapacity, cfg.Imports.Capacity)
	assert.Equal(t, 24*time.Hour, cfg.Imports.Retention())
	assert.Equal(t, "packs", cfg.Spaces.PackRoot)
	assert.False(t, cfg.Spaces.Enabled())
}

func TestLoadConfigPresets(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[merchant]
announce_channel = 987

[merchant.defaults]
types = ["weapon"]
formula = "1d4"

[merchant.presets."Black Market"]
tags = ["cursed", "exotic"]
strict = true
formula = "2d4"

[merchant.presets.general]
types = ["loot", "consumable"]

[imports]
retention_hours = 6
`))
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(987), cfg.Merchant.AnnounceChannel)
	assert.False(t, cfg.Merchant.Defaults.Strict, "explicit defaults keep their own strictness")
	assert.Equal(t, DefaultTags, cfg.Merchant.Defaults.Tags)
	assert.Equal(t, []string{"black market", "general"}, cfg.Merchant.PresetNames())

	bm, ok := cfg.Merchant.Preset("  BLACK market")
	require.True(t, ok)
	assert.Equal(t, []string{"weapon"}, bm.Types)
	assert.Equal(t, []string{"cursed", "exotic"}, bm.Tags)
	assert.Equal(t, "2d4", bm.Formula)
	assert.True(t, bm.Strict)

	general, ok := cfg.Merchant.Preset("general")
	require.True(t, ok)
	assert.Equal(t, DefaultTags, general.Tags)
	assert.Equal(t, "1d4", general.Formula)

	_, ok = cfg.Merchant.Preset("missing")
	assert.False(t, ok)

	assert.Equal(t, 6*time.Hour, cfg.Imports.Retention())
}

func TestRarityConfig(t *testing.T) {
	c, err := RarityConfig{}.Classifier()
	require.NoError(t, err)
	assert.Len(t, c.Table().Tags(), len(rarity.DefaultTags()))

	c, err = RarityConfig{
		Tags:       []rarity.Tag{{Name: "common", Weight: 1}, {Name: "mythic", Weight: 9}},
		Extractors: []string{"system.tier"},
	}.Classifier()
	require.NoError(t, err)
	tag, ok := c.Classify(catalog.Item{Name: "Crown", System: map[string]any{"tier": "Mythic"}}, nil)
	require.True(t, ok)
	assert.Equal(t, "mythic", tag.Name)

	_, err = RarityConfig{Tags: []rarity.Tag{{Name: "a"}, {Name: "A"}}}.Classifier()
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

type fakeCompendiums struct {
	repositories.CompendiumRepository
	requested []string
	packs     []*models.Compendium
}

func (f *fakeCompendiums) ListPacks(context.Context) ([]*models.Compendium, error) {
	return f.packs, nil
}

func (f *fakeCompendiums) Source(pack string) catalog.Source {
	f.requested = append(f.requested, pack)
	return nil
}

func TestResolveSource(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	b := New(*cfg, "test", "none")
	require.NoError(t, b.SetupEngine())
	compendiums := &fakeCompendiums{}
	b.CompendiumRepository = compendiums
	ctx := context.Background()

	_, err = b.ResolveSource(ctx, "")
	require.NoError(t, err)
	_, err = b.ResolveSource(ctx, " homebrew ")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultSource, "homebrew"}, compendiums.requested)

	_, err = b.ResolveSource(ctx, "spaces:homebrew")
	assert.ErrorIs(t, err, ErrSpacesDisabled)

	_, err = b.ResolveSource(ctx, "import:missing")
	assert.True(t, catalog.IsSourceNotFound(err))

	col := b.Imports.Add("hoard", []catalog.Item{{ID: "x", Name: "Gem"}})
	src, err := b.ResolveSource(ctx, ImportPrefix+col.ID)
	require.NoError(t, err)
	assert.Equal(t, "hoard", src.Name())
}

func TestListSources(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	b := New(*cfg, "test", "none")
	require.NoError(t, b.SetupEngine())
	b.CompendiumRepository = &fakeCompendiums{packs: []*models.Compendium{
		{Name: "world.items", Label: "World Items", ItemCount: 12},
		{Name: "homebrew"},
	}}
	col := b.Imports.Add("hoard", []catalog.Item{{ID: "x", Name: "Gem"}})

	got := b.ListSources(context.Background())
	assert.Equal(t, []SourceInfo{
		{Ref: "world.items", Label: "World Items (world.items)", Kind: "compendium", Items: 12},
		{Ref: "homebrew", Label: "homebrew", Kind: "compendium"},
		{Ref: ImportPrefix + col.ID, Label: "hoard (1 items, import)", Kind: "import", Items: 1},
	}, got)
}

func TestAPIConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
[api]
host = "127.0.0.1"
port = 8090
`))
	require.NoError(t, err)
	assert.False(t, cfg.API.Enabled())
	assert.Equal(t, "127.0.0.1:8090", cfg.API.Address())

	cfg.API.Token = "secret"
	assert.True(t, cfg.API.Enabled())
}
