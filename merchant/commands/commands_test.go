package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/dice"
	"github.com/sanctumforge/merchant/internal/domain/imports"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatResult(t *testing.T) {
	t.Run("no match", func(t *testing.T) {
		out := FormatResult(&stocking.Result{Status: stocking.StatusNoMatch, Reason: "no items of the allowed types"})
		assert.Equal(t, "No items found matching the selected criteria.\n-# no items of the allowed types", out)
	})

	t.Run("selected", func(t *testing.T) {
		out := FormatResult(&stocking.Result{
			Status:   stocking.StatusSelected,
			Rolled:   3,
			PoolSize: 9,
			Selected: []catalog.Payload{{Name: "Sun Blade"}, {Name: "Potion of Healing"}},
		})
		assert.Equal(t, "Rolled **3**, drew 2 of 9 pool entries:\n• Sun Blade\n• Potion of Healing", out)
	})

	t.Run("partial delivery", func(t *testing.T) {
		out := FormatResult(&stocking.Result{
			Status:   stocking.StatusDelivered,
			Rolled:   2,
			Selected: []catalog.Payload{{Name: "Sun Blade"}, {Name: "Rope"}},
			Targets: []stocking.TargetOutcome{
				{Target: "Gorm", Status: stocking.TargetDelivered, Delivered: []string{"Sun Blade"}, Skipped: []string{"Rope"}},
				{Target: "Ilsa", Status: stocking.TargetNothingNew, Skipped: []string{"Sun Blade", "Rope"}},
				{Target: "Vex", Status: stocking.TargetFailed, Err: errors.New("boom")},
			},
		})
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "Rolled **2**, drew 2 item(s).", lines[0])
		assert.Equal(t, "✅ **Gorm**: Sun Blade (already had Rope)", lines[1])
		assert.Equal(t, "➖ **Ilsa**: already stocks everything drawn", lines[2])
		assert.Equal(t, "❌ **Vex**: delivery failed", lines[3])
		assert.Equal(t, "-# Some merchants were not stocked.", lines[4])
	})
}

func TestResultColor(t *testing.T) {
	assert.Equal(t, 0xe74c3c, resultColor(&stocking.Result{Status: stocking.StatusFailed}))
	assert.Equal(t, 0xf1c40f, resultColor(&stocking.Result{Status: stocking.StatusNoMatch}))
	assert.Equal(t, 0x9b59b6, resultColor(&stocking.Result{Status: stocking.StatusDelivered}))
}

func TestRank(t *testing.T) {
	candidates := plainChoices([]string{"rare", "very rare", "legendary"})

	assert.Equal(t, candidates, rank("  ", candidates))

	got := rank("rare", candidates)
	values := make([]string, len(got))
	for i, c := range got {
		values[i] = c.Value
	}
	assert.ElementsMatch(t, []string{"rare", "very rare"}, values)

	many := make([]string, 40)
	for i := range many {
		many[i] = fmt.Sprintf("pack-%02d", i)
	}
	assert.Len(t, rank("", plainChoices(many)), maxChoices)
	assert.Len(t, rank("pack", plainChoices(many)), maxChoices)
}

func TestCompleteList(t *testing.T) {
	got := completeList("weapon, co", itemTypes)
	values := make([]string, len(got))
	for i, c := range got {
		values[i] = c.Value
	}
	assert.ElementsMatch(t, []string{"weapon, consumable", "weapon, container"}, values)

	got = completeList("", []string{"Gorm", "Ilsa"})
	require.Len(t, got, 2)
	assert.Equal(t, "Gorm", got[0].Value)

	got = completeList("Gorm,", []string{"Gorm", "Ilsa"})
	require.Len(t, got, 1)
	assert.Equal(t, "Gorm, Ilsa", got[0].Value)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

type fakeScope struct {
	guild   *snowflake.ID
	channel snowflake.ID
}

func (f fakeScope) GuildID() *snowflake.ID  { return f.guild }
func (f fakeScope) ChannelID() snowflake.ID { return f.channel }

func TestGuildKey(t *testing.T) {
	guild := snowflake.ID(42)
	assert.Equal(t, "42", guildKey(fakeScope{guild: &guild, channel: 7}))
	assert.Equal(t, "channel:7", guildKey(fakeScope{channel: 7}))
}

func TestFormatImports(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cols := []*imports.Collection{
		{ID: "a1", Name: "Loot drop", Items: make([]catalog.Item, 3), CreatedAt: now.Add(-time.Hour)},
		{ID: "b2", Name: "Old", Items: make([]catalog.Item, 1), CreatedAt: now.Add(-48 * time.Hour)},
	}

	out := formatImports(cols, 24*time.Hour, now)
	assert.Equal(t,
		"**Loot drop** • 3 items • expires in 23h0m0s\n`import:a1`\n**Old** • 1 items • expires in 0s\n`import:b2`",
		out)
}

func TestImportErrorMessage(t *testing.T) {
	assert.Equal(t, "The JSON contained no named items.", importErrorMessage(catalog.ErrNoItems))
	assert.Contains(t, importErrorMessage(fmt.Errorf("%w: bad", catalog.ErrInvalidJSON)), "not a valid item export")
	assert.Equal(t, "Import failed.", importErrorMessage(errors.New("disk full")))
}

func TestStockErrorMessage(t *testing.T) {
	assert.Equal(t, `invalid roll formula "2d": missing die size`,
		stockErrorMessage(&dice.FormulaError{Formula: "2d", Reason: "missing die size"}))
	assert.Contains(t, stockErrorMessage(&catalog.SourceNotFoundError{Source: "nope"}), "Source not found")
	assert.Equal(t, "Stocking failed. Check the logs for details.", stockErrorMessage(errors.New("boom")))
}

type packStore struct {
	repositories.CompendiumRepository
	items     map[string][]*models.CompendiumItem
	insertErr error
	refreshed []string
}

func (p *packStore) UpsertPack(context.Context, *models.Compendium) error { return nil }

func (p *packStore) ReplaceItems(_ context.Context, pack string, items []*models.CompendiumItem) (int, error) {
	if p.insertErr != nil {
		return 0, p.insertErr
	}
	p.items[pack] = items
	return len(items), nil
}

func (p *packStore) RefreshItemCount(_ context.Context, pack string) (int, error) {
	p.refreshed = append(p.refreshed, pack)
	return len(p.items[pack]), nil
}

func TestSavePack(t *testing.T) {
	old := make([]*models.CompendiumItem, 500)
	for i := range old {
		old[i] = &models.CompendiumItem{Pack: "loot", ID: fmt.Sprintf("old%03d", i), Name: fmt.Sprintf("Relic %d", i)}
	}
	col := &imports.Collection{Name: "Spring haul", Items: []catalog.Item{
		{ID: "a", Name: "Sun Blade", Type: "weapon"},
		{ID: "b", Name: "Rope", Type: "loot"},
	}}

	t.Run("failed insert keeps the old items", func(t *testing.T) {
		store := &packStore{
			items:     map[string][]*models.CompendiumItem{"loot": old},
			insertErr: errors.New("value too long for type character varying"),
		}
		_, err := savePack(context.Background(), store, "loot", col)
		require.Error(t, err)
		assert.Len(t, store.items["loot"], 500)
		assert.Empty(t, store.refreshed)
	})

	t.Run("replaces the pack", func(t *testing.T) {
		store := &packStore{items: map[string][]*models.CompendiumItem{"loot": old}}
		n, err := savePack(context.Background(), store, "loot", col)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.Len(t, store.items["loot"], 2)
		assert.Equal(t, "loot", store.items["loot"][0].Pack)
		assert.Equal(t, []string{"loot"}, store.refreshed)
	})
}
