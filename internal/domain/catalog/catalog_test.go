package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(types ...string) []Item {
	out := make([]Item, len(types))
	for i, t := range types {
		out[i] = Item{ID: string(rune('a' + i)), Name: t + " item", Type: t}
	}
	return out
}

func TestFilterByType(t *testing.T) {
	catalog := items("weapon", "loot", "Weapon", "spell", "equipment")

	tests := []struct {
		name    string
		allowed []string
		wantIDs []string
	}{
		{name: "case insensitive", allowed: []string{"WEAPON"}, wantIDs: []string{"a", "c"}},
		{name: "keeps catalog order", allowed: []string{"equipment", "loot"}, wantIDs: []string{"b", "e"}},
		{name: "empty allow list", allowed: nil, wantIDs: []string{}},
		{name: "blank entries ignored", allowed: []string{" ", ""}, wantIDs: []string{}},
		{name: "no match", allowed: []string{"feat"}, wantIDs: []string{}},
		{name: "exact match only", allowed: []string{"weap"}, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByType(catalog, tt.allowed)
			ids := make([]string, 0, len(got))
			for _, item := range got {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"weapon", "loot"}, SplitList(" weapon, ,loot ,"))
	assert.Empty(t, SplitList(""))
}

func TestParseItems(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		got, err := ParseItems([]byte(`[
			{"_id":"x1","name":"Flame Tongue","type":"weapon","system":{"rarity":"rare"}},
			{"name":"Torch","type":"loot"}
		]`))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "x1", got[0].ID)
		assert.Equal(t, "rare", got[0].System["rarity"])
		assert.Equal(t, "item-1", got[1].ID)
		assert.JSONEq(t, `{"name":"Torch","type":"loot"}`, string(got[1].Raw))
	})

	t.Run("envelope and legacy data", func(t *testing.T) {
		got, err := ParseItems([]byte(`{"items":[{"id":"a","name":"Sling","type":"weapon","data":{"rarity":"common"}}]}`))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "common", got[0].System["rarity"])
	})

	t.Run("single document", func(t *testing.T) {
		got, err := ParseItems([]byte(`{"_id":"s","name":"Scroll","type":"consumable"}`))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Scroll", got[0].Name)
	})

	t.Run("duplicate ids stay unique", func(t *testing.T) {
		got, err := ParseItems([]byte(`[{"_id":"d","name":"A"},{"_id":"d","name":"B"}]`))
		require.NoError(t, err)
		assert.Equal(t, "d", got[0].ID)
		assert.Equal(t, "d-1", got[1].ID)

		got, err = ParseItems([]byte(`[{"_id":"a","name":"A"},{"_id":"a-1","name":"B"},{"_id":"a","name":"C"},{"_id":"a","name":"D"}]`))
		require.NoError(t, err)
		ids := make([]string, len(got))
		for i, it := range got {
			ids[i] = it.ID
		}
		assert.Equal(t, []string{"a", "a-1", "a-2", "a-3"}, ids)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ParseItems([]byte("   "))
		assert.ErrorIs(t, err, ErrNoItems)

		_, err = ParseItems([]byte(`[{"name":""}]`))
		assert.ErrorIs(t, err, ErrNoItems)

		_, err = ParseItems([]byte(`not json`))
		assert.ErrorIs(t, err, ErrInvalidJSON)

		_, err = ParseItems([]byte(`[{"name":1}]`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})
}

func TestSourceNotFoundError(t *testing.T) {
	var err error = &SourceNotFoundError{Source: "world.missing"}
	assert.True(t, IsSourceNotFound(err))
	assert.EqualError(t, err, `source "world.missing" not found`)
	assert.False(t, IsSourceNotFound(ErrItemNotFound))
}
