package stocking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/dice"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
	"github.com/sanctumforge/merchant/internal/domain/sampler"
	"github.com/sanctumforge/merchant/internal/domain/stocking/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	ctrl     *gomock.Controller
	source   *mock.MockSource
	dice     *mock.MockDiceEvaluator
	notifier *mock.MockNotifier
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:     ctrl,
		source:   mock.NewMockSource(ctrl),
		dice:     mock.NewMockDiceEvaluator(ctrl),
		notifier: mock.NewMockNotifier(ctrl),
	}
	classifier := rarity.NewClassifier(nil, nil, nil)
	smp := sampler.New(classifier, sampler.DefaultWeights(), rand.New(rand.NewSource(7)))
	f.service = NewService(classifier, smp, f.dice, f.notifier)
	f.source.EXPECT().Name().Return("test-pack").AnyTimes()
	return f
}

func (f *fixture) target(name string, owned ...string) *mock.MockInventoryTarget {
	target := mock.NewMockInventoryTarget(f.ctrl)
	target.EXPECT().Name().Return(name).AnyTimes()
	set := make(map[string]struct{}, len(owned))
	for _, n := range owned {
		set[n] = struct{}{}
	}
	target.EXPECT().ListItemNames(gomock.Any()).Return(set, nil).AnyTimes()
	return target
}

func (f *fixture) serveFullItems(items []catalog.Item) *gomock.Call {
	byID := make(map[string]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return f.source.EXPECT().GetFullItem(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (catalog.Payload, error) {
			it, ok := byID[id]
			if !ok {
				return catalog.Payload{}, catalog.ErrItemNotFound
			}
			return catalog.PayloadOf(it), nil
		})
}

// tenItems holds 6 weapons, 3 of them rare.
func tenItems() []catalog.Item {
	items := []catalog.Item{
		{ID: "w1", Name: "Flame Tongue", Type: "weapon", System: map[string]any{"rarity": "rare"}},
		{ID: "w2", Name: "Dragon Slayer", Type: "weapon", System: map[string]any{"rarity": "rare"}},
		{ID: "w3", Name: "Sun Blade", Type: "weapon", System: map[string]any{"rarity": "rare"}},
		{ID: "w4", Name: "Longsword", Type: "weapon"},
		{ID: "w5", Name: "Handaxe", Type: "weapon"},
		{ID: "w6", Name: "Warhammer", Type: "weapon"},
		{ID: "l1", Name: "Gold Chalice", Type: "loot"},
		{ID: "l2", Name: "Silver Ring", Type: "loot", System: map[string]any{"rarity": "rare"}},
		{ID: "e1", Name: "Shield", Type: "equipment"},
		{ID: "c1", Name: "Healing Draught", Type: "consumable"},
	}
	return items
}

func TestStockDeliversRareWeapon(t *testing.T) {
	f := newFixture(t)
	items := tenItems()
	f.source.EXPECT().ListItems(gomock.Any(), catalog.IndexFields).Return(items, nil)
	f.serveFullItems(items).Times(1)

	f.service.dice = dice.NewRoller(rand.New(rand.NewSource(1)))

	shop := f.target("Oathbreaker Bazaar")
	var added []catalog.Payload
	shop.EXPECT().AddItems(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p []catalog.Payload) error {
			added = p
			return nil
		})
	f.notifier.EXPECT().Info(gomock.Any(), gomock.Any())

	res, err := f.service.Stock(context.Background(), f.source, Criteria{
		Types:   []string{"weapon"},
		Tags:    []string{"rare"},
		Strict:  true,
		Formula: "1d1",
	}, shop)
	require.NoError(t, err)

	assert.Equal(t, StatusDelivered, res.Status)
	assert.Equal(t, 1, res.Rolled)
	assert.Equal(t, 9, res.PoolSize)
	require.Len(t, added, 1)
	assert.Contains(t, []string{"w1", "w2", "w3"}, added[0].ID)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, []string{added[0].Name}, res.Targets[0].Delivered)
}

func TestStockNoMatch(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
	}{
		{
			name:     "no allowed types",
			criteria: Criteria{Types: nil, Tags: []string{"rare"}, Formula: "1d6"},
		},
		{
			name:     "strict without tags",
			criteria: Criteria{Types: []string{"weapon"}, Strict: true, Formula: "1d6"},
		},
		{
			name:     "strict tag absent from catalog",
			criteria: Criteria{Types: []string{"weapon"}, Tags: []string{"sanctum-blessed"}, Strict: true, Formula: "1d6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(tenItems(), nil)
			f.notifier.EXPECT().Warn(gomock.Any(), gomock.Any())
			shop := mock.NewMockInventoryTarget(f.ctrl)

			res, err := f.service.Stock(context.Background(), f.source, tt.criteria, shop)
			require.NoError(t, err)
			assert.Equal(t, StatusNoMatch, res.Status)
			assert.NotEmpty(t, res.Reason)
			assert.Empty(t, res.Selected)
			assert.Empty(t, res.Targets)
		})
	}
}

func TestStockNothingNew(t *testing.T) {
	f := newFixture(t)
	items := []catalog.Item{
		{ID: "only", Name: "Vorpal Sword", Type: "weapon", System: map[string]any{"rarity": "legendary"}},
	}
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(items, nil)
	f.serveFullItems(items)
	f.dice.EXPECT().Evaluate(gomock.Any(), "1d6+2").Return(5, nil)

	shop := f.target("Bazaar", "Vorpal Sword")
	shop.EXPECT().AddItems(gomock.Any(), gomock.Any()).Times(0)

	res, err := f.service.Stock(context.Background(), f.source, Criteria{
		Types:   []string{"weapon"},
		Tags:    []string{"legendary"},
		Strict:  true,
		Formula: "1d6+2",
	}, shop)
	require.NoError(t, err)

	assert.Equal(t, StatusNothingNew, res.Status)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, TargetNothingNew, res.Targets[0].Status)
	assert.Equal(t, []string{"Vorpal Sword"}, res.Targets[0].Skipped)
	assert.Empty(t, res.Targets[0].Delivered)
}

func TestStockLooksUpOnlyDrawnItems(t *testing.T) {
	f := newFixture(t)
	items := make([]catalog.Item, 20)
	for i := range items {
		items[i] = catalog.Item{ID: fmt.Sprintf("t%02d", i), Name: fmt.Sprintf("Trinket %d", i), Type: "loot"}
	}
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(items, nil)
	f.serveFullItems(items).Times(7)
	f.dice.EXPECT().Evaluate(gomock.Any(), "2d6+2").Return(7, nil)

	res, err := f.service.Stock(context.Background(), f.source, Criteria{
		Types:   []string{"loot"},
		Formula: "2d6+2",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSelected, res.Status)
	assert.Equal(t, 20, res.PoolSize)
	assert.Len(t, res.Selected, 7)
	assert.Len(t, res.SelectedNames(), 7)
}

func TestStockFormulaErrorAborts(t *testing.T) {
	f := newFixture(t)
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(tenItems(), nil)
	f.service.dice = dice.NewRoller(nil)
	f.notifier.EXPECT().Error(gomock.Any(), gomock.Any())

	shop := mock.NewMockInventoryTarget(f.ctrl)

	res, err := f.service.Stock(context.Background(), f.source, Criteria{
		Types:   []string{"weapon"},
		Formula: "2d",
	}, shop)
	assert.Nil(t, res)

	var formulaErr *dice.FormulaError
	assert.ErrorAs(t, err, &formulaErr)
}

func TestStockSourceNotFound(t *testing.T) {
	f := newFixture(t)
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).
		Return(nil, &catalog.SourceNotFoundError{Source: "missing-pack"})
	f.notifier.EXPECT().Error(gomock.Any(), gomock.Any())

	_, err := f.service.Stock(context.Background(), f.source, Criteria{Types: []string{"weapon"}, Formula: "1"})
	assert.True(t, catalog.IsSourceNotFound(err))
}

func TestStockUnknownTag(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Stock(context.Background(), f.source, Criteria{Tags: []string{"mythic"}})
	assert.ErrorIs(t, err, rarity.ErrUnknownTag)
}

func TestStockPartialDelivery(t *testing.T) {
	f := newFixture(t)
	items := []catalog.Item{
		{ID: "a", Name: "Bag of Holding", Type: "equipment"},
		{ID: "b", Name: "Rope of Climbing", Type: "equipment"},
	}
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(items, nil)
	f.serveFullItems(items).Times(2)
	f.dice.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(10, nil)

	broken := mock.NewMockInventoryTarget(f.ctrl)
	broken.EXPECT().Name().Return("Broken Stall").AnyTimes()
	broken.EXPECT().ListItemNames(gomock.Any()).Return(nil, errors.New("connection reset"))

	shop := f.target("Bazaar", "Rope of Climbing")
	shop.EXPECT().AddItems(gomock.Any(), gomock.Len(1)).Return(nil)

	gomock.InOrder(
		f.notifier.EXPECT().Error(gomock.Any(), gomock.Any()),
		f.notifier.EXPECT().Info(gomock.Any(), Announce("Bazaar", []string{"Bag of Holding"})),
	)

	res, err := f.service.Stock(context.Background(), f.source, Criteria{
		Types:   []string{"equipment"},
		Formula: "10",
	}, broken, shop)
	require.NoError(t, err)

	assert.Equal(t, StatusDelivered, res.Status)
	assert.True(t, res.Partial())
	require.Len(t, res.Targets, 2)
	assert.Equal(t, TargetFailed, res.Targets[0].Status)
	assert.Error(t, res.Targets[0].Err)
	assert.Equal(t, TargetDelivered, res.Targets[1].Status)
	assert.Equal(t, []string{"Bag of Holding"}, res.Targets[1].Delivered)
	assert.Equal(t, []string{"Rope of Climbing"}, res.Targets[1].Skipped)
}

func TestStockDuplicateNamesInDelivery(t *testing.T) {
	f := newFixture(t)
	items := []catalog.Item{
		{ID: "x1", Name: "Torch", Type: "loot"},
		{ID: "x2", Name: "Torch", Type: "loot"},
	}
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(items, nil)
	f.serveFullItems(items).Times(2)
	f.dice.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(2, nil)

	shop := f.target("Bazaar")
	shop.EXPECT().AddItems(gomock.Any(), gomock.Len(1)).Return(nil)
	f.notifier.EXPECT().Info(gomock.Any(), gomock.Any())

	res, err := f.service.Stock(context.Background(), f.source, Criteria{Types: []string{"loot"}, Formula: "2"}, shop)
	require.NoError(t, err)
	assert.Equal(t, []string{"Torch"}, res.Targets[0].Delivered)
	assert.Equal(t, []string{"Torch"}, res.Targets[0].Skipped)
}

func TestStockItemsHeldAtWriteTime(t *testing.T) {
	f := newFixture(t)
	items := []catalog.Item{
		{ID: "x1", Name: "Torch", Type: "loot"},
		{ID: "x2", Name: "Lantern", Type: "loot"},
	}
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(items, nil)
	f.serveFullItems(items).Times(2)
	f.dice.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(2, nil)

	shop := f.target("Bazaar")
	shop.EXPECT().AddItems(gomock.Any(), gomock.Len(2)).
		Return(&HeldError{Target: "Bazaar", Names: []string{"Torch"}})
	f.notifier.EXPECT().Info(gomock.Any(), Announce("Bazaar", []string{"Lantern"}))

	res, err := f.service.Stock(context.Background(), f.source, Criteria{Types: []string{"loot"}, Formula: "2"}, shop)
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, TargetDelivered, res.Targets[0].Status)
	assert.Equal(t, []string{"Lantern"}, res.Targets[0].Delivered)
	assert.Equal(t, []string{"Torch"}, res.Targets[0].Skipped)
	assert.NoError(t, res.Targets[0].Err)
}

func TestStockEveryItemHeldAtWriteTime(t *testing.T) {
	f := newFixture(t)
	items := []catalog.Item{{ID: "x1", Name: "Torch", Type: "loot"}}
	f.source.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(items, nil)
	f.serveFullItems(items).Times(1)
	f.dice.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(1, nil)

	shop := f.target("Bazaar")
	shop.EXPECT().AddItems(gomock.Any(), gomock.Len(1)).
		Return(fmt.Errorf("stock Bazaar: %w", &HeldError{Target: "Bazaar", Names: []string{"Torch"}}))

	res, err := f.service.Stock(context.Background(), f.source, Criteria{Types: []string{"loot"}, Formula: "1"}, shop)
	require.NoError(t, err)
	assert.Equal(t, StatusNothingNew, res.Status)
	assert.Equal(t, TargetNothingNew, res.Targets[0].Status)
	assert.Empty(t, res.Targets[0].Delivered)
	assert.Equal(t, []string{"Torch"}, res.Targets[0].Skipped)
}

func TestAnnounce(t *testing.T) {
	got := Announce("", []string{"Sun Blade", "Rope"})
	assert.Equal(t, "**The Merchant**: 🧿 \"Got somethin' that might interest ya'!\" : **Sun Blade, Rope**. Fine items, indeed!", got)
}
