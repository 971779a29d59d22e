package migration

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sliceCursor struct {
	docs   []bson.M
	pos    int
	closed bool
}

func (c *sliceCursor) Next(context.Context) bool {
	c.pos++
	return c.pos <= len(c.docs)
}

func (c *sliceCursor) Decode(v any) error {
	doc := c.docs[c.pos-1]
	if doc == nil {
		return errors.New("corrupt document")
	}
	*v.(*bson.M) = doc
	return nil
}

func (c *sliceCursor) Err() error                 { return nil }
func (c *sliceCursor) Close(context.Context) error { c.closed = true; return nil }

type fakeCompendiums struct {
	repositories.CompendiumRepository

	mu        sync.Mutex
	packs     []string
	rows      []*models.CompendiumItem
	batches   int
	refreshed []string
	failPack  string
}

func (f *fakeCompendiums) UpsertPack(_ context.Context, pack *models.Compendium) error {
	if pack.Name == f.failPack {
		return errors.New("boom")
	}
	f.packs = append(f.packs, pack.Name)
	return nil
}

func (f *fakeCompendiums) BulkInsertItems(_ context.Context, rows []*models.CompendiumItem) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
	f.batches++
	return len(rows), nil
}

func (f *fakeCompendiums) RefreshItemCount(_ context.Context, pack string) (int, error) {
	f.refreshed = append(f.refreshed, pack)
	n := 0
	for _, r := range f.rows {
		if r.Pack == pack {
			n++
		}
	}
	return n, nil
}

type fakeCopier struct {
	mu   sync.Mutex
	rows int
}

func (f *fakeCopier) CopyCompendiumItems(_ context.Context, rows []*models.CompendiumItem) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows += len(rows)
	return int64(len(rows)), nil
}

type fakeUploader struct {
	packs map[string][]byte
}

func (f *fakeUploader) UploadPack(_ context.Context, name string, data []byte) error {
	if f.packs == nil {
		f.packs = make(map[string][]byte)
	}
	f.packs[name] = data
	return nil
}

func legacyDocs() []bson.M {
	oid := primitive.NewObjectID()
	return []bson.M{
		{"_id": oid, "name": "Sun Blade", "type": "weapon", "system": bson.M{"rarity": "rare"}},
		{"_id": "potion-1", "name": "Potion of Healing", "type": "consumable", "pack": "world.potions"},
		{"_id": "nameless", "type": "loot"},
		nil,
		{"_id": int32(7), "name": "Rope", "type": "loot", "flags": bson.M{"sanctum": bson.M{"rarity": "common"}}},
	}
}

func TestConvertDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	row, err := convertDocument(bson.M{
		"_id":    oid,
		"name":   "Sun Blade",
		"type":   "weapon",
		"system": bson.M{"rarity": "rare", "price": bson.M{"value": int32(500)}},
		"pack":   "world.blades",
	}, "fallback")
	require.NoError(t, err)

	assert.Equal(t, "world.blades", row.Pack)
	assert.Equal(t, oid.Hex(), row.ID)
	assert.Equal(t, "Sun Blade", row.Name)
	assert.Equal(t, "weapon", row.Type)
	assert.Equal(t, "rare", row.System["rarity"])

	var data map[string]any
	require.NoError(t, json.Unmarshal(row.Data, &data))
	assert.Equal(t, oid.Hex(), data["_id"])
	assert.NotContains(t, data, "pack")

	_, err = convertDocument(bson.M{"_id": "x", "name": "  "}, "fallback")
	assert.ErrorIs(t, err, errNoName)
}

func TestDocumentID(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), documentID(oid))
	assert.Equal(t, "abc", documentID("abc"))
	assert.Equal(t, "7", documentID(int32(7)))
	assert.Equal(t, "", documentID(nil))
}

func TestRun(t *testing.T) {
	repo := &fakeCompendiums{}
	uploader := &fakeUploader{}
	m := NewMigrator(repo, nil, "world.legacy")
	m.SetBatchSize(1)
	m.SetWorkers(2)
	m.ExportTo(uploader)

	cur := &sliceCursor{docs: legacyDocs()}
	stats, err := m.Run(context.Background(), cur)
	require.NoError(t, err)

	assert.True(t, cur.closed)
	assert.Equal(t, 5, stats.Processed)
	assert.Equal(t, int64(3), stats.Inserted)
	assert.Equal(t, 2, stats.Skipped)
	assert.Len(t, stats.SkippedRecords, 2)
	assert.Equal(t, map[string]int{"world.legacy": 2, "world.potions": 1}, stats.Packs)
	assert.Equal(t, 3, repo.batches)
	assert.ElementsMatch(t, []string{"world.legacy", "world.potions"}, repo.packs)
	assert.Equal(t, []string{"world.legacy", "world.potions"}, repo.refreshed)

	var exported []map[string]any
	require.NoError(t, json.Unmarshal(uploader.packs["world.legacy"], &exported))
	assert.Len(t, exported, 2)
}

func TestRunWithCopy(t *testing.T) {
	repo := &fakeCompendiums{}
	copier := &fakeCopier{}
	m := NewMigrator(repo, copier, "world.legacy")
	m.SetUseCopy(true)

	stats, err := m.Run(context.Background(), &sliceCursor{docs: legacyDocs()})
	require.NoError(t, err)
	assert.Equal(t, 3, copier.rows)
	assert.Equal(t, int64(3), stats.Inserted)
	assert.Zero(t, repo.batches)
}

func TestRunPackFailure(t *testing.T) {
	repo := &fakeCompendiums{failPack: "world.legacy"}
	m := NewMigrator(repo, nil, "world.legacy")

	_, err := m.Run(context.Background(), &sliceCursor{docs: legacyDocs()})
	assert.ErrorContains(t, err, "failed to create pack world.legacy")
}

func TestWriteReport(t *testing.T) {
	m := NewMigrator(&fakeCompendiums{}, nil, "world.legacy")
	_, err := m.Run(context.Background(), &sliceCursor{docs: legacyDocs()[:1]})
	require.NoError(t, err)

	path, err := m.WriteReport(t.TempDir())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var stats Stats
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 1, stats.Processed)
}
