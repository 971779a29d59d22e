package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/logger"
	"github.com/uptrace/bun"
)

const defaultQueryTimeout = 15 * time.Second

type CompendiumRepository interface {
	ListPacks(ctx context.Context) ([]*models.Compendium, error)
	GetPack(ctx context.Context, name string) (*models.Compendium, error)
	UpsertPack(ctx context.Context, pack *models.Compendium) error
	RefreshItemCount(ctx context.Context, name string) (int, error)

	ListItems(ctx context.Context, pack string, fields []string) ([]*models.CompendiumItem, error)
	GetItem(ctx context.Context, pack, id string) (*models.CompendiumItem, error)
	BulkInsertItems(ctx context.Context, items []*models.CompendiumItem) (int, error)
	ReplaceItems(ctx context.Context, pack string, items []*models.CompendiumItem) (int, error)

	// Source exposes a pack as a catalog source for stocking runs.
	Source(pack string) catalog.Source
}

type compendiumRepository struct {
	db *bun.DB
}

func NewCompendiumRepository(db *bun.DB) CompendiumRepository {
	return &compendiumRepository{db: db}
}

func (r *compendiumRepository) ListPacks(ctx context.Context) (packs []*models.Compendium, err error) {
	defer logger.QueryLogger("compendiums.list")(&err)
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	err = r.db.NewSelect().
		Model(&packs).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, &RepositoryError{Operation: "list", Entity: "compendium", Err: err}
	}
	return packs, nil
}

func (r *compendiumRepository) GetPack(ctx context.Context, name string) (*models.Compendium, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	pack := new(models.Compendium)
	err := r.db.NewSelect().
		Model(pack).
		Where("name = ?", name).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &catalog.SourceNotFoundError{Source: name}
	}
	if err != nil {
		return nil, &RepositoryError{Operation: "get", Entity: "compendium", Err: err}
	}
	return pack, nil
}

func (r *compendiumRepository) UpsertPack(ctx context.Context, pack *models.Compendium) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	pack.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(pack).
		On("CONFLICT (name) DO UPDATE").
		Set("label = EXCLUDED.label").
		Set("origin = EXCLUDED.origin").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return &RepositoryError{Operation: "upsert", Entity: "compendium", Err: err}
	}
	return nil
}

func (r *compendiumRepository) RefreshItemCount(ctx context.Context, name string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.CompendiumItem)(nil)).
		Where("pack = ?", name).
		Count(ctx)
	if err != nil {
		return 0, &RepositoryError{Operation: "count", Entity: "compendium_item", Err: err}
	}

	_, err = r.db.NewUpdate().
		Model((*models.Compendium)(nil)).
		Set("item_count = ?", count).
		Set("updated_at = ?", time.Now()).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return 0, &RepositoryError{Operation: "update", Entity: "compendium", Err: err}
	}
	return count, nil
}

// indexColumns maps requested index fields onto columns. id and name are always loaded.
func indexColumns(fields []string) []string {
	cols := []string{"pack", "id", "name"}
	seen := map[string]bool{"pack": true, "id": true, "name": true}
	for _, f := range fields {
		switch f {
		case "type", "system", "flags":
			if !seen[f] {
				seen[f] = true
				cols = append(cols, f)
			}
		}
	}
	return cols
}

func (r *compendiumRepository) ListItems(ctx context.Context, pack string, fields []string) (items []*models.CompendiumItem, err error) {
	defer logger.QueryLogger("compendium_items.list")(&err)
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	err = r.db.NewSelect().
		Model(&items).
		Column(indexColumns(fields)...).
		Where("pack = ?", pack).
		Order("name ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, &RepositoryError{Operation: "list", Entity: "compendium_item", Err: err}
	}
	return items, nil
}

func (r *compendiumRepository) GetItem(ctx context.Context, pack, id string) (*models.CompendiumItem, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	item := new(models.CompendiumItem)
	err := r.db.NewSelect().
		Model(item).
		Where("pack = ? AND id = ?", pack, id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in %s", catalog.ErrItemNotFound, id, pack)
	}
	if err != nil {
		return nil, &RepositoryError{Operation: "get", Entity: "compendium_item", Err: err}
	}
	return item, nil
}

// BulkInsertItems inserts items, replacing any that already exist under the same pack and id.
func (r *compendiumRepository) BulkInsertItems(ctx context.Context, items []*models.CompendiumItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	n, err := upsertItems(ctx, r.db, items)
	if err != nil {
		return 0, &RepositoryError{Operation: "bulk insert", Entity: "compendium_item", Err: err}
	}
	return n, nil
}

// ReplaceItems swaps a pack's items for items in one transaction. A failed insert keeps
// the old items.
func (r *compendiumRepository) ReplaceItems(ctx context.Context, pack string, items []*models.CompendiumItem) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var inserted int
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.CompendiumItem)(nil)).
			Where("pack = ?", pack).
			Exec(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		inserted, err = upsertItems(ctx, tx, items)
		return err
	})
	if err != nil {
		return 0, &RepositoryError{Operation: "replace", Entity: "compendium_item", Err: err}
	}
	return inserted, nil
}

func upsertItems(ctx context.Context, db bun.IDB, items []*models.CompendiumItem) (int, error) {
	res, err := db.NewInsert().
		Model(&items).
		On("CONFLICT (pack, id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("type = EXCLUDED.type").
		Set("system = EXCLUDED.system").
		Set("flags = EXCLUDED.flags").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *compendiumRepository) Source(pack string) catalog.Source {
	return &packSource{repo: r, pack: pack}
}

type packSource struct {
	repo *compendiumRepository
	pack string
}

func (s *packSource) Name() string {
	return s.pack
}

func (s *packSource) ListItems(ctx context.Context, fields []string) ([]catalog.Item, error) {
	if _, err := s.repo.GetPack(ctx, s.pack); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListItems(ctx, s.pack, fields)
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, len(rows))
	for i, row := range rows {
		items[i] = ToCatalogItem(row)
	}
	return items, nil
}

func (s *packSource) GetFullItem(ctx context.Context, id string) (catalog.Payload, error) {
	row, err := s.repo.GetItem(ctx, s.pack, id)
	if err != nil {
		return catalog.Payload{}, err
	}
	return ToPayload(row), nil
}

func ToCatalogItem(row *models.CompendiumItem) catalog.Item {
	return catalog.Item{
		ID:     row.ID,
		Name:   row.Name,
		Type:   row.Type,
		System: row.System,
		Flags:  row.Flags,
		Raw:    row.Data,
	}
}

func ToPayload(row *models.CompendiumItem) catalog.Payload {
	return catalog.Payload{
		ID:   row.ID,
		Name: row.Name,
		Type: row.Type,
		Data: row.Data,
	}
}

// FromCatalogItem turns a parsed item into a row of pack.
func FromCatalogItem(pack string, item catalog.Item) *models.CompendiumItem {
	return &models.CompendiumItem{
		Pack:   pack,
		ID:     item.ID,
		Name:   item.Name,
		Type:   item.Type,
		System: item.System,
		Flags:  item.Flags,
		Data:   item.Raw,
	}
}
