package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/logger"
	"github.com/uptrace/bun"
)

type MerchantRepository interface {
	Create(ctx context.Context, guildID, name string) (*models.Merchant, error)
	GetByName(ctx context.Context, guildID, name string) (*models.Merchant, error)
	List(ctx context.Context, guildID string) ([]*models.Merchant, error)
	Delete(ctx context.Context, id int64) error

	GetItems(ctx context.Context, merchantID int64) ([]*models.MerchantItem, error)
	GetItemNames(ctx context.Context, merchantID int64) (map[string]struct{}, error)
	AddItems(ctx context.Context, merchantID int64, items []catalog.Payload) ([]string, error)
	RemoveItem(ctx context.Context, merchantID int64, name string) error
	ClearItems(ctx context.Context, merchantID int64) (int, error)

	// Target adapts a merchant into a stocking inventory target.
	Target(m *models.Merchant) stocking.InventoryTarget
}

type merchantRepository struct {
	db *bun.DB
}

func NewMerchantRepository(db *bun.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(ctx context.Context, guildID, name string) (*models.Merchant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	_, err := r.GetByName(ctx, guildID, name)
	if err == nil {
		return nil, &ConflictError{Entity: "merchant", Field: "name", Value: name}
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	m := &models.Merchant{
		GuildID:   guildID,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := r.db.NewInsert().Model(m).Returning("id").Exec(ctx); err != nil {
		return nil, &RepositoryError{Operation: "create", Entity: "merchant", Err: err}
	}
	return m, nil
}

func (r *merchantRepository) GetByName(ctx context.Context, guildID, name string) (*models.Merchant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	m := new(models.Merchant)
	err := r.db.NewSelect().
		Model(m).
		Where("guild_id = ?", guildID).
		Where("lower(name) = lower(?)", strings.TrimSpace(name)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "merchant", ID: name}
	}
	if err != nil {
		return nil, &RepositoryError{Operation: "get", Entity: "merchant", Err: err}
	}
	return m, nil
}

func (r *merchantRepository) List(ctx context.Context, guildID string) (merchants []*models.Merchant, err error) {
	defer logger.QueryLogger("merchants.list")(&err)
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	err = r.db.NewSelect().
		Model(&merchants).
		Where("guild_id = ?", guildID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, &RepositoryError{Operation: "list", Entity: "merchant", Err: err}
	}
	return merchants, nil
}

func (r *merchantRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.MerchantItem)(nil)).Where("merchant_id = ?", id).Exec(ctx); err != nil {
			return &RepositoryError{Operation: "delete", Entity: "merchant_item", Err: err}
		}
		res, err := tx.NewDelete().Model((*models.Merchant)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return &RepositoryError{Operation: "delete", Entity: "merchant", Err: err}
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &NotFoundError{Entity: "merchant", ID: id}
		}
		return nil
	})
}

func (r *merchantRepository) GetItems(ctx context.Context, merchantID int64) (items []*models.MerchantItem, err error) {
	defer logger.QueryLogger("merchant_items.list")(&err)
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	err = r.db.NewSelect().
		Model(&items).
		Where("merchant_id = ?", merchantID).
		Order("stocked_at ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, &RepositoryError{Operation: "list", Entity: "merchant_item", Err: err}
	}
	return items, nil
}

func (r *merchantRepository) GetItemNames(ctx context.Context, merchantID int64) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var names []string
	err := r.db.NewSelect().
		Model((*models.MerchantItem)(nil)).
		Column("name").
		Where("merchant_id = ?", merchantID).
		Scan(ctx, &names)
	if err != nil {
		return nil, &RepositoryError{Operation: "list names", Entity: "merchant_item", Err: err}
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

// AddItems stocks items in one transaction and returns the names it inserted. The merchant
// row is locked first so concurrent runs see each other's rows; names the merchant already
// holds are left untouched.
func (r *merchantRepository) AddItems(ctx context.Context, merchantID int64, items []catalog.Payload) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	names := make([]string, len(items))
	for i, p := range items {
		names[i] = p.Name
	}

	now := time.Now()
	var added []string
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var locked int64
		err := tx.NewSelect().
			Model((*models.Merchant)(nil)).
			Column("id").
			Where("id = ?", merchantID).
			For("UPDATE").
			Scan(ctx, &locked)
		if err != nil {
			return err
		}

		var held []string
		err = tx.NewSelect().
			Model((*models.MerchantItem)(nil)).
			Column("name").
			Where("merchant_id = ?", merchantID).
			Where("name IN (?)", bun.In(names)).
			Scan(ctx, &held)
		if err != nil {
			return err
		}
		skip := make(map[string]struct{}, len(held))
		for _, n := range held {
			skip[n] = struct{}{}
		}

		rows := make([]*models.MerchantItem, 0, len(items))
		for _, p := range items {
			if _, ok := skip[p.Name]; ok {
				continue
			}
			skip[p.Name] = struct{}{}
			rows = append(rows, &models.MerchantItem{
				MerchantID: merchantID,
				Name:       p.Name,
				ItemID:     p.ID,
				Type:       p.Type,
				Data:       p.Data,
				Quantity:   1,
				StockedAt:  now,
			})
		}
		if len(rows) == 0 {
			return nil
		}

		if _, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (merchant_id, name) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}
		for _, row := range rows {
			added = append(added, row.Name)
		}

		_, err = tx.NewUpdate().
			Model((*models.Merchant)(nil)).
			Set("updated_at = ?", now).
			Where("id = ?", merchantID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, &RepositoryError{Operation: "add items", Entity: "merchant_item", Err: err}
	}
	return added, nil
}

func (r *merchantRepository) RemoveItem(ctx context.Context, merchantID int64, name string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.MerchantItem)(nil)).
		Where("merchant_id = ? AND name = ?", merchantID, name).
		Exec(ctx)
	if err != nil {
		return &RepositoryError{Operation: "remove", Entity: "merchant_item", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "merchant_item", ID: name}
	}
	return nil
}

func (r *merchantRepository) ClearItems(ctx context.Context, merchantID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.MerchantItem)(nil)).
		Where("merchant_id = ?", merchantID).
		Exec(ctx)
	if err != nil {
		return 0, &RepositoryError{Operation: "clear", Entity: "merchant_item", Err: err}
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *merchantRepository) Target(m *models.Merchant) stocking.InventoryTarget {
	return &merchantTarget{repo: r, merchant: m}
}

type merchantTarget struct {
	repo     MerchantRepository
	merchant *models.Merchant
}

func (t *merchantTarget) Name() string {
	return t.merchant.Name
}

func (t *merchantTarget) ListItemNames(ctx context.Context) (map[string]struct{}, error) {
	return t.repo.GetItemNames(ctx, t.merchant.ID)
}

// AddItems reports a *stocking.HeldError when some items were already stocked by the
// time the write ran.
func (t *merchantTarget) AddItems(ctx context.Context, items []catalog.Payload) error {
	added, err := t.repo.AddItems(ctx, t.merchant.ID, items)
	if err != nil {
		return err
	}
	inserted := make(map[string]struct{}, len(added))
	for _, n := range added {
		inserted[n] = struct{}{}
	}
	held := &stocking.HeldError{Target: t.merchant.Name}
	for _, p := range items {
		if _, ok := inserted[p.Name]; !ok {
			held.Names = append(held.Names, p.Name)
		}
	}
	if len(held.Names) == 0 {
		return nil
	}
	return held
}

// StockedItem rebuilds the catalog view of a stocked item so it can be classified again.
func StockedItem(row *models.MerchantItem) catalog.Item {
	item := catalog.Item{ID: row.ItemID, Name: row.Name, Type: row.Type, Raw: row.Data}
	if parsed, err := catalog.ParseItems(row.Data); err == nil && len(parsed) == 1 {
		item.System = parsed[0].System
		item.Flags = parsed[0].Flags
	}
	return item
}
