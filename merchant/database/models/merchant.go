package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type Merchant struct {
	bun.BaseModel `bun:"table:merchants,alias:m"`

	ID        int64     `bun:"id,pk,autoincrement"`
	GuildID   string    `bun:"guild_id,notnull"`
	Name      string    `bun:"name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Items []*MerchantItem `bun:"rel:has-many,join:id=merchant_id"`
}

// MerchantItem is one stocked item. A merchant never holds two items with the same name.
type MerchantItem struct {
	bun.BaseModel `bun:"table:merchant_items,alias:mi"`

	MerchantID int64           `bun:"merchant_id,pk"`
	Name       string          `bun:"name,pk"`
	ItemID     string          `bun:"item_id,notnull"`
	Type       string          `bun:"type"`
	Data       json.RawMessage `bun:"data,type:jsonb"`
	Quantity   int             `bun:"quantity,notnull,default:1"`
	StockedAt  time.Time       `bun:"stocked_at,notnull,default:current_timestamp"`
}
