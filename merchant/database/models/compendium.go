package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Compendium is a named pack of items, e.g. "world.ddb-oathbreaker-ddb-items".
type Compendium struct {
	bun.BaseModel `bun:"table:compendiums,alias:cp"`

	Name      string    `bun:"name,pk"`
	Label     string    `bun:"label"`
	Origin    string    `bun:"origin,notnull,default:'postgres'"`
	ItemCount int       `bun:"item_count,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type CompendiumItem struct {
	bun.BaseModel `bun:"table:compendium_items,alias:ci"`

	Pack      string          `bun:"pack,pk"`
	ID        string          `bun:"id,pk"`
	Name      string          `bun:"name,notnull"`
	Type      string          `bun:"type,notnull"`
	System    map[string]any  `bun:"system,type:jsonb"`
	Flags     map[string]any  `bun:"flags,type:jsonb"`
	Data      json.RawMessage `bun:"data,type:jsonb"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp"`
}
