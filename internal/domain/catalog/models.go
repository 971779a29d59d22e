package catalog

import (
	"context"
	"encoding/json"
)

// IndexFields are the item fields a stocking run needs from a source index.
var IndexFields = []string{"name", "type", "flags", "system"}

// Item is one catalog entry as listed by a source index.
type Item struct {
	ID     string
	Name   string
	Type   string
	System map[string]any
	Flags  map[string]any
	Raw    json.RawMessage
}

// Payload is the full item document handed to an inventory once it has been selected.
type Payload struct {
	ID   string
	Name string
	Type string
	Data json.RawMessage
}

type Source interface {
	// Name identifies the source in operator messages.
	Name() string
	ListItems(ctx context.Context, fields []string) ([]Item, error)
	GetFullItem(ctx context.Context, id string) (Payload, error)
}

// PayloadOf builds the payload for an item whose index entry already carries its full data.
func PayloadOf(item Item) Payload {
	return Payload{
		ID:   item.ID,
		Name: item.Name,
		Type: item.Type,
		Data: item.Raw,
	}
}
