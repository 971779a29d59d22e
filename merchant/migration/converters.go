package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errNoName = errors.New("document has no name")

// documentID renders a Mongo _id as the string id used by compendium rows.
func documentID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// packOf picks the pack a document belongs to: its own "pack" field, else fallback.
func packOf(doc bson.M, fallback string) string {
	if p, ok := doc["pack"].(string); ok && strings.TrimSpace(p) != "" {
		return strings.TrimSpace(p)
	}
	return fallback
}

// convertDocument turns a legacy compendium document into a Postgres row. The document is
// re-encoded as relaxed extended JSON and run through the same parser as JSON imports, so
// migrated items classify exactly like imported ones.
func convertDocument(doc bson.M, fallbackPack string) (*models.CompendiumItem, error) {
	if name, _ := doc["name"].(string); strings.TrimSpace(name) == "" {
		return nil, errNoName
	}

	pack := packOf(doc, fallbackPack)
	clean := make(bson.M, len(doc))
	for k, v := range doc {
		if k == "pack" {
			continue
		}
		clean[k] = v
	}
	clean["_id"] = documentID(doc["_id"])

	data, err := bson.MarshalExtJSON(clean, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	items, err := catalog.ParseItems(data)
	if err != nil {
		return nil, err
	}
	if len(items) != 1 {
		return nil, fmt.Errorf("expected one item, got %d", len(items))
	}
	return repositories.FromCatalogItem(pack, items[0]), nil
}
