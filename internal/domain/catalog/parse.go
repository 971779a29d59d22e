package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type itemDocument struct {
	ID     string         `json:"_id"`
	AltID  string         `json:"id"`
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	System map[string]any `json:"system"`
	Data   map[string]any `json:"data"`
	Flags  map[string]any `json:"flags"`
}

type itemEnvelope struct {
	Items []json.RawMessage `json:"items"`
}

// ParseItems decodes a pasted or stored item export. It accepts a JSON array of item
// documents, an object with an "items" array, or a single item document. Documents
// without an id get a positional one; duplicate ids are suffixed so every id stays unique.
func ParseItems(data []byte) ([]Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoItems
	}

	var raws []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	case '{':
		var env itemEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if env.Items != nil {
			raws = env.Items
		} else {
			raws = []json.RawMessage{data}
		}
	default:
		return nil, fmt.Errorf("%w: expected an object or array", ErrInvalidJSON)
	}

	items := make([]Item, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, raw := range raws {
		var doc itemDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidJSON, i, err)
		}

		name := strings.TrimSpace(doc.Name)
		if name == "" {
			continue
		}

		id := doc.ID
		if id == "" {
			id = doc.AltID
		}
		if id == "" {
			id = fmt.Sprintf("item-%d", i)
		}
		if n, dup := seen[id]; dup {
			base := id
			for {
				n++
				id = fmt.Sprintf("%s-%d", base, n)
				if _, taken := seen[id]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[id] = 0

		system := doc.System
		if system == nil {
			// pre-v10 exports keep system data under "data"
			system = doc.Data
		}

		items = append(items, Item{
			ID:     id,
			Name:   name,
			Type:   strings.TrimSpace(doc.Type),
			System: system,
			Flags:  doc.Flags,
			Raw:    append(json.RawMessage(nil), raw...),
		})
	}

	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return items, nil
}
