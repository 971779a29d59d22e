package catalog

import "strings"

// FilterByType keeps the items whose declared type matches one of the allowed types,
// compared case-insensitively. Catalog order is preserved.
func FilterByType(items []Item, allowedTypes []string) []Item {
	allowed := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		allowed[t] = struct{}{}
	}

	filtered := make([]Item, 0, len(items))
	if len(allowed) == 0 {
		return filtered
	}

	for _, item := range items {
		if _, ok := allowed[strings.ToLower(item.Type)]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SplitList turns a comma separated option value into its trimmed, non-empty parts.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
