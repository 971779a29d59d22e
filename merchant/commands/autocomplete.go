package commands

import (
	"encoding/json"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sahilm/fuzzy"
)

// maxChoices is Discord's cap on autocomplete results.
const maxChoices = 25

type choice struct {
	Label string
	Value string
}

type choices []choice

func (c choices) String(i int) string { return c[i].Label }
func (c choices) Len() int            { return len(c) }

// rank orders candidates by fuzzy score against query. An empty query keeps the input order.
func rank(query string, candidates choices) choices {
	query = strings.TrimSpace(query)
	if query == "" {
		if len(candidates) > maxChoices {
			return candidates[:maxChoices]
		}
		return candidates
	}

	matches := fuzzy.FindFrom(query, candidates)
	out := make(choices, 0, min(len(matches), maxChoices))
	for _, m := range matches {
		out = append(out, candidates[m.Index])
		if len(out) == maxChoices {
			break
		}
	}
	return out
}

func plainChoices(values []string) choices {
	out := make(choices, len(values))
	for i, v := range values {
		out[i] = choice{Label: v, Value: v}
	}
	return out
}

// completeList completes the last entry of a comma separated value, keeping the entries
// already typed and leaving out values that are already present.
func completeList(value string, candidates []string) choices {
	head, last := "", value
	if i := strings.LastIndex(value, ","); i >= 0 {
		head, last = value[:i+1], value[i+1:]
	}

	taken := make(map[string]struct{})
	for _, v := range strings.Split(head, ",") {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			taken[v] = struct{}{}
		}
	}

	prefix := strings.TrimSpace(head)
	if prefix != "" && !strings.HasSuffix(prefix, " ") {
		prefix += " "
	}

	var open []string
	for _, c := range candidates {
		if _, ok := taken[strings.ToLower(c)]; !ok {
			open = append(open, c)
		}
	}

	ranked := rank(last, plainChoices(open))
	out := make(choices, len(ranked))
	for i, c := range ranked {
		full := prefix + c.Value
		out[i] = choice{Label: full, Value: full}
	}
	return out
}

func focusedValue(e *handler.AutocompleteEvent) (string, string) {
	focused := e.Data.Focused()
	var s string
	if focused.Value != nil {
		_ = json.Unmarshal(focused.Value, &s)
	}
	return focused.Name, strings.TrimSpace(s)
}

func respondChoices(e *handler.AutocompleteEvent, c choices) error {
	out := make([]discord.AutocompleteChoice, 0, len(c))
	for _, ch := range c {
		out = append(out, discord.AutocompleteChoiceString{
			Name:  truncate(ch.Label, 100),
			Value: truncate(ch.Value, 100),
		})
	}
	return e.AutocompleteResult(out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
