package stocking

import (
	"fmt"
	"strings"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
)

// Criteria selects what a merchant gets stocked with.
type Criteria struct {
	Types   []string `toml:"types"`
	Tags    []string `toml:"tags"`
	Strict  bool     `toml:"strict"`
	Formula string   `toml:"formula"`
}

func (c Criteria) String() string {
	mode := "loose"
	if c.Strict {
		mode = "strict"
	}
	return fmt.Sprintf("types=[%s] tags=[%s] %s roll=%s",
		strings.Join(c.Types, ","), strings.Join(c.Tags, ","), mode, c.Formula)
}

type Status string

const (
	// StatusDelivered means at least one target received items.
	StatusDelivered Status = "delivered"
	// StatusNoMatch means filtering or classification left nothing to draw from.
	StatusNoMatch Status = "no_match"
	// StatusNothingNew means items were drawn but every target already held them.
	StatusNothingNew Status = "nothing_new"
	// StatusFailed means every target failed to take delivery.
	StatusFailed Status = "failed"
	// StatusSelected means items were drawn for a run without targets.
	StatusSelected Status = "selected"
)

type TargetStatus string

const (
	TargetDelivered  TargetStatus = "delivered"
	TargetNothingNew TargetStatus = "nothing_new"
	TargetFailed     TargetStatus = "failed"
)

// TargetOutcome is what happened to one merchant in a stocking run.
type TargetOutcome struct {
	Target    string
	Status    TargetStatus
	Delivered []string
	Skipped   []string
	Err       error
}

type Result struct {
	Status   Status
	Source   string
	Reason   string
	Rolled   int
	PoolSize int
	Selected []catalog.Payload
	Targets  []TargetOutcome
}

// Partial reports whether some targets received items while others did not.
func (r *Result) Partial() bool {
	delivered, other := 0, 0
	for _, t := range r.Targets {
		if t.Status == TargetDelivered {
			delivered++
		} else {
			other++
		}
	}
	return delivered > 0 && other > 0
}

func (r *Result) SelectedNames() []string {
	names := make([]string, len(r.Selected))
	for i, p := range r.Selected {
		names[i] = p.Name
	}
	return names
}

// Announce renders the merchant's sales pitch for a delivery.
func Announce(merchant string, items []string) string {
	if strings.TrimSpace(merchant) == "" {
		merchant = DefaultMerchantName
	}
	return fmt.Sprintf("**%s**: 🧿 \"Got somethin' that might interest ya'!\" : **%s**. Fine items, indeed!",
		merchant, strings.Join(items, ", "))
}

const DefaultMerchantName = "The Merchant"
