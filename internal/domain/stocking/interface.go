package stocking

import (
	"context"
	"fmt"
	"strings"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
)

//go:generate mockgen -destination=mock/collaborators.go -package=mock . InventoryTarget,Notifier,DiceEvaluator
//go:generate mockgen -destination=mock/source.go -package=mock github.com/sanctumforge/merchant/internal/domain/catalog Source

// InventoryTarget is a merchant inventory receiving stock.
type InventoryTarget interface {
	Name() string
	ListItemNames(ctx context.Context) (map[string]struct{}, error)
	AddItems(ctx context.Context, items []catalog.Payload) error
}

// HeldError is returned by AddItems when some items were already in the inventory at
// write time. Every other item was stocked.
type HeldError struct {
	Target string
	Names  []string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%s already holds %s", e.Target, strings.Join(e.Names, ", "))
}

// Notifier delivers fire-and-forget messages to the table.
type Notifier interface {
	Info(ctx context.Context, text string)
	Warn(ctx context.Context, text string)
	Error(ctx context.Context, text string)
}

type DiceEvaluator interface {
	Evaluate(ctx context.Context, formula string) (int, error)
}
