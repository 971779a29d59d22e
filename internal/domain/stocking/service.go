package stocking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
	"github.com/sanctumforge/merchant/internal/domain/sampler"
	"golang.org/x/sync/errgroup"
)

const defaultLookupLimit = 8

type Service struct {
	classifier  *rarity.Classifier
	sampler     *sampler.Sampler
	dice        DiceEvaluator
	notifier    Notifier
	lookupLimit int
}

func NewService(classifier *rarity.Classifier, smp *sampler.Sampler, dice DiceEvaluator, notifier Notifier) *Service {
	return &Service{
		classifier:  classifier,
		sampler:     smp,
		dice:        dice,
		notifier:    notifier,
		lookupLimit: defaultLookupLimit,
	}
}

// SetLookupLimit caps how many full item lookups run at once.
func (s *Service) SetLookupLimit(n int) {
	if n > 0 {
		s.lookupLimit = n
	}
}

// Stock draws a weighted selection from source and delivers it to each target in turn.
// Source and formula errors abort the run before anything is delivered; a target that
// fails is recorded in its outcome and does not stop the others.
func (s *Service) Stock(ctx context.Context, source catalog.Source, criteria Criteria, targets ...InventoryTarget) (*Result, error) {
	start := time.Now()
	result := &Result{Source: source.Name()}

	tags, err := s.classifier.Table().Resolve(criteria.Tags)
	if err != nil {
		return nil, err
	}

	items, err := source.ListItems(ctx, catalog.IndexFields)
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("Compendium %q could not be loaded.", source.Name()))
		return nil, fmt.Errorf("failed to list items from %s: %w", source.Name(), err)
	}

	filtered := catalog.FilterByType(items, criteria.Types)
	if len(filtered) == 0 {
		return s.noMatch(ctx, result, "no items of the allowed types"), nil
	}

	pool := s.sampler.BuildPool(filtered, sampler.Criteria{Tags: tags, Strict: criteria.Strict})
	result.PoolSize = pool.Len()
	if pool.Empty() {
		return s.noMatch(ctx, result, "no items found matching the selected criteria"), nil
	}

	rolled, err := s.dice.Evaluate(ctx, criteria.Formula)
	if err != nil {
		s.notifier.Error(ctx, fmt.Sprintf("Roll formula %q could not be evaluated.", criteria.Formula))
		return nil, err
	}
	result.Rolled = rolled

	ids := s.sampler.Draw(pool, rolled)
	payloads, err := s.resolve(ctx, source, ids)
	if err != nil {
		return nil, err
	}
	result.Selected = payloads

	slog.Info("Stock selection drawn",
		slog.String("type", "sys"),
		slog.String("component", "stocking"),
		slog.String("source", source.Name()),
		slog.Int("catalog", len(items)),
		slog.Int("filtered", len(filtered)),
		slog.Int("pool", pool.Len()),
		slog.Int("rolled", rolled),
		slog.Int("selected", len(payloads)),
	)

	if len(targets) == 0 {
		result.Status = StatusSelected
		return result, nil
	}

	for _, target := range targets {
		result.Targets = append(result.Targets, s.deliver(ctx, target, payloads))
	}
	result.Status = overallStatus(result.Targets)

	slog.Info("Stocking finished",
		slog.String("type", "sys"),
		slog.String("component", "stocking"),
		slog.String("status", string(result.Status)),
		slog.Int("targets", len(targets)),
		slog.Bool("partial", result.Partial()),
		slog.Duration("took", time.Since(start)),
	)
	return result, nil
}

func (s *Service) noMatch(ctx context.Context, result *Result, reason string) *Result {
	result.Status = StatusNoMatch
	result.Reason = reason
	s.notifier.Warn(ctx, "No items found matching the selected criteria.")
	slog.Warn("Stocking found nothing to draw",
		slog.String("type", "sys"),
		slog.String("component", "stocking"),
		slog.String("source", result.Source),
		slog.String("reason", reason),
	)
	return result
}

// resolve fetches the full documents for the drawn ids, keeping draw order.
func (s *Service) resolve(ctx context.Context, source catalog.Source, ids []string) ([]catalog.Payload, error) {
	payloads := make([]catalog.Payload, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.lookupLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			p, err := source.GetFullItem(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to load item %s: %w", id, err)
			}
			payloads[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

func (s *Service) deliver(ctx context.Context, target InventoryTarget, payloads []catalog.Payload) TargetOutcome {
	outcome := TargetOutcome{Target: target.Name()}

	owned, err := target.ListItemNames(ctx)
	if err != nil {
		return s.failTarget(ctx, outcome, err)
	}

	fresh := make([]catalog.Payload, 0, len(payloads))
	queued := make(map[string]struct{}, len(payloads))
	for _, p := range payloads {
		_, held := owned[p.Name]
		// two drawn documents sharing a name still land only once
		_, dup := queued[p.Name]
		if held || dup {
			outcome.Skipped = append(outcome.Skipped, p.Name)
			continue
		}
		queued[p.Name] = struct{}{}
		fresh = append(fresh, p)
	}

	if len(fresh) == 0 {
		outcome.Status = TargetNothingNew
		slog.Info("Merchant already stocks every selected item",
			slog.String("type", "sys"),
			slog.String("component", "stocking"),
			slog.String("target", outcome.Target),
		)
		return outcome
	}

	if err := target.AddItems(ctx, fresh); err != nil {
		var held *HeldError
		if !errors.As(err, &held) {
			return s.failTarget(ctx, outcome, err)
		}
		fresh = withoutNames(fresh, held.Names)
		outcome.Skipped = append(outcome.Skipped, held.Names...)
		if len(fresh) == 0 {
			outcome.Status = TargetNothingNew
			return outcome
		}
	}

	for _, p := range fresh {
		outcome.Delivered = append(outcome.Delivered, p.Name)
	}
	outcome.Status = TargetDelivered
	s.notifier.Info(ctx, Announce(outcome.Target, outcome.Delivered))
	return outcome
}

func withoutNames(payloads []catalog.Payload, names []string) []catalog.Payload {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := payloads[:0:0]
	for _, p := range payloads {
		if _, ok := drop[p.Name]; !ok {
			kept = append(kept, p)
		}
	}
	return kept
}

func (s *Service) failTarget(ctx context.Context, outcome TargetOutcome, err error) TargetOutcome {
	outcome.Status = TargetFailed
	outcome.Err = err
	s.notifier.Error(ctx, fmt.Sprintf("Could not stock %s.", outcome.Target))
	slog.Error("Failed to stock merchant",
		slog.String("type", "error"),
		slog.String("component", "stocking"),
		slog.String("target", outcome.Target),
		slog.Any("error", err),
	)
	return outcome
}

func overallStatus(outcomes []TargetOutcome) Status {
	delivered, nothingNew := 0, 0
	for _, o := range outcomes {
		switch o.Status {
		case TargetDelivered:
			delivered++
		case TargetNothingNew:
			nothingNew++
		}
	}
	switch {
	case delivered > 0:
		return StatusDelivered
	case nothingNew > 0:
		return StatusNothingNew
	default:
		return StatusFailed
	}
}
