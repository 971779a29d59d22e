package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/dice"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
	"github.com/sanctumforge/merchant/merchant"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
)

const (
	requestTimeout = 10 * time.Second
	stockTimeout   = 25 * time.Second
)

type importResponse struct {
	ID        string    `json:"id"`
	Ref       string    `json:"ref"`
	Name      string    `json:"name"`
	Items     int       `json:"items"`
	ExpiresAt time.Time `json:"expires_at"`
}

type merchantResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type wareResponse struct {
	Name      string    `json:"name"`
	Type      string    `json:"type,omitempty"`
	Rarity    string    `json:"rarity,omitempty"`
	Quantity  int       `json:"quantity"`
	StockedAt time.Time `json:"stocked_at"`
}

type stockRequest struct {
	merchant.CriteriaOverrides
	Merchants []string `json:"merchants"`
	Source    string   `json:"source"`
}

type targetResponse struct {
	Merchant  string   `json:"merchant"`
	Status    string   `json:"status"`
	Delivered []string `json:"delivered,omitempty"`
	Skipped   []string `json:"skipped,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type stockResponse struct {
	Status   string           `json:"status"`
	Source   string           `json:"source"`
	Criteria string           `json:"criteria"`
	Reason   string           `json:"reason,omitempty"`
	Rolled   int              `json:"rolled"`
	PoolSize int              `json:"pool_size"`
	Selected []string         `json:"selected"`
	Targets  []targetResponse `json:"targets,omitempty"`
	Partial  bool             `json:"partial"`
}

func newStockResponse(res *stocking.Result, criteria stocking.Criteria) stockResponse {
	out := stockResponse{
		Status:   string(res.Status),
		Source:   res.Source,
		Criteria: criteria.String(),
		Reason:   res.Reason,
		Rolled:   res.Rolled,
		PoolSize: res.PoolSize,
		Selected: res.SelectedNames(),
		Partial:  res.Partial(),
	}
	for _, t := range res.Targets {
		tr := targetResponse{
			Merchant:  t.Target,
			Status:    string(t.Status),
			Delivered: t.Delivered,
			Skipped:   t.Skipped,
		}
		if t.Err != nil {
			tr.Error = t.Err.Error()
		}
		out.Targets = append(out.Targets, tr)
	}
	return out
}

func (s *Server) health(c *fiber.Ctx) error {
	return SendSuccess(c, fiber.Map{
		"status":  "ok",
		"version": s.bot.Version,
		"commit":  s.bot.Commit,
		"imports": s.bot.Imports.Len(),
	}, "")
}

func (s *Server) listSources(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	return SendSuccess(c, s.bot.ListSources(ctx), "")
}

// createImport stores the request body as an import collection named by ?name=.
func (s *Server) createImport(c *fiber.Ctx) error {
	col, err := s.bot.Imports.Create(c.Query("name"), append([]byte(nil), c.Body()...))
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidJSON) || errors.Is(err, catalog.ErrNoItems) {
			return SendUnprocessableEntity(c, err.Error(), nil)
		}
		return err
	}

	return SendCreated(c, importResponse{
		ID:        col.ID,
		Ref:       merchant.ImportPrefix + col.ID,
		Name:      col.Name,
		Items:     len(col.Items),
		ExpiresAt: col.CreatedAt.Add(s.bot.Cfg.Imports.Retention()),
	}, fmt.Sprintf("Imported %d items", len(col.Items)))
}

func (s *Server) listMerchants(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	merchants, err := s.bot.MerchantRepository.List(ctx, c.Params("guild"))
	if err != nil {
		return err
	}

	out := make([]merchantResponse, len(merchants))
	for i, m := range merchants {
		out[i] = merchantResponse{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
	}
	return SendSuccess(c, out, "")
}

func (s *Server) listWares(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	name := c.Params("name")
	m, err := s.bot.MerchantRepository.GetByName(ctx, c.Params("guild"), name)
	if err != nil {
		var notFound *repositories.NotFoundError
		if errors.As(err, &notFound) {
			return SendNotFound(c, fmt.Sprintf("No merchant named %s", name))
		}
		return err
	}

	items, err := s.bot.MerchantRepository.GetItems(ctx, m.ID)
	if err != nil {
		return err
	}

	tags := s.bot.Classifier.Table().Tags()
	out := make([]wareResponse, len(items))
	for i, it := range items {
		out[i] = wareResponse{
			Name:      it.Name,
			Type:      it.Type,
			Quantity:  it.Quantity,
			StockedAt: it.StockedAt,
		}
		if tag, ok := s.bot.Classifier.Classify(repositories.StockedItem(it), tags); ok {
			out[i].Rarity = tag.Name
		}
	}
	return SendSuccess(c, out, "")
}

// stock runs one stocking pass for the guild's named merchants. Announcements go to the
// configured announce channel only.
func (s *Server) stock(c *fiber.Ctx) error {
	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return SendBadRequest(c, "Request body must be a JSON stocking request", nil)
	}

	criteria, err := s.bot.Cfg.Merchant.Criteria(req.CriteriaOverrides)
	if err != nil {
		return SendBadRequest(c, err.Error(), nil)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), stockTimeout)
	defer cancel()

	names := make([]string, 0, len(req.Merchants))
	for _, name := range req.Merchants {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	targets, err := s.bot.ResolveMerchants(ctx, c.Params("guild"), names)
	if err != nil {
		var notFound *repositories.NotFoundError
		if errors.As(err, &notFound) {
			return SendNotFound(c, fmt.Sprintf("No merchant named %v", notFound.ID))
		}
		return err
	}

	source, err := s.bot.ResolveSource(ctx, req.Source)
	if err != nil {
		return sendSourceError(c, err)
	}

	result, err := s.bot.Stocking(s.bot.Notifier(0)).Stock(ctx, source, criteria, targets...)
	if err != nil {
		slog.Error("Stocking run failed",
			slog.String("type", "error"),
			slog.String("component", "api"),
			slog.String("source", source.Name()),
			slog.String("criteria", criteria.String()),
			slog.Any("error", err),
		)
		return sendStockError(c, err)
	}
	return SendSuccess(c, newStockResponse(result, criteria), "")
}

func sendSourceError(c *fiber.Ctx, err error) error {
	switch {
	case catalog.IsSourceNotFound(err):
		return SendNotFound(c, err.Error())
	case errors.Is(err, merchant.ErrSpacesDisabled):
		return SendBadRequest(c, err.Error(), nil)
	default:
		return err
	}
}

func sendStockError(c *fiber.Ctx, err error) error {
	var formulaErr *dice.FormulaError
	switch {
	case errors.As(err, &formulaErr), errors.Is(err, rarity.ErrUnknownTag):
		return SendUnprocessableEntity(c, err.Error(), nil)
	case catalog.IsSourceNotFound(err):
		return SendNotFound(c, err.Error())
	case errors.Is(err, catalog.ErrItemNotFound):
		return SendConflict(c, "An item vanished from the source while stocking")
	default:
		return err
	}
}
