package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/imports"
	"github.com/sanctumforge/merchant/merchant"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
)

const maxImportSize = 8 << 20

var importClient = &http.Client{Timeout: 20 * time.Second}

var Import = discord.SlashCommandCreate{
	Name:        "import",
	Description: "Import items from a JSON export for stocking",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionAttachment{
			Name:        "file",
			Description: "JSON export of items",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:        "json",
			Description: "Pasted JSON export of items",
			Required:    false,
			MaxLength:   intPtr(6000),
		},
		discord.ApplicationCommandOptionString{
			Name:        "name",
			Description: "Name for the import collection",
			Required:    false,
			MaxLength:   intPtr(80),
		},
		discord.ApplicationCommandOptionString{
			Name:        "save_as",
			Description: "Also store the items permanently as this compendium pack",
			Required:    false,
			MaxLength:   intPtr(100),
		},
	},
}

func intPtr(n int) *int { return &n }

func ImportHandler(b *merchant.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		attachment, hasFile := data.OptAttachment("file")
		pasted := strings.TrimSpace(data.String("json"))
		if !hasFile && pasted == "" {
			return respondError(e, "Attach a JSON file or paste JSON to import.")
		}
		if hasFile && attachment.Size > maxImportSize {
			return respondError(e, fmt.Sprintf("Import files are limited to %dMB.", maxImportSize>>20))
		}

		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		raw := []byte(pasted)
		if hasFile {
			var err error
			if raw, err = downloadAttachment(ctx, attachment.URL); err != nil {
				return updateError(e, "Failed to download the attachment.")
			}
		}

		col, err := b.Imports.Create(data.String("name"), raw)
		if err != nil {
			return updateError(e, importErrorMessage(err))
		}

		description := fmt.Sprintf("Imported **%d** items as **%s**.\nStock from it with `source: %s%s` within %s.",
			len(col.Items), col.Name, merchant.ImportPrefix, col.ID, b.Cfg.Imports.Retention())

		if pack := strings.TrimSpace(data.String("save_as")); pack != "" {
			n, err := savePack(ctx, b.CompendiumRepository, pack, col)
			if err != nil {
				return updateError(e, "Imported, but saving the compendium pack failed.")
			}
			description += fmt.Sprintf("\nSaved %d items to compendium **%s**.", n, pack)
		}

		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{discord.NewEmbedBuilder().
				SetTitle("📦 Import ready").
				SetDescription(description).
				SetColor(0x9b59b6).
				Build()},
		})
		return err
	}
}

func downloadAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := importClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
}

func importErrorMessage(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNoItems):
		return "The JSON contained no named items."
	case errors.Is(err, catalog.ErrInvalidJSON):
		return "That is not a valid item export. Expected a JSON array of items or an object with an `items` array."
	default:
		return "Import failed."
	}
}

// savePack stores an import collection as a Postgres compendium pack, replacing any
// items the pack held before.
func savePack(ctx context.Context, repo repositories.CompendiumRepository, pack string, col *imports.Collection) (int, error) {
	if err := repo.UpsertPack(ctx, &models.Compendium{
		Name:   pack,
		Label:  col.Name,
		Origin: "import",
	}); err != nil {
		return 0, err
	}

	rows := make([]*models.CompendiumItem, len(col.Items))
	for i, item := range col.Items {
		rows[i] = repositories.FromCatalogItem(pack, item)
	}
	if _, err := repo.ReplaceItems(ctx, pack, rows); err != nil {
		return 0, err
	}
	return repo.RefreshItemCount(ctx, pack)
}
