package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/sanctumforge/merchant/internal/domain/imports"
	"github.com/sanctumforge/merchant/merchant"
)

const importsPerPage = 10

var Imports = discord.SlashCommandCreate{
	Name:        "imports",
	Description: "List the JSON imports available for stocking",
}

func ImportsHandler(b *merchant.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		cols := b.Imports.List()
		if len(cols) == 0 {
			return respondError(e, "There are no imports. Add one with `/import`.")
		}

		retention := b.Cfg.Imports.Retention()
		now := time.Now()
		totalPages := (len(cols) + importsPerPage - 1) / importsPerPage

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * importsPerPage
				end := min(start+importsPerPage, len(cols))

				embed.
					SetTitle("📦 Imports").
					SetDescription(formatImports(cols[start:end], retention, now)).
					SetColor(0x2B2D31).
					SetFooter(fmt.Sprintf("Page %d/%d • Total: %d", page+1, totalPages, len(cols)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, true)
	}
}

func formatImports(cols []*imports.Collection, retention time.Duration, now time.Time) string {
	var b strings.Builder
	for _, col := range cols {
		left := col.CreatedAt.Add(retention).Sub(now).Truncate(time.Minute)
		if left < 0 {
			left = 0
		}
		fmt.Fprintf(&b, "**%s** • %d items • expires in %s\n`%s%s`\n",
			col.Name, len(col.Items), left, merchant.ImportPrefix, col.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}
