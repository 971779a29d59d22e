package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"
	"github.com/sanctumforge/merchant/merchant"
	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
)

const itemsPerPage = 15

func merchantNameOption(required bool) discord.ApplicationCommandOptionString {
	return discord.ApplicationCommandOptionString{
		Name:         "name",
		Description:  "Merchant name",
		Required:     required,
		Autocomplete: true,
	}
}

var Merchant = discord.SlashCommandCreate{
	Name:        "merchant",
	Description: "Manage merchants and their wares",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "create",
			Description: "Open a new merchant",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "Merchant name",
					Required:    true,
					MaxLength:   intPtr(80),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "list",
			Description: "List merchants",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "wares",
			Description: "Show what a merchant has in stock",
			Options:     []discord.ApplicationCommandOption{merchantNameOption(true)},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "sell",
			Description: "Remove an item from a merchant's stock",
			Options: []discord.ApplicationCommandOption{
				merchantNameOption(true),
				discord.ApplicationCommandOptionString{
					Name:         "item",
					Description:  "Item name",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "clear",
			Description: "Empty a merchant's stock",
			Options:     []discord.ApplicationCommandOption{merchantNameOption(true)},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "close",
			Description: "Remove a merchant and its stock",
			Options:     []discord.ApplicationCommandOption{merchantNameOption(true)},
		},
	},
}

func MerchantHandler(b *merchant.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data := e.SlashCommandInteractionData()
		guild := guildKey(e)
		name := strings.TrimSpace(data.String("name"))

		switch *data.SubCommandName {
		case "create":
			m, err := b.MerchantRepository.Create(ctx, guild, name)
			var conflict *repositories.ConflictError
			if errors.As(err, &conflict) {
				return respondError(e, fmt.Sprintf("**%s** is already open for business.", name))
			}
			if err != nil {
				return respondError(e, "Failed to create the merchant.")
			}
			return respondText(e, fmt.Sprintf("🏪 **%s** has opened shop.", m.Name))

		case "list":
			merchants, err := b.MerchantRepository.List(ctx, guild)
			if err != nil {
				return respondError(e, "Failed to load merchants.")
			}
			if len(merchants) == 0 {
				return respondError(e, "No merchants yet. Open one with `/merchant create`.")
			}
			names := make([]string, len(merchants))
			for i, m := range merchants {
				names[i] = "• " + m.Name
			}
			return respondText(e, strings.Join(names, "\n"))
		}

		m, err := b.MerchantRepository.GetByName(ctx, guild, name)
		if err != nil {
			var notFound *repositories.NotFoundError
			if errors.As(err, &notFound) {
				return respondError(e, fmt.Sprintf("No merchant named **%s**.", name))
			}
			return respondError(e, "Failed to load the merchant.")
		}

		switch *data.SubCommandName {
		case "wares":
			return showWares(ctx, b, e, m)

		case "sell":
			item := strings.TrimSpace(data.String("item"))
			if err := b.MerchantRepository.RemoveItem(ctx, m.ID, item); err != nil {
				var notFound *repositories.NotFoundError
				if errors.As(err, &notFound) {
					return respondError(e, fmt.Sprintf("**%s** does not stock **%s**.", m.Name, item))
				}
				return respondError(e, "Failed to update the merchant's stock.")
			}
			return respondText(e, fmt.Sprintf("**%s** sold **%s**.", m.Name, item))

		case "clear":
			n, err := b.MerchantRepository.ClearItems(ctx, m.ID)
			if err != nil {
				return respondError(e, "Failed to clear the merchant's stock.")
			}
			return respondText(e, fmt.Sprintf("**%s** cleared %d item(s) from the shelves.", m.Name, n))

		case "close":
			if err := b.MerchantRepository.Delete(ctx, m.ID); err != nil {
				return respondError(e, "Failed to close the merchant.")
			}
			return respondText(e, fmt.Sprintf("**%s** has closed shop.", m.Name))
		}
		return respondError(e, "Unknown subcommand.")
	}
}

func showWares(ctx context.Context, b *merchant.Bot, e *handler.CommandEvent, m *models.Merchant) error {
	items, err := b.MerchantRepository.GetItems(ctx, m.ID)
	if err != nil {
		return respondError(e, "Failed to load the merchant's stock.")
	}
	if len(items) == 0 {
		return respondError(e, fmt.Sprintf("**%s** has nothing in stock. Try `/stock merchants:%s`.", m.Name, m.Name))
	}

	table := b.Classifier.Table()
	totalPages := (len(items) + itemsPerPage - 1) / itemsPerPage

	return b.Paginator.Create(e.Respond, paginator.Pages{
		ID:      e.ID().String(),
		Creator: e.User().ID,
		PageFunc: func(page int, embed *discord.EmbedBuilder) {
			start := page * itemsPerPage
			end := min(start+itemsPerPage, len(items))

			var desc strings.Builder
			for _, it := range items[start:end] {
				icon := "▫️"
				if tag, ok := b.Classifier.Classify(repositories.StockedItem(it), table.Tags()); ok && tag.Icon != "" {
					icon = tag.Icon
				}
				fmt.Fprintf(&desc, "%s **%s**", icon, it.Name)
				if it.Type != "" {
					fmt.Fprintf(&desc, " • %s", it.Type)
				}
				desc.WriteString("\n")
			}

			embed.
				SetTitle(fmt.Sprintf("🏪 %s's wares", m.Name)).
				SetDescription(desc.String()).
				SetColor(0x2B2D31).
				SetFooter(fmt.Sprintf("Page %d/%d • Total: %d", page+1, totalPages, len(items)), "")
		},
		Pages:      totalPages,
		ExpireMode: paginator.ExpireModeAfterLastUsage,
	}, false)
}

func respondText(e *handler.CommandEvent, text string) error {
	return e.CreateMessage(discord.NewMessageCreateBuilder().SetContent(text).Build())
}

func MerchantAutocomplete(b *merchant.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		name, value := focusedValue(e)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		guild := guildKey(e)
		switch name {
		case "name":
			merchants, err := b.MerchantRepository.List(ctx, guild)
			if err != nil {
				return respondChoices(e, nil)
			}
			names := make([]string, len(merchants))
			for i, m := range merchants {
				names[i] = m.Name
			}
			return respondChoices(e, rank(value, plainChoices(names)))

		case "item":
			m, err := b.MerchantRepository.GetByName(ctx, guild, e.Data.String("name"))
			if err != nil {
				return respondChoices(e, nil)
			}
			items, err := b.MerchantRepository.GetItems(ctx, m.ID)
			if err != nil {
				return respondChoices(e, nil)
			}
			names := make([]string, len(items))
			for i, it := range items {
				names[i] = it.Name
			}
			return respondChoices(e, rank(value, plainChoices(names)))
		}
		return respondChoices(e, nil)
	}
}
