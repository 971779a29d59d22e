package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/dice"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
	"github.com/sanctumforge/merchant/merchant"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
)

// itemTypes are the item document types found in compendium exports.
var itemTypes = []string{"weapon", "equipment", "consumable", "loot", "tool", "container", "backpack"}

var Stock = discord.SlashCommandCreate{
	Name:        "stock",
	Description: "Stock merchants with a random selection of items",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "merchants",
			Description:  "Merchants to stock, comma separated",
			Required:     false,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionString{
			Name:         "source",
			Description:  "Compendium pack, spaces:<pack> or import:<id>",
			Required:     false,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionString{
			Name:         "preset",
			Description:  "Named selection preset",
			Required:     false,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "formula",
			Description: "How many items to draw, e.g. 1d6+2",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:         "types",
			Description:  "Allowed item types, comma separated",
			Required:     false,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionString{
			Name:         "tags",
			Description:  "Rarity tags, comma separated",
			Required:     false,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionBool{
			Name:        "strict",
			Description: "Only draw items with one of the rarity tags",
			Required:    false,
		},
	},
}

func stockOverrides(data discord.SlashCommandInteractionData) merchant.CriteriaOverrides {
	opts := merchant.CriteriaOverrides{Preset: data.String("preset")}
	if v, ok := data.OptString("formula"); ok {
		opts.Formula = &v
	}
	if v, ok := data.OptString("types"); ok {
		opts.Types = &v
	}
	if v, ok := data.OptString("tags"); ok {
		opts.Tags = &v
	}
	if v, ok := data.OptBool("strict"); ok {
		opts.Strict = &v
	}
	return opts
}

func StockHandler(b *merchant.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()

		criteria, err := b.Cfg.Merchant.Criteria(stockOverrides(data))
		if err != nil {
			return respondError(e, err.Error())
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		targets, err := b.ResolveMerchants(ctx, guildKey(e), catalog.SplitList(data.String("merchants")))
		if err != nil {
			var notFound *repositories.NotFoundError
			if errors.As(err, &notFound) {
				return updateError(e, fmt.Sprintf("No merchant named **%v**. Create one with `/merchant create`.", notFound.ID))
			}
			return updateError(e, "Failed to load merchants.")
		}

		source, err := b.ResolveSource(ctx, data.String("source"))
		if err != nil {
			return updateError(e, sourceErrorMessage(err))
		}

		result, err := b.Stocking(b.Notifier(e.ChannelID())).Stock(ctx, source, criteria, targets...)
		if err != nil {
			slog.Error("Stocking run failed",
				slog.String("type", "error"),
				slog.String("component", "stocking"),
				slog.String("source", source.Name()),
				slog.String("criteria", criteria.String()),
				slog.Any("error", err),
			)
			return updateError(e, stockErrorMessage(err))
		}

		embed := discord.NewEmbedBuilder().
			SetTitle("🧿 Merchant Stock").
			SetDescription(truncate(FormatResult(result), 4000)).
			SetColor(resultColor(result)).
			SetFooter(fmt.Sprintf("%s • %s", result.Source, criteria), "").
			Build()
		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{Embeds: &[]discord.Embed{embed}})
		return err
	}
}

func sourceErrorMessage(err error) string {
	switch {
	case catalog.IsSourceNotFound(err):
		return fmt.Sprintf("Source not found: %v", err)
	case errors.Is(err, merchant.ErrSpacesDisabled):
		return "Pack storage is not configured on this bot."
	default:
		return "Failed to open the item source."
	}
}

func stockErrorMessage(err error) string {
	var formulaErr *dice.FormulaError
	switch {
	case errors.As(err, &formulaErr):
		return formulaErr.Error()
	case errors.Is(err, rarity.ErrUnknownTag):
		return err.Error()
	case catalog.IsSourceNotFound(err):
		return sourceErrorMessage(err)
	case errors.Is(err, catalog.ErrItemNotFound):
		return "An item vanished from the source while stocking. Nothing was delivered."
	default:
		return "Stocking failed. Check the logs for details."
	}
}

// FormatResult renders a stocking result for the command reply.
func FormatResult(res *stocking.Result) string {
	var b strings.Builder

	switch res.Status {
	case stocking.StatusNoMatch:
		b.WriteString("No items found matching the selected criteria.")
		if res.Reason != "" {
			fmt.Fprintf(&b, "\n-# %s", res.Reason)
		}
		return b.String()
	case stocking.StatusSelected:
		fmt.Fprintf(&b, "Rolled **%d**, drew %d of %d pool entries:\n", res.Rolled, len(res.Selected), res.PoolSize)
		for _, name := range res.SelectedNames() {
			fmt.Fprintf(&b, "• %s\n", name)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "Rolled **%d**, drew %d item(s).\n", res.Rolled, len(res.Selected))
	for _, t := range res.Targets {
		switch t.Status {
		case stocking.TargetDelivered:
			fmt.Fprintf(&b, "✅ **%s**: %s", t.Target, strings.Join(t.Delivered, ", "))
		case stocking.TargetNothingNew:
			fmt.Fprintf(&b, "➖ **%s**: already stocks everything drawn", t.Target)
		case stocking.TargetFailed:
			fmt.Fprintf(&b, "❌ **%s**: delivery failed", t.Target)
		}
		if len(t.Skipped) > 0 && t.Status == stocking.TargetDelivered {
			fmt.Fprintf(&b, " (already had %s)", strings.Join(t.Skipped, ", "))
		}
		b.WriteString("\n")
	}
	if res.Partial() {
		b.WriteString("-# Some merchants were not stocked.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func resultColor(res *stocking.Result) int {
	switch {
	case res.Status == stocking.StatusFailed:
		return 0xe74c3c
	case res.Status == stocking.StatusNoMatch, res.Partial():
		return 0xf1c40f
	default:
		return 0x9b59b6
	}
}

func StockAutocomplete(b *merchant.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		name, value := focusedValue(e)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		switch name {
		case "source":
			return respondChoices(e, rank(value, sourceChoices(ctx, b)))
		case "preset":
			return respondChoices(e, rank(value, plainChoices(b.Cfg.Merchant.PresetNames())))
		case "types":
			return respondChoices(e, completeList(value, itemTypes))
		case "tags":
			var names []string
			for _, tag := range b.Classifier.Table().Tags() {
				names = append(names, tag.Name)
			}
			return respondChoices(e, completeList(value, names))
		case "merchants":
			merchants, err := b.MerchantRepository.List(ctx, guildKey(e))
			if err != nil {
				return respondChoices(e, nil)
			}
			names := make([]string, len(merchants))
			for i, m := range merchants {
				names[i] = m.Name
			}
			return respondChoices(e, completeList(value, names))
		}
		return respondChoices(e, nil)
	}
}

func sourceChoices(ctx context.Context, b *merchant.Bot) choices {
	sources := b.ListSources(ctx)
	out := make(choices, len(sources))
	for i, src := range sources {
		out[i] = choice{Label: src.Label, Value: src.Ref}
	}
	return out
}
