package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/sanctumforge/merchant/merchant"
)

var Version = discord.SlashCommandCreate{
	Name:        "version",
	Description: "Show the bot version",
}

func VersionHandler(b *merchant.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return e.CreateMessage(discord.NewMessageCreateBuilder().
			AddEmbeds(discord.NewEmbedBuilder().
				SetTitle("Merchant").
				AddField("Version", b.Version, true).
				AddField("Commit", b.Commit, true).
				AddField("Imports held", fmt.Sprintf("%d", b.Imports.Len()), true).
				SetColor(0x9b59b6).
				Build()).
			Build())
	}
}
