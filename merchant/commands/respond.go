package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
)

const errorColor = 0xe74c3c

type scoped interface {
	GuildID() *snowflake.ID
	ChannelID() snowflake.ID
}

// guildKey scopes merchants to the guild, or to the channel outside of guilds.
func guildKey(e scoped) string {
	if id := e.GuildID(); id != nil {
		return id.String()
	}
	return "channel:" + e.ChannelID().String()
}

func errorEmbed(message string) discord.Embed {
	return discord.NewEmbedBuilder().
		SetDescription("❌ " + message).
		SetColor(errorColor).
		Build()
}

// respondError answers an interaction that has not been acknowledged yet.
func respondError(e *handler.CommandEvent, message string) error {
	return e.CreateMessage(discord.NewMessageCreateBuilder().
		AddEmbeds(errorEmbed(message)).
		SetEphemeral(true).
		Build())
}

// updateError replaces a deferred response with an error.
func updateError(e *handler.CommandEvent, message string) error {
	_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
		Embeds: &[]discord.Embed{errorEmbed(message)},
	})
	return err
}
