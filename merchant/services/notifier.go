package services

import (
	"context"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

const (
	warnColor  = 0xf1c40f
	errorColor = 0xe74c3c
)

// MessageSender is the part of the Discord REST client used for posting to a channel.
type MessageSender interface {
	CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, opts ...rest.RequestOpt) (*discord.Message, error)
}

// ChannelNotifier posts stocking messages to one Discord channel. Send failures are logged
// and otherwise ignored.
type ChannelNotifier struct {
	sender    MessageSender
	channelID snowflake.ID
}

func NewChannelNotifier(sender MessageSender, channelID snowflake.ID) *ChannelNotifier {
	return &ChannelNotifier{sender: sender, channelID: channelID}
}

func (n *ChannelNotifier) Info(ctx context.Context, text string) {
	slog.Info(text, slog.String("type", "stock"), slog.String("component", "notifier"))
	n.send(ctx, discord.NewMessageCreateBuilder().SetContent(text).Build())
}

func (n *ChannelNotifier) Warn(ctx context.Context, text string) {
	slog.Warn(text, slog.String("type", "stock"), slog.String("component", "notifier"))
	n.send(ctx, discord.NewMessageCreateBuilder().
		AddEmbeds(discord.NewEmbedBuilder().
			SetDescription("⚠️ "+text).
			SetColor(warnColor).
			Build()).
		Build())
}

func (n *ChannelNotifier) Error(ctx context.Context, text string) {
	slog.Error(text, slog.String("type", "stock"), slog.String("component", "notifier"))
	n.send(ctx, discord.NewMessageCreateBuilder().
		AddEmbeds(discord.NewEmbedBuilder().
			SetDescription("❌ "+text).
			SetColor(errorColor).
			Build()).
		Build())
}

func (n *ChannelNotifier) send(ctx context.Context, msg discord.MessageCreate) {
	if n.sender == nil || n.channelID == 0 {
		return
	}
	if _, err := n.sender.CreateMessage(n.channelID, msg, rest.WithCtx(ctx)); err != nil {
		slog.Error("Failed to send to Discord",
			slog.String("type", "error"),
			slog.String("component", "notifier"),
			slog.String("channel_id", n.channelID.String()),
			slog.Any("error", err),
		)
	}
}
