package merchant

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sanctumforge/merchant/internal/domain/dice"
	"github.com/sanctumforge/merchant/internal/domain/imports"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
	"github.com/sanctumforge/merchant/internal/domain/sampler"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
	"github.com/sanctumforge/merchant/merchant/database"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"github.com/sanctumforge/merchant/merchant/services"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string

	DB                   *database.DB
	CompendiumRepository repositories.CompendiumRepository
	MerchantRepository   repositories.MerchantRepository
	SpacesService        *services.SpacesService
	Imports              *imports.Store

	Classifier *rarity.Classifier
	Sampler    *sampler.Sampler
	Dice       *dice.Roller
}

// SetupEngine builds the classifier, sampler, roller and import store from config.
func (b *Bot) SetupEngine() error {
	classifier, err := b.Cfg.Rarity.Classifier()
	if err != nil {
		return err
	}
	store, err := imports.NewStore(b.Cfg.Imports.Capacity, b.Cfg.Imports.Retention())
	if err != nil {
		return err
	}

	b.Classifier = classifier
	b.Sampler = sampler.New(classifier, b.Cfg.Merchant.Weights, nil)
	b.Dice = dice.NewRoller(nil)
	b.Imports = store
	return nil
}

// Stocking returns an orchestrator that reports through notifier.
func (b *Bot) Stocking(notifier stocking.Notifier) *stocking.Service {
	svc := stocking.NewService(b.Classifier, b.Sampler, b.Dice, notifier)
	svc.SetLookupLimit(b.Cfg.Merchant.LookupLimit)
	return svc
}

// Notifier posts to the configured announce channel, or to fallback when none is set.
func (b *Bot) Notifier(fallback snowflake.ID) *services.ChannelNotifier {
	channelID := b.Cfg.Merchant.AnnounceChannel
	if channelID == 0 {
		channelID = fallback
	}
	if b.Client == nil {
		return services.NewChannelNotifier(nil, channelID)
	}
	return services.NewChannelNotifier(b.Client.Rest(), channelID)
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Merchant is open for business",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the wares"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.String("type", "error"), slog.Any("error", err))
	}
}
