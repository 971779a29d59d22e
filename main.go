package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/sanctumforge/merchant/merchant"
	"github.com/sanctumforge/merchant/merchant/api"
	"github.com/sanctumforge/merchant/merchant/commands"
	"github.com/sanctumforge/merchant/merchant/database"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"github.com/sanctumforge/merchant/merchant/handlers"
	"github.com/sanctumforge/merchant/merchant/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

const importSweepInterval = 15 * time.Minute

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	logger.Setup(slog.LevelInfo)

	cfg, err := merchant.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Options()...)

	slog.Info("Starting Merchant bot",
		slog.String("type", "sys"),
		slog.String("version", version),
		slog.String("commit", commit))

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("type", "db"),
			slog.Any("error", err),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("type", "db"),
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("type", "db"),
			slog.Any("error", err))
		os.Exit(-1)
	}

	b := merchant.New(*cfg, version, commit)
	b.DB = db
	b.CompendiumRepository = repositories.NewCompendiumRepository(db.BunDB())
	b.MerchantRepository = repositories.NewMerchantRepository(db.BunDB())

	if cfg.Spaces.Enabled() {
		spaces, err := cfg.Spaces.Open(ctx)
		if err != nil {
			slog.Error("Failed to initialize Spaces",
				slog.String("type", "sys"),
				slog.String("component", "spaces"),
				slog.Any("error", err))
			os.Exit(-1)
		}
		b.SpacesService = spaces
		logger.LogSystem("Spaces pack storage enabled",
			slog.String("bucket", spaces.GetBucket()),
			slog.String("region", spaces.GetRegion()))
	}

	if err := b.SetupEngine(); err != nil {
		slog.Error("Failed to set up stocking engine",
			slog.String("type", "sys"),
			slog.String("component", "stocking"),
			slog.Any("error", err))
		os.Exit(-1)
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweepImports(sweepCtx, b)

	h := handler.New()

	h.Command("/version", commands.VersionHandler(b))
	h.Command("/stock", handlers.WrapWithLogging("stock", commands.StockHandler(b)))
	h.Autocomplete("/stock", handlers.WrapAutocompleteWithLogging("stock", commands.StockAutocomplete(b)))
	h.Command("/import", handlers.WrapWithLogging("import", commands.ImportHandler(b)))
	h.Command("/imports", handlers.WrapWithLogging("imports", commands.ImportsHandler(b)))
	h.Command("/merchant", handlers.WrapWithLogging("merchant", commands.MerchantHandler(b)))
	h.Autocomplete("/merchant", handlers.WrapAutocompleteWithLogging("merchant", commands.MerchantAutocomplete(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	var apiServer *api.Server
	if cfg.API.Enabled() {
		apiServer = api.New(b)
		go func() {
			if err := apiServer.Listen(); err != nil {
				slog.Error("API server stopped",
					slog.String("type", "sys"),
					slog.String("component", "api"),
					slog.Any("error", err))
			}
		}()
		logger.LogSystem("HTTP API enabled", slog.String("address", cfg.API.Address()))
	}

	slog.Info("Bot is running. Press CTRL-C to exit.", slog.String("type", "sys"))
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...", slog.String("type", "sys"))

	if apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			slog.Error("API shutdown error", slog.String("type", "sys"), slog.Any("error", err))
		}
	}
}

// sweepImports evicts expired import collections until ctx is done.
func sweepImports(ctx context.Context, b *merchant.Bot) {
	ticker := time.NewTicker(importSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := b.Imports.EvictExpired(time.Now()); n > 0 {
				logger.LogSystem("Expired imports evicted",
					slog.String("component", "imports"),
					slog.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
