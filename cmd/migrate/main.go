package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sanctumforge/merchant/merchant"
	"github.com/sanctumforge/merchant/merchant/database"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"github.com/sanctumforge/merchant/merchant/logger"
	"github.com/sanctumforge/merchant/merchant/migration"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	pack := flag.String("pack", "", "pack for documents without a pack field (default: merchant.default_source)")
	useCopy := flag.Bool("copy", false, "insert with COPY; only for packs that are still empty")
	export := flag.Bool("export", false, "also upload every migrated pack to Spaces")
	report := flag.String("report", ".", "directory for the migration report")
	workers := flag.Int("workers", 4, "concurrent insert batches")
	flag.Parse()

	logger.Setup(slog.LevelInfo)

	cfg, err := merchant.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Options()...)

	if cfg.Mongo.URI == "" || cfg.Mongo.Database == "" || cfg.Mongo.Collection == "" {
		slog.Error("Mongo source not configured; set mongo.uri, mongo.database and mongo.collection",
			slog.String("type", "sys"))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(1)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		slog.Error("Failed to connect to Mongo", slog.String("type", "db"), slog.Any("error", err))
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	defaultPack := *pack
	if defaultPack == "" {
		defaultPack = cfg.Merchant.DefaultSource
	}

	migrator := migration.NewMigrator(repositories.NewCompendiumRepository(db.BunDB()), db, defaultPack)
	migrator.SetBatchSize(cfg.Mongo.BatchSize)
	migrator.SetWorkers(*workers)
	migrator.SetUseCopy(*useCopy)

	if *export {
		if !cfg.Spaces.Enabled() {
			slog.Error("Export requested but Spaces is not configured", slog.String("type", "sys"))
			os.Exit(1)
		}
		spaces, err := cfg.Spaces.Open(ctx)
		if err != nil {
			slog.Error("Failed to initialize Spaces", slog.String("type", "sys"), slog.Any("error", err))
			os.Exit(1)
		}
		migrator.ExportTo(spaces)
	}

	coll := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
	if _, err := migrator.RunFromMongo(ctx, coll); err != nil {
		logger.LogError("Migration failed", err)
		os.Exit(1)
	}

	if file, err := migrator.WriteReport(*report); err != nil {
		logger.LogError("Failed to generate migration report", err)
	} else {
		logger.LogSystem("Migration report generated", slog.String("file", file))
	}
}
