package merchant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/sanctumforge/merchant/internal/domain/imports"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
	"github.com/sanctumforge/merchant/internal/domain/sampler"
	"github.com/sanctumforge/merchant/internal/domain/stocking"
	"github.com/sanctumforge/merchant/merchant/database"
	"github.com/sanctumforge/merchant/merchant/logger"
	"github.com/sanctumforge/merchant/merchant/services"
)

const (
	DefaultSource  = "world.ddb-oathbreaker-ddb-items"
	DefaultFormula = "1d6+2"
)

var (
	DefaultTypes = []string{"weapon", "consumable", "equipment", "loot"}
	DefaultTags  = []string{"rare", "legendary", "exotic", "sanctum-blessed"}
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log      LogConfig         `toml:"log"`
	Bot      BotConfig         `toml:"bot"`
	DB       database.DBConfig `toml:"db"`
	Spaces   SpacesConfig      `toml:"spaces"`
	Mongo    MongoConfig       `toml:"mongo"`
	Merchant MerchantConfig    `toml:"merchant"`
	Rarity   RarityConfig      `toml:"rarity"`
	Imports  ImportsConfig     `toml:"imports"`
	API      APIConfig         `toml:"api"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
}

type LogConfig struct {
	Level   slog.Level `toml:"level"`
	NoColor bool       `toml:"no_color"`
}

// Options maps the log section onto logger options.
func (l LogConfig) Options() []logger.Option {
	var opts []logger.Option
	if l.NoColor {
		opts = append(opts, logger.WithoutColor())
	}
	return opts
}

type SpacesConfig struct {
	Key       string `toml:"key"`
	Secret    string `toml:"secret"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	Endpoint  string `toml:"endpoint"`
	PackRoot  string `toml:"pack_root"`
	CacheSize int    `toml:"cache_size"`
}

// Enabled reports whether compendium packs can be read from object storage.
func (s SpacesConfig) Enabled() bool {
	return s.Bucket != "" && s.Key != ""
}

func (s SpacesConfig) Open(ctx context.Context) (*services.SpacesService, error) {
	return services.NewSpacesService(ctx, services.SpacesOptions{
		Key:       s.Key,
		Secret:    s.Secret,
		Region:    s.Region,
		Bucket:    s.Bucket,
		Endpoint:  s.Endpoint,
		PackRoot:  s.PackRoot,
		CacheSize: s.CacheSize,
	})
}

// APIConfig configures the HTTP API. It only starts when a port and token are both set.
type APIConfig struct {
	Host  string `toml:"host"`
	Port  int    `toml:"port"`
	Token string `toml:"token"`
}

func (a APIConfig) Enabled() bool {
	return a.Port > 0 && a.Token != ""
}

func (a APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	BatchSize  int    `toml:"batch_size"`
}

type MerchantConfig struct {
	// AnnounceChannel receives the merchant's sales pitch. When unset the channel the
	// command was run in is used.
	AnnounceChannel snowflake.ID                 `toml:"announce_channel"`
	DefaultSource   string                       `toml:"default_source"`
	LookupLimit     int                          `toml:"lookup_limit"`
	Weights         sampler.Weights              `toml:"weights"`
	Defaults        stocking.Criteria            `toml:"defaults"`
	Presets         map[string]stocking.Criteria `toml:"presets"`
}

// Preset looks up a named criteria set. Fields a preset leaves empty are taken from the
// defaults, except Strict which is always the preset's own.
func (m MerchantConfig) Preset(name string) (stocking.Criteria, bool) {
	p, ok := m.Presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return stocking.Criteria{}, false
	}
	if len(p.Types) == 0 {
		p.Types = m.Defaults.Types
	}
	if len(p.Tags) == 0 && !p.Strict {
		p.Tags = m.Defaults.Tags
	}
	if p.Formula == "" {
		p.Formula = m.Defaults.Formula
	}
	return p, true
}

func (m MerchantConfig) PresetNames() []string {
	names := make([]string, 0, len(m.Presets))
	for name := range m.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type RarityConfig struct {
	Tags           []rarity.Tag `toml:"tags"`
	Extractors     []string     `toml:"extractors"`
	FallbackCommon []string     `toml:"fallback_common"`
}

// Classifier builds the rarity classifier described by the config, falling back to the
// built-in table, extractors and keywords for anything left out.
func (r RarityConfig) Classifier() (*rarity.Classifier, error) {
	table := rarity.DefaultTable()
	if len(r.Tags) > 0 {
		t, err := rarity.NewTable(r.Tags)
		if err != nil {
			return nil, fmt.Errorf("invalid rarity table: %w", err)
		}
		table = t
	}

	var extractors []rarity.Extractor
	if len(r.Extractors) > 0 {
		extractors = rarity.ExtractorsFor(r.Extractors)
	}
	return rarity.NewClassifier(table, extractors, r.FallbackCommon), nil
}

type ImportsConfig struct {
	RetentionHours int `toml:"retention_hours"`
	Capacity       int `toml:"capacity"`
}

func (i ImportsConfig) Retention() time.Duration {
	if i.RetentionHours <= 0 {
		return imports.DefaultRetention
	}
	return time.Duration(i.RetentionHours) * time.Hour
}

func (c *Config) applyDefaults() {
	m := &c.Merchant
	if len(m.Defaults.Types) == 0 && len(m.Defaults.Tags) == 0 && m.Defaults.Formula == "" {
		m.Defaults.Strict = true
	}
	if m.DefaultSource == "" {
		m.DefaultSource = DefaultSource
	}
	if len(m.Defaults.Types) == 0 {
		m.Defaults.Types = DefaultTypes
	}
	if len(m.Defaults.Tags) == 0 {
		m.Defaults.Tags = DefaultTags
	}
	if m.Defaults.Formula == "" {
		m.Defaults.Formula = DefaultFormula
	}
	if m.Weights.Match <= 0 || m.Weights.Base <= 0 {
		m.Weights = sampler.DefaultWeights()
	}

	presets := make(map[string]stocking.Criteria, len(m.Presets))
	for name, p := range m.Presets {
		presets[strings.ToLower(strings.TrimSpace(name))] = p
	}
	m.Presets = presets

	if c.Imports.Capacity <= 0 {
		c.Imports.Capacity = imports.DefaultCapacity
	}
	if c.Mongo.BatchSize <= 0 {
		c.Mongo.BatchSize = 500
	}
	if c.Spaces.PackRoot == "" {
		c.Spaces.PackRoot = "packs"
	}
	if c.Spaces.CacheSize <= 0 {
		c.Spaces.CacheSize = 16
	}
}
