package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sanctumforge/merchant/merchant/database/models"
	"github.com/sanctumforge/merchant/merchant/database/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Cursor is the part of *mongo.Cursor the migrator reads from.
type Cursor interface {
	Next(ctx context.Context) bool
	Decode(v any) error
	Err() error
	Close(ctx context.Context) error
}

// Copier bulk loads rows with COPY. Implemented by *database.DB.
type Copier interface {
	CopyCompendiumItems(ctx context.Context, items []*models.CompendiumItem) (int64, error)
}

// PackUploader receives a JSON export per migrated pack. Implemented by *services.SpacesService.
type PackUploader interface {
	UploadPack(ctx context.Context, name string, data []byte) error
}

// Migrator copies a legacy Mongo compendium collection into the Postgres compendium tables.
type Migrator struct {
	compendiums repositories.CompendiumRepository
	copier      Copier
	uploader    PackUploader

	defaultPack string
	batchSize   int
	workers     int
	useCopy     bool

	mu      sync.Mutex
	stats   Stats
	exports map[string][]json.RawMessage
}

func NewMigrator(compendiums repositories.CompendiumRepository, copier Copier, defaultPack string) *Migrator {
	return &Migrator{
		compendiums: compendiums,
		copier:      copier,
		defaultPack: defaultPack,
		batchSize:   500,
		workers:     4,
	}
}

// SetBatchSize overrides the default batch size for inserts
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

func (m *Migrator) SetWorkers(n int) {
	if n > 0 {
		m.workers = n
	}
}

// SetUseCopy switches inserts to COPY. Only safe into empty packs: COPY does not upsert.
func (m *Migrator) SetUseCopy(v bool) { m.useCopy = v }

// ExportTo also uploads every migrated pack as a JSON export.
func (m *Migrator) ExportTo(u PackUploader) { m.uploader = u }

// RunFromMongo migrates every document of coll.
func (m *Migrator) RunFromMongo(ctx context.Context, coll *mongo.Collection) (*Stats, error) {
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetBatchSize(int32(m.batchSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	return m.Run(ctx, cur)
}

// Run drains cur, inserting batches concurrently, then refreshes each pack's item count.
func (m *Migrator) Run(ctx context.Context, cur Cursor) (*Stats, error) {
	defer cur.Close(ctx)

	m.stats = Stats{StartTime: time.Now(), Packs: make(map[string]int)}
	m.exports = make(map[string][]json.RawMessage)
	logProgress("Starting compendium migration")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	known := make(map[string]struct{})
	batch := make([]*models.CompendiumItem, 0, m.batchSize)
	flush := func() {
		rows := batch
		batch = make([]*models.CompendiumItem, 0, m.batchSize)
		g.Go(func() error {
			return m.insert(gctx, rows)
		})
	}

	for cur.Next(gctx) {
		var doc bson.M
		m.stats.Processed++
		if err := cur.Decode(&doc); err != nil {
			m.skip("", err.Error())
			continue
		}

		row, err := convertDocument(doc, m.defaultPack)
		if err != nil {
			m.skip(documentID(doc["_id"]), err.Error())
			continue
		}

		if _, ok := known[row.Pack]; !ok {
			if err := m.compendiums.UpsertPack(gctx, &models.Compendium{Name: row.Pack, Origin: "mongo"}); err != nil {
				_ = g.Wait()
				return &m.stats, fmt.Errorf("failed to create pack %s: %w", row.Pack, err)
			}
			known[row.Pack] = struct{}{}
		}
		m.stats.Packs[row.Pack]++
		if m.uploader != nil {
			m.exports[row.Pack] = append(m.exports[row.Pack], row.Data)
		}

		batch = append(batch, row)
		if len(batch) >= m.batchSize {
			flush()
		}
	}
	if len(batch) > 0 {
		flush()
	}

	if err := g.Wait(); err != nil {
		return &m.stats, err
	}
	if err := cur.Err(); err != nil {
		return &m.stats, fmt.Errorf("cursor failed: %w", err)
	}

	for _, pack := range sortedPacks(m.stats.Packs) {
		n, err := m.compendiums.RefreshItemCount(ctx, pack)
		if err != nil {
			return &m.stats, err
		}
		slog.Info("Pack migrated",
			slog.String("type", "db"),
			slog.String("component", "migration"),
			slog.String("pack", pack),
			slog.Int("items", n),
		)
	}

	if err := m.export(ctx); err != nil {
		return &m.stats, err
	}

	m.stats.EndTime = time.Now()
	m.logFinalStats()
	return &m.stats, nil
}

func (m *Migrator) insert(ctx context.Context, rows []*models.CompendiumItem) error {
	var (
		n   int64
		err error
	)
	if m.useCopy && m.copier != nil {
		n, err = m.copier.CopyCompendiumItems(ctx, rows)
	} else {
		var inserted int
		inserted, err = m.compendiums.BulkInsertItems(ctx, rows)
		n = int64(inserted)
	}
	if err != nil {
		return fmt.Errorf("failed to insert batch of %d: %w", len(rows), err)
	}

	m.mu.Lock()
	m.stats.Inserted += n
	m.mu.Unlock()
	return nil
}

func (m *Migrator) skip(id, reason string) {
	m.stats.Skipped++
	if len(m.stats.SkippedRecords) < maxSkippedRecords {
		m.stats.SkippedRecords = append(m.stats.SkippedRecords, SkippedRecord{
			ID:        id,
			Reason:    reason,
			Timestamp: time.Now(),
		})
	}
}

func (m *Migrator) export(ctx context.Context) error {
	if m.uploader == nil {
		return nil
	}
	for _, pack := range sortedPacks(m.stats.Packs) {
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, doc := range m.exports[pack] {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(doc)
		}
		buf.WriteByte(']')

		if err := m.uploader.UploadPack(ctx, pack, buf.Bytes()); err != nil {
			return err
		}
		logProgress(fmt.Sprintf("Exported pack %s (%d items)", pack, len(m.exports[pack])))
	}
	return nil
}

func sortedPacks(packs map[string]int) []string {
	names := make([]string, 0, len(packs))
	for name := range packs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteReport writes the stats of the last run as JSON into dir.
func (m *Migrator) WriteReport(dir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	reportFile := filepath.Join(dir, fmt.Sprintf("migration_report_%s.json", timestamp))

	file, err := os.Create(reportFile)
	if err != nil {
		return "", fmt.Errorf("failed to create migration report file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m.stats); err != nil {
		return "", fmt.Errorf("failed to write migration report: %w", err)
	}
	return reportFile, nil
}

func (m *Migrator) logFinalStats() {
	slog.Info("Migration completed",
		slog.String("type", "sys"),
		slog.String("component", "migration"),
		slog.Duration("duration", m.stats.EndTime.Sub(m.stats.StartTime)),
		slog.Int("processed", m.stats.Processed),
		slog.Int64("inserted", m.stats.Inserted),
		slog.Int("skipped", m.stats.Skipped),
		slog.Int("packs", len(m.stats.Packs)),
	)
}

func logProgress(message string) {
	slog.Info(message, slog.String("type", "sys"), slog.String("component", "migration"))
}
