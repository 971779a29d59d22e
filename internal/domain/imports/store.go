package imports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sanctumforge/merchant/internal/domain/catalog"
)

const (
	DefaultRetention = 24 * time.Hour
	DefaultCapacity  = 256
)

// Collection is a named, timestamped group of items pasted in as JSON.
type Collection struct {
	ID        string
	Name      string
	Items     []catalog.Item
	CreatedAt time.Time
}

func (c *Collection) expired(now time.Time, retention time.Duration) bool {
	return !now.Before(c.CreatedAt.Add(retention))
}

// Store keeps import collections in memory. Entries older than the retention window are
// swept before each insert; the LRU bound caps memory if imports arrive faster than that.
type Store struct {
	mu        sync.Mutex
	cache     *lru.Cache
	retention time.Duration
	now       func() time.Time
	newID     func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(capacity int, retention time.Duration, opts ...Option) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	cache, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create import cache: %w", err)
	}

	s := &Store{
		cache:     cache,
		retention: retention,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create parses a pasted item export and stores it as a new collection.
func (s *Store) Create(name string, data []byte) (*Collection, error) {
	items, err := catalog.ParseItems(data)
	if err != nil {
		return nil, err
	}
	return s.Add(name, items), nil
}

func (s *Store) Add(name string, items []catalog.Item) *Collection {
	now := s.now()
	s.EvictExpired(now)

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Import " + now.Format("2006-01-02 15:04")
	}

	col := &Collection{
		ID:        s.newID(),
		Name:      name,
		Items:     append([]catalog.Item(nil), items...),
		CreatedAt: now,
	}

	s.mu.Lock()
	s.cache.Add(col.ID, col)
	s.mu.Unlock()
	return col
}

// Get returns a live collection. Expired entries are reported as missing even before the
// next sweep removes them.
func (s *Store) Get(id string) (*Collection, error) {
	s.mu.Lock()
	v, ok := s.cache.Get(id)
	s.mu.Unlock()
	if !ok {
		return nil, &catalog.SourceNotFoundError{Source: "import:" + id}
	}

	col := v.(*Collection)
	if col.expired(s.now(), s.retention) {
		return nil, &catalog.SourceNotFoundError{Source: "import:" + id}
	}
	return col, nil
}

// List returns the live collections, newest first.
func (s *Store) List() []*Collection {
	now := s.now()

	s.mu.Lock()
	keys := s.cache.Keys()
	out := make([]*Collection, 0, len(keys))
	for _, k := range keys {
		v, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		if col := v.(*Collection); !col.expired(now, s.retention) {
			out = append(out, col)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// EvictExpired removes every collection created at or before now minus the retention
// window and returns how many were dropped. Calling it repeatedly is harmless.
func (s *Store) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, k := range s.cache.Keys() {
		v, ok := s.cache.Peek(k)
		if !ok {
			continue
		}
		if v.(*Collection).expired(now, s.retention) {
			s.cache.Remove(k)
			removed++
		}
	}
	return removed
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Source exposes a collection as a catalog source.
func (s *Store) Source(id string) (catalog.Source, error) {
	col, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return &collectionSource{col: col}, nil
}

type collectionSource struct {
	col *Collection
}

func (c *collectionSource) Name() string {
	return c.col.Name
}

func (c *collectionSource) ListItems(ctx context.Context, _ []string) ([]catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]catalog.Item(nil), c.col.Items...), nil
}

func (c *collectionSource) GetFullItem(ctx context.Context, id string) (catalog.Payload, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Payload{}, err
	}
	for _, item := range c.col.Items {
		if item.ID == id {
			return catalog.PayloadOf(item), nil
		}
	}
	return catalog.Payload{}, fmt.Errorf("%w: %s in import %s", catalog.ErrItemNotFound, id, c.col.ID)
}
