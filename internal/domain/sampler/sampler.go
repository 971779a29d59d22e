package sampler

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sanctumforge/merchant/internal/domain/catalog"
	"github.com/sanctumforge/merchant/internal/domain/rarity"
)

// Weights are the number of pool entries an item gets.
type Weights struct {
	Match int `toml:"match"`
	Base  int `toml:"base"`
}

func DefaultWeights() Weights {
	return Weights{Match: 3, Base: 1}
}

// Criteria is the part of a stocking request the sampler cares about.
type Criteria struct {
	Tags   []rarity.Tag
	Strict bool
}

type Sampler struct {
	classifier *rarity.Classifier
	weights    Weights

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a sampler. A nil rng is seeded from the clock.
func New(classifier *rarity.Classifier, weights Weights, rng *rand.Rand) *Sampler {
	if weights.Match <= 0 {
		weights.Match = DefaultWeights().Match
	}
	if weights.Base <= 0 {
		weights.Base = DefaultWeights().Base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{
		classifier: classifier,
		weights:    weights,
		rng:        rng,
	}
}

// BuildPool classifies items and repeats each one in the pool according to its weight.
//
// Strict: only items tagged with a requested rarity enter, at the match weight.
// Non-strict: every item enters; requested rarities, or fallback-common names when
// "common" is requested, get the match weight and everything else the base weight.
func (s *Sampler) BuildPool(items []catalog.Item, criteria Criteria) *Pool {
	wanted := make(map[string]struct{}, len(criteria.Tags))
	for _, tag := range criteria.Tags {
		wanted[tag.Name] = struct{}{}
	}
	_, commonWanted := wanted[rarity.Common]

	pool := NewPool()
	if criteria.Strict && len(wanted) == 0 {
		return pool
	}

	for _, item := range items {
		tag, ok := s.classifier.Classify(item, nil)
		matched := false
		if ok {
			_, matched = wanted[tag.Name]
		}

		if criteria.Strict {
			if matched {
				pool.Add(item.ID, s.weights.Match)
			}
			continue
		}

		if matched || (commonWanted && s.classifier.MatchesFallback(item.Name)) {
			pool.Add(item.ID, s.weights.Match)
		} else {
			pool.Add(item.ID, s.weights.Base)
		}
	}
	return pool
}

// Draw shuffles a copy of the pool, takes the first count entries and returns them with
// duplicates removed, in first-seen order. count is clamped to [0, pool.Len()].
func (s *Sampler) Draw(pool *Pool, count int) []string {
	entries := pool.Entries()
	count = Clamp(count, len(entries))
	if count == 0 {
		return []string{}
	}

	s.mu.Lock()
	s.rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	s.mu.Unlock()

	return Dedup(entries[:count])
}

func Clamp(count, size int) int {
	if count < 0 {
		return 0
	}
	if count > size {
		return size
	}
	return count
}

func Dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
