// Package cache keeps computed month views (dashboards) per household.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"

	"financas/internal/core"
)

// Key identifies one cached month of one household.
type Key struct {
	Household uuid.UUID
	Period    core.Period
}

func (k Key) String() string {
	return k.Household.String() + "/" + k.Period.String()
}

// Generation is a snapshot of a household's invalidation counter. A value
// computed under an older generation is never stored.
type Generation uint64

// MonthCache is a TTL cache of month views backed by ristretto. A zero or
// negative TTL disables caching. Safe for concurrent use.
type MonthCache[V any] struct {
	cache *ristretto.Cache[string, V]
	ttl   time.Duration

	mu          sync.Mutex
	keys        map[uuid.UUID]map[string]struct{}
	generations map[uuid.UUID]Generation
}

// NewMonthCache creates a cache holding up to maxEntries months.
func NewMonthCache[V any](maxEntries int64, ttl time.Duration) (*MonthCache[V], error) {
	m := &MonthCache[V]{
		ttl:         ttl,
		keys:        make(map[uuid.UUID]map[string]struct{}),
		generations: make(map[uuid.UUID]Generation),
	}
	if ttl <= 0 {
		return m, nil
	}
	if maxEntries < 1 {
		maxEntries = 1
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create month cache: %w", err)
	}
	m.cache = c
	return m, nil
}

// Enabled reports whether values are retained at all.
func (m *MonthCache[V]) Enabled() bool {
	return m != nil && m.cache != nil
}

// Get retrieves a cached month view.
func (m *MonthCache[V]) Get(k Key) (V, bool) {
	if !m.Enabled() {
		var zero V
		return zero, false
	}
	return m.cache.Get(k.String())
}

// Generation returns the household's current invalidation counter. Callers
// read it before loading data and pass it to Set.
func (m *MonthCache[V]) Generation(household uuid.UUID) Generation {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[household]
}

// Set stores v unless the household was invalidated after gen was taken.
// It reports whether the value was stored.
func (m *MonthCache[V]) Set(k Key, v V, gen Generation) bool {
	if !m.Enabled() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[k.Household] != gen {
		return false
	}

	key := k.String()
	if !m.cache.SetWithTTL(key, v, 1, m.ttl) {
		return false
	}
	m.cache.Wait()
	if m.keys[k.Household] == nil {
		m.keys[k.Household] = make(map[string]struct{})
	}
	m.keys[k.Household][key] = struct{}{}
	return true
}

// Invalidate drops the given months of a household. With no periods every
// cached month of the household is dropped.
func (m *MonthCache[V]) Invalidate(household uuid.UUID, periods ...core.Period) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[household]++
	if m.cache == nil {
		return
	}

	if len(periods) == 0 {
		for key := range m.keys[household] {
			m.cache.Del(key)
		}
		delete(m.keys, household)
		return
	}
	for _, p := range periods {
		key := Key{Household: household, Period: p}.String()
		m.cache.Del(key)
		delete(m.keys[household], key)
	}
}

// Close releases the background goroutines of the underlying cache.
func (m *MonthCache[V]) Close() {
	if m.Enabled() {
		m.cache.Close()
	}
}
