package hubspot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/shohag/hsdest/internal/metrics"
	"github.com/shohag/hsdest/internal/models"
)

const propertyTypeDate = "date"

// PropertySchema maps HubSpot property names to their value type. Schemas
// handed out by SchemaCache are shared and must not be modified.
type PropertySchema map[string]string

func schemaFromProperties(props []Property) PropertySchema {
	schema := make(PropertySchema, len(props))
	for _, p := range props {
		schema[p.Name] = p.Type
	}
	return schema
}

// SchemaStore holds fetched schemas by account key. A key that is present
// is initialized, even when its schema is empty.
type SchemaStore interface {
	Get(ctx context.Context, key string) (PropertySchema, bool, error)
	Set(ctx context.Context, key string, schema PropertySchema, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// SchemaCache resolves the property schema of a destination's HubSpot
// account, fetching it at most once per account until the entry expires or
// is invalidated. Concurrent misses on one account share a single fetch.
type SchemaCache struct {
	fetcher PropertyFetcher
	store   SchemaStore
	ttl     time.Duration
	group   singleflight.Group
	log     zerolog.Logger
}

// NewSchemaCache creates a cache over store. A zero ttl keeps entries for
// the life of the store.
func NewSchemaCache(fetcher PropertyFetcher, store SchemaStore, ttl time.Duration, log zerolog.Logger) *SchemaCache {
	return &SchemaCache{
		fetcher: fetcher,
		store:   store,
		ttl:     ttl,
		log:     log,
	}
}

func (c *SchemaCache) GetProperties(ctx context.Context, dest models.Destination) (PropertySchema, error) {
	key := dest.CacheKey()

	schema, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("destination_id", dest.ID).Msg("schema cache read failed, fetching")
	}
	if ok {
		metrics.SchemaCacheLookups.WithLabelValues("hit").Inc()
		return schema, nil
	}
	metrics.SchemaCacheLookups.WithLabelValues("miss").Inc()

	// The fetch is shared by every caller waiting on this account, so one
	// caller giving up must not cancel it. The client timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// Another caller may have filled the entry since the read above.
		if schema, ok, err := c.store.Get(fetchCtx, key); err == nil && ok {
			return schema, nil
		}
		props, err := c.fetcher.FetchProperties(fetchCtx, dest.Config.APIKey)
		if err != nil {
			return nil, err
		}
		schema := schemaFromProperties(props)
		if err := c.store.Set(fetchCtx, key, schema, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("destination_id", dest.ID).Msg("schema cache write failed")
		}
		c.log.Debug().
			Str("destination_id", dest.ID).
			Int("properties", len(schema)).
			Msg("property schema fetched")
		return schema, nil
	})

	select {
	case <-ctx.Done():
		return nil, newError(KindUpstreamFetchFailure, "fetch contact properties", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			if KindOf(res.Err) == "" {
				return nil, newError(KindUpstreamFetchFailure, "fetch contact properties", res.Err)
			}
			return nil, res.Err
		}
		return res.Val.(PropertySchema), nil
	}
}

// Invalidate drops the cached schema of the destination's account.
func (c *SchemaCache) Invalidate(ctx context.Context, dest models.Destination) error {
	return c.store.Delete(ctx, dest.CacheKey())
}

func (c *SchemaCache) InvalidateAll(ctx context.Context) error {
	return c.store.Clear(ctx)
}

type memoryEntry struct {
	schema    PropertySchema
	expiresAt time.Time
}

// MemoryStore is a process-local SchemaStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (PropertySchema, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.schema, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, schema PropertySchema, ttl time.Duration) error {
	e := memoryEntry{schema: schema}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}
