package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quadtrivia/internal/domain"
)

// CategoryLoader fetches the category list from a backing source (the
// upstream bank or a local one).
type CategoryLoader interface {
	LoadCategories(ctx context.Context) ([]domain.Category, error)
}

// CategoryCache caches the category list with TTL to avoid hammering the
// upstream on every page load.
type CategoryCache struct {
	loader CategoryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.Category
	expiresAt time.Time
}

func NewCategoryCache(loader CategoryLoader, ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CategoryCache) Categories(ctx context.Context) ([]domain.Category, error) {
	now := c.clock()

	c.mu.RLock()
	if c.cached != nil && c.expiresAt.After(now) {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("categories", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.cached != nil && c.expiresAt.After(now) {
			cached := c.cached
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		categories, err := c.loader.LoadCategories(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cached = categories
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

// StaticCategoryLoader serves a fixed list (useful for tests/demos).
type StaticCategoryLoader struct {
	categories []domain.Category
}

func NewStaticCategoryLoader(categories []domain.Category) *StaticCategoryLoader {
	return &StaticCategoryLoader{categories: categories}
}

func (l *StaticCategoryLoader) LoadCategories(_ context.Context) ([]domain.Category, error) {
	return l.categories, nil
}

func (c *CategoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
