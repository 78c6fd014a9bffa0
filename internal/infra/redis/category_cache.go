package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quadtrivia/internal/domain"
)

// CategoryLoader fetches the category list from a backing source (the
// upstream bank or a local one).
type CategoryLoader interface {
	LoadCategories(ctx context.Context) ([]domain.Category, error)
}

// CategoryCache caches the category list in Redis as a JSON blob and falls
// back to the loader on cache miss.
type CategoryCache struct {
	client *redis.Client
	loader CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCategoryCache(client *redis.Client, loader CategoryLoader, ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const categoriesKey = "trivia:categories"

func (c *CategoryCache) Categories(ctx context.Context) ([]domain.Category, error) {
	if categories, ok := c.cached(ctx); ok {
		return categories, nil
	}

	result, err, _ := c.sf.Do(categoriesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if categories, ok := c.cached(ctx); ok {
			return categories, nil
		}

		categories, err := c.loader.LoadCategories(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(categories); err == nil {
			// best-effort write; a failed cache fill only costs a reload
			_ = c.client.Set(ctx, categoriesKey, data, c.ttlWithJitter()).Err()
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func (c *CategoryCache) cached(ctx context.Context) ([]domain.Category, bool) {
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var categories []domain.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, false
	}
	return categories, true
}

func (c *CategoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
