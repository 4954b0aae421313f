package slottemplate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lunanails/booking-api/internal/schedule"
	"github.com/lunanails/booking-api/pkg/logging"
)

const cacheKey = "slot_template:v1"

// CachedSource is a Redis read-through cache in front of the template
// repository. The template is small and changes only through the admin
// screens, so a short TTL plus explicit invalidation on writes keeps the
// availability engine from hitting Postgres on every calendar load.
//
// Cache failures degrade to the repository; a dead Redis never makes the
// salon look closed.
type CachedSource struct {
	repo   *Repository
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachedSource(repo *Repository, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedSource {
	if repo == nil {
		panic("slottemplate: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{repo: repo, client: client, ttl: ttl, logger: logger}
}

// ListTemplate implements schedule.TemplateSource.
func (c *CachedSource) ListTemplate(ctx context.Context) ([]schedule.TemplateEntry, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var entries []schedule.TemplateEntry
			if jsonErr := json.Unmarshal(raw, &entries); jsonErr == nil {
				return entries, nil
			}
			// Corrupt payload: fall through and overwrite below.
		} else if err != redis.Nil {
			c.logger.Warn("slot template cache read failed", "error", err)
		}
	}

	entries, err := c.repo.ListTemplate(ctx)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := c.client.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("slot template cache write failed", "error", err)
			}
		}
	}
	return entries, nil
}

// Invalidate drops the cached template. Called after every admin edit.
func (c *CachedSource) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Warn("slot template cache invalidation failed", "error", err)
	}
}
