package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/veritas/internal/cache"
	"github.com/ppiankov/veritas/internal/logging"
	"github.com/ppiankov/veritas/internal/model"
)

// Cached memoizes another retriever's evidence by backend and claim text.
// Failures are never cached.
type Cached struct {
	next   Retriever
	cache  cache.Cache
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewCached wraps next with c
func NewCached(next Retriever, c cache.Cache, ttl time.Duration, logger logrus.FieldLogger) *Cached {
	return &Cached{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logging.OrDiscard(logger),
	}
}

// Name returns the wrapped retriever name
func (c *Cached) Name() string {
	return c.next.Name()
}

// Retrieve serves from cache when possible
func (c *Cached) Retrieve(ctx context.Context, claim model.Claim) ([]model.EvidenceItem, error) {
	key := cache.Key("evidence", c.next.Name(), claim.Text)

	if data, ok := c.cache.Get(ctx, key); ok {
		var items []model.EvidenceItem
		if err := json.Unmarshal(data, &items); err == nil {
			c.logger.WithField("position", claim.Position).Debug("evidence cache hit")
			return items, nil
		}
		_ = c.cache.Delete(ctx, key)
	}

	items, err := c.next.Retrieve(ctx, claim)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.WithError(err).Warn("evidence cache write failed")
		}
	}
	return items, nil
}
