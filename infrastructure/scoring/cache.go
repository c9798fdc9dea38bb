package scoring

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/internal/config"
)

// DurableStore is the persistent tier behind the in-memory score cache.
// Satisfied by persistence.ScoreStore.
type DurableStore interface {
	Get(ctx context.Context, signature string) (oracle.Score, bool, error)
	Put(ctx context.Context, signature string, score oracle.Score) error
	Flush(ctx context.Context) error
}

// Cache memoizes oracle scores by canonical signature: an LRU in front of
// an optional durable store, with singleflight collapsing concurrent
// misses so each signature is computed at most once.
type Cache struct {
	lru     *lru.Cache[string, oracle.Score]
	durable DurableStore
	group   singleflight.Group
	logger  *slog.Logger
}

// NewCache creates a Cache. durable may be nil for a memory-only cache.
func NewCache(cfg config.OracleCacheConfig, durable DurableStore, logger *slog.Logger) (*Cache, error) {
	inner, err := lru.New[string, oracle.Score](cfg.Capacity())
	if err != nil {
		return nil, fmt.Errorf("create score cache: %w", err)
	}
	return &Cache{
		lru:     inner,
		durable: durable,
		logger:  logger,
	}, nil
}

// GetOrCompute returns the cached score for signature, consulting the LRU
// and then the durable tier before invoking compute. A durable write
// failure is logged and does not fail the lookup.
func (c *Cache) GetOrCompute(ctx context.Context, signature string, compute func(context.Context) (oracle.Score, error)) (oracle.Score, error) {
	if score, ok := c.lru.Get(signature); ok {
		return score, nil
	}

	v, err, _ := c.group.Do(signature, func() (any, error) {
		if score, ok := c.lru.Get(signature); ok {
			return score, nil
		}

		if c.durable != nil {
			score, ok, err := c.durable.Get(ctx, signature)
			if err != nil {
				c.logger.Warn("durable score lookup failed",
					slog.String("signature", signature),
					slog.String("error", err.Error()),
				)
			} else if ok {
				c.lru.Add(signature, score)
				return score, nil
			}
		}

		score, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.lru.Add(signature, score)

		if c.durable != nil {
			if err := c.durable.Put(ctx, signature, score); err != nil {
				c.logger.Warn("durable score write failed",
					slog.String("signature", signature),
					slog.String("error", err.Error()),
				)
			}
		}
		return score, nil
	})
	if err != nil {
		return oracle.Score{}, err
	}
	return v.(oracle.Score), nil
}

// Flush discards every cached score in both tiers.
func (c *Cache) Flush(ctx context.Context) error {
	c.lru.Purge()
	if c.durable != nil {
		if err := c.durable.Flush(ctx); err != nil {
			return fmt.Errorf("flush durable scores: %w", err)
		}
	}
	return nil
}

var _ oracle.Cache = (*Cache)(nil)
