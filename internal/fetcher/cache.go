package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fxhedge/internal/forward"
)

// CachedOptions configure the Redis quote cache.
type CachedOptions struct {
	TTL    time.Duration
	Prefix string
}

// Cached memoises spot quotes from another fetcher in Redis for TTL.
// Redis failures degrade to a direct fetch.
type Cached struct {
	next   SpotFetcher
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// NewCached wraps next with a Redis-backed cache.
func NewCached(next SpotFetcher, client *redis.Client, opts CachedOptions, logger zerolog.Logger) *Cached {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "fxhedge:spot"
	}
	return &Cached{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With().Str("component", "spot_cache").Logger(),
	}
}

// FetchSpot serves a cached quote when present, otherwise fetches and stores one.
func (c *Cached) FetchSpot(ctx context.Context, pair forward.CurrencyPair) (Quote, error) {
	key := c.key(pair)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var q Quote
		if jsonErr := json.Unmarshal(raw, &q); jsonErr == nil {
			return q, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cached quote")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("spot cache read failed")
	}

	q, err := c.next.FetchSpot(ctx, pair)
	if err != nil {
		return Quote{}, err
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return q, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("spot cache write failed")
	}
	return q, nil
}

func (c *Cached) key(pair forward.CurrencyPair) string {
	return c.prefix + ":" + pair.Symbol()
}

var _ SpotFetcher = (*Cached)(nil)
