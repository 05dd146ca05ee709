// Package cache decorates a graph provider with a Redis response cache and
// collapses identical in-flight fetches.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// Fetcher is the provider being cached.
type Fetcher interface {
	FetchPreview(ctx context.Context, limit int, f model.Filters) (model.GraphData, error)
	FetchEgoGraph(ctx context.Context, centerID int64, hops int) (model.GraphData, error)
}

// Provider is a caching Fetcher. Without a Redis client it only deduplicates
// concurrent identical fetches. Cache failures are logged and bypassed.
type Provider struct {
	next   Fetcher
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
	group  singleflight.Group
}

// Option configures a Provider
type Option func(*Provider)

// WithTTL sets the expiry of cached responses.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.ttl = ttl }
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(p *Provider) { p.prefix = prefix }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// New wraps next. rdb may be nil.
func New(next Fetcher, rdb *redis.Client, opts ...Option) *Provider {
	p := &Provider{
		next:   next,
		rdb:    rdb,
		ttl:    5 * time.Minute,
		prefix: "execgraph:",
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Dial connects to Redis at addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// PreviewKey is the cache key of a preview request.
func (p *Provider) PreviewKey(limit int, f model.Filters) string {
	return fmt.Sprintf("%spreview:%d:%s", p.prefix, limit, f.Key())
}

// EgoKey is the cache key of an ego request.
func (p *Provider) EgoKey(centerID int64, hops int) string {
	return fmt.Sprintf("%sego:%d:%d", p.prefix, centerID, hops)
}

// FetchPreview implements Fetcher.
func (p *Provider) FetchPreview(ctx context.Context, limit int, f model.Filters) (model.GraphData, error) {
	return p.fetch(ctx, p.PreviewKey(limit, f), func() (model.GraphData, error) {
		return p.next.FetchPreview(ctx, limit, f)
	})
}

// FetchEgoGraph implements Fetcher.
func (p *Provider) FetchEgoGraph(ctx context.Context, centerID int64, hops int) (model.GraphData, error) {
	return p.fetch(ctx, p.EgoKey(centerID, hops), func() (model.GraphData, error) {
		return p.next.FetchEgoGraph(ctx, centerID, hops)
	})
}

func (p *Provider) fetch(ctx context.Context, key string, load func() (model.GraphData, error)) (model.GraphData, error) {
	v, err, shared := p.group.Do(key, func() (any, error) {
		if data, ok := p.get(ctx, key); ok {
			return data, nil
		}
		data, err := load()
		if err != nil {
			return model.GraphData{}, err
		}
		p.set(ctx, key, data)
		return data, nil
	})
	if shared {
		p.log.Debug().Str("key", key).Msg("fetch shared with in-flight request")
	}
	if err != nil {
		return model.GraphData{}, err
	}
	return v.(model.GraphData), nil
}

func (p *Provider) get(ctx context.Context, key string) (model.GraphData, bool) {
	if p.rdb == nil {
		return model.GraphData{}, false
	}
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return model.GraphData{}, false
	}
	var data model.GraphData
	if err := json.Unmarshal(b, &data); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return model.GraphData{}, false
	}
	p.log.Debug().Str("key", key).Int("nodes", len(data.Nodes)).Msg("cache hit")
	return data, true
}

func (p *Provider) set(ctx context.Context, key string, data model.GraphData) {
	if p.rdb == nil {
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := p.rdb.Set(ctx, key, b, p.ttl).Err(); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate drops every cached response under the prefix.
func (p *Provider) Invalidate(ctx context.Context) error {
	if p.rdb == nil {
		return nil
	}
	iter := p.rdb.Scan(ctx, 0, p.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := p.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	p.log.Info().Int("keys", len(keys)).Msg("cache invalidated")
	return nil
}
