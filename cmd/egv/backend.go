package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/vanderheijden86/execgraph/pkg/config"
	"github.com/vanderheijden86/execgraph/pkg/controller"
	"github.com/vanderheijden86/execgraph/pkg/datasource"
	"github.com/vanderheijden86/execgraph/pkg/datasource/cache"
	"github.com/vanderheijden86/execgraph/pkg/datasource/memory"
	"github.com/vanderheijden86/execgraph/pkg/datasource/sqlite"
	"github.com/vanderheijden86/execgraph/pkg/datasource/supabase"
	"github.com/vanderheijden86/execgraph/pkg/model"
)

// backend is the assembled data path: a store, the provider on top of it and
// the optional response cache in front.
type backend struct {
	provider *datasource.Provider
	fetcher  controller.Provider

	// Set only for JSON sources; the dataset watcher swaps its contents.
	memory *memory.Store
	// Set when responses go through the cache layer.
	cache *cache.Provider

	closers []io.Closer
}

func openBackend(ctx context.Context, cfg config.Config, log zerolog.Logger) (*backend, error) {
	b := &backend{}
	var store datasource.Store

	switch cfg.Source.Kind {
	case config.SourceJSON:
		if cfg.Source.Path == "" {
			return nil, errors.New("no dataset: pass -data, -sqlite or -supabase, or set source in the config file")
		}
		mem, err := memory.Open(cfg.Source.Path)
		if err != nil {
			return nil, err
		}
		b.memory, store = mem, mem
	case config.SourceSQLite:
		db, err := sqlite.Open(ctx, cfg.Source.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db)
		store = db
	case config.SourceSupabase:
		sb, err := supabase.New(cfg.Source.URL, cfg.Source.APIKey())
		if err != nil {
			return nil, err
		}
		store = sb
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	b.provider = datasource.NewProvider(store, cfg.Ego.Query)
	b.fetcher = b.provider

	if cfg.Cache.Addr != "" {
		rdb, err := cache.Dial(ctx, cfg.Cache.Addr)
		if err != nil {
			// The viewer works without the cache; only in-flight dedup remains.
			log.Warn().Err(err).Msg("redis unavailable, caching disabled")
			b.cache = cache.New(b.provider, nil, cache.WithLogger(log))
		} else {
			b.closers = append(b.closers, rdb)
			b.cache = cache.New(b.provider, rdb,
				cache.WithTTL(cfg.Cache.TTL),
				cache.WithKeyPrefix(cfg.Cache.Prefix),
				cache.WithLogger(log),
			)
		}
		b.fetcher = b.cache
	}

	log.Info().Str("source", cfg.Source.Kind).Bool("cache", b.cache != nil).Msg("backend ready")
	return b, nil
}

// Replace swaps the in-memory dataset and drops cached responses built from
// the old one.
func (b *backend) Replace(ctx context.Context, data model.GraphData) error {
	if b.memory == nil {
		return errors.New("dataset replace needs a json source")
	}
	b.memory.Replace(data)
	if b.cache != nil {
		return b.cache.Invalidate(ctx)
	}
	return nil
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// importJSON copies a JSON dataset into a SQLite database.
func importJSON(ctx context.Context, src, dst string) (model.GraphData, error) {
	data, err := memory.LoadFile(src)
	if err != nil {
		return model.GraphData{}, err
	}
	db, err := sqlite.Open(ctx, dst)
	if err != nil {
		return model.GraphData{}, err
	}
	defer db.Close()
	if err := db.Import(ctx, data); err != nil {
		return model.GraphData{}, fmt.Errorf("import into %s: %w", dst, err)
	}
	return data, nil
}
