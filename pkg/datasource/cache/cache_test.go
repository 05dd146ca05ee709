package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

type countingFetcher struct {
	previews atomic.Int32
	egos     atomic.Int32
	release  chan struct{}
	err      error
}

func (f *countingFetcher) FetchPreview(ctx context.Context, limit int, flt model.Filters) (model.GraphData, error) {
	f.previews.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return model.GraphData{}, f.err
	}
	return model.GraphData{
		Nodes: []model.Executive{{ID: 1, Name: "a", Region: model.RegionHK}, {ID: 2, Name: "b"}},
		Edges: []model.Relationship{{ID: 9, SourceID: 1, TargetID: 2, Type: model.RelFormer}},
	}, nil
}

func (f *countingFetcher) FetchEgoGraph(ctx context.Context, id int64, hops int) (model.GraphData, error) {
	f.egos.Add(1)
	return model.GraphData{Nodes: []model.Executive{{ID: id, Name: "c"}}}, nil
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestCacheHit(t *testing.T) {
	rdb, mr := setupRedis(t)
	next := &countingFetcher{}
	p := New(next, rdb, WithTTL(time.Minute), WithKeyPrefix("test:"))
	ctx := context.Background()
	f := model.Filters{Region: model.RegionHK}

	first, err := p.FetchPreview(ctx, 800, f)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.FetchPreview(ctx, 800, f)
	if err != nil {
		t.Fatal(err)
	}
	if next.previews.Load() != 1 {
		t.Errorf("underlying fetches = %d, want 1", next.previews.Load())
	}
	if len(second.Nodes) != 2 || second.Nodes[0] != first.Nodes[0] || second.Edges[0] != first.Edges[0] {
		t.Errorf("cached response differs: %+v vs %+v", second, first)
	}

	key := p.PreviewKey(800, f)
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Errorf("TTL(%s) = %v, want 1m", key, ttl)
	}

	// A different filter is a different key.
	if _, err := p.FetchPreview(ctx, 800, model.Filters{Region: model.RegionSG}); err != nil {
		t.Fatal(err)
	}
	if next.previews.Load() != 2 {
		t.Errorf("distinct filters should miss, fetches = %d", next.previews.Load())
	}

	mr.FastForward(2 * time.Minute)
	if _, err := p.FetchPreview(ctx, 800, f); err != nil {
		t.Fatal(err)
	}
	if next.previews.Load() != 3 {
		t.Errorf("expired entry should refetch, fetches = %d", next.previews.Load())
	}
}

func TestEgoCached(t *testing.T) {
	rdb, _ := setupRedis(t)
	next := &countingFetcher{}
	p := New(next, rdb)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		g, err := p.FetchEgoGraph(ctx, 5, 1)
		if err != nil || len(g.Nodes) != 1 || g.Nodes[0].ID != 5 {
			t.Fatalf("FetchEgoGraph = %+v, %v", g, err)
		}
	}
	p.FetchEgoGraph(ctx, 5, 2)
	if next.egos.Load() != 2 {
		t.Errorf("ego fetches = %d, want 2 (one per hops value)", next.egos.Load())
	}
}

func TestErrorsNotCached(t *testing.T) {
	rdb, mr := setupRedis(t)
	boom := errors.New("boom")
	next := &countingFetcher{err: boom}
	p := New(next, rdb)
	ctx := context.Background()
	if _, err := p.FetchPreview(ctx, 200, model.NoFilters()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("failed response was cached: %v", mr.Keys())
	}
}

func TestSingleflight(t *testing.T) {
	rdb, _ := setupRedis(t)
	next := &countingFetcher{release: make(chan struct{})}
	p := New(next, rdb)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.FetchPreview(ctx, 200, model.NoFilters())
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(next.release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := next.previews.Load(); n != 1 {
		t.Errorf("underlying fetches = %d, want 1", n)
	}
}

func TestNoRedis(t *testing.T) {
	next := &countingFetcher{}
	p := New(next, nil)
	ctx := context.Background()
	p.FetchPreview(ctx, 200, model.NoFilters())
	p.FetchPreview(ctx, 200, model.NoFilters())
	if next.previews.Load() != 2 {
		t.Errorf("without redis sequential fetches should pass through, got %d", next.previews.Load())
	}
	if err := p.Invalidate(ctx); err != nil {
		t.Error(err)
	}
}

func TestRedisDownBypasses(t *testing.T) {
	rdb, mr := setupRedis(t)
	next := &countingFetcher{}
	p := New(next, rdb)
	mr.Close()
	g, err := p.FetchPreview(context.Background(), 200, model.NoFilters())
	if err != nil || len(g.Nodes) != 2 {
		t.Errorf("fetch with redis down = %+v, %v", g, err)
	}
}

func TestInvalidate(t *testing.T) {
	rdb, mr := setupRedis(t)
	next := &countingFetcher{}
	p := New(next, rdb, WithKeyPrefix("eg:"))
	ctx := context.Background()
	mr.Set("other:key", "keep")
	p.FetchPreview(ctx, 200, model.NoFilters())
	p.FetchEgoGraph(ctx, 1, 1)

	if err := p.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	keys := mr.Keys()
	if len(keys) != 1 || keys[0] != "other:key" {
		t.Errorf("keys after invalidate = %v", keys)
	}
	p.FetchPreview(ctx, 200, model.NoFilters())
	if next.previews.Load() != 2 {
		t.Error("invalidated entry should refetch")
	}
}

func TestDial(t *testing.T) {
	_, mr := setupRedis(t)
	addr := mr.Addr()
	rdb, err := Dial(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	rdb.Close()
	mr.Close()
	if _, err := Dial(context.Background(), addr); err == nil {
		t.Error("expected dial error after shutdown")
	}
}
