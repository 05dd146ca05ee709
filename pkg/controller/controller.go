// Package controller owns the active simulation and moves it between the
// preview and ego states in response to filter and selection changes.
//
// Fetches run as Jobs on any goroutine; their Results must be handed back to
// Apply on the goroutine that owns the Controller. A Result is applied only if
// its Token still matches the current generation for its source. That check is
// the only concurrency guard: there are no locks, and a superseded fetch is
// never aborted, only ignored when it lands.
package controller

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
	"github.com/vanderheijden86/execgraph/pkg/render"
)

// Provider supplies graph data for the two views.
type Provider interface {
	FetchPreview(ctx context.Context, limit int, f model.Filters) (model.GraphData, error)
	FetchEgoGraph(ctx context.Context, centerID int64, hops int) (model.GraphData, error)
}

// Observer receives lifecycle measurements. pkg/metrics implements it.
type Observer interface {
	ObserveFetch(source string, outcome string, elapsed time.Duration)
	ObserveStale(source string)
	ObserveFrame(ticked bool)
	ObserveNodes(n int)
}

// Source identifies an async data source with its own generation counter.
type Source string

const (
	SourcePreview Source = "preview"
	SourceEgo     Source = "ego"
)

// Token tags a fetch with the generation of its source at issue time.
type Token struct {
	Source Source
	Gen    uint64
}

// Result is the outcome of a Job.
type Result struct {
	Token   Token
	Filters model.Filters // Preview only
	Center  int64         // Ego only
	Data    model.GraphData
	Err     error
	Elapsed time.Duration
}

// Job performs one fetch. It never touches controller state.
type Job func(ctx context.Context) Result

// EgoLoadingLabel is shown while an ego fetch is in flight.
const EgoLoadingLabel = "加载关系中…"

// Options configures a Controller
type Options struct {
	Params  layout.Params
	Width   float64
	Height  float64
	EgoHops int
	Rand    *rand.Rand
	Logger  *zerolog.Logger
	Metrics Observer

	// OnError is called on the owner goroutine when a current fetch fails.
	OnError func(error)
}

// Controller is the single writer of the active node and edge set.
type Controller struct {
	provider Provider
	params   layout.Params
	hops     int
	rng      *rand.Rand
	log      zerolog.Logger
	metrics  Observer
	onError  func(error)

	w, h float64

	gens    map[Source]uint64
	loading map[Source]bool
	lastErr error

	filters  model.Filters
	selected *int64

	active  *layout.Sim
	preview *layout.Sim // Last applied preview; restored on deselect
}

// New creates a controller with an empty simulation.
func New(p Provider, opts Options) *Controller {
	if opts.Params == (layout.Params{}) {
		opts.Params = layout.DefaultParams()
	}
	if opts.EgoHops <= 0 {
		opts.EgoHops = 1
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	c := &Controller{
		provider: p,
		params:   opts.Params,
		hops:     opts.EgoHops,
		rng:      opts.Rand,
		log:      logger.With().Str("component", "controller").Logger(),
		metrics:  opts.Metrics,
		onError:  opts.OnError,
		gens:     map[Source]uint64{},
		loading:  map[Source]bool{},
		filters:  model.NoFilters(),
		active:   layout.Empty(),
	}
	c.SetViewport(opts.Width, opts.Height)
	return c
}

// SetViewport records the canvas size used for seeding and gravity. Zero or
// negative sizes fall back to the default viewport.
func (c *Controller) SetViewport(w, h float64) {
	if w <= 0 || h <= 0 {
		w, h = render.DefaultWidth, render.DefaultHeight
	}
	c.w, c.h = w, h
}

// Viewport returns the canvas size in CSS pixels.
func (c *Controller) Viewport() (float64, float64) { return c.w, c.h }

// issue bumps the generation for src and returns the new token.
func (c *Controller) issue(src Source) Token {
	c.gens[src]++
	c.loading[src] = true
	return Token{Source: src, Gen: c.gens[src]}
}

// Current returns the live token for src.
func (c *Controller) Current(src Source) Token {
	return Token{Source: src, Gen: c.gens[src]}
}

// SetFilters replaces the filter state and returns the preview fetch to run.
func (c *Controller) SetFilters(f model.Filters) (Job, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	c.filters = f
	return c.previewJob(), nil
}

// Reload re-fetches the preview with the current filters.
func (c *Controller) Reload() Job {
	return c.previewJob()
}

func (c *Controller) previewJob() Job {
	tok := c.issue(SourcePreview)
	f := c.filters
	limit := f.PreviewLimit()
	p := c.provider
	c.log.Debug().Uint64("gen", tok.Gen).Str("filters", f.Key()).Int("limit", limit).Msg("preview fetch issued")
	return func(ctx context.Context) Result {
		res := Result{Token: tok, Filters: f}
		start := time.Now()
		res.Data, res.Err = safeFetch(tok, func() (model.GraphData, error) {
			return p.FetchPreview(ctx, limit, f)
		})
		res.Elapsed = time.Since(start)
		return res
	}
}

// Select enters ego mode around id and returns the neighborhood fetch to run.
// The preview stays cached until Deselect.
func (c *Controller) Select(id int64) Job {
	c.selected = &id
	tok := c.issue(SourceEgo)
	hops := c.hops
	p := c.provider
	c.log.Debug().Uint64("gen", tok.Gen).Int64("center", id).Int("hops", hops).Msg("ego fetch issued")
	return func(ctx context.Context) Result {
		res := Result{Token: tok, Center: id}
		start := time.Now()
		res.Data, res.Err = safeFetch(tok, func() (model.GraphData, error) {
			return p.FetchEgoGraph(ctx, id, hops)
		})
		res.Elapsed = time.Since(start)
		return res
	}
}

// Deselect leaves ego mode. The cached preview is restored as it was last
// simulated; without a cache the view stays empty until a preview lands.
// Any in-flight ego fetch is invalidated.
func (c *Controller) Deselect() {
	if c.selected == nil {
		return
	}
	c.selected = nil
	c.gens[SourceEgo]++
	c.loading[SourceEgo] = false
	if c.preview != nil {
		c.active = c.preview
		c.active.Rewind()
	} else {
		c.active = layout.Empty()
	}
	c.observeNodes()
	c.log.Debug().Int("nodes", c.active.Len()).Msg("preview restored")
}

// Apply hands a finished Job's Result to the controller. It returns true if
// the result replaced the active or cached simulation. Stale results (whose
// token is no longer current) are discarded. Failed results clear the loading
// flag, are reported through OnError, and leave the last good state in place.
func (c *Controller) Apply(res Result) bool {
	src := res.Token.Source
	if res.Token.Gen != c.gens[src] {
		c.log.Debug().Str("source", string(src)).Uint64("gen", res.Token.Gen).
			Uint64("current", c.gens[src]).Msg("stale result discarded")
		if c.metrics != nil {
			c.metrics.ObserveStale(string(src))
		}
		return false
	}
	c.loading[src] = false

	if res.Err != nil {
		c.lastErr = res.Err
		c.log.Error().Err(res.Err).Str("source", string(src)).Dur("duration", res.Elapsed).Msg("fetch failed")
		if c.metrics != nil {
			c.metrics.ObserveFetch(string(src), "error", res.Elapsed)
		}
		if c.onError != nil {
			c.onError(res.Err)
		}
		return false
	}
	c.lastErr = nil
	if c.metrics != nil {
		c.metrics.ObserveFetch(string(src), "ok", res.Elapsed)
	}

	switch src {
	case SourcePreview:
		next := layout.SeedPreview(c.preview, res.Data, c.params, c.w, c.h, c.rng)
		c.preview = next
		if c.selected == nil {
			c.active = next
		}
	case SourceEgo:
		if c.selected == nil || *c.selected != res.Center {
			return false
		}
		c.active = layout.SeedEgo(res.Data, res.Center, c.params, c.w, c.h, c.rng)
	default:
		return false
	}
	c.observeNodes()
	c.log.Info().Str("source", string(src)).Uint64("gen", res.Token.Gen).
		Int("nodes", len(res.Data.Nodes)).Int("edges", len(res.Data.Edges)).
		Dur("duration", res.Elapsed).Msg("graph applied")
	return true
}

// Run executes job synchronously and applies its result.
func (c *Controller) Run(ctx context.Context, job Job) bool {
	if job == nil {
		return false
	}
	return c.Apply(job(ctx))
}

// Frame advances physics for one animation frame. It returns true while the
// layout is still settling.
func (c *Controller) Frame() bool {
	ticked := layout.Advance(c.active, c.params, c.w, c.h)
	if c.metrics != nil {
		c.metrics.ObserveFrame(ticked)
	}
	return ticked
}

func (c *Controller) observeNodes() {
	if c.metrics != nil {
		c.metrics.ObserveNodes(c.active.Len())
	}
}

// Sim returns the active simulation. It is owned by the controller's
// goroutine and replaced wholesale on reload.
func (c *Controller) Sim() *layout.Sim { return c.active }

// Params returns the force parameters.
func (c *Controller) Params() layout.Params { return c.params }

// Filters returns the current filter state.
func (c *Controller) Filters() model.Filters { return c.filters }

// Selected returns the ego selection, if any.
func (c *Controller) Selected() (int64, bool) {
	if c.selected == nil {
		return 0, false
	}
	return *c.selected, true
}

// Mode resolves the frame mode from the active simulation and filters.
func (c *Controller) Mode() layout.Mode {
	return layout.ResolveMode(c.active.CenterPtr(), c.filters)
}

// Loading reports whether a fetch for src is in flight.
func (c *Controller) Loading(src Source) bool { return c.loading[src] }

// IsLoading reports whether any fetch is in flight.
func (c *Controller) IsLoading() bool {
	return c.loading[SourcePreview] || c.loading[SourceEgo]
}

// LoadingLabel returns the status text for the in-flight fetch, or "".
func (c *Controller) LoadingLabel() string {
	switch {
	case c.loading[SourceEgo]:
		return EgoLoadingLabel
	case c.loading[SourcePreview]:
		return c.filters.LoadingLabel()
	default:
		return ""
	}
}

// LastError returns the error of the most recent current fetch, or nil.
func (c *Controller) LastError() error { return c.lastErr }

// HasPreviewCache reports whether a preview has been applied.
func (c *Controller) HasPreviewCache() bool { return c.preview != nil }
