// Package config loads the viewer configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/execgraph/pkg/datasource"
	"github.com/vanderheijden86/execgraph/pkg/interact"
	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
	"github.com/vanderheijden86/execgraph/pkg/render"
)

// Source kinds
const (
	SourceJSON     = "json"
	SourceSQLite   = "sqlite"
	SourceSupabase = "supabase"
)

// Config is the full viewer configuration.
type Config struct {
	Physics     layout.Params     `yaml:"physics"`
	Canvas      CanvasConfig      `yaml:"canvas"`
	Interaction InteractionConfig `yaml:"interaction"`
	Ego         EgoConfig         `yaml:"ego"`
	Source      SourceConfig      `yaml:"source"`
	Cache       CacheConfig       `yaml:"cache"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	// Filters applied at startup.
	Filters model.Filters `yaml:"filters"`
}

// CanvasConfig sizes the offscreen canvas. Zero width or height follows the
// terminal (TUI) or falls back to the default viewport (headless).
type CanvasConfig struct {
	Width  int     `yaml:"width" validate:"gte=0"`
	Height int     `yaml:"height" validate:"gte=0"`
	DPR    float64 `yaml:"dpr" validate:"gt=0,lte=4"`
	FPS    int     `yaml:"fps" validate:"gte=1,lte=120"`
	Legend bool    `yaml:"legend"`
}

// InteractionConfig holds the hit-test radii in CSS pixels.
type InteractionConfig struct {
	HitRadius    float64 `yaml:"hit_radius" validate:"gt=0"`
	CenterRadius float64 `yaml:"center_radius" validate:"gt=0"`
}

// EgoConfig controls neighborhood fetches.
type EgoConfig struct {
	Hops  int                `yaml:"hops" validate:"gte=1,lte=2"`
	Query datasource.Options `yaml:"query"`
}

// SourceConfig selects the data backend.
type SourceConfig struct {
	Kind string `yaml:"kind" validate:"oneof=json sqlite supabase"`
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`
}

// CacheConfig enables the Redis response cache when Addr is set.
type CacheConfig struct {
	Addr   string        `yaml:"addr"`
	TTL    time.Duration `yaml:"ttl" validate:"gte=0"`
	Prefix string        `yaml:"prefix"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig exposes Prometheus metrics when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Physics: layout.DefaultParams(),
		Canvas: CanvasConfig{
			DPR:    1,
			FPS:    60,
			Legend: true,
		},
		Interaction: InteractionConfig{
			HitRadius:    interact.DefaultHitRadius,
			CenterRadius: interact.DefaultCenterRadius,
		},
		Ego: EgoConfig{
			Hops:  1,
			Query: datasource.DefaultOptions(),
		},
		Source: SourceConfig{
			Kind:   SourceJSON,
			KeyEnv: "SUPABASE_ANON_KEY",
		},
		Cache: CacheConfig{
			TTL:    5 * time.Minute,
			Prefix: "execgraph:",
		},
		Log:     LogConfig{Level: "info"},
		Filters: model.NoFilters(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	err := cfg.decode(bytes.NewReader(data))
	return cfg, err
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	c.Filters = c.Filters.Normalize()
	if c.Filters.Region != model.All {
		c.Filters.Region = model.Region(strings.ToUpper(string(c.Filters.Region)))
	}
	return c.Validate()
}

var validate = validator.New()

// Validate checks field ranges and cross-field requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if err := c.Filters.Validate(); err != nil {
		return fmt.Errorf("filters: %w", err)
	}
	switch c.Source.Kind {
	case SourceSupabase:
		if c.Source.URL == "" {
			return errors.New("source.url is required for supabase")
		}
	case SourceSQLite:
		if c.Source.Path == "" {
			return errors.New("source.path is required for sqlite")
		}
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		switch e.Tag() {
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s], got %v", field, e.Param(), e.Value())
		case "gt", "gte":
			return fmt.Errorf("%s: must be at least %s (exclusive: %t), got %v", field, e.Param(), e.Tag() == "gt", e.Value())
		case "lt", "lte":
			return fmt.Errorf("%s: must not exceed %s, got %v", field, e.Param(), e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}

// APIKey resolves the Supabase key from the configured environment variable.
func (s SourceConfig) APIKey() string {
	if s.KeyEnv == "" {
		return ""
	}
	return os.Getenv(s.KeyEnv)
}

// Viewport returns the configured canvas size, or the default viewport when
// either side is unset.
func (c CanvasConfig) Viewport() (float64, float64) {
	if c.Width <= 0 || c.Height <= 0 {
		return render.DefaultWidth, render.DefaultHeight
	}
	return float64(c.Width), float64(c.Height)
}
