package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/vanderheijden86/execgraph/pkg/config"
	"github.com/vanderheijden86/execgraph/pkg/controller"
	"github.com/vanderheijden86/execgraph/pkg/logging"
	"github.com/vanderheijden86/execgraph/pkg/metrics"
	"github.com/vanderheijden86/execgraph/pkg/model"
	"github.com/vanderheijden86/execgraph/pkg/recipe"
	"github.com/vanderheijden86/execgraph/pkg/ui"
)

var version = "dev"

// cliFlags are the command line overrides layered on top of the config file.
type cliFlags struct {
	Data     string
	SQLite   string
	Supabase string
	Redis    string
	Filter   string
	LogLevel string
	LogFile  string
	Metrics  string
	Hops     int
}

// apply writes the flags that were set over cfg and revalidates it.
func (f cliFlags) apply(cfg *config.Config) error {
	switch {
	case f.Supabase != "":
		cfg.Source.Kind, cfg.Source.URL = config.SourceSupabase, f.Supabase
	case f.SQLite != "" && f.Data == "":
		cfg.Source.Kind, cfg.Source.Path = config.SourceSQLite, config.ExpandHome(f.SQLite)
	case f.Data != "":
		cfg.Source.Kind, cfg.Source.Path = config.SourceJSON, config.ExpandHome(f.Data)
	}
	if f.Redis != "" {
		cfg.Cache.Addr = f.Redis
	}
	if f.Filter != "" {
		filters, err := model.ParseFilters(f.Filter)
		if err != nil {
			return err
		}
		cfg.Filters = filters
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = config.ExpandHome(f.LogFile)
	}
	if f.Metrics != "" {
		cfg.Metrics.Addr = f.Metrics
	}
	if f.Hops != 0 {
		cfg.Ego.Hops = f.Hops
	}
	return cfg.Validate()
}

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default: .execgraph/config.yaml, then ~/.config/execgraph/config.yaml)")
	var cf cliFlags
	flag.StringVar(&cf.Data, "data", "", "JSON dataset with nodes and edges (watched for changes in the TUI)")
	flag.StringVar(&cf.SQLite, "sqlite", "", "SQLite database to read (or to write with -import)")
	flag.StringVar(&cf.Supabase, "supabase", "", "Supabase project URL (key from $SUPABASE_ANON_KEY or source.key_env)")
	flag.StringVar(&cf.Redis, "redis", "", "Redis address for the response cache (e.g., localhost:6379)")
	flag.StringVar(&cf.Filter, "filter", "", "Filters, e.g. region=HK,title=board,company=life,relation=alumni")
	flag.StringVar(&cf.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	flag.StringVar(&cf.LogFile, "log-file", "", "Write logs to this file")
	flag.StringVar(&cf.Metrics, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9464)")
	flag.IntVar(&cf.Hops, "hops", 0, "Ego neighborhood depth (1 or 2)")
	selectID := flag.Int64("select", 0, "Start focused on this executive id")
	recipeName := flag.String("recipe", "", "Apply named recipe (e.g., boards, actuaries, hk)")
	recipeShort := flag.String("r", "", "Shorthand for --recipe")
	listRecipes := flag.Bool("recipes", false, "Output available recipes as JSON")
	pickFilters := flag.Bool("pick-filters", false, "Choose filters in a form before starting")
	exportFile := flag.String("export-md", "", "Export the loaded graph to a Markdown report (e.g., report.md) and exit")
	renderOut := flag.String("render", "", "Render one frame headless to a .png or .svg file and exit")
	frames := flag.Int("frames", 0, "Physics ticks before a headless render (default: settle fully)")
	importJSONFlag := flag.Bool("import", false, "Import the -data JSON dataset into the -sqlite database and exit")
	searchQuery := flag.String("search", "", "Search executives by name, print JSON and exit")
	flag.Parse()

	if *recipeShort != "" && *recipeName == "" {
		*recipeName = *recipeShort
	}

	if *help {
		fmt.Println("Usage: egv [options]")
		fmt.Println("\nA force-directed viewer for executive relationship graphs.")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("egv %s\n", version)
		os.Exit(0)
	}

	cwd, _ := os.Getwd()
	recipeLoader, err := recipe.LoadDefault(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading recipes: %v\n", err)
		recipeLoader = recipe.NewLoader()
	}

	if *listRecipes {
		if err := writeRecipes(os.Stdout, recipeLoader); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding recipes: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var activeRecipe *recipe.Recipe
	if *recipeName != "" {
		r, ok := recipeLoader.Get(*recipeName)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: Unknown recipe '%s'\n\n", *recipeName)
			fmt.Fprintln(os.Stderr, "Available recipes:")
			for _, name := range recipeLoader.Names() {
				r, _ := recipeLoader.Get(name)
				fmt.Fprintf(os.Stderr, "  %-15s %s\n", name, r.Description)
			}
			os.Exit(1)
		}
		activeRecipe = &r
	}

	cfg, cfgPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cf.apply(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if activeRecipe != nil {
		cfg.Filters = activeRecipe.Filters
		if *selectID == 0 {
			*selectID = activeRecipe.Select
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importJSONFlag {
		if cf.Data == "" || cf.SQLite == "" {
			fmt.Fprintln(os.Stderr, "Error: -import needs both -data and -sqlite")
			os.Exit(1)
		}
		data, err := importJSON(ctx, config.ExpandHome(cf.Data), config.ExpandHome(cf.SQLite))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error importing dataset: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d executives and %d relationships into %s\n", len(data.Nodes), len(data.Edges), cf.SQLite)
		os.Exit(0)
	}

	interactive := *renderOut == "" && *searchQuery == "" && *exportFile == ""
	if interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: the viewer needs a terminal; use -render, -export-md or -search for scripted use")
		os.Exit(1)
	}
	// The TUI owns the terminal, so logs go to a file or nowhere.
	if interactive && cfg.Log.File == "" {
		cfg.Log.Level = "disabled"
	}

	logger, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, JSON: cfg.Log.JSON}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	if cfgPath != "" {
		logger.Debug().Str("path", cfgPath).Msg("config loaded")
	}

	if *pickFilters {
		picked, err := ui.PickFilters(cfg.Filters)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Filters = picked
		activeRecipe = nil
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data source: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	if *searchQuery != "" {
		if err := writeSearch(ctx, os.Stdout, b, *searchQuery); err != nil {
			fmt.Fprintf(os.Stderr, "Error searching: %v\n", err)
			os.Exit(1)
		}
		return
	}

	reg := metrics.NewRegistry()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := reg.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server stopped")
			}
		}()
	}

	w, h := cfg.Canvas.Viewport()
	ctrl := controller.New(b.fetcher, controller.Options{
		Params:  cfg.Physics,
		Width:   w,
		Height:  h,
		EgoHops: cfg.Ego.Hops,
		Logger:  &logger,
		Metrics: reg,
	})

	if *exportFile != "" {
		if err := exportReport(ctx, ctrl, cfg, *exportFile, *selectID); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting markdown: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d executives to %s\n", ctrl.Sim().Len(), *exportFile)
		return
	}

	if *renderOut != "" {
		start := time.Now()
		mode, err := renderSnapshot(ctx, ctrl, cfg, snapshotRequest{Out: *renderOut, Select: *selectID, Frames: *frames})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
			os.Exit(1)
		}
		logger.Info().Str("out", *renderOut).Str("mode", string(mode.Kind)).
			Int("nodes", ctrl.Sim().Len()).Dur("elapsed", time.Since(start)).Msg("snapshot written")
		return
	}

	if err := runTUI(ctx, cfg, b, ctrl, recipeLoader, activeRecipe, *selectID, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error running viewer: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads an explicit path, or discovers one.
func loadConfig(path string) (config.Config, string, error) {
	if path != "" {
		path = config.ExpandHome(path)
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	return config.LoadDiscovered()
}

func runTUI(ctx context.Context, cfg config.Config, b *backend, ctrl *controller.Controller,
	recipes *recipe.Loader, active *recipe.Recipe, selectID int64, logger zerolog.Logger) error {
	opts := ui.Options{
		Controller:   ctrl,
		Recipes:      recipes,
		Select:       selectID,
		Search:       b.provider.Search,
		FPS:          cfg.Canvas.FPS,
		HitRadius:    cfg.Interaction.HitRadius,
		CenterRadius: cfg.Interaction.CenterRadius,
		Legend:       cfg.Canvas.Legend,
		SnapshotDir:  snapshotDir(cfg),
		Logger:       &logger,
	}
	if active != nil {
		opts.Recipe = active.Name
	} else if _, err := ctrl.SetFilters(cfg.Filters); err != nil {
		// Init's reload fetches with these filters; the job is superseded.
		return err
	}

	p := tea.NewProgram(ui.NewModel(opts), tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	if b.memory != nil {
		watcher, err := ui.NewDatasetWatcher(ui.WatcherConfig{
			Path:   cfg.Source.Path,
			Apply:  b.Replace,
			Notify: p.Send,
			Logger: &logger,
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			logger.Warn().Err(err).Msg("dataset watcher disabled")
		}
		defer watcher.Stop()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func writeRecipes(out io.Writer, l *recipe.Loader) error {
	output := struct {
		Recipes []recipe.RecipeSummary `json:"recipes"`
	}{
		Recipes: l.List(),
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func writeSearch(ctx context.Context, out io.Writer, b *backend, query string) error {
	execs, err := b.provider.Search(ctx, query, 20)
	if err != nil {
		return err
	}
	if execs == nil {
		execs = []model.Executive{}
	}
	output := struct {
		Query   string            `json:"query"`
		Results []model.Executive `json:"results"`
	}{
		Query:   query,
		Results: execs,
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// snapshotDir is where TUI snapshots land; the working directory unless the
// dataset lives elsewhere.
func snapshotDir(cfg config.Config) string {
	if cfg.Source.Kind == config.SourceJSON && cfg.Source.Path != "" {
		return filepath.Dir(cfg.Source.Path)
	}
	return "."
}
