// Package ui hosts the relationship graph in a terminal: it owns the
// controller, drives the frame loop and maps keyboard and mouse input onto
// graph events.
package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/vanderheijden86/execgraph/pkg/controller"
	"github.com/vanderheijden86/execgraph/pkg/interact"
	"github.com/vanderheijden86/execgraph/pkg/layout"
	"github.com/vanderheijden86/execgraph/pkg/model"
	"github.com/vanderheijden86/execgraph/pkg/recipe"
	"github.com/vanderheijden86/execgraph/pkg/render"
)

const (
	footerHeight = 2
	// DetailWidth is the column width of the detail card.
	DetailWidth = 44
	// DetailMinWidth is the terminal width below which the card is hidden.
	DetailMinWidth = 100
)

// SearchFunc looks executives up by name outside the loaded graph.
type SearchFunc func(ctx context.Context, query string, limit int) ([]model.Executive, error)

// Options configures the TUI model.
type Options struct {
	Controller *controller.Controller
	Recipes    *recipe.Loader
	// Recipe is applied on start when set.
	Recipe string
	// Select focuses this executive on start when non-zero.
	Select int64
	Search SearchFunc

	FPS          int
	HitRadius    float64
	CenterRadius float64
	Legend       bool
	// SnapshotDir receives PNG snapshots ("." when empty).
	SnapshotDir string

	Copy   func(string) error
	Logger *zerolog.Logger
}

type frameMsg time.Time

type resultMsg struct {
	res controller.Result
}

type searchMsg struct {
	query string
	found []model.Executive
	err   error
}

// Model is the bubbletea model. It is the single owner of the controller.
type Model struct {
	ctrl     *controller.Controller
	renderer *render.Renderer
	raster   *render.Raster
	screen   *Screen
	layer    *interact.Layer
	detail   *detailRenderer
	theme    Theme

	spinner   spinner.Model
	search    textinput.Model
	searching bool
	searchFn  SearchFunc

	recipes    *recipe.Loader
	recipeName string
	picker     RecipePickerModel
	picking    bool
	results    SearchResultsModel
	choosing   bool
	pending    int64

	showDetail bool
	showHelp   bool

	width, height int
	cols, rows    int
	ready         bool

	hover     *model.Executive
	status    string
	statusErr bool

	frame       time.Duration
	snapshotDir string
	copy        func(string) error

	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// NewModel builds the TUI model around a controller.
func NewModel(opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	recipes := opts.Recipes
	if recipes == nil {
		recipes = recipe.NewLoader()
	}
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	dir := opts.SnapshotDir
	if dir == "" {
		dir = "."
	}

	layer := interact.NewLayer()
	if opts.HitRadius > 0 {
		layer.Radius = opts.HitRadius
	}
	if opts.CenterRadius > 0 {
		layer.CenterRadius = opts.CenterRadius
	}
	renderer := render.NewRenderer()
	renderer.Legend = opts.Legend

	theme := DefaultTheme(lipgloss.DefaultRenderer())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)

	ti := textinput.New()
	ti.Placeholder = "name"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		ctrl:        opts.Controller,
		renderer:    renderer,
		raster:      render.NewRaster(render.DefaultWidth, render.DefaultHeight, 1),
		screen:      NewScreen(),
		layer:       layer,
		detail:      &detailRenderer{},
		theme:       theme,
		spinner:     sp,
		search:      ti,
		searchFn:    opts.Search,
		recipes:     recipes,
		showDetail:  true,
		frame:       time.Second / time.Duration(fps),
		snapshotDir: dir,
		copy:        copyFn,
		ctx:         ctx,
		cancel:      cancel,
		log:         logger.With().Str("component", "ui").Logger(),
		pending:     opts.Select,
	}
	if r, ok := recipes.Get(opts.Recipe); ok && opts.Recipe != "" {
		m.recipeName = r.Name
		if r.Select != 0 && m.pending == 0 {
			m.pending = r.Select
		}
	}
	return m
}

// Init starts the frame loop and the first preview fetch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick(), m.spinner.Tick}
	if r, ok := m.recipes.Get(m.recipeName); ok && m.recipeName != "" {
		if job, err := m.ctrl.SetFilters(r.Filters); err == nil {
			cmds = append(cmds, m.run(job))
		} else {
			cmds = append(cmds, m.run(m.ctrl.Reload()))
		}
	} else {
		cmds = append(cmds, m.run(m.ctrl.Reload()))
	}
	if m.pending != 0 {
		cmds = append(cmds, m.run(m.ctrl.Select(m.pending)))
	}
	return tea.Batch(cmds...)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// run executes a controller job off the update goroutine. The result comes
// back as a message and is applied by Update.
func (m Model) run(job controller.Job) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{res: job(ctx)}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case frameMsg:
		m.ctrl.Frame()
		return m, m.tick()

	case resultMsg:
		return m.applyResult(msg.res)

	case searchMsg:
		return m.applySearch(msg)

	case DatasetReloadedMsg:
		m.setStatus(fmt.Sprintf("dataset reloaded: %d nodes, %d edges", msg.Nodes, msg.Edges), false)
		cmds := []tea.Cmd{m.run(m.ctrl.Reload())}
		if id, ok := m.ctrl.Selected(); ok {
			cmds = append(cmds, m.run(m.ctrl.Select(id)))
		}
		return m, tea.Batch(cmds...)

	case DatasetErrorMsg:
		m.setStatus(msg.Err.Error(), true)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// layout sizes the canvas to the space left by the footer and detail card.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.cols = m.width
	if m.detailVisible() {
		m.cols -= DetailWidth
	}
	m.rows = max(0, m.height-footerHeight)
	w, h := CanvasSize(m.cols, m.rows)
	m.raster.Resize(w, h, 1)
	cw, ch := m.raster.Size()
	m.ctrl.SetViewport(cw, ch)
	m.picker.SetSize(m.width, m.rows)
	m.results.SetSize(m.width, m.rows)
}

func (m Model) detailVisible() bool {
	if !m.showDetail || m.width < DetailMinWidth {
		return false
	}
	_, ok := m.ctrl.Selected()
	return ok
}

func (m Model) applyResult(res controller.Result) (tea.Model, tea.Cmd) {
	hadDetail := m.detailVisible()
	current := m.ctrl.Current(res.Token.Source) == res.Token
	if !m.ctrl.Apply(res) {
		// A failed fetch is not applied but still has to be shown.
		if current && res.Err != nil {
			m.setStatus(res.Err.Error(), true)
		}
		return m, nil
	}
	if m.statusErr {
		m.setStatus("", false)
	}
	m.hover = nil
	if m.detailVisible() != hadDetail {
		m.layout()
	}
	return m, nil
}

func (m Model) applySearch(msg searchMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("search %q: %v", msg.query, msg.err), true)
		return m, nil
	}
	switch len(msg.found) {
	case 0:
		m.setStatus(fmt.Sprintf("no executive matches %q", msg.query), true)
		return m, nil
	case 1:
		return m.selectNode(msg.found[0].ID)
	}
	m.results = NewSearchResultsModel(msg.query, msg.found, m.theme)
	m.results.SetSize(m.width, m.rows)
	m.choosing = true
	return m, nil
}

func (m *Model) setStatus(s string, isErr bool) {
	// The footer has one status line; panics carry a stack after the first.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	m.status, m.statusErr = s, isErr
}

func (m Model) selectNode(id int64) (tea.Model, tea.Cmd) {
	job := m.ctrl.Select(id)
	m.hover = nil
	m.layout()
	return m, m.run(job)
}

func (m Model) deselect() (tea.Model, tea.Cmd) {
	if _, ok := m.ctrl.Selected(); !ok {
		return m, nil
	}
	m.ctrl.Deselect()
	m.hover = nil
	m.layout()
	return m, nil
}

func (m Model) setFilters(f model.Filters) (tea.Model, tea.Cmd) {
	job, err := m.ctrl.SetFilters(f)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}
	m.setStatus("", false)
	return m, m.run(job)
}

func (m Model) applyRecipe(r recipe.Recipe) (tea.Model, tea.Cmd) {
	m.recipeName = r.Name
	next, cmd := m.setFilters(r.Filters)
	if r.Select == 0 {
		return next, cmd
	}
	nm := next.(Model)
	sel, selCmd := nm.selectNode(r.Select)
	return sel, tea.Batch(cmd, selCmd)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || m.showHelp || m.picking || m.choosing {
		return m, nil
	}
	sim := m.ctrl.Sim()
	if msg.X >= m.cols || msg.Y >= m.rows {
		if m.hover != nil {
			m.layer.Leave(sim)
			m.hover = nil
		}
		return m, nil
	}
	w, h := m.raster.Size()
	x, y := CellToCanvas(msg.X, msg.Y, m.cols, m.rows, w, h)

	switch msg.Action {
	case tea.MouseActionMotion:
		_, m.hover = m.layer.Move(sim, x, y)
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		ev := m.layer.Click(sim, x, y)
		switch ev.Kind {
		case interact.EventSelect:
			return m.selectNode(ev.Node.ID)
		case interact.EventDeselect:
			return m.deselect()
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}
	switch {
	case m.searching:
		return m.handleSearchKey(msg)
	case m.picking:
		return m.handlePickerKey(msg)
	case m.choosing:
		return m.handleResultsKey(msg)
	case m.showHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	switch key := msg.String(); key {
	case "q":
		m.cancel()
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "r", "c", "t", "e":
		m.recipeName = ""
		return m.setFilters(CycleFilter(m.ctrl.Filters(), key))
	case "x":
		m.recipeName = ""
		return m.setFilters(model.NoFilters())
	case "p":
		return m.applyRecipe(m.recipes.Next(m.recipeName))
	case "P":
		m.picker = NewRecipePickerModel(m.recipes, m.recipeName, m.theme)
		m.picker.SetSize(m.width, m.rows)
		m.picking = true
	case "/":
		m.searching = true
		m.search.SetValue("")
		return m, m.search.Focus()
	case "esc":
		return m.deselect()
	case "enter":
		if m.hover != nil {
			return m.selectNode(m.hover.ID)
		}
	case "d":
		m.showDetail = !m.showDetail
		m.layout()
	case "y":
		m.copyName()
	case "s":
		m.snapshot()
	case "R":
		cmds := []tea.Cmd{m.run(m.ctrl.Reload())}
		if id, ok := m.ctrl.Selected(); ok {
			cmds = append(cmds, m.run(m.ctrl.Select(id)))
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		if query == "" {
			return m, nil
		}
		if found := MatchByName(m.ctrl.Sim(), query, SearchLimit); len(found) > 0 || m.searchFn == nil {
			return m.applySearch(searchMsg{query: query, found: found})
		}
		return m, m.remoteSearch(query)
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) remoteSearch(query string) tea.Cmd {
	ctx, fn := m.ctx, m.searchFn
	return func() tea.Msg {
		found, err := fn(ctx, query, SearchLimit)
		return searchMsg{query: query, found: found, err: err}
	}
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.picker.MoveDown()
	case "k", "up":
		m.picker.MoveUp()
	case "esc", "q":
		m.picking = false
	case "enter":
		m.picking = false
		if r, ok := m.picker.Selected(); ok {
			return m.applyRecipe(r)
		}
	}
	return m, nil
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.results.MoveDown()
	case "k", "up":
		m.results.MoveUp()
	case "esc", "q":
		m.choosing = false
	case "enter":
		m.choosing = false
		if e, ok := m.results.Selected(); ok {
			return m.selectNode(e.ID)
		}
	}
	return m, nil
}

func (m *Model) copyName() {
	var name string
	if m.hover != nil {
		name = m.hover.Name
	} else if id, ok := m.ctrl.Selected(); ok {
		if n, ok := m.ctrl.Sim().Node(id); ok {
			name = n.Exec.Name
		}
	}
	if name == "" {
		return
	}
	if err := m.copy(name); err != nil {
		m.setStatus("clipboard: "+err.Error(), true)
		return
	}
	m.setStatus("copied "+name, false)
}

func (m *Model) snapshot() {
	path := filepath.Join(m.snapshotDir, "execgraph-"+time.Now().Format("20060102-150405")+".png")
	m.renderer.Draw(m.raster, m.ctrl.Sim(), m.ctrl.Filters())
	if err := m.raster.SavePNG(path); err != nil {
		m.setStatus("snapshot: "+err.Error(), true)
		return
	}
	m.log.Info().Str("path", path).Msg("snapshot saved")
	m.setStatus("saved "+path, false)
}

// MatchByName lists up to limit loaded executives whose name contains query
// (case-insensitive). Exact matches come first.
func MatchByName(sim *layout.Sim, query string, limit int) []model.Executive {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var exact, partial []model.Executive
	for _, n := range sim.Nodes() {
		name := strings.ToLower(n.Exec.Name)
		switch {
		case name == q:
			exact = append(exact, n.Exec)
		case strings.Contains(name, q):
			partial = append(partial, n.Exec)
		}
	}
	out := append(exact, partial...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	var body string
	switch {
	case m.showHelp:
		body = lipgloss.Place(m.width, m.rows, lipgloss.Center, lipgloss.Center, RenderHelp(m.theme, m.width))
	case m.picking:
		body = m.picker.View()
	case m.choosing:
		body = m.results.View()
	default:
		m.renderer.Draw(m.raster, m.ctrl.Sim(), m.ctrl.Filters())
		body = m.screen.Render(m.raster.Image(), m.cols, m.rows)
		if m.detailVisible() {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.detailView())
		}
	}
	return body + "\n" + m.footer()
}

func (m Model) detailView() string {
	id, _ := m.ctrl.Selected()
	md := DetailMarkdown(m.ctrl.Sim(), id)
	if md == "" {
		md = "_" + m.ctrl.LoadingLabel() + "_"
	}
	style := m.theme.Renderer.NewStyle().
		Width(DetailWidth).
		Height(m.rows).
		MaxHeight(m.rows).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(m.theme.Border)
	return style.Render(m.detail.render(md, DetailWidth-2))
}

func (m Model) footer() string {
	t := m.theme
	r := t.Renderer
	sim := m.ctrl.Sim()

	mode := r.NewStyle().Bold(true).Foreground(t.Primary).Render(strings.ToUpper(string(m.ctrl.Mode().Kind)))
	counts := r.NewStyle().Foreground(t.Subtext).Render(fmt.Sprintf("%d nodes · %d edges", sim.Len(), len(sim.Edges)))
	parts := []string{mode, counts}

	f := m.ctrl.Filters()
	switch {
	case m.recipeName != "":
		parts = append(parts, r.NewStyle().Foreground(t.Secondary).Render("recipe:"+m.recipeName))
	case f.HasActive():
		parts = append(parts, r.NewStyle().Foreground(t.Secondary).Render(f.Key()))
	}
	if m.ctrl.IsLoading() {
		parts = append(parts, m.spinner.View()+" "+m.ctrl.LoadingLabel())
	}
	line1 := strings.Join(parts, "  ")

	var line2 string
	switch {
	case m.searching:
		line2 = m.search.View()
	case m.status != "":
		style := r.NewStyle().Foreground(t.Muted)
		if m.statusErr {
			style = style.Foreground(t.Error)
		}
		line2 = style.Render(m.status)
	case m.hover != nil:
		tip := m.hover.Name
		if m.hover.Company != "" {
			tip += " · " + m.hover.Company
		}
		if m.width > 0 {
			tip = runewidth.Truncate(tip, m.width, "…")
		}
		line2 = r.NewStyle().Foreground(t.Subtext).Render(tip)
	default:
		line2 = r.NewStyle().Foreground(t.Muted).Italic(true).Render("? help · / search · q quit")
	}
	return line1 + "\n" + line2
}
