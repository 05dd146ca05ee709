package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// FileName is the recipe file looked up in the user and project config dirs.
const FileName = "recipes.yaml"

type recipeFile struct {
	Recipes []Recipe `yaml:"recipes"`
}

// Loader holds recipes by name. Later sources override earlier ones.
type Loader struct {
	recipes map[string]Recipe
	sources map[string]string
	order   []string
}

// NewLoader returns a loader seeded with the built-in recipes.
func NewLoader() *Loader {
	l := &Loader{recipes: map[string]Recipe{}, sources: map[string]string{}}
	for _, r := range BuiltinRecipes() {
		l.add(r, "builtin")
	}
	return l
}

// LoadDefault loads built-ins, then the user file, then the project file in
// projectDir (usually the working directory's .execgraph).
func LoadDefault(projectDir string) (*Loader, error) {
	l := NewLoader()
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "execgraph", FileName))
	}
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, FileName))
	}
	for _, p := range paths {
		if err := l.LoadFile(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return l, err
		}
	}
	return l, nil
}

// LoadFile merges recipes from a YAML file.
func (l *Loader) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return l.load(bytes.NewReader(b), path)
}

func (l *Loader) load(r io.Reader, source string) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f recipeFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", source, err)
	}
	for _, rc := range f.Recipes {
		rc.Filters = rc.Filters.Normalize()
		if err := rc.Validate(); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		l.add(rc, source)
	}
	return nil
}

func (l *Loader) add(r Recipe, source string) {
	if _, ok := l.recipes[r.Name]; !ok {
		l.order = append(l.order, r.Name)
	}
	l.recipes[r.Name] = r
	l.sources[r.Name] = source
}

// Get returns a recipe by name.
func (l *Loader) Get(name string) (Recipe, bool) {
	r, ok := l.recipes[name]
	return r, ok
}

// Names returns recipe names in load order.
func (l *Loader) Names() []string {
	return append([]string(nil), l.order...)
}

// Next returns the recipe after name, wrapping around. An unknown name yields
// the first recipe.
func (l *Loader) Next(name string) Recipe {
	for i, n := range l.order {
		if n == name {
			return l.recipes[l.order[(i+1)%len(l.order)]]
		}
	}
	return l.recipes[l.order[0]]
}

// List returns summaries sorted by name.
func (l *Loader) List() []RecipeSummary {
	out := make([]RecipeSummary, 0, len(l.recipes))
	for name, r := range l.recipes {
		s := r.Summary()
		s.Source = l.sources[name]
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
