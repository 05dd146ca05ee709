package recipe

import (
	"fmt"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// Recipe is a named filter preset for the preview graph.
type Recipe struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Filters     model.Filters `yaml:"filters,omitempty" json:"filters,omitempty"`
	// Select optionally focuses an executive once the preview has loaded.
	Select int64 `yaml:"select,omitempty" json:"select,omitempty"`
}

// Validate checks the name and the filter tags.
func (r Recipe) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	if r.Select < 0 {
		return fmt.Errorf("recipe %s: select must be a positive id", r.Name)
	}
	if err := r.Filters.Validate(); err != nil {
		return fmt.Errorf("recipe %s: %w", r.Name, err)
	}
	return nil
}

// Summary is the short form used for listings.
func (r Recipe) Summary() RecipeSummary {
	return RecipeSummary{Name: r.Name, Description: r.Description, Filters: r.Filters.Normalize().Key()}
}

// RecipeSummary is a recipe listing entry.
type RecipeSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Filters     string `json:"filters"`
	Source      string `json:"source,omitempty"`
}

// DefaultRecipe shows the whole network.
func DefaultRecipe() Recipe {
	return Recipe{
		Name:        "default",
		Description: "Whole network, no filters",
		Filters:     model.NoFilters(),
	}
}

// BoardsRecipe highlights board and supervisory members.
func BoardsRecipe() Recipe {
	f := model.NoFilters()
	f.TitleType = model.TitleBoard
	return Recipe{
		Name:        "boards",
		Description: "Board and supervisory board members",
		Filters:     f,
	}
}

// ActuariesRecipe highlights actuaries and their alumni ties.
func ActuariesRecipe() Recipe {
	f := model.NoFilters()
	f.TitleType = model.TitleActuary
	f.RelationType = model.RelAlumni
	return Recipe{
		Name:        "actuaries",
		Description: "Actuaries connected through alumni ties",
		Filters:     f,
	}
}

// FormerColleaguesRecipe highlights career moves between life insurers.
func FormerColleaguesRecipe() Recipe {
	f := model.NoFilters()
	f.CompanyType = model.CompanyLife
	f.RelationType = model.RelFormer
	return Recipe{
		Name:        "movers",
		Description: "Former colleagues across life insurers",
		Filters:     f,
	}
}

// HongKongRecipe narrows to the Hong Kong market.
func HongKongRecipe() Recipe {
	f := model.NoFilters()
	f.Region = model.RegionHK
	return Recipe{
		Name:        "hk",
		Description: "Hong Kong market",
		Filters:     f,
	}
}

// SingaporeRecipe narrows to the Singapore market.
func SingaporeRecipe() Recipe {
	f := model.NoFilters()
	f.Region = model.RegionSG
	return Recipe{
		Name:        "sg",
		Description: "Singapore market",
		Filters:     f,
	}
}

// BuiltinRecipes returns all built-in recipes
func BuiltinRecipes() []Recipe {
	return []Recipe{
		DefaultRecipe(),
		BoardsRecipe(),
		ActuariesRecipe(),
		FormerColleaguesRecipe(),
		HongKongRecipe(),
		SingaporeRecipe(),
	}
}
