package ui

import (
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

var (
	regionCycle   = []model.Region{model.All, model.RegionCN, model.RegionHK, model.RegionSG}
	companyCycle  = []model.CompanyType{model.CompanyAll, model.CompanyLife, model.CompanyProperty}
	titleCycle    = []model.TitleType{model.TitleAll, model.TitleBoard, model.TitleManagement, model.TitleActuary}
	relationCycle = []model.RelationType{model.All, model.RelColleague, model.RelFormer, model.RelAlumni}
)

func next[T comparable](cycle []T, cur T) T {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

// CycleFilter advances one selector, keyed like the TUI: r region, c company,
// t title, e relation. Other keys return f unchanged.
func CycleFilter(f model.Filters, key string) model.Filters {
	f = f.Normalize()
	switch key {
	case "r":
		f.Region = next(regionCycle, f.Region)
	case "c":
		f.CompanyType = next(companyCycle, f.CompanyType)
	case "t":
		f.TitleType = next(titleCycle, f.TitleType)
	case "e":
		f.RelationType = next(relationCycle, f.RelationType)
	}
	return f
}

// NewFilterForm builds a huh form editing f in place.
func NewFilterForm(f *model.Filters) *huh.Form {
	*f = f.Normalize()
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.CompanyType]().
				Title("Company type").
				Options(
					huh.NewOption("All", model.CompanyAll),
					huh.NewOption("Life / health (寿险)", model.CompanyLife),
					huh.NewOption("Property / reinsurance (财险)", model.CompanyProperty),
				).
				Value(&f.CompanyType),
			huh.NewSelect[model.TitleType]().
				Title("Title").
				Options(
					huh.NewOption("All", model.TitleAll),
					huh.NewOption("Board (董事会)", model.TitleBoard),
					huh.NewOption("Management (管理层)", model.TitleManagement),
					huh.NewOption("Actuary (精算师)", model.TitleActuary),
				).
				Value(&f.TitleType),
			huh.NewSelect[model.Region]().
				Title("Region").
				Options(
					huh.NewOption("All", model.Region(model.All)),
					huh.NewOption("Mainland China", model.RegionCN),
					huh.NewOption("Hong Kong", model.RegionHK),
					huh.NewOption("Singapore", model.RegionSG),
				).
				Value(&f.Region),
			huh.NewSelect[model.RelationType]().
				Title("Relation").
				Options(
					huh.NewOption("All", model.RelationType(model.All)),
					huh.NewOption("Colleague (同事)", model.RelColleague),
					huh.NewOption("Former colleague (前同事)", model.RelFormer),
					huh.NewOption("Alumni (校友)", model.RelAlumni),
				).
				Value(&f.RelationType),
		),
	)
}

// PickFilters runs the filter form in the terminal.
func PickFilters(initial model.Filters) (model.Filters, error) {
	f := initial
	if err := NewFilterForm(&f).Run(); err != nil {
		return initial, err
	}
	return f.Normalize(), f.Validate()
}
