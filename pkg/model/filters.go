package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is returned when a filter selector holds an unknown tag.
var ErrInvalidFilter = errors.New("invalid filter")

// All is the neutral value of every filter selector.
const All = "all"

// CompanyType narrows executives by the kind of insurer they work for.
type CompanyType string

const (
	CompanyAll      CompanyType = All
	CompanyLife     CompanyType = "life"
	CompanyProperty CompanyType = "property"
)

// TitleType narrows executives by role.
type TitleType string

const (
	TitleAll        TitleType = All
	TitleBoard      TitleType = "board"
	TitleManagement TitleType = "management"
	TitleActuary    TitleType = "actuary"
)

// Keyword lists used by the company/title predicates. Titles and company names
// are free text in Chinese or English; a keyword matches as a substring.
var (
	lifeKeywords     = []string{"人寿", "健康", "养老", "Life", "life"}
	propertyKeywords = []string{"财产", "财险", "再保", "农业保险", "Insurance", "insurance"}
	boardKeywords    = []string{"董事", "监事"}
	mgmtKeywords     = []string{"总裁", "总经理", "副总", "CEO", "Chief", "chief", "President"}
	actuaryKeywords  = []string{"精算", "Actuary", "actuary"}
)

// Filters is the selector state applied to the preview graph. It is a pure
// predicate over executives and relationships and never mutates data.
type Filters struct {
	CompanyType  CompanyType  `json:"company_type" yaml:"company_type"`
	TitleType    TitleType    `json:"title_type" yaml:"title_type"`
	Region       Region       `json:"region" yaml:"region"`
	RelationType RelationType `json:"relation_type" yaml:"relation_type"`
}

// NoFilters returns the neutral selector state.
func NoFilters() Filters {
	return Filters{
		CompanyType:  CompanyAll,
		TitleType:    TitleAll,
		Region:       All,
		RelationType: All,
	}
}

// Normalize replaces empty selectors with All.
func (f Filters) Normalize() Filters {
	if f.CompanyType == "" {
		f.CompanyType = CompanyAll
	}
	if f.TitleType == "" {
		f.TitleType = TitleAll
	}
	if f.Region == "" {
		f.Region = All
	}
	if f.RelationType == "" {
		f.RelationType = All
	}
	return f
}

// HasActive returns true if any selector is narrowed.
func (f Filters) HasActive() bool {
	f = f.Normalize()
	return f.CompanyType != CompanyAll || f.TitleType != TitleAll ||
		f.Region != All || f.RelationType != All
}

// Validate rejects unknown selector tags.
func (f Filters) Validate() error {
	f = f.Normalize()
	switch f.CompanyType {
	case CompanyAll, CompanyLife, CompanyProperty:
	default:
		return fmt.Errorf("%w: company type %q", ErrInvalidFilter, f.CompanyType)
	}
	switch f.TitleType {
	case TitleAll, TitleBoard, TitleManagement, TitleActuary:
	default:
		return fmt.Errorf("%w: title type %q", ErrInvalidFilter, f.TitleType)
	}
	if f.Region != All && !f.Region.IsKnown() {
		return fmt.Errorf("%w: region %q", ErrInvalidFilter, f.Region)
	}
	if f.RelationType != All && !f.RelationType.IsValid() {
		return fmt.Errorf("%w: relation type %q", ErrInvalidFilter, f.RelationType)
	}
	return nil
}

// Matches reports whether an executive satisfies the company, title and region selectors.
func (f Filters) Matches(e Executive) bool {
	f = f.Normalize()
	switch f.CompanyType {
	case CompanyLife:
		if !containsAny(e.Company, lifeKeywords) {
			return false
		}
	case CompanyProperty:
		if !containsAny(e.Company, propertyKeywords) {
			return false
		}
	}
	switch f.TitleType {
	case TitleBoard:
		if !containsAny(e.Title, boardKeywords) {
			return false
		}
	case TitleManagement:
		if !containsAny(e.Title, mgmtKeywords) {
			return false
		}
	case TitleActuary:
		if !containsAny(e.Title, actuaryKeywords) {
			return false
		}
	}
	if f.Region != All && e.Region != f.Region {
		return false
	}
	return true
}

// MatchesRelation reports whether a relationship satisfies the relation selector.
func (f Filters) MatchesRelation(r Relationship) bool {
	f = f.Normalize()
	return f.RelationType == All || r.Type == f.RelationType
}

// PreviewLimit is the sample size requested for the preview graph. Filtering
// narrows the visually relevant subset, so a larger sample is fetched.
func (f Filters) PreviewLimit() int {
	if f.HasActive() {
		return 800
	}
	return 200
}

// Key returns a stable string form, usable as a cache key.
func (f Filters) Key() string {
	f = f.Normalize()
	return fmt.Sprintf("company=%s,title=%s,region=%s,relation=%s",
		f.CompanyType, f.TitleType, f.Region, f.RelationType)
}

// String implements fmt.Stringer
func (f Filters) String() string {
	return f.Key()
}

// LoadingLabel returns the status text shown while a preview fetch is in flight.
func (f Filters) LoadingLabel() string {
	f = f.Normalize()
	var parts []string
	switch f.CompanyType {
	case CompanyLife:
		parts = append(parts, "寿险")
	case CompanyProperty:
		parts = append(parts, "财险")
	}
	switch f.TitleType {
	case TitleBoard:
		parts = append(parts, "董事会")
	case TitleManagement:
		parts = append(parts, "管理层")
	case TitleActuary:
		parts = append(parts, "精算师")
	}
	switch f.Region {
	case RegionCN:
		parts = append(parts, "中国大陆")
	case RegionHK:
		parts = append(parts, "中国香港")
	case RegionSG:
		parts = append(parts, "新加坡")
	}
	switch f.RelationType {
	case RelColleague:
		parts = append(parts, "同事")
	case RelFormer:
		parts = append(parts, "前同事")
	case RelAlumni:
		parts = append(parts, "校友")
	}
	if len(parts) == 0 {
		return "加载关系图谱…"
	}
	return "正在加载 " + strings.Join(parts, " · ") + "…"
}

// ParseFilters parses a comma separated selector list such as
// "region=CN,title=board". Unset selectors default to All.
func ParseFilters(s string) (Filters, error) {
	f := NoFilters()
	s = strings.TrimSpace(s)
	if s == "" {
		return f, nil
	}
	for _, part := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return f, fmt.Errorf("%w: expected key=value, got %q", ErrInvalidFilter, part)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "company":
			f.CompanyType = CompanyType(value)
		case "title":
			f.TitleType = TitleType(value)
		case "region":
			if value != All {
				value = strings.ToUpper(value)
			}
			f.Region = Region(value)
		case "relation":
			f.RelationType = RelationType(value)
		default:
			return f, fmt.Errorf("%w: unknown selector %q", ErrInvalidFilter, key)
		}
	}
	return f, f.Validate()
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
