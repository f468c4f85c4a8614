package model

import "strings"

// PromiseClaim is a single commitment extracted from a political statement
type PromiseClaim struct {
	Text        string   `json:"text"`                // The promise sentence itself
	Category    Category `json:"category"`            // Closed category tag
	Confidence  float64  `json:"confidence"`          // Extraction confidence (0-1)
	Negated     bool     `json:"negated"`             // "Não vou aumentar impostos"
	Conditional bool     `json:"conditional"`         // "Se eleito, vou..."
	Entities    Entities `json:"entities"`            // Numbers, locations and actors mentioned
	Reasoning   string   `json:"reasoning,omitempty"` // Model rationale (AI path only)
	Risks       []string `json:"risks,omitempty"`     // Model-listed risks (AI path only)
	Scope       Scope    `json:"scope,omitempty"`     // Geographic scope, when detectable
	Source      string   `json:"source"`              // Which extraction path produced it: "ai" or "rules"
}

// Entities holds the concrete references found in a claim
type Entities struct {
	Numbers   []string `json:"numbers"`
	Locations []string `json:"locations"`
	Actors    []string `json:"actors"`
}

// Extraction sources
const (
	SourceAI    = "ai"
	SourceRules = "rules"
)

// Category is the closed set of promise categories
type Category string

const (
	CategoryInfrastructure Category = "INFRASTRUCTURE"
	CategoryEducation      Category = "EDUCATION"
	CategoryHealth         Category = "HEALTH"
	CategoryEmployment     Category = "EMPLOYMENT"
	CategorySecurity       Category = "SECURITY"
	CategoryEnvironment    Category = "ENVIRONMENT"
	CategorySocial         Category = "SOCIAL"
	CategoryEconomy        Category = "ECONOMY"
	CategoryAgriculture    Category = "AGRICULTURE"
	CategoryCulture        Category = "CULTURE"
	CategoryTransport      Category = "TRANSPORT"
	CategoryGeneral        Category = "GENERAL"
)

// AllCategories lists every category except GENERAL, in a stable order
var AllCategories = []Category{
	CategoryInfrastructure,
	CategoryEducation,
	CategoryHealth,
	CategoryEmployment,
	CategorySecurity,
	CategoryEnvironment,
	CategorySocial,
	CategoryEconomy,
	CategoryAgriculture,
	CategoryCulture,
	CategoryTransport,
}

// ParseCategory coerces a free-form value into the closed enum.
// Unknown or empty values map to GENERAL.
func ParseCategory(s string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryGeneral
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	if c == CategoryGeneral {
		return true
	}
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Scope is the geographic reach of a promise
type Scope string

const (
	ScopeNational  Scope = "NATIONAL"
	ScopeState     Scope = "STATE"
	ScopeMunicipal Scope = "MUNICIPAL"
	ScopeRegional  Scope = "REGIONAL"
)
