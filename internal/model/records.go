package model

import "time"

// Sphere is the level of government a fiscal record pertains to
type Sphere string

const (
	SphereFederal   Sphere = "FEDERAL"
	SphereState     Sphere = "STATE"
	SphereMunicipal Sphere = "MUNICIPAL"
)

// ParseSphere coerces a value into a Sphere, defaulting to FEDERAL
func ParseSphere(s string) Sphere {
	switch Sphere(s) {
	case SphereState, SphereMunicipal:
		return Sphere(s)
	default:
		return SphereFederal
	}
}

// Record provenance
const (
	RecordSourceLive     = "live"
	RecordSourceCache    = "cache"
	RecordSourceStale    = "stale"
	RecordSourceFallback = "fallback"
)

// BudgetRecord is one year of budget execution for a category
type BudgetRecord struct {
	Year          int       `json:"year"`
	Sphere        Sphere    `json:"sphere"`
	Category      Category  `json:"category"`
	Budgeted      float64   `json:"budgeted"`       // BRL
	Executed      float64   `json:"executed"`       // BRL
	ExecutionRate float64   `json:"execution_rate"` // Percent (0-100)
	FetchedAt     time.Time `json:"fetched_at"`
	Confidence    float64   `json:"confidence"` // 1.0 for live data, lower for substitutes
	Source        string    `json:"source"`     // live, cache, stale, fallback
}

// ExecutionRate returns executed/budgeted as a percentage capped at 100
func ExecutionRate(budgeted, executed float64) float64 {
	if budgeted <= 0 {
		return 0
	}
	rate := executed / budgeted * 100
	if rate > 100 {
		return 100
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// PoliticalHistoryRecord is the derived credibility signal for an author
type PoliticalHistoryRecord struct {
	Name            string  `json:"name"`
	Region          string  `json:"region,omitempty"`
	ElectionRate    float64 `json:"election_rate"`    // Percent of candidacies won
	FulfillmentRate float64 `json:"fulfillment_rate"` // Percent of past promises kept
	Scandals        int     `json:"scandals"`
	Controversies   int     `json:"controversies"`
	Candidacies     int     `json:"candidacies"`
}

// House identifies the legislative chamber a vote came from
type House string

const (
	HouseCamara House = "CAMARA"
	HouseSenado House = "SENADO"
)

// VoteRecord is one recorded vote of a legislator
type VoteRecord struct {
	BillID           string `json:"bill_id"`
	Date             string `json:"date"`
	Choice           string `json:"choice"`      // "Sim", "Não", "Abstenção", "Obstrução"...
	Description      string `json:"description"` // Bill summary (ementa)
	House            House  `json:"house"`
	PartyOrientation string `json:"party_orientation,omitempty"`
	Rebellious       bool   `json:"rebellious,omitempty"` // Voted against party orientation
}
