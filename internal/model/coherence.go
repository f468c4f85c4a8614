package model

// Severity grades a contradiction
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Rank orders severities for comparisons
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// CoherenceCase links a promise to a vote that appears to contradict it
type CoherenceCase struct {
	PromiseText    string     `json:"promise_text"`
	RelatedVote    VoteRecord `json:"related_vote"`
	RelevanceScore float64    `json:"relevance_score"` // Jaccard overlap of keyword sets
	Severity       Severity   `json:"severity"`
	Explanation    string     `json:"explanation"`
}

// CoherenceReport is the outcome of comparing claims with a voting record
type CoherenceReport struct {
	Contradictions []CoherenceCase `json:"contradictions"`
	CoherenceScore float64         `json:"coherence_score"` // 0-100
	Summary        string          `json:"summary"`
	VotesAnalyzed  int             `json:"votes_analyzed"`
	House          House           `json:"house,omitempty"`
}

// Trend is the direction of a budget series
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// TrajectoryAnalysis summarizes a multi-year budget series for a category
type TrajectoryAnalysis struct {
	Category  Category  `json:"category"`
	Years     []int     `json:"years"`
	Values    []float64 `json:"values"`
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"std_dev"`
	Slope     float64   `json:"slope"`
	Trend     Trend     `json:"trend"`
	IsAnomaly bool      `json:"is_anomaly"`
	LastValue float64   `json:"last_value"`
}

// TrajectoryCheck is the verdict of comparing a claim against a budget trend
type TrajectoryCheck struct {
	ClaimText       string   `json:"claim_text,omitempty"`
	Category        Category `json:"category"`
	IsContradictory bool     `json:"is_contradictory"`
	Severity        Severity `json:"severity"`
	Reason          string   `json:"reason"`
	Trend           Trend    `json:"trend"`
}
