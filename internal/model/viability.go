package model

import "math"

// ViabilityFactors are the five independent inputs of the viability score (each 0-1)
type ViabilityFactors struct {
	Specificity          float64 `json:"specificity"`
	HistoricalCompliance float64 `json:"historical_compliance"`
	BudgetaryFeasibility float64 `json:"budgetary_feasibility"`
	TimelineFeasibility  float64 `json:"timeline_feasibility"`
	AuthorTrack          float64 `json:"author_track"`
}

// ViabilityResult is the per-analysis verdict
type ViabilityResult struct {
	Score      float64          `json:"score"`             // Weighted sum of factors (0-1)
	RiskLevel  RiskLevel        `json:"risk_level"`        // LOW, MEDIUM, HIGH
	Confidence float64          `json:"confidence"`        // How much the inputs can be trusted (0-1)
	Factors    ViabilityFactors `json:"factors"`           // Averaged factors across claims
	Signals    []Signal         `json:"signals,omitempty"` // Per-factor explanations
}

// RiskLevel is the tier a viability score maps to
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Signal is a transparent explanation of one scoring input
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"` // Inputs and the formula applied
}

// SignalType classifies a signal
type SignalType string

const (
	SignalSpecificity    SignalType = "specificity"
	SignalHistorical     SignalType = "historical_compliance"
	SignalBudget         SignalType = "budgetary_feasibility"
	SignalTimeline       SignalType = "timeline_feasibility"
	SignalAuthorTrack    SignalType = "author_track"
	SignalDegradedSource SignalType = "degraded_source"
)

// SignalSeverity indicates the importance of a signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Clamp01 bounds v to [0,1]
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp bounds v to [lo,hi]
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
