package model

import "time"

// AnalysisReport is the complete output of analyzing one statement
type AnalysisReport struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Author     string    `json:"author,omitempty"`
	Region     string    `json:"region,omitempty"`
	Category   Category  `json:"category,omitempty"` // Caller-supplied category hint
	Text       string    `json:"text"`
	SourceURL  string     `json:"source_url,omitempty"`  // Transcript page, when fetched
	SourceTier SourceTier `json:"source_tier,omitempty"` // Reliability of SourceURL

	Claims     []PromiseClaim `json:"claims"`
	Extraction Extraction     `json:"extraction"`

	Viability        ViabilityResult      `json:"viability"`
	Coherence        *CoherenceReport     `json:"coherence,omitempty"`
	Trajectories     []TrajectoryAnalysis `json:"trajectories,omitempty"`
	TrajectoryChecks []TrajectoryCheck    `json:"trajectory_checks,omitempty"`

	Notes []string `json:"notes,omitempty"` // Degraded sources and other caveats
}

// Extraction records how claims were produced
type Extraction struct {
	Path     string   `json:"path"`               // "ai" or "rules"
	Provider string   `json:"provider,omitempty"` // Provider that answered, AI path only
	Warnings []string `json:"warnings,omitempty"` // Normalizer corrections
	Verdict  string   `json:"verdict,omitempty"`  // Model's overall verdict, AI path only
}

// SourceTier rates where a transcript came from
type SourceTier string

const (
	SourceTierOfficial SourceTier = "official" // Government and legislature sites
	SourceTierPress    SourceTier = "press"    // News outlets
	SourceTierUnknown  SourceTier = "unknown"
)
