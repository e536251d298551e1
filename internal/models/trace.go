package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TraceCandidate is one provider entry in a reasoning trace.
type TraceCandidate struct {
	Rank           int      `json:"rank"`
	ProviderID     string   `json:"provider_id"`
	ProviderName   string   `json:"provider_name"`
	CompositeScore float64  `json:"composite_score"`
	EffectivePrice float64  `json:"effective_price"`
	Tradeoffs      []string `json:"tradeoffs,omitempty"`
}

// TraceRejection records a provider excluded at some pipeline stage.
type TraceRejection struct {
	ProviderID string `json:"provider_id"`
	Stage      string `json:"stage"`
	Reason     string `json:"reason"`
}

type TraceQuery struct {
	GpuCount              int            `json:"gpu_count"`
	DurationHours         float64        `json:"duration_hours"`
	RequiredGpuModel      string         `json:"required_gpu_model,omitempty"`
	MaxPricePerHour       float64        `json:"max_price_per_hour,omitempty"`
	PreferredRegions      []string       `json:"preferred_regions,omitempty"`
	ExcludedPricingModels []PricingModel `json:"excluded_pricing_models,omitempty"`
}

type TraceMetadata struct {
	CalculationTimeMs int64 `json:"calculation_time_ms"`
	FilteredCount     int   `json:"filtered_count"`
	ScoredCount       int   `json:"scored_count"`
}

// ReasoningTrace is the immutable audit record of one routing decision.
// Built once, validated, then uploaded; never mutated afterwards.
type ReasoningTrace struct {
	Timestamp     string           `json:"timestamp"`
	JobUUID       string           `json:"job_uuid"`
	ProviderCount int              `json:"provider_count"`
	Query         TraceQuery       `json:"query"`
	Weights       ScoringWeights   `json:"weights"`
	TopCandidates []TraceCandidate `json:"top_candidates"`
	Rejections    []TraceRejection `json:"rejections"`
	FinalRanking  []TraceCandidate `json:"final_ranking"`
	Metadata      TraceMetadata    `json:"metadata"`
}

// Validate is a hard precondition for upload. A trace failing validation must
// never be persisted or hashed.
func (t *ReasoningTrace) Validate() error {
	if t.JobUUID == "" {
		return fmt.Errorf("reasoning trace missing job uuid")
	}
	if t.Timestamp == "" {
		return fmt.Errorf("reasoning trace missing timestamp")
	}
	if _, err := time.Parse(time.RFC3339, t.Timestamp); err != nil {
		return fmt.Errorf("reasoning trace timestamp not RFC3339: %w", err)
	}
	if t.ProviderCount < 0 {
		return fmt.Errorf("reasoning trace provider count negative")
	}
	for _, c := range t.TopCandidates {
		if c.ProviderID == "" {
			return fmt.Errorf("trace candidate rank %d missing provider id", c.Rank)
		}
	}
	for _, c := range t.FinalRanking {
		if c.ProviderID == "" {
			return fmt.Errorf("trace ranking rank %d missing provider id", c.Rank)
		}
	}
	for i, r := range t.Rejections {
		if r.ProviderID == "" {
			return fmt.Errorf("trace rejection %d missing provider id", i)
		}
	}
	return nil
}

func (t *ReasoningTrace) Marshal() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

func ParseReasoningTrace(data []byte) (*ReasoningTrace, error) {
	var trace ReasoningTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed parse reasoning trace, error: %w", err)
	}
	return &trace, nil
}
