package models

// PricingModel tags how a provider charges for compute.
type PricingModel string

const (
	PricingFixed PricingModel = "fixed"
	PricingSpot  PricingModel = "spot"
	PricingToken PricingModel = "token"
)

// Provider is an immutable snapshot of one compute provider, taken from the
// registry at the start of a routing decision.
type Provider struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Type         string       `json:"type" yaml:"type"`
	GpuModels    []string     `json:"gpu_models" yaml:"gpu_models"`
	Regions      []string     `json:"regions" yaml:"regions"`
	PricingModel PricingModel `json:"pricing_model" yaml:"pricing_model"`

	// advertised base rate, used by the filter and the rate-card adapter
	BasePricePerHour float64 `json:"base_price_per_hour" yaml:"base_price_per_hour"`
	Currency         string  `json:"currency" yaml:"currency"`

	Reputation    float64 `json:"reputation" yaml:"reputation"`
	UptimePercent float64 `json:"uptime_percent" yaml:"uptime_percent"`
	AvgLatencyMs  float64 `json:"avg_latency_ms" yaml:"avg_latency_ms"`
	CompletedJobs int     `json:"completed_jobs" yaml:"completed_jobs"`
}

type JobConstraints struct {
	IdentityMode          string         `json:"identity_mode"`
	MaxPricePerHour       float64        `json:"max_price_per_hour,omitempty"`
	PreferredRegions      []string       `json:"preferred_regions,omitempty"`
	RequiredGpuModel      string         `json:"required_gpu_model,omitempty"`
	ExcludedPricingModels []PricingModel `json:"excluded_pricing_models,omitempty"`
}

type JobRequest struct {
	UUID          string         `json:"uuid"`
	WalletAddress string         `json:"wallet_address"`
	OrgID         string         `json:"org_id,omitempty"`
	TeamMemberID  string         `json:"team_member_id,omitempty"`
	GpuCount      int            `json:"gpu_count"`
	DurationHours float64        `json:"duration_hours"`
	Constraints   JobConstraints `json:"constraints"`
}

// Quote is one provider's raw price offer for a job shape.
type Quote struct {
	ProviderID   string       `json:"provider_id"`
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
	PricingModel PricingModel `json:"pricing_model"`
}

// NormalizedPrice is a quote converted to USD per A100-equivalent GPU-hour.
// Either EffectiveUsdPerA100Hour is a finite positive number or Error is set,
// never both.
type NormalizedPrice struct {
	ProviderID              string  `json:"provider_id"`
	EffectiveUsdPerA100Hour float64 `json:"effective_usd_per_a100_hour"`
	SourceCurrency          string  `json:"source_currency"`
	Error                   bool    `json:"error"`
	ErrorReason             string  `json:"error_reason,omitempty"`
}

type FilterResult struct {
	Provider          Provider `json:"provider"`
	Passed            bool     `json:"passed"`
	FailedConstraints []string `json:"failed_constraints,omitempty"`
	Reason            string   `json:"reason,omitempty"`
}

type ScoredProvider struct {
	Provider        Provider           `json:"provider"`
	Price           NormalizedPrice    `json:"price"`
	PriceScore      float64            `json:"price_score"`
	LatencyScore    float64            `json:"latency_score"`
	ReputationScore float64            `json:"reputation_score"`
	GeographyScore  float64            `json:"geography_score"`
	CompositeScore  float64            `json:"composite_score"`
	Contributions   map[string]float64 `json:"contributions"`
}

// ScoringWeights must sum to 1.0, validated before any scoring.
type ScoringWeights struct {
	Price      float64 `json:"price" yaml:"price"`
	Latency    float64 `json:"latency" yaml:"latency"`
	Reputation float64 `json:"reputation" yaml:"reputation"`
	Geography  float64 `json:"geography" yaml:"geography"`
}

type Recommendation struct {
	Rank                    int             `json:"rank"`
	Provider                Provider        `json:"provider"`
	Price                   NormalizedPrice `json:"price"`
	CompositeScore          float64         `json:"composite_score"`
	Tradeoffs               []string        `json:"tradeoffs"`
	EstimatedSavingsPercent float64         `json:"estimated_savings_percent"`
}

type JobResult struct {
	JobUUID          string           `json:"job_uuid"`
	Status           string           `json:"status"`
	AuditID          string           `json:"audit_id"`
	SelectedProvider Provider         `json:"selected_provider"`
	Price            NormalizedPrice  `json:"price"`
	TotalCostUsd     float64          `json:"total_cost_usd"`
	TraceRef         string           `json:"trace_ref"`
	TraceFallback    bool             `json:"trace_fallback"`
	Recommendations  []Recommendation `json:"recommendations"`
	StageTimingsMs   map[string]int64 `json:"stage_timings_ms"`
	StageCounts      map[string]int   `json:"stage_counts"`
}

type HostInfo struct {
	NodeName        string `json:"node_name"`
	OperatingSystem string `json:"operating_system"`
	Architecture    string `json:"architecture"`
	CPUCores        int    `json:"cpu_cores"`
}
