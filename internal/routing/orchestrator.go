package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/google/uuid"
	"github.com/gpumesh/go-compute-router/constants"
	"github.com/gpumesh/go-compute-router/internal/identity"
	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/gpumesh/go-compute-router/internal/pricing"
	"github.com/gpumesh/go-compute-router/internal/storage"
)

// Engine is the routing decision coordinator. All collaborators are injected
// at construction; per-job state lives entirely in ProcessJob's frame.
type Engine struct {
	registry     *Registry
	resolve      AdapterResolver
	normalizer   pricing.Normalizer
	identities   *identity.Service
	uploader     storage.TraceUploader
	weights      models.ScoringWeights
	quoteTimeout time.Duration
	topN         int
}

type EngineParams struct {
	Registry     *Registry
	Resolve      AdapterResolver
	Normalizer   pricing.Normalizer
	Identities   *identity.Service
	Uploader     storage.TraceUploader
	Weights      models.ScoringWeights
	QuoteTimeout time.Duration
	TopN         int
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.Registry == nil {
		return nil, fmt.Errorf("engine requires a provider registry")
	}
	if params.Normalizer == nil {
		return nil, fmt.Errorf("engine requires a price normalizer")
	}
	if params.Identities == nil {
		return nil, fmt.Errorf("engine requires an identity service")
	}
	if err := ValidateWeights(params.Weights); err != nil {
		return nil, err
	}
	if params.Resolve == nil {
		params.Resolve = func(p models.Provider) QuoteAdapter { return NewRateCardAdapter(p) }
	}
	if params.QuoteTimeout <= 0 {
		params.QuoteTimeout = constants.DEFAULT_QUOTE_TIMEOUT_MS * time.Millisecond
	}
	if params.TopN <= 0 {
		params.TopN = constants.DEFAULT_TOP_N
	}
	return &Engine{
		registry:     params.Registry,
		resolve:      params.Resolve,
		normalizer:   params.Normalizer,
		identities:   params.Identities,
		uploader:     params.Uploader,
		weights:      params.Weights,
		quoteTimeout: params.QuoteTimeout,
		topN:         params.TopN,
	}, nil
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

func (e *Engine) Weights() models.ScoringWeights {
	return e.weights
}

// ValidateRequest rejects malformed requests before pipeline entry.
func ValidateRequest(req *models.JobRequest) error {
	if req.WalletAddress == "" {
		return fmt.Errorf("buyer wallet address is required")
	}
	if req.GpuCount <= 0 {
		return fmt.Errorf("gpu count must be positive, got %d", req.GpuCount)
	}
	if req.DurationHours <= 0 {
		return fmt.Errorf("duration hours must be positive, got %f", req.DurationHours)
	}
	switch identity.Mode(req.Constraints.IdentityMode) {
	case identity.ModeTracked, identity.ModeUntracked:
	case "":
		req.Constraints.IdentityMode = string(identity.ModeUntracked)
	default:
		return fmt.Errorf("unknown identity mode: %s", req.Constraints.IdentityMode)
	}
	return nil
}

// ProcessJob runs one routing decision end to end: identity, registry
// snapshot, rank, trace, upload, result. Trace upload failure degrades to a
// local fallback reference; everything else either completes fully or
// surfaces one of the fatal error kinds.
func (e *Engine) ProcessJob(ctx context.Context, req models.JobRequest) (*models.JobResult, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}
	if req.UUID == "" {
		req.UUID = uuid.NewString()
	}

	totalStart := time.Now()
	timings := make(map[string]int64)
	stage := func(name string, start time.Time) {
		timings[name] = time.Since(start).Milliseconds()
	}

	idStart := time.Now()
	record, err := e.identities.CreateIdentity(identity.CreateContext{
		Mode:          identity.Mode(req.Constraints.IdentityMode),
		WalletAddress: req.WalletAddress,
		OrgID:         req.OrgID,
		TeamMemberID:  req.TeamMemberID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed create audit identity, error: %w", err)
	}
	record.AppendActivity("job_submitted", req.UUID)
	stage("identity_ms", idStart)

	snapshot := e.registry.Snapshot()
	logs.GetLogger().Infof("routing job %s, providers: %d, gpu_count: %d, duration_hours: %.1f",
		req.UUID, len(snapshot), req.GpuCount, req.DurationHours)

	rankStart := time.Now()
	outcome, err := RankProviders(ctx, snapshot, req, e.resolve, e.normalizer, e.weights, e.quoteTimeout, e.topN)
	if err != nil {
		return nil, err
	}
	stage("rank_ms", rankStart)

	traceStart := time.Now()
	trace, err := BuildReasoningTrace(req, len(snapshot), outcome, e.weights, time.Since(totalStart))
	if err != nil {
		// a partial or invalid audit record must never be persisted
		return nil, fmt.Errorf("failed build reasoning trace, error: %w", err)
	}
	stage("trace_ms", traceStart)

	uploadStart := time.Now()
	traceRef, fallback := e.uploadTrace(trace)
	stage("upload_ms", uploadStart)

	selected := outcome.Recommendations[0]
	record.AppendActivity("provider_selected", selected.Provider.ID)

	stage("total_ms", totalStart)
	result := &models.JobResult{
		JobUUID:          req.UUID,
		Status:           constants.StatusCompleted,
		AuditID:          record.AuditID,
		SelectedProvider: selected.Provider,
		Price:            selected.Price,
		TotalCostUsd:     selected.Price.EffectiveUsdPerA100Hour * req.DurationHours * float64(req.GpuCount),
		TraceRef:         traceRef,
		TraceFallback:    fallback,
		Recommendations:  outcome.Recommendations,
		StageTimingsMs:   timings,
		StageCounts: map[string]int{
			"registered": len(snapshot),
			"filtered":   outcome.PassedCount,
			"quoted":     outcome.QuotedCount,
			"normalized": outcome.NormalizedCount,
			"ranked":     len(outcome.Recommendations),
		},
	}
	logs.GetLogger().Infof("job %s routed to provider %s, effective price $%.4f/A100-hr, total cost $%.2f",
		req.UUID, selected.Provider.ID, selected.Price.EffectiveUsdPerA100Hour, result.TotalCostUsd)
	return result, nil
}

// uploadTrace degrades rather than failing the job: an unreachable storage
// backend yields a locally generated fallback reference.
func (e *Engine) uploadTrace(trace *models.ReasoningTrace) (string, bool) {
	if e.uploader == nil || !e.uploader.Initialized() {
		logs.GetLogger().Warnf("trace storage not initialized, job: %s, using fallback reference", trace.JobUUID)
		return fallbackTraceRef(), true
	}
	contentHash, err := e.uploader.Upload(trace)
	if err != nil {
		logs.GetLogger().Errorf("Failed upload reasoning trace, job: %s, error: %v", trace.JobUUID, err)
		return fallbackTraceRef(), true
	}
	return contentHash, false
}

func fallbackTraceRef() string {
	return fmt.Sprintf("local-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
