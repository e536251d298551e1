package routing

import (
	"fmt"
	"time"

	"github.com/gpumesh/go-compute-router/constants"
	"github.com/gpumesh/go-compute-router/internal/models"
)

// BuildReasoningTrace assembles the audit record for one routing decision.
// Candidate and rejection lists are capped to bound the upload payload. The
// returned trace has already passed Validate; a trace that cannot validate is
// never returned.
func BuildReasoningTrace(req models.JobRequest, providerCount int, outcome *RankOutcome, weights models.ScoringWeights, elapsed time.Duration) (*models.ReasoningTrace, error) {
	if outcome == nil {
		return nil, fmt.Errorf("reasoning trace requires a ranking outcome")
	}

	trace := &models.ReasoningTrace{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		JobUUID:       req.UUID,
		ProviderCount: providerCount,
		Query: models.TraceQuery{
			GpuCount:              req.GpuCount,
			DurationHours:         req.DurationHours,
			RequiredGpuModel:      req.Constraints.RequiredGpuModel,
			MaxPricePerHour:       req.Constraints.MaxPricePerHour,
			PreferredRegions:      req.Constraints.PreferredRegions,
			ExcludedPricingModels: req.Constraints.ExcludedPricingModels,
		},
		Weights: weights,
		Metadata: models.TraceMetadata{
			CalculationTimeMs: elapsed.Milliseconds(),
			FilteredCount:     outcome.PassedCount,
			ScoredCount:       len(outcome.Scored),
		},
	}

	for i, scored := range outcome.Scored {
		if i >= constants.TRACE_CANDIDATE_CAP {
			break
		}
		trace.TopCandidates = append(trace.TopCandidates, models.TraceCandidate{
			Rank:           i + 1,
			ProviderID:     scored.Provider.ID,
			ProviderName:   scored.Provider.Name,
			CompositeScore: scored.CompositeScore,
			EffectivePrice: scored.Price.EffectiveUsdPerA100Hour,
		})
	}

	trace.Rejections = collectRejections(outcome)

	for _, rec := range outcome.Recommendations {
		trace.FinalRanking = append(trace.FinalRanking, models.TraceCandidate{
			Rank:           rec.Rank,
			ProviderID:     rec.Provider.ID,
			ProviderName:   rec.Provider.Name,
			CompositeScore: rec.CompositeScore,
			EffectivePrice: rec.Price.EffectiveUsdPerA100Hour,
			Tradeoffs:      rec.Tradeoffs,
		})
	}

	if err := trace.Validate(); err != nil {
		return nil, fmt.Errorf("reasoning trace failed validation: %w", err)
	}
	return trace, nil
}

func collectRejections(outcome *RankOutcome) []models.TraceRejection {
	var rejections []models.TraceRejection
	add := func(r models.TraceRejection) bool {
		if len(rejections) >= constants.TRACE_REJECTION_CAP {
			return false
		}
		rejections = append(rejections, r)
		return true
	}

	for _, fr := range outcome.FilterResults {
		if fr.Passed {
			continue
		}
		if !add(models.TraceRejection{ProviderID: fr.Provider.ID, Stage: constants.StageFilter, Reason: fr.Reason}) {
			return rejections
		}
	}
	for _, qf := range outcome.QuoteFailures {
		if !add(models.TraceRejection{ProviderID: qf.Provider.ID, Stage: constants.StageQuote, Reason: qf.Reason}) {
			return rejections
		}
	}
	for _, nf := range outcome.NormalizeFails {
		if !add(models.TraceRejection{ProviderID: nf.ProviderID, Stage: constants.StageNormalize, Reason: nf.ErrorReason}) {
			return rejections
		}
	}
	return rejections
}
