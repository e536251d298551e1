package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/gpumesh/go-compute-router/internal/pricing"
)

// ErrNoEligibleProviders is surfaced, unchanged, all the way to the caller so
// the API can tell the buyer to relax their constraints instead of reporting a
// generic failure.
var ErrNoEligibleProviders = errors.New("no eligible providers matched the job constraints")

const (
	latencyHighlight    = 90
	reputationHighlight = 85
	geographyHighlight  = 90
)

// RankOutcome carries everything the trace builder needs in addition to the
// recommendations themselves.
type RankOutcome struct {
	Recommendations []models.Recommendation
	Scored          []models.ScoredProvider
	FilterResults   []models.FilterResult
	QuoteFailures   []QuoteFailure
	NormalizeFails  []models.NormalizedPrice
	PassedCount     int
	QuotedCount     int
	NormalizedCount int
}

// RankProviders runs filter -> quote -> normalize -> score for one request and
// returns the top-N recommendations. Deterministic for a fixed provider set,
// fixed quotes and fixed weights: equal composites tie-break by provider id.
func RankProviders(ctx context.Context, providers []models.Provider, req models.JobRequest, resolve AdapterResolver, normalizer pricing.Normalizer, weights models.ScoringWeights, quoteTimeout time.Duration, topN int) (*RankOutcome, error) {
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = 3
	}

	outcome := &RankOutcome{}

	passed, filterResults := FilterProviders(providers, req.Constraints, FilterOptions{})
	outcome.FilterResults = filterResults
	outcome.PassedCount = len(passed)
	if len(passed) == 0 {
		return outcome, ErrNoEligibleProviders
	}

	quoteReq := QuoteRequest{
		GpuModel:      req.Constraints.RequiredGpuModel,
		GpuCount:      req.GpuCount,
		DurationHours: req.DurationHours,
		SpotAllowed:   !pricingModelExcluded(models.PricingSpot, req.Constraints.ExcludedPricingModels),
	}
	if len(req.Constraints.PreferredRegions) > 0 {
		quoteReq.Region = req.Constraints.PreferredRegions[0]
	}

	quoted := AcquireQuotes(ctx, passed, quoteReq, resolve, quoteTimeout)
	outcome.QuoteFailures = quoted.Failed
	outcome.QuotedCount = len(quoted.Succeeded)
	if len(quoted.Succeeded) == 0 {
		return outcome, ErrNoEligibleProviders
	}

	type candidate struct {
		provider models.Provider
		price    models.NormalizedPrice
	}
	var candidates []candidate
	var prices []models.NormalizedPrice
	for _, pq := range quoted.Succeeded {
		price := normalizer.Normalize(bestQuote(pq.Quotes), req)
		if price.Error {
			logs.GetLogger().Warnf("price normalization failed, provider: %s, reason: %s", pq.Provider.ID, price.ErrorReason)
			outcome.NormalizeFails = append(outcome.NormalizeFails, price)
			continue
		}
		candidates = append(candidates, candidate{provider: pq.Provider, price: price})
		prices = append(prices, price)
	}
	outcome.NormalizedCount = len(candidates)
	if len(candidates) == 0 {
		return outcome, ErrNoEligibleProviders
	}

	for _, c := range candidates {
		outcome.Scored = append(outcome.Scored, ScoreProvider(c.provider, c.price, prices, req.Constraints, weights))
	}
	sort.SliceStable(outcome.Scored, func(i, j int) bool {
		if outcome.Scored[i].CompositeScore != outcome.Scored[j].CompositeScore {
			return outcome.Scored[i].CompositeScore > outcome.Scored[j].CompositeScore
		}
		return outcome.Scored[i].Provider.ID < outcome.Scored[j].Provider.ID
	})

	n := topN
	if n > len(outcome.Scored) {
		n = len(outcome.Scored)
	}
	maxPrice := mostExpensive(outcome.Scored)
	for rank := 0; rank < n; rank++ {
		scored := outcome.Scored[rank]
		outcome.Recommendations = append(outcome.Recommendations, models.Recommendation{
			Rank:                    rank + 1,
			Provider:                scored.Provider,
			Price:                   scored.Price,
			CompositeScore:          scored.CompositeScore,
			Tradeoffs:               tradeoffs(scored, rank, n, outcome.Scored),
			EstimatedSavingsPercent: savingsPercent(scored.Price.EffectiveUsdPerA100Hour, maxPrice),
		})
	}
	return outcome, nil
}

// bestQuote picks a provider's cheapest offer when it returned several.
func bestQuote(quotes []models.Quote) models.Quote {
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Amount < best.Amount {
			best = q
		}
	}
	return best
}

func mostExpensive(scored []models.ScoredProvider) float64 {
	max := 0.0
	for _, s := range scored {
		if s.Price.EffectiveUsdPerA100Hour > max {
			max = s.Price.EffectiveUsdPerA100Hour
		}
	}
	return max
}

func savingsPercent(price, maxPrice float64) float64 {
	if maxPrice <= 0 || price <= 0 || price >= maxPrice {
		return 0
	}
	return 100 * (maxPrice - price) / maxPrice
}

func tradeoffs(scored models.ScoredProvider, rank, total int, all []models.ScoredProvider) []string {
	var notes []string

	if rank == 0 && cheapestOfAll(scored, all) {
		notes = append(notes, fmt.Sprintf("best effective price at $%.2f per A100-hour", scored.Price.EffectiveUsdPerA100Hour))
	}
	if rank == total-1 && total > 1 {
		top := all[0]
		if saving := savingsPercent(top.Price.EffectiveUsdPerA100Hour, scored.Price.EffectiveUsdPerA100Hour); saving > 0 {
			notes = append(notes, fmt.Sprintf("switching to %s saves %.0f%%", top.Provider.Name, saving))
		}
	}
	if scored.LatencyScore >= latencyHighlight {
		notes = append(notes, "lowest latency for your region")
	}
	if scored.ReputationScore >= reputationHighlight {
		notes = append(notes, fmt.Sprintf("highest reputation tier (%.0f/100)", scored.ReputationScore))
	}
	if scored.GeographyScore >= geographyHighlight {
		notes = append(notes, "covers all preferred regions")
	}
	if len(notes) == 0 {
		notes = append(notes, fmt.Sprintf("balanced option, composite score %.0f/100", scored.CompositeScore))
	}
	return notes
}

func cheapestOfAll(scored models.ScoredProvider, all []models.ScoredProvider) bool {
	for _, other := range all {
		if other.Provider.ID == scored.Provider.ID {
			continue
		}
		if !other.Price.Error && other.Price.EffectiveUsdPerA100Hour <= scored.Price.EffectiveUsdPerA100Hour {
			return false
		}
	}
	return true
}
