package routing

import (
	"fmt"
	"math"
	"strings"

	"github.com/gpumesh/go-compute-router/internal/models"
)

const weightSumTolerance = 1e-6

// defaultReputation is the value the registry assigns when a provider joins
// with no history.
const defaultReputation = 50

// ValidateWeights rejects any weight set that does not sum to 1.0. This is a
// fatal configuration error, checked before any scoring happens.
func ValidateWeights(w models.ScoringWeights) error {
	for name, v := range map[string]float64{
		"price":      w.Price,
		"latency":    w.Latency,
		"reputation": w.Reputation,
		"geography":  w.Geography,
	} {
		if v < 0 {
			return fmt.Errorf("scoring weight %s is negative: %f", name, v)
		}
	}
	sum := w.Price + w.Latency + w.Reputation + w.Geography
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("scoring weights must sum to 1.0, got %f", sum)
	}
	return nil
}

func DefaultWeights() models.ScoringWeights {
	return models.ScoringWeights{Price: 0.60, Latency: 0.15, Reputation: 0.15, Geography: 0.10}
}

// ScoreProvider computes the four factor scores and the weighted composite
// for one provider. allPrices is the full candidate set, needed for relative
// price scaling. Pure arithmetic, no hidden state.
func ScoreProvider(provider models.Provider, price models.NormalizedPrice, allPrices []models.NormalizedPrice, constraints models.JobConstraints, weights models.ScoringWeights) models.ScoredProvider {
	priceScore := scorePrice(price, allPrices)
	latencyScore := scoreLatency(provider, constraints)
	reputationScore := scoreReputation(provider)
	geographyScore := scoreGeography(provider, constraints)

	composite := priceScore*weights.Price +
		latencyScore*weights.Latency +
		reputationScore*weights.Reputation +
		geographyScore*weights.Geography

	return models.ScoredProvider{
		Provider:        provider,
		Price:           price,
		PriceScore:      priceScore,
		LatencyScore:    latencyScore,
		ReputationScore: reputationScore,
		GeographyScore:  geographyScore,
		CompositeScore:  clamp(math.Round(composite)),
		Contributions: map[string]float64{
			"price":      priceScore * weights.Price,
			"latency":    latencyScore * weights.Latency,
			"reputation": reputationScore * weights.Reputation,
			"geography":  geographyScore * weights.Geography,
		},
	}
}

// scorePrice interpolates linearly over the candidate set: cheapest 100, most
// expensive 0. Equal prices all score 100; error-flagged or non-positive
// prices score 0.
func scorePrice(price models.NormalizedPrice, allPrices []models.NormalizedPrice) float64 {
	if price.Error || price.EffectiveUsdPerA100Hour <= 0 {
		return 0
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, p := range allPrices {
		if p.Error || p.EffectiveUsdPerA100Hour <= 0 {
			continue
		}
		min = math.Min(min, p.EffectiveUsdPerA100Hour)
		max = math.Max(max, p.EffectiveUsdPerA100Hour)
	}
	if min > max || max == min {
		return 100
	}
	return clamp(100 * (max - price.EffectiveUsdPerA100Hour) / (max - min))
}

func scoreLatency(provider models.Provider, constraints models.JobConstraints) float64 {
	score := 70.0 // neutral when the caller gave no preference
	if len(constraints.PreferredRegions) > 0 {
		primary := constraints.PreferredRegions[0]
		switch {
		case containsFold(provider.Regions, primary):
			score = 100
		case coversContinent(provider.Regions, continentOf(primary)):
			score = 80
		default:
			score = 50
		}
	}

	// adjust by historical average latency when the registry knows it
	switch avg := provider.AvgLatencyMs; {
	case avg <= 0:
	case avg < 50:
		score += 10
	case avg < 100:
		score += 5
	case avg > 300:
		score -= 10
	case avg > 200:
		score -= 5
	}
	return clamp(score)
}

func scoreReputation(provider models.Provider) float64 {
	newProvider := provider.CompletedJobs < 10 &&
		(provider.Reputation == 0 || provider.Reputation == defaultReputation)
	if newProvider {
		return 50
	}

	score := provider.Reputation
	switch {
	case provider.UptimePercent >= 99.9:
		score += 10
	case provider.CompletedJobs > 100:
		score += 5
	}
	switch {
	case provider.UptimePercent > 0 && provider.UptimePercent < 90:
		score -= 10
	case provider.UptimePercent > 0 && provider.UptimePercent < 95:
		score -= 5
	}
	return clamp(score)
}

func scoreGeography(provider models.Provider, constraints models.JobConstraints) float64 {
	if len(constraints.PreferredRegions) == 0 {
		return 70
	}

	covered := 0
	for _, region := range constraints.PreferredRegions {
		if containsFold(provider.Regions, region) {
			covered++
		}
	}
	score := 100 * float64(covered) / float64(len(constraints.PreferredRegions))

	if continentCount(provider.Regions) >= 2 {
		score += 10
	}
	return clamp(score)
}

// continentOf buckets a region tag by its prefix; unknown prefixes get their
// own bucket so they never collide.
func continentOf(region string) string {
	region = strings.ToLower(region)
	for prefix, continent := range map[string]string{
		"us": "north-america", "ca": "north-america", "na": "north-america",
		"eu": "europe",
		"ap": "asia", "asia": "asia",
		"sa": "south-america",
		"af": "africa",
		"au": "oceania", "oc": "oceania",
	} {
		if region == prefix || strings.HasPrefix(region, prefix+"-") {
			return continent
		}
	}
	return region
}

func coversContinent(regions []string, continent string) bool {
	for _, r := range regions {
		if continentOf(r) == continent {
			return true
		}
	}
	return false
}

func continentCount(regions []string) int {
	seen := map[string]bool{}
	for _, r := range regions {
		seen[continentOf(r)] = true
	}
	return len(seen)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
