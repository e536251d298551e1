package routing

import (
	"testing"

	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeights(t *testing.T) {
	assert.NoError(t, ValidateWeights(DefaultWeights()))
	assert.NoError(t, ValidateWeights(models.ScoringWeights{Price: 0.25, Latency: 0.25, Reputation: 0.25, Geography: 0.25}))

	assert.Error(t, ValidateWeights(models.ScoringWeights{Price: 0.60, Latency: 0.15, Reputation: 0.15, Geography: 0.20}))
	assert.Error(t, ValidateWeights(models.ScoringWeights{}))
	assert.Error(t, ValidateWeights(models.ScoringWeights{Price: 1.5, Latency: -0.5}))
}

func price(id string, usd float64) models.NormalizedPrice {
	return models.NormalizedPrice{ProviderID: id, EffectiveUsdPerA100Hour: usd, SourceCurrency: "USD"}
}

func TestScorePrice_LinearInterpolation(t *testing.T) {
	all := []models.NormalizedPrice{price("a", 1.0), price("b", 3.0), price("c", 5.0)}

	assert.Equal(t, 100.0, scorePrice(all[0], all))
	assert.Equal(t, 50.0, scorePrice(all[1], all))
	assert.Equal(t, 0.0, scorePrice(all[2], all))
}

func TestScorePrice_EqualPricesAllScore100(t *testing.T) {
	all := []models.NormalizedPrice{price("a", 2.0), price("b", 2.0)}
	assert.Equal(t, 100.0, scorePrice(all[0], all))
	assert.Equal(t, 100.0, scorePrice(all[1], all))
}

func TestScorePrice_ErrorFlaggedScoresZero(t *testing.T) {
	bad := models.NormalizedPrice{ProviderID: "x", Error: true, ErrorReason: "stale rate"}
	all := []models.NormalizedPrice{price("a", 1.0), bad}

	assert.Equal(t, 0.0, scorePrice(bad, all))
	assert.Equal(t, 0.0, scorePrice(models.NormalizedPrice{ProviderID: "y"}, all))
}

func TestScoreLatency_RegionBuckets(t *testing.T) {
	provider := models.Provider{Regions: []string{"us-east"}}

	sameRegion := scoreLatency(provider, models.JobConstraints{PreferredRegions: []string{"us-east"}})
	sameContinent := scoreLatency(provider, models.JobConstraints{PreferredRegions: []string{"us-west"}})
	crossContinent := scoreLatency(provider, models.JobConstraints{PreferredRegions: []string{"eu-west"}})
	noPreference := scoreLatency(provider, models.JobConstraints{})

	assert.Equal(t, 100.0, sameRegion)
	assert.Equal(t, 80.0, sameContinent)
	assert.Equal(t, 50.0, crossContinent)
	assert.Equal(t, 70.0, noPreference)
}

func TestScoreLatency_HistoricalAdjustment(t *testing.T) {
	fast := models.Provider{Regions: []string{"us-east"}, AvgLatencyMs: 20}
	slow := models.Provider{Regions: []string{"us-east"}, AvgLatencyMs: 400}
	constraints := models.JobConstraints{PreferredRegions: []string{"eu-west"}}

	assert.Equal(t, 60.0, scoreLatency(fast, constraints))
	assert.Equal(t, 40.0, scoreLatency(slow, constraints))
}

func TestScoreReputation(t *testing.T) {
	veteran := models.Provider{Reputation: 85, UptimePercent: 99.95, CompletedJobs: 500}
	assert.Equal(t, 95.0, scoreReputation(veteran))

	shaky := models.Provider{Reputation: 70, UptimePercent: 93, CompletedJobs: 50}
	assert.Equal(t, 65.0, scoreReputation(shaky))

	// new providers are forced to neutral regardless of other signals
	fresh := models.Provider{Reputation: 0, UptimePercent: 100, CompletedJobs: 2}
	assert.Equal(t, 50.0, scoreReputation(fresh))
	freshDefault := models.Provider{Reputation: defaultReputation, CompletedJobs: 5}
	assert.Equal(t, 50.0, scoreReputation(freshDefault))
}

func TestScoreGeography(t *testing.T) {
	provider := models.Provider{Regions: []string{"us-east", "eu-west"}}

	full := scoreGeography(provider, models.JobConstraints{PreferredRegions: []string{"us-east", "eu-west"}})
	half := scoreGeography(provider, models.JobConstraints{PreferredRegions: []string{"us-east", "ap-south"}})
	neutral := scoreGeography(provider, models.JobConstraints{})

	// multi-continent coverage earns the bonus but never exceeds 100
	assert.Equal(t, 100.0, full)
	assert.Equal(t, 60.0, half)
	assert.Equal(t, 70.0, neutral)
}

func TestScoreProvider_AllScoresInRange(t *testing.T) {
	providers := []models.Provider{
		{ID: "a", Regions: []string{"us-east"}, Reputation: 100, UptimePercent: 100, CompletedJobs: 1000, AvgLatencyMs: 10},
		{ID: "b", Regions: []string{"eu-west"}, Reputation: 0, UptimePercent: 50, CompletedJobs: 0, AvgLatencyMs: 900},
		{ID: "c"},
	}
	allPrices := []models.NormalizedPrice{price("a", 0.5), price("b", 10), {ProviderID: "c", Error: true}}
	constraints := models.JobConstraints{PreferredRegions: []string{"us-east", "ap-south"}}

	for i, p := range providers {
		scored := ScoreProvider(p, allPrices[i], allPrices, constraints, DefaultWeights())
		for name, v := range map[string]float64{
			"price":      scored.PriceScore,
			"latency":    scored.LatencyScore,
			"reputation": scored.ReputationScore,
			"geography":  scored.GeographyScore,
			"composite":  scored.CompositeScore,
		} {
			require.GreaterOrEqual(t, v, 0.0, "provider %s %s score", p.ID, name)
			require.LessOrEqual(t, v, 100.0, "provider %s %s score", p.ID, name)
		}
		assert.Len(t, scored.Contributions, 4)
	}
}
