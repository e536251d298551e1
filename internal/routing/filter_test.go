package routing

import (
	"testing"

	"github.com/gpumesh/go-compute-router/constants"
	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/stretchr/testify/assert"
)

func usProvider(id string, price float64) models.Provider {
	return models.Provider{
		ID:               id,
		Name:             "provider-" + id,
		GpuModels:        []string{"A100", "H100"},
		Regions:          []string{"us-east", "us-west"},
		PricingModel:     models.PricingFixed,
		BasePricePerHour: price,
		Reputation:       80,
		UptimePercent:    99.5,
		CompletedJobs:    200,
	}
}

func TestCheckProvider_PassedIffNoFailedConstraints(t *testing.T) {
	cases := []struct {
		name        string
		provider    models.Provider
		constraints models.JobConstraints
	}{
		{"no constraints", usProvider("a", 2.0), models.JobConstraints{}},
		{"price ok", usProvider("a", 2.0), models.JobConstraints{MaxPricePerHour: 3.0}},
		{"price too high", usProvider("a", 4.0), models.JobConstraints{MaxPricePerHour: 3.0}},
		{"wrong region", usProvider("a", 2.0), models.JobConstraints{PreferredRegions: []string{"eu-west"}}},
		{"missing gpu", usProvider("a", 2.0), models.JobConstraints{RequiredGpuModel: "H200"}},
		{"excluded model", usProvider("a", 2.0), models.JobConstraints{ExcludedPricingModels: []models.PricingModel{models.PricingFixed}}},
		{"everything wrong", usProvider("a", 9.0), models.JobConstraints{
			MaxPricePerHour:       1.0,
			PreferredRegions:      []string{"eu-west"},
			RequiredGpuModel:      "H200",
			ExcludedPricingModels: []models.PricingModel{models.PricingFixed},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckProvider(tc.provider, tc.constraints, FilterOptions{})
			assert.Equal(t, result.Passed, len(result.FailedConstraints) == 0)
			if !result.Passed {
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

func TestCheckProvider_CollectsAllFailures(t *testing.T) {
	constraints := models.JobConstraints{
		MaxPricePerHour:  1.0,
		PreferredRegions: []string{"eu-west"},
		RequiredGpuModel: "H200",
	}
	result := CheckProvider(usProvider("a", 5.0), constraints, FilterOptions{})

	assert.False(t, result.Passed)
	assert.ElementsMatch(t, []string{
		constants.ConstraintMaxPrice,
		constants.ConstraintPreferredRegion,
		constants.ConstraintRequiredGpu,
	}, result.FailedConstraints)
}

func TestCheckProvider_FailFastStopsAtFirstFailure(t *testing.T) {
	constraints := models.JobConstraints{
		MaxPricePerHour:  1.0,
		PreferredRegions: []string{"eu-west"},
	}
	result := CheckProvider(usProvider("a", 5.0), constraints, FilterOptions{FailFast: true})

	assert.False(t, result.Passed)
	assert.Equal(t, []string{constants.ConstraintMaxPrice}, result.FailedConstraints)
}

func TestCheckProvider_RegionAndGpuMatchingIsCaseInsensitive(t *testing.T) {
	result := CheckProvider(usProvider("a", 2.0), models.JobConstraints{
		PreferredRegions: []string{"US-EAST"},
		RequiredGpuModel: "a100",
	}, FilterOptions{})
	assert.True(t, result.Passed)
}

func TestFilterProviders_MaxPriceScenario(t *testing.T) {
	providers := []models.Provider{
		usProvider("cheap", 1.00),
		usProvider("mid", 3.00),
		usProvider("pricey", 5.00),
	}
	passed, results := FilterProviders(providers, models.JobConstraints{MaxPricePerHour: 2.00}, FilterOptions{})

	if len(passed) != 1 || passed[0].ID != "cheap" {
		t.Fatalf("expected only the $1.00 provider to pass, got %+v", passed)
	}
	assert.Len(t, results, 3)
}
