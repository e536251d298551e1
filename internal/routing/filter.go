package routing

import (
	"fmt"
	"strings"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/gpumesh/go-compute-router/constants"
	"github.com/gpumesh/go-compute-router/internal/models"
)

// FilterOptions controls constraint evaluation. Collect-all is the default so
// a rejection reason can name every failed constraint.
type FilterOptions struct {
	FailFast bool
}

// CheckProvider evaluates one provider against the job constraints. Pure
// function of its inputs, no network calls, no hidden state.
func CheckProvider(provider models.Provider, constraints models.JobConstraints, opts FilterOptions) models.FilterResult {
	var failed []string
	var reasons []string

	fail := func(name, reason string) bool {
		failed = append(failed, name)
		reasons = append(reasons, reason)
		return opts.FailFast
	}

	for {
		if constraints.MaxPricePerHour > 0 && provider.BasePricePerHour > constraints.MaxPricePerHour {
			if fail(constants.ConstraintMaxPrice,
				fmt.Sprintf("base price $%.2f/hr exceeds max $%.2f/hr", provider.BasePricePerHour, constraints.MaxPricePerHour)) {
				break
			}
		}

		if len(constraints.PreferredRegions) > 0 && !coversAnyRegion(provider.Regions, constraints.PreferredRegions) {
			if fail(constants.ConstraintPreferredRegion,
				fmt.Sprintf("no presence in preferred regions %v", constraints.PreferredRegions)) {
				break
			}
		}

		if constraints.RequiredGpuModel != "" && !containsFold(provider.GpuModels, constraints.RequiredGpuModel) {
			if fail(constants.ConstraintRequiredGpu,
				fmt.Sprintf("gpu model %s not offered", constraints.RequiredGpuModel)) {
				break
			}
		}

		if pricingModelExcluded(provider.PricingModel, constraints.ExcludedPricingModels) {
			if fail(constants.ConstraintExcludedPricingModel,
				fmt.Sprintf("pricing model %s excluded by request", provider.PricingModel)) {
				break
			}
		}

		// capacity checking is deferred; the named check keeps the
		// failed-constraint vocabulary stable when it lands
		break
	}

	return models.FilterResult{
		Provider:          provider,
		Passed:            len(failed) == 0,
		FailedConstraints: failed,
		Reason:            strings.Join(reasons, "; "),
	}
}

// FilterProviders evaluates the whole snapshot and partitions it. The only
// side effect is the count logging.
func FilterProviders(providers []models.Provider, constraints models.JobConstraints, opts FilterOptions) (passed []models.Provider, results []models.FilterResult) {
	for _, provider := range providers {
		result := CheckProvider(provider, constraints, opts)
		results = append(results, result)
		if result.Passed {
			passed = append(passed, provider)
		}
	}
	logs.GetLogger().Infof("constraint filter finished, total: %d, passed: %d, rejected: %d",
		len(providers), len(passed), len(providers)-len(passed))
	return passed, results
}

func coversAnyRegion(providerRegions, preferred []string) bool {
	for _, want := range preferred {
		if containsFold(providerRegions, want) {
			return true
		}
	}
	return false
}

func containsFold(list []string, want string) bool {
	for _, v := range list {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func pricingModelExcluded(model models.PricingModel, excluded []models.PricingModel) bool {
	for _, ex := range excluded {
		if ex == model {
			return true
		}
	}
	return false
}
