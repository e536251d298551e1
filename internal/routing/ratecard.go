package routing

import (
	"context"
	"fmt"

	"github.com/gpumesh/go-compute-router/internal/models"
)

// spot offers undercut the advertised base rate; matches the discount the
// auction venues typically settle around
const spotDiscount = 0.35

// rateCardAdapter prices registry-seeded providers from their advertised base
// rate so the engine can route without live provider integrations. Live
// adapters replace this per provider through the AdapterResolver.
type rateCardAdapter struct {
	provider models.Provider
}

func NewRateCardAdapter(provider models.Provider) QuoteAdapter {
	return &rateCardAdapter{provider: provider}
}

func (a *rateCardAdapter) GetQuotes(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if req.GpuCount <= 0 {
		return nil, fmt.Errorf("invalid gpu count: %d", req.GpuCount)
	}
	if req.GpuModel != "" && !containsFold(a.provider.GpuModels, req.GpuModel) {
		// no offer for hardware the provider does not carry
		return nil, nil
	}

	amount := a.provider.BasePricePerHour
	currency := a.provider.Currency
	if currency == "" {
		currency = "USD"
	}

	switch a.provider.PricingModel {
	case models.PricingSpot:
		if !req.SpotAllowed {
			return nil, nil
		}
		amount = amount * (1 - spotDiscount)
	case models.PricingFixed, models.PricingToken:
	default:
		return nil, fmt.Errorf("unknown pricing model: %s", a.provider.PricingModel)
	}

	return []models.Quote{{
		ProviderID:   a.provider.ID,
		Amount:       amount,
		Currency:     currency,
		PricingModel: a.provider.PricingModel,
	}}, nil
}
