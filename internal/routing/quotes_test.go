package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adapterFunc lets tests drop in adapter behavior per provider.
type adapterFunc func(ctx context.Context, req QuoteRequest) ([]models.Quote, error)

func (f adapterFunc) GetQuotes(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
	return f(ctx, req)
}

func fixedQuote(providerID string, amount float64) adapterFunc {
	return func(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
		return []models.Quote{{ProviderID: providerID, Amount: amount, Currency: "USD", PricingModel: models.PricingFixed}}, nil
	}
}

func hangingAdapter() adapterFunc {
	return func(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

func resolverFor(adapters map[string]QuoteAdapter) AdapterResolver {
	return func(p models.Provider) QuoteAdapter { return adapters[p.ID] }
}

func TestAcquireQuotes_AllSucceed(t *testing.T) {
	providers := []models.Provider{{ID: "a"}, {ID: "b"}}
	resolve := resolverFor(map[string]QuoteAdapter{
		"a": fixedQuote("a", 1.5),
		"b": fixedQuote("b", 2.5),
	})

	outcome := AcquireQuotes(context.Background(), providers, QuoteRequest{GpuCount: 1}, resolve, time.Second)

	require.Len(t, outcome.Succeeded, 2)
	assert.Empty(t, outcome.Failed)
	assert.Equal(t, "a", outcome.Succeeded[0].Provider.ID)
	assert.Equal(t, 1.5, outcome.Succeeded[0].Quotes[0].Amount)
}

func TestAcquireQuotes_OneTimeoutDoesNotDelayOthers(t *testing.T) {
	providers := []models.Provider{{ID: "a"}, {ID: "slow"}, {ID: "c"}}
	resolve := resolverFor(map[string]QuoteAdapter{
		"a":    fixedQuote("a", 1.0),
		"slow": hangingAdapter(),
		"c":    fixedQuote("c", 3.0),
	})

	timeout := 200 * time.Millisecond
	start := time.Now()
	outcome := AcquireQuotes(context.Background(), providers, QuoteRequest{GpuCount: 1}, resolve, timeout)
	elapsed := time.Since(start)

	require.Len(t, outcome.Succeeded, 2)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, "slow", outcome.Failed[0].Provider.ID)
	assert.Contains(t, outcome.Failed[0].Reason, "timed out")
	// bounded by the shared deadline, not the sum of provider latencies
	assert.Less(t, elapsed, 3*timeout)
}

func TestAcquireQuotes_ErrorAndEmptyListAreFailures(t *testing.T) {
	providers := []models.Provider{{ID: "err"}, {ID: "empty"}}
	resolve := resolverFor(map[string]QuoteAdapter{
		"err": adapterFunc(func(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
			return nil, errors.New("upstream 503")
		}),
		"empty": adapterFunc(func(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
			return nil, nil
		}),
	})

	outcome := AcquireQuotes(context.Background(), providers, QuoteRequest{GpuCount: 1}, resolve, time.Second)

	assert.Empty(t, outcome.Succeeded)
	require.Len(t, outcome.Failed, 2)
	assert.Contains(t, outcome.Failed[0].Reason, "upstream 503")
	assert.Equal(t, "provider returned no offer", outcome.Failed[1].Reason)
}

func TestAcquireQuotes_MissingAdapterIsFailure(t *testing.T) {
	outcome := AcquireQuotes(context.Background(), []models.Provider{{ID: "ghost"}}, QuoteRequest{GpuCount: 1},
		resolverFor(nil), time.Second)

	require.Len(t, outcome.Failed, 1)
	assert.Contains(t, outcome.Failed[0].Reason, "no quote adapter")
}

func TestRateCardAdapter(t *testing.T) {
	fixed := models.Provider{ID: "f", GpuModels: []string{"A100"}, PricingModel: models.PricingFixed, BasePricePerHour: 2.0}
	spot := models.Provider{ID: "s", GpuModels: []string{"A100"}, PricingModel: models.PricingSpot, BasePricePerHour: 2.0}

	quotes, err := NewRateCardAdapter(fixed).GetQuotes(context.Background(), QuoteRequest{GpuModel: "A100", GpuCount: 1})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, 2.0, quotes[0].Amount)

	// spot undercuts the base rate, but only when spot is allowed
	quotes, err = NewRateCardAdapter(spot).GetQuotes(context.Background(), QuoteRequest{GpuModel: "A100", GpuCount: 1, SpotAllowed: true})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.InDelta(t, 1.3, quotes[0].Amount, 0.0001)

	quotes, err = NewRateCardAdapter(spot).GetQuotes(context.Background(), QuoteRequest{GpuModel: "A100", GpuCount: 1})
	require.NoError(t, err)
	assert.Empty(t, quotes)

	// no offer for hardware the provider does not carry
	quotes, err = NewRateCardAdapter(fixed).GetQuotes(context.Background(), QuoteRequest{GpuModel: "H200", GpuCount: 1})
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
