package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/gpumesh/go-compute-router/internal/models"
)

// Normalizer converts a raw quote into USD per A100-equivalent GPU-hour. It
// never returns an error: unnormalizable input sets the Error flag instead.
type Normalizer interface {
	Normalize(quote models.Quote, req models.JobRequest) models.NormalizedPrice
}

// baselineFactors expresses each GPU model's throughput relative to the A100
// hardware baseline. A quote for an H100 hour buys more compute than a quote
// for a 4090 hour; dividing by the factor makes the prices comparable.
var baselineFactors = map[string]float64{
	"A100":    1.00,
	"H100":    1.60,
	"H200":    1.90,
	"A6000":   0.55,
	"L40S":    0.70,
	"V100":    0.45,
	"RTX4090": 0.50,
	"RTX3090": 0.35,
}

func baselineFactor(gpuModel string) (float64, bool) {
	if gpuModel == "" {
		return 1.0, true
	}
	factor, ok := baselineFactors[strings.ToUpper(gpuModel)]
	return factor, ok
}

// RateSource supplies USD exchange rates for token-denominated quotes.
type RateSource interface {
	TokenRate(symbol string) (rate float64, at time.Time, err error)
}

// TokenRateNormalizer is the default Normalizer. Fixed and spot USD quotes
// pass straight through the baseline conversion; token quotes are converted
// with a feed rate first and rejected when the rate is stale.
type TokenRateNormalizer struct {
	rates      RateSource
	rateMaxAge time.Duration
	now        func() time.Time
}

func NewTokenRateNormalizer(rates RateSource, rateMaxAge time.Duration) *TokenRateNormalizer {
	if rateMaxAge <= 0 {
		rateMaxAge = 5 * time.Minute
	}
	return &TokenRateNormalizer{rates: rates, rateMaxAge: rateMaxAge, now: time.Now}
}

func (n *TokenRateNormalizer) Normalize(quote models.Quote, req models.JobRequest) models.NormalizedPrice {
	price := models.NormalizedPrice{ProviderID: quote.ProviderID, SourceCurrency: quote.Currency}

	fail := func(format string, args ...interface{}) models.NormalizedPrice {
		price.Error = true
		price.ErrorReason = fmt.Sprintf(format, args...)
		price.EffectiveUsdPerA100Hour = 0
		return price
	}

	if quote.Amount <= 0 {
		return fail("quote amount must be positive, got %f", quote.Amount)
	}

	usdPerGpuHour := quote.Amount
	if !strings.EqualFold(quote.Currency, "USD") {
		if n.rates == nil {
			return fail("no rate source for currency %s", quote.Currency)
		}
		rate, at, err := n.rates.TokenRate(quote.Currency)
		if err != nil {
			return fail("failed fetch %s rate, error: %v", quote.Currency, err)
		}
		if rate <= 0 {
			return fail("non-positive %s rate: %f", quote.Currency, rate)
		}
		if n.now().Sub(at) > n.rateMaxAge {
			return fail("%s rate is stale, last updated %s", quote.Currency, at.Format(time.RFC3339))
		}
		usdPerGpuHour = quote.Amount * rate
	}

	factor, known := baselineFactor(req.Constraints.RequiredGpuModel)
	if !known {
		return fail("no hardware baseline for gpu model %s", req.Constraints.RequiredGpuModel)
	}

	price.EffectiveUsdPerA100Hour = usdPerGpuHour / factor
	return price
}
