package routing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/gpumesh/go-compute-router/internal/models"
)

// QuoteRequest carries the job shape sent to every provider adapter.
type QuoteRequest struct {
	GpuModel      string
	GpuCount      int
	DurationHours float64
	Region        string
	SpotAllowed   bool
}

// QuoteAdapter is the live-provider boundary: given a request, return quotes
// or fail. An empty list means "no offer". Implementations must honor ctx.
type QuoteAdapter interface {
	GetQuotes(ctx context.Context, req QuoteRequest) ([]models.Quote, error)
}

// AdapterResolver returns the adapter for one provider snapshot.
type AdapterResolver func(provider models.Provider) QuoteAdapter

type ProviderQuotes struct {
	Provider models.Provider
	Quotes   []models.Quote
}

type QuoteFailure struct {
	Provider models.Provider
	Reason   string
}

type QuoteOutcome struct {
	Succeeded []ProviderQuotes
	Failed    []QuoteFailure
}

// AcquireQuotes fans out one request per provider under a shared deadline.
// Each goroutine writes only its own slot; a provider that times out, errors
// or returns zero quotes becomes a failure entry and never delays the rest.
// Stage wall time is bounded by the timeout regardless of provider count.
func AcquireQuotes(ctx context.Context, providers []models.Provider, req QuoteRequest, resolve AdapterResolver, timeout time.Duration) QuoteOutcome {
	type slot struct {
		quotes []models.Quote
		err    error
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slots := make([]slot, len(providers))
	done := make(chan int, len(providers))

	for i, provider := range providers {
		go func(i int, provider models.Provider) {
			defer func() { done <- i }()
			adapter := resolve(provider)
			if adapter == nil {
				slots[i].err = fmt.Errorf("no quote adapter registered")
				return
			}
			quotes, err := adapter.GetQuotes(ctx, req)
			if err != nil {
				slots[i].err = err
				return
			}
			slots[i].quotes = quotes
		}(i, provider)
	}

	settled := make([]bool, len(providers))
	for range providers {
		select {
		case i := <-done:
			settled[i] = true
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	// drain whatever settled before the deadline fired
	for len(done) > 0 {
		settled[<-done] = true
	}

	var outcome QuoteOutcome
	for i, provider := range providers {
		switch {
		case !settled[i]:
			outcome.Failed = append(outcome.Failed, QuoteFailure{Provider: provider,
				Reason: fmt.Sprintf("quote request timed out after %s", timeout)})
		case slots[i].err != nil:
			outcome.Failed = append(outcome.Failed, QuoteFailure{Provider: provider,
				Reason: quoteFailureReason(slots[i].err, timeout)})
		case len(slots[i].quotes) == 0:
			outcome.Failed = append(outcome.Failed, QuoteFailure{Provider: provider,
				Reason: "provider returned no offer"})
		default:
			outcome.Succeeded = append(outcome.Succeeded, ProviderQuotes{Provider: provider, Quotes: slots[i].quotes})
		}
	}

	for _, failure := range outcome.Failed {
		logs.GetLogger().Warnf("quote acquisition failed, provider: %s, reason: %s", failure.Provider.ID, failure.Reason)
	}
	logs.GetLogger().Infof("quote acquisition finished, requested: %d, quoted: %d, failed: %d",
		len(providers), len(outcome.Succeeded), len(outcome.Failed))
	return outcome
}

func quoteFailureReason(err error, timeout time.Duration) string {
	if strings.Contains(err.Error(), context.DeadlineExceeded.Error()) {
		return fmt.Sprintf("quote request timed out after %s", timeout)
	}
	return fmt.Sprintf("quote request failed, error: %v", err)
}
