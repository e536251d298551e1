package routing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gpumesh/go-compute-router/internal/identity"
	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	hash        string
	err         error
	initialized bool
	uploads     int
}

func (f *fakeUploader) Upload(trace *models.ReasoningTrace) (string, error) {
	f.uploads++
	return f.hash, f.err
}

func (f *fakeUploader) Initialized() bool { return f.initialized }

func testEngine(t *testing.T, uploader *fakeUploader) *Engine {
	t.Helper()
	registry := NewRegistry()
	for _, p := range fleet() {
		require.NoError(t, registry.Register(p))
	}
	engine, err := NewEngine(EngineParams{
		Registry:     registry,
		Normalizer:   usdNormalizer(),
		Identities:   identity.NewService(),
		Uploader:     uploader,
		Weights:      DefaultWeights(),
		QuoteTimeout: time.Second,
	})
	require.NoError(t, err)
	return engine
}

func jobRequest() models.JobRequest {
	return models.JobRequest{
		WalletAddress: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		GpuCount:      2,
		DurationHours: 10,
		Constraints: models.JobConstraints{
			IdentityMode:     string(identity.ModeTracked),
			RequiredGpuModel: "A100",
		},
	}
}

func TestProcessJob_CompletesWithTraceHash(t *testing.T) {
	uploader := &fakeUploader{hash: "bafy-trace-hash", initialized: true}
	engine := testEngine(t, uploader)

	result, err := engine.ProcessJob(context.Background(), jobRequest())
	require.NoError(t, err)

	assert.Equal(t, "p1", result.SelectedProvider.ID)
	assert.Equal(t, "bafy-trace-hash", result.TraceRef)
	assert.False(t, result.TraceFallback)
	assert.Equal(t, 1, uploader.uploads)
	assert.NotEmpty(t, result.AuditID)
	assert.NotEmpty(t, result.JobUUID)

	// total cost = effective price x duration x gpu count
	assert.InDelta(t, 1.00*10*2, result.TotalCostUsd, 0.0001)

	assert.Equal(t, 5, result.StageCounts["registered"])
	assert.Equal(t, 5, result.StageCounts["filtered"])
	assert.Equal(t, 3, result.StageCounts["ranked"])
	for _, stage := range []string{"identity_ms", "rank_ms", "trace_ms", "upload_ms", "total_ms"} {
		_, ok := result.StageTimingsMs[stage]
		assert.True(t, ok, "missing stage timing %s", stage)
	}
}

func TestProcessJob_UploadFailureDegradesToFallback(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("bucket unreachable"), initialized: true}
	engine := testEngine(t, uploader)

	result, err := engine.ProcessJob(context.Background(), jobRequest())
	require.NoError(t, err, "upload failure must not fail the job")

	assert.True(t, result.TraceFallback)
	assert.True(t, strings.HasPrefix(result.TraceRef, "local-"), "got %s", result.TraceRef)
}

func TestProcessJob_UninitializedStorageUsesFallback(t *testing.T) {
	uploader := &fakeUploader{}
	engine := testEngine(t, uploader)

	result, err := engine.ProcessJob(context.Background(), jobRequest())
	require.NoError(t, err)
	assert.True(t, result.TraceFallback)
	assert.Equal(t, 0, uploader.uploads)
}

func TestProcessJob_ValidationErrors(t *testing.T) {
	engine := testEngine(t, &fakeUploader{})

	missingBuyer := jobRequest()
	missingBuyer.WalletAddress = ""
	_, err := engine.ProcessJob(context.Background(), missingBuyer)
	assert.ErrorContains(t, err, "wallet address")

	badCount := jobRequest()
	badCount.GpuCount = 0
	_, err = engine.ProcessJob(context.Background(), badCount)
	assert.ErrorContains(t, err, "gpu count")

	badMode := jobRequest()
	badMode.Constraints.IdentityMode = "anonymous-ish"
	_, err = engine.ProcessJob(context.Background(), badMode)
	assert.ErrorContains(t, err, "identity mode")
}

func TestProcessJob_NoEligibleProvidersIsDistinct(t *testing.T) {
	engine := testEngine(t, &fakeUploader{})

	req := jobRequest()
	req.Constraints.MaxPricePerHour = 0.01
	_, err := engine.ProcessJob(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoEligibleProviders)
}

func TestProcessJob_OneSlowProviderStillCompletes(t *testing.T) {
	registry := NewRegistry()
	for _, p := range fleet()[:3] {
		require.NoError(t, registry.Register(p))
	}
	slowID := fleet()[0].ID
	resolve := func(p models.Provider) QuoteAdapter {
		if p.ID == slowID {
			return hangingAdapter()
		}
		return NewRateCardAdapter(p)
	}

	timeout := 200 * time.Millisecond
	engine, err := NewEngine(EngineParams{
		Registry:     registry,
		Resolve:      resolve,
		Normalizer:   usdNormalizer(),
		Identities:   identity.NewService(),
		Uploader:     &fakeUploader{hash: "h", initialized: true},
		Weights:      DefaultWeights(),
		QuoteTimeout: timeout,
	})
	require.NoError(t, err)

	start := time.Now()
	result, err := engine.ProcessJob(context.Background(), jobRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, result.StageCounts["quoted"])
	assert.Less(t, time.Since(start), 5*timeout)
}

func TestNewEngine_RejectsInvalidWeights(t *testing.T) {
	_, err := NewEngine(EngineParams{
		Registry:   NewRegistry(),
		Normalizer: usdNormalizer(),
		Identities: identity.NewService(),
		Weights:    models.ScoringWeights{Price: 0.5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}
