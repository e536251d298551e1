package initializer

import (
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gpumesh/go-compute-router/conf"
	"github.com/gpumesh/go-compute-router/internal/api"
	"github.com/gpumesh/go-compute-router/internal/identity"
	"github.com/gpumesh/go-compute-router/internal/pricing"
	"github.com/gpumesh/go-compute-router/internal/routing"
	"github.com/gpumesh/go-compute-router/internal/storage"
)

// ProjectInit loads the config, seeds the provider registry and assembles the
// routing engine behind the API handlers.
func ProjectInit(routerRepoPath string) {
	if err := conf.InitConfig(routerRepoPath); err != nil {
		logs.GetLogger().Fatal(err)
	}
	cfg := conf.GetConfig()

	registry := routing.NewRegistry()
	if cfg.ROUTING.RegistryFile != "" {
		if err := registry.LoadSeedFile(cfg.ROUTING.RegistryFile); err != nil {
			logs.GetLogger().Fatal(err)
		}
	}

	weights := routing.DefaultWeights()
	if s := cfg.SCORING; s.PriceWeight+s.LatencyWeight+s.ReputationWeight+s.GeographyWeight > 0 {
		weights.Price = s.PriceWeight
		weights.Latency = s.LatencyWeight
		weights.Reputation = s.ReputationWeight
		weights.Geography = s.GeographyWeight
	}
	if err := routing.ValidateWeights(weights); err != nil {
		logs.GetLogger().Fatal(err)
	}

	feed := pricing.NewFeedClient(cfg.FEED.ServerUrl)
	var rates pricing.RateSource = feed
	if cfg.API.RedisUrl != "" {
		pool := pricing.NewRedisPool(cfg.API.RedisUrl, cfg.API.RedisPassword)
		rates = pricing.NewCachedRates(pool, feed, time.Duration(cfg.FEED.CacheTtlSeconds)*time.Second)
	}
	normalizer := pricing.NewTokenRateNormalizer(rates, time.Duration(cfg.FEED.RateMaxAgeSeconds)*time.Second)

	uploader := storage.NewStorageService()

	engine, err := routing.NewEngine(routing.EngineParams{
		Registry:     registry,
		Normalizer:   normalizer,
		Identities:   identity.NewService(),
		Uploader:     uploader,
		Weights:      weights,
		QuoteTimeout: time.Duration(cfg.ROUTING.QuoteTimeoutMs) * time.Millisecond,
		TopN:         cfg.ROUTING.TopN,
	})
	if err != nil {
		logs.GetLogger().Fatal(err)
	}

	api.Init(engine, uploader)
}
