package pricing

import (
	"encoding/json"
	"time"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/gomodule/redigo/redis"
	"github.com/gpumesh/go-compute-router/constants"
)

// CachedRates fronts a RateSource with a redis cache so repeated routing
// decisions do not hammer the token price feed. Cache failures fall through
// to the feed; feed failures propagate to the normalizer's error flag.
type CachedRates struct {
	pool   *redis.Pool
	source RateSource
	ttl    time.Duration
}

func NewCachedRates(pool *redis.Pool, source RateSource, ttl time.Duration) *CachedRates {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &CachedRates{pool: pool, source: source, ttl: ttl}
}

func NewRedisPool(url string, password string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     5,
		MaxActive:   0,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			if password != "" {
				return redis.DialURL(url, redis.DialPassword(password))
			}
			return redis.DialURL(url)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			_, err := c.Do("PING")
			return err
		},
	}
}

type cachedRate struct {
	Rate float64 `json:"rate"`
	At   string  `json:"at"`
}

func (c *CachedRates) TokenRate(symbol string) (float64, time.Time, error) {
	key := constants.REDIS_RATE_PREFIX + symbol

	if rate, at, ok := c.lookup(key); ok {
		return rate, at, nil
	}

	rate, at, err := c.source.TokenRate(symbol)
	if err != nil {
		return 0, time.Time{}, err
	}
	c.store(key, rate, at)
	return rate, at, nil
}

func (c *CachedRates) lookup(key string) (float64, time.Time, bool) {
	conn := c.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if err != redis.ErrNil {
			logs.GetLogger().Warnf("rate cache lookup failed, key: %s, error: %v", key, err)
		}
		return 0, time.Time{}, false
	}

	var cached cachedRate
	if err := json.Unmarshal(data, &cached); err != nil {
		logs.GetLogger().Warnf("rate cache entry unreadable, key: %s, error: %v", key, err)
		return 0, time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339, cached.At)
	if err != nil {
		return 0, time.Time{}, false
	}
	return cached.Rate, at, true
}

func (c *CachedRates) store(key string, rate float64, at time.Time) {
	conn := c.pool.Get()
	defer conn.Close()

	data, err := json.Marshal(cachedRate{Rate: rate, At: at.Format(time.RFC3339)})
	if err != nil {
		return
	}
	if _, err := conn.Do("SETEX", key, int(c.ttl.Seconds()), data); err != nil {
		logs.GetLogger().Warnf("rate cache store failed, key: %s, error: %v", key, err)
	}
}
