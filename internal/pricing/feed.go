package pricing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
)

// FeedClient talks to the token price feed service. One GET per symbol; rate
// limiting is the feed's responsibility, not ours.
type FeedClient struct {
	serverUrl string
	client    *http.Client
}

func NewFeedClient(serverUrl string) *FeedClient {
	return &FeedClient{
		serverUrl: serverUrl,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type feedResponse struct {
	Symbol    string  `json:"symbol"`
	UsdPrice  float64 `json:"usd_price"`
	UpdatedAt string  `json:"updated_at"`
}

func (f *FeedClient) TokenRate(symbol string) (float64, time.Time, error) {
	rateUrl := fmt.Sprintf("%s/rates?symbol=%s", f.serverUrl, url.QueryEscape(symbol))
	resp, err := f.client.Get(rateUrl)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed request token rate, symbol: %s, error: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, time.Time{}, fmt.Errorf("token rate request returned status %d, symbol: %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed read token rate response, error: %w", err)
	}

	var rate feedResponse
	if err := json.Unmarshal(body, &rate); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed parse token rate response, error: %w", err)
	}

	at, err := time.Parse(time.RFC3339, rate.UpdatedAt)
	if err != nil {
		logs.GetLogger().Warnf("token rate missing updated_at, symbol: %s, treating as fresh", symbol)
		at = time.Now()
	}
	return rate.UsdPrice, at, nil
}
