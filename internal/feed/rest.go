package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/smartflow/internal/domain"
)

// RESTConfig holds the candle poller settings.
type RESTConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Symbol         string  `yaml:"symbol"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
}

// DefaultRESTConfig targets the BingX swap quote API.
func DefaultRESTConfig() RESTConfig {
	return RESTConfig{
		BaseURL:        "https://open-api.bingx.com",
		Symbol:         "BTC-USDT",
		TimeoutSeconds: 10,
		RatePerSecond:  5,
		Burst:          5,
	}
}

// CandleClient fetches OHLCV windows over REST, guarded by a rate limiter
// and a circuit breaker.
type CandleClient struct {
	cfg     RESTConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewCandleClient builds a client; a zero config selects defaults.
func NewCandleClient(cfg RESTConfig) *CandleClient {
	if cfg.BaseURL == "" {
		cfg = DefaultRESTConfig()
	}
	st := gobreaker.Settings{Name: "candles"}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	return &CandleClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds * float64(time.Second))},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

type klineEntry struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Volume string `json:"volume"`
	Time   int64  `json:"time"`
}

type klineResponse struct {
	Code int          `json:"code"`
	Msg  string       `json:"msg"`
	Data []klineEntry `json:"data"`
}

// Candles fetches up to limit candles for the interval, oldest first.
func (c *CandleClient) Candles(ctx context.Context, interval string, limit int) ([]domain.Candle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	out, err := c.breaker.Execute(func() (any, error) {
		return c.fetch(ctx, interval, limit)
	})
	if err != nil {
		return nil, err
	}
	return out.([]domain.Candle), nil
}

func (c *CandleClient) fetch(ctx context.Context, interval string, limit int) ([]domain.Candle, error) {
	q := url.Values{}
	q.Set("symbol", c.cfg.Symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.cfg.BaseURL + "/openApi/swap/v3/quote/klines?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build klines request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("klines request: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read klines response: %w", err)
	}
	return parseKlines(body)
}

// parseKlines decodes the BingX payload into candles sorted oldest first.
func parseKlines(body []byte) ([]domain.Candle, error) {
	var kr klineResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("decode klines response: %w", err)
	}
	if kr.Code != 0 {
		return nil, fmt.Errorf("klines api error %d: %s", kr.Code, kr.Msg)
	}
	out := make([]domain.Candle, 0, len(kr.Data))
	for _, k := range kr.Data {
		c, err := k.toCandle()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (k klineEntry) toCandle() (domain.Candle, error) {
	var c domain.Candle
	var err error
	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, fmt.Errorf("parse kline open %q: %w", k.Open, err)
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, fmt.Errorf("parse kline high %q: %w", k.High, err)
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, fmt.Errorf("parse kline low %q: %w", k.Low, err)
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, fmt.Errorf("parse kline close %q: %w", k.Close, err)
	}
	if c.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return c, fmt.Errorf("parse kline volume %q: %w", k.Volume, err)
	}
	c.Timestamp = k.Time
	return c, nil
}
