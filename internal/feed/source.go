package feed

import (
	"context"
	"time"

	"github.com/sawpanic/smartflow/internal/domain"
)

// Config bundles the full feed settings.
type Config struct {
	WSURL            string     `yaml:"ws_url"`
	WSDepthLevel     int        `yaml:"ws_depth_level"`
	WSBackoffSeconds []int      `yaml:"ws_reconnect_backoff_seconds"`
	REST             RESTConfig `yaml:"rest"`
	TradesCap        int        `yaml:"trades_cap"`
}

// DefaultConfig targets the BingX perpetual-swap endpoints.
func DefaultConfig() Config {
	return Config{
		WSURL:            "wss://open-api-swap.bingx.com/swap-market",
		WSDepthLevel:     20,
		WSBackoffSeconds: []int{1, 2, 5, 15, 30},
		REST:             DefaultRESTConfig(),
		TradesCap:        defaultTradesCap,
	}
}

// Source combines the REST candle client with websocket-fed book and trade
// state. It satisfies the pipeline's DataSource.
type Source struct {
	cfg     Config
	candles *CandleClient
	book    *BookState
	trades  *TradesBuffer

	depthSub *Subscriber
	tradeSub *Subscriber
}

// NewSource wires the client, state and subscribers. onReconnect receives
// the stream name on every reconnect; it may be nil.
func NewSource(cfg Config, onReconnect func(stream string)) *Source {
	if cfg.WSURL == "" {
		cfg = DefaultConfig()
	}
	if cfg.WSDepthLevel == 0 {
		cfg.WSDepthLevel = DefaultConfig().WSDepthLevel
	}
	s := &Source{
		cfg:     cfg,
		candles: NewCandleClient(cfg.REST),
		book:    NewBookState(),
		trades:  NewTradesBuffer(cfg.TradesCap),
	}
	hook := func(stream string) func() {
		if onReconnect == nil {
			return nil
		}
		return func() { onReconnect(stream) }
	}
	symbol := cfg.REST.Symbol
	s.depthSub = NewSubscriber("depth", cfg.WSURL, depthSubscription(symbol, cfg.WSDepthLevel),
		depthHandler(s.book), hook("depth"))
	s.tradeSub = NewSubscriber("trades", cfg.WSURL, tradeSubscription(symbol),
		tradeHandler(s.trades), hook("trades"))
	if steps := backoffFromSeconds(cfg.WSBackoffSeconds); steps != nil {
		s.depthSub.SetBackoff(steps)
		s.tradeSub.SetBackoff(steps)
	}
	return s
}

func backoffFromSeconds(seconds []int) []time.Duration {
	if len(seconds) == 0 {
		return nil
	}
	steps := make([]time.Duration, len(seconds))
	for i, sec := range seconds {
		steps[i] = time.Duration(sec) * time.Second
	}
	return steps
}

// Start launches both websocket subscribers. They stop with the context.
func (s *Source) Start(ctx context.Context) {
	go s.depthSub.Run(ctx)
	go s.tradeSub.Run(ctx)
}

// Candles fetches OHLCV over REST.
func (s *Source) Candles(ctx context.Context, timeframe string, limit int) ([]domain.Candle, error) {
	return s.candles.Candles(ctx, timeframe, limit)
}

// OrderBook returns the latest websocket book snapshot. Nil before the first
// depth frame; the quality validator scores that as a missing feed.
func (s *Source) OrderBook(context.Context) (*domain.OrderBook, error) {
	return s.book.Snapshot(), nil
}

// Trades returns the buffered recent trades.
func (s *Source) Trades(context.Context) ([]domain.Trade, error) {
	return s.trades.Snapshot(), nil
}
