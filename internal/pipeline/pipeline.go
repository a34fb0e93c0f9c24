// Package pipeline composes the engines into the per-tick analysis flow:
// fetch, validate, analyze, decide, alert.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/smartflow/internal/alerts"
	"github.com/sawpanic/smartflow/internal/behavior"
	"github.com/sawpanic/smartflow/internal/decision"
	"github.com/sawpanic/smartflow/internal/domain"
	"github.com/sawpanic/smartflow/internal/liquidity"
	"github.com/sawpanic/smartflow/internal/metrics"
	"github.com/sawpanic/smartflow/internal/quality"
	"github.com/sawpanic/smartflow/internal/structure"
	"github.com/sawpanic/smartflow/internal/svd"
	"github.com/sawpanic/smartflow/internal/technical"
	"github.com/sawpanic/smartflow/internal/trap"
)

// DataSource supplies the three market-data feeds for one instrument.
type DataSource interface {
	Candles(ctx context.Context, timeframe string, limit int) ([]domain.Candle, error)
	OrderBook(ctx context.Context) (*domain.OrderBook, error)
	Trades(ctx context.Context) ([]domain.Trade, error)
}

// Config holds the tick composition parameters.
type Config struct {
	Symbol         string `yaml:"symbol"`
	Timeframe      string `yaml:"timeframe"`
	HTF1           string `yaml:"htf1"`
	HTF2           string `yaml:"htf2"`
	CandleLimit    int    `yaml:"candle_limit"`
	HTFCandleLimit int    `yaml:"htf_candle_limit"`
}

// DefaultConfig returns 1h base candles with 4h/1d higher timeframes.
func DefaultConfig() Config {
	return Config{
		Timeframe:      "1h",
		HTF1:           "4h",
		HTF2:           "1d",
		CandleLimit:    200,
		HTFCandleLimit: 100,
	}
}

// Result is everything one tick produced.
type Result struct {
	Signal    decision.Signal
	Alerts    []alerts.Alert
	Quality   quality.Report
	Structure structure.Snapshot
	Technical technical.Snapshot
	Liquidity liquidity.Snapshot
	SVD       svd.Snapshot
	Trap      trap.Report
	Behavior  behavior.Report
	HTF       *decision.HTFContext
	Took      time.Duration
}

// Pipeline owns the engines and the stateful trackers between ticks. RunTick
// is single-threaded by contract; the supervisor never overlaps runs.
type Pipeline struct {
	cfg       Config
	source    DataSource
	validator *quality.Validator
	technical *technical.Engine
	structure *structure.Engine
	phases    *structure.PhaseAnalyzer
	liquidity *liquidity.Engine
	svd       *svd.Engine
	traps     *trap.Engine
	behavior  *behavior.Engine
	decision  *decision.Engine
	alerts    *alerts.Manager
	metrics   *metrics.Registry
	health    *Health

	mu   sync.Mutex
	last *Result
}

// Options bundles the per-engine configs for New.
type Options struct {
	Pipeline  Config
	Quality   quality.Config
	Technical technical.Config
	Structure structure.Config
	Liquidity liquidity.Config
	Trap      trap.Config
	Decision  decision.Config
	Alerts    alerts.Config
}

// New wires the engines. metrics may be nil.
func New(opts Options, source DataSource, reg *metrics.Registry) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: data source is required", ErrConfig)
	}
	cfg := opts.Pipeline
	if cfg.Timeframe == "" {
		cfg = DefaultConfig()
	}
	if timeframeHours(cfg.Timeframe) == 0 {
		return nil, fmt.Errorf("%w: unknown timeframe %q", ErrConfig, cfg.Timeframe)
	}
	traps := trap.NewEngine(opts.Trap)
	return &Pipeline{
		cfg:       cfg,
		source:    source,
		validator: quality.NewValidator(opts.Quality),
		technical: technical.NewEngine(opts.Technical),
		structure: structure.NewEngine(opts.Structure),
		phases:    structure.NewPhaseAnalyzer(),
		liquidity: liquidity.NewEngine(opts.Liquidity),
		svd:       svd.NewEngine(),
		traps:     traps,
		behavior:  behavior.NewEngine(),
		decision:  decision.NewEngine(opts.Decision, traps),
		alerts:    alerts.NewManager(opts.Alerts),
		metrics:   reg,
		health:    NewHealth(),
	}, nil
}

// Health exposes the counters for /health.
func (p *Pipeline) Health() HealthReport { return p.health.Report() }

// Alerts exposes the alert history for /alerts.
func (p *Pipeline) Alerts() []alerts.Alert { return p.alerts.History() }

// Last returns the most recent completed tick, if any.
func (p *Pipeline) Last() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return Result{}, false
	}
	return *p.last, true
}

// RunTick executes one full analysis pass.
func (p *Pipeline) RunTick(ctx context.Context) (Result, error) {
	start := time.Now()
	now := start
	var timer *metrics.TickTimer
	if p.metrics != nil {
		timer = p.metrics.StartTick()
		defer timer.Stop()
	}

	candles, err := p.source.Candles(ctx, p.cfg.Timeframe, p.cfg.CandleLimit)
	if err != nil {
		return p.abort("candles", fmt.Errorf("fetch %s candles: %w: %v", p.cfg.Timeframe, ErrDataUnavailable, err))
	}
	book, err := p.source.OrderBook(ctx)
	if err != nil {
		return p.abort("orderbook", fmt.Errorf("fetch order book: %w: %v", ErrDataUnavailable, err))
	}
	trades, err := p.source.Trades(ctx)
	if err != nil {
		return p.abort("trades", fmt.Errorf("fetch trades: %w: %v", ErrDataUnavailable, err))
	}

	res := Result{}
	res.Quality = p.validator.ValidateAll(candles, book, trades, now)
	if p.metrics != nil {
		p.metrics.DataQuality.Set(res.Quality.Overall)
	}
	if !res.Quality.Pass {
		return res, p.abortErr("low_quality",
			fmt.Errorf("overall score %.2f: %w", res.Quality.Overall, ErrLowQuality))
	}

	res.Technical = p.technical.Analyze(candles)
	res.Structure = p.structure.Analyze(candles)
	res.HTF = p.analyzeHTF(ctx)
	res.Liquidity = p.liquidity.Analyze(candles, res.Structure, now)
	res.SVD = p.svd.Analyze(trades, book, res.Technical.ATRPct, now)
	res.Trap = p.traps.Analyze(res.SVD, res.Liquidity)
	res.Behavior = p.behavior.Analyze(res.SVD, res.Trap)

	price := candles[len(candles)-1].Close
	res.Signal = p.decision.Decide(decision.Inputs{
		Price:     price,
		Structure: res.Structure,
		Technical: res.Technical,
		Liquidity: res.Liquidity,
		SVD:       res.SVD,
		Trap:      res.Trap,
		Behavior:  res.Behavior,
		Quality:   res.Quality,
		HTF:       res.HTF,
		Tracker:   p.liquidity.Tracker(),
		Now:       now,
	})
	res.Alerts = p.alerts.Process(res.Signal, res.SVD, now)
	res.Took = time.Since(start)

	if p.metrics != nil {
		p.metrics.Signals.WithLabelValues(string(res.Signal.Direction)).Inc()
		p.metrics.Confidence.Set(res.Signal.Confidence)
		for _, a := range res.Alerts {
			p.metrics.Alerts.WithLabelValues(string(a.Type)).Inc()
		}
	}
	p.health.RecordTick(res.Signal.Direction, res.Took, res.Quality.Overall, len(res.Alerts))

	p.mu.Lock()
	p.last = &res
	p.mu.Unlock()

	log.Info().
		Str("symbol", p.cfg.Symbol).
		Str("direction", string(res.Signal.Direction)).
		Float64("confidence", res.Signal.Confidence).
		Float64("price", price).
		Dur("took", res.Took).
		Msg("tick completed")
	return res, nil
}

// analyzeHTF fetches and analyzes both higher timeframes. Failures degrade
// the tick instead of aborting it.
func (p *Pipeline) analyzeHTF(ctx context.Context) *decision.HTFContext {
	htf1, err1 := p.source.Candles(ctx, p.cfg.HTF1, p.cfg.HTFCandleLimit)
	htf2, err2 := p.source.Candles(ctx, p.cfg.HTF2, p.cfg.HTFCandleLimit)
	if err1 != nil || err2 != nil || len(htf1) == 0 || len(htf2) == 0 {
		log.Warn().
			AnErr("htf1", err1).
			AnErr("htf2", err2).
			Msg("higher timeframe data unavailable, tick degrades to local view")
		return nil
	}
	htfCtx := &decision.HTFContext{
		HTF1:    p.structure.Analyze(htf1),
		HTF2:    p.structure.Analyze(htf2),
		Phases1: p.phases.Analyze(htf1, timeframeHours(p.cfg.HTF1)),
		Phases2: p.phases.Analyze(htf2, timeframeHours(p.cfg.HTF2)),
	}
	htfCtx.Bias = structure.CombineHTF(htfCtx.HTF1, htfCtx.HTF2, htfCtx.Phases1, htfCtx.Phases2)
	return htfCtx
}

func (p *Pipeline) abort(reason string, err error) (Result, error) {
	return Result{}, p.abortErr(reason, err)
}

func (p *Pipeline) abortErr(reason string, err error) error {
	p.health.RecordAbort(err)
	if p.metrics != nil {
		p.metrics.TicksAborted.WithLabelValues(reason).Inc()
	}
	log.Warn().Str("reason", reason).Err(err).Msg("tick aborted")
	return err
}

// timeframeHours maps exchange interval strings to hours. Zero means the
// interval is unknown.
func timeframeHours(tf string) float64 {
	switch tf {
	case "1m":
		return 1.0 / 60
	case "5m":
		return 5.0 / 60
	case "15m":
		return 0.25
	case "30m":
		return 0.5
	case "1h":
		return 1
	case "2h":
		return 2
	case "4h":
		return 4
	case "6h":
		return 6
	case "12h":
		return 12
	case "1d":
		return 24
	}
	return 0
}
