// Package scan runs the sequential per-symbol screening loop.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-screener/internal/allocation"
	"github.com/wonny/aegis-screener/internal/chartcache"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/indicators"
	"github.com/wonny/aegis-screener/internal/scanprofile"
	"github.com/wonny/aegis-screener/internal/scoring"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Config holds the acceptance threshold and inter-symbol waits
type Config struct {
	MinScore         int
	EarlyRejectDelay time.Duration
	StandardDelay    time.Duration
}

// ConfigFromProfile extracts the pipeline settings of a scan profile
func ConfigFromProfile(p *scanprofile.Profile) Config {
	return Config{
		MinScore:         p.MinScore,
		EarlyRejectDelay: p.Delays.EarlyReject,
		StandardDelay:    p.Delays.Standard,
	}
}

// IndicatorComputer derives the indicator snapshot of a series
type IndicatorComputer interface {
	Compute(series contracts.CandleSeries) (*contracts.IndicatorSet, error)
}

// Pipeline scans a universe one symbol at a time
// ⭐ SSOT: 종목별 상태 전이는 여기서만 (FetchQuote → ... → Record)
type Pipeline struct {
	market  contracts.MarketData
	cache   *chartcache.Cache
	engine  IndicatorComputer
	cfg     Config
	sleeper Sleeper
	logger  *logger.Logger
	now     func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSleeper replaces the timer-based wait
func WithSleeper(s Sleeper) Option {
	return func(p *Pipeline) { p.sleeper = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a scan pipeline
func NewPipeline(market contracts.MarketData, cache *chartcache.Cache, engine IndicatorComputer, cfg Config, log *logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		market:  market,
		cache:   cache,
		engine:  engine,
		cfg:     cfg,
		sleeper: TimerSleeper{},
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ IndicatorComputer = (*indicators.Engine)(nil)

// run carries the per-run state shared by every symbol
type run struct {
	id        string
	day       string
	total     int
	processed int
	emit      contracts.ProgressFunc
}

// Run scans universe in order. Cancellation is honoured between symbols only;
// a cancelled run returns the partial report with Cancelled set.
func (p *Pipeline) Run(ctx context.Context, universe []contracts.Symbol, onProgress contracts.ProgressFunc) *contracts.ScanReport {
	started := p.now()
	r := &run{
		id:    uuid.NewString(),
		day:   contracts.TradingDay(started),
		total: len(universe),
		emit:  onProgress,
	}

	report := &contracts.ScanReport{
		RunID:        r.id,
		TradingDay:   r.day,
		StartedAt:    started,
		UniverseSize: len(universe),
		Accepted:     []*contracts.ScoreResult{},
		Rejections:   []*contracts.Rejection{},
	}

	log := p.logger.WithRun(r.id).WithFields(map[string]interface{}{
		"universe": len(universe),
		"day":      r.day,
	})
	log.Info("Scan started")

	for seq, sym := range universe {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		outcome := p.processSymbol(ctx, r, seq, sym)
		if outcome.IsAccepted() {
			report.Accepted = append(report.Accepted, outcome.Accepted)
		} else {
			report.Rejections = append(report.Rejections, outcome.Rejected)
		}

		if err := p.sleeper.Sleep(ctx, p.delayAfter(outcome)); err != nil {
			// 마지막 종목 뒤의 대기 중 취소는 완료로 본다
			report.Cancelled = seq < len(universe)-1
			break
		}
	}

	allocation.SortResults(report.Accepted)
	report.Processed = r.processed
	report.FinishedAt = p.now()

	log.WithFields(map[string]interface{}{
		"processed": report.Processed,
		"accepted":  len(report.Accepted),
		"rejected":  len(report.Rejections),
		"cancelled": report.Cancelled,
		"duration":  report.Duration().String(),
	}).Info("Scan finished")

	return report
}

// processSymbol walks one symbol through every state and records exactly one outcome
func (p *Pipeline) processSymbol(ctx context.Context, r *run, seq int, sym contracts.Symbol) (outcome contracts.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.WithSymbol(sym.Code, sym.Name).WithField("panic", rec).Error("Symbol analysis panicked")
			outcome = contracts.Reject(seq, sym, contracts.RejectAnalysisError, fmt.Sprint(rec))
		}
		p.record(r, sym, outcome)
	}()

	outcome, err := p.analyze(ctx, r, seq, sym)
	if err != nil {
		p.logger.WithSymbol(sym.Code, sym.Name).WithError(err).Warn("Symbol analysis failed")
		outcome = contracts.Reject(seq, sym, contracts.RejectAnalysisError, err.Error())
	}
	return outcome
}

// analyze runs FetchQuote → Classify. A non-nil error is an unexpected failure.
func (p *Pipeline) analyze(ctx context.Context, r *run, seq int, sym contracts.Symbol) (contracts.Outcome, error) {
	p.transition(r, sym, contracts.StateFetchQuote)
	quote := p.market.FetchQuote(ctx, sym)
	if quote == nil {
		return contracts.Reject(seq, sym, contracts.RejectNoQuote, ""), nil
	}

	p.transition(r, sym, contracts.StateFetchHistory)
	series := p.history(ctx, r.day, sym.Code)
	if !series.Valid() {
		detail := fmt.Sprintf("%d bars", len(series))
		return contracts.Reject(seq, sym, contracts.RejectInsufficientHistory, detail), nil
	}

	p.transition(r, sym, contracts.StateComputeIndicators)
	ind, err := p.engine.Compute(series)
	if errors.Is(err, indicators.ErrInsufficientData) {
		return contracts.Reject(seq, sym, contracts.RejectIndicatorFailure, err.Error()), nil
	}
	if err != nil {
		return contracts.Outcome{}, fmt.Errorf("compute indicators: %w", err)
	}

	p.transition(r, sym, contracts.StateScore)
	score, signals := scoring.Score(quote, ind)
	if score < p.cfg.MinScore {
		detail := fmt.Sprintf("score %d", score)
		return contracts.Reject(seq, sym, contracts.RejectLowScore, detail), nil
	}

	p.transition(r, sym, contracts.StateClassify)
	strategy := scoring.Classify(quote, ind)

	return contracts.Accept(scoring.BuildResult(seq, quote, ind, score, signals, strategy)), nil
}

// history reads the same-day cache first and fills it on a valid fetch
func (p *Pipeline) history(ctx context.Context, day, code string) contracts.CandleSeries {
	if series, ok := p.cache.Get(ctx, code, day); ok {
		return series
	}

	series := p.market.FetchHistory(ctx, code)
	if series.Valid() {
		p.cache.Put(ctx, code, day, series)
	}
	return series
}

func (p *Pipeline) transition(r *run, sym contracts.Symbol, state contracts.ScanState) {
	p.publish(r, contracts.Progress{
		RunID:     r.id,
		Symbol:    sym,
		State:     state,
		Processed: r.processed,
		Total:     r.total,
		Timestamp: p.now(),
	})
}

func (p *Pipeline) record(r *run, sym contracts.Symbol, outcome contracts.Outcome) {
	r.processed++

	log := p.logger.WithSymbol(sym.Code, sym.Name).WithField("processed", r.processed)
	if outcome.IsAccepted() {
		log.WithFields(map[string]interface{}{
			"score":    outcome.Accepted.Score,
			"strategy": outcome.Accepted.Strategy,
		}).Info("Symbol accepted")
	} else {
		log.WithField("reason", outcome.Rejected.Reason).Debug("Symbol rejected")
	}

	o := outcome
	p.publish(r, contracts.Progress{
		RunID:     r.id,
		Symbol:    sym,
		State:     contracts.StateRecord,
		Processed: r.processed,
		Total:     r.total,
		Outcome:   &o,
		Timestamp: p.now(),
	})
}

// publish isolates the scan from a misbehaving progress callback
func (p *Pipeline) publish(r *run, ev contracts.Progress) {
	if r.emit == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.WithField("panic", rec).Warn("Progress callback panicked")
		}
	}()
	r.emit(ev)
}

func (p *Pipeline) delayAfter(outcome contracts.Outcome) time.Duration {
	if outcome.Rejected != nil && outcome.Rejected.Reason.IsEarly() {
		return p.cfg.EarlyRejectDelay
	}
	return p.cfg.StandardDelay
}
