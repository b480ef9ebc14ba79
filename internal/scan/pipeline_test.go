package scan

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/chartcache"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/indicators"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// special series lengths understood by fakeIndicators
const (
	barsComputationError = 130
	barsPanic            = 131
	barsInsufficient     = 132
)

type fakeMarket struct {
	mu           sync.Mutex
	quotes       map[string]*contracts.Quote
	bars         map[string]int
	historyCalls map[string]int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		quotes:       map[string]*contracts.Quote{},
		bars:         map[string]int{},
		historyCalls: map[string]int{},
	}
}

// add registers a symbol with volume ratio and change; bars < 120 simulates short history
func (m *fakeMarket) add(code string, change float64, volumeRatio float64, bars int) contracts.Symbol {
	sym := contracts.Symbol{Code: code, Name: "종목" + code}
	m.quotes[code] = &contracts.Quote{
		Symbol:    sym,
		Price:     102,
		ChangePct: change,
		Volume:    int64(volumeRatio * 100),
		AvgVolume: 100,
		PER:       12,
		PBR:       1.2,
	}
	m.bars[code] = bars
	return sym
}

func (m *fakeMarket) FetchQuote(_ context.Context, sym contracts.Symbol) *contracts.Quote {
	q, ok := m.quotes[sym.Code]
	if !ok {
		return nil
	}
	cp := *q
	return &cp
}

func (m *fakeMarket) FetchHistory(_ context.Context, code string) contracts.CandleSeries {
	m.mu.Lock()
	m.historyCalls[code]++
	m.mu.Unlock()
	return makeSeries(m.bars[code])
}

func makeSeries(n int) contracts.CandleSeries {
	series := make(contracts.CandleSeries, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, contracts.KST)
	for i := range series {
		c := float64(100 + i)
		series[i] = contracts.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

// fakeIndicators returns the Scenario A/B snapshot and fails on marker lengths
type fakeIndicators struct{}

func (fakeIndicators) Compute(series contracts.CandleSeries) (*contracts.IndicatorSet, error) {
	switch len(series) {
	case barsComputationError:
		return nil, fmt.Errorf("%w: rsi is NaN", indicators.ErrComputation)
	case barsPanic:
		panic("index out of range")
	case barsInsufficient:
		return nil, fmt.Errorf("%w: forced", indicators.ErrInsufficientData)
	}
	return &contracts.IndicatorSet{
		MA20:       100,
		MA60:       95,
		MA120:      90,
		RSI:        50,
		MACD:       contracts.MACD{MACD: 1, Signal: 0.5, Histogram: 0.2},
		Stochastic: contracts.Stochastic{K: 60, D: 50},
		Bollinger:  contracts.Bollinger{Upper: 110, Middle: 100, Lower: 90},
	}, nil
}

type recordingSleeper struct {
	waits  []time.Duration
	cancel context.CancelFunc // called on the first wait when set
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	if s.cancel != nil {
		s.cancel()
		return ctx.Err()
	}
	return nil
}

type progressLog struct {
	events []contracts.Progress
}

func (l *progressLog) add(p contracts.Progress) { l.events = append(l.events, p) }

func (l *progressLog) records() []contracts.Progress {
	var out []contracts.Progress
	for _, e := range l.events {
		if e.State == contracts.StateRecord {
			out = append(out, e)
		}
	}
	return out
}

var fixedNow = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func newTestPipeline(market contracts.MarketData, store kvstore.Store, sleeper Sleeper) *Pipeline {
	log := logger.NewNop()
	cfg := Config{MinScore: 95, EarlyRejectDelay: 500 * time.Millisecond, StandardDelay: time.Second}
	return NewPipeline(market, chartcache.New(store, log), fakeIndicators{}, cfg, log,
		WithSleeper(sleeper),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func TestRun_InsufficientHistory(t *testing.T) {
	market := newFakeMarket()
	short := market.add("000001", 5, 2, 80)
	next := market.add("000002", 5, 2, 150)

	sleeper := &recordingSleeper{}
	progress := &progressLog{}
	report := newTestPipeline(market, kvstore.NewMemory(), sleeper).
		Run(context.Background(), []contracts.Symbol{short, next}, progress.add)

	require.Len(t, report.Rejections, 1)
	assert.Equal(t, contracts.RejectInsufficientHistory, report.Rejections[0].Reason)
	assert.Equal(t, short, report.Rejections[0].Symbol)
	assert.Equal(t, "80 bars", report.Rejections[0].Detail)

	// 1000ms after the rejection and after the accepted symbol
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeper.waits)
	require.Len(t, report.Accepted, 1)
	assert.Equal(t, "000002", report.Accepted[0].Code())

	records := progress.records()
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Processed)
	assert.Equal(t, short, records[0].Symbol)
	assert.Equal(t, 2, records[1].Processed)
	assert.True(t, records[1].Done())
	assert.Equal(t, 2, report.Processed)
}

func TestRun_ScenarioAB(t *testing.T) {
	market := newFakeMarket()
	a := market.add("000001", 3, 2, 150) // 94
	b := market.add("000002", 5, 2, 150) // 97

	report := newTestPipeline(market, kvstore.NewMemory(), &recordingSleeper{}).
		Run(context.Background(), []contracts.Symbol{a, b}, nil)

	require.Len(t, report.Rejections, 1)
	assert.Equal(t, contracts.RejectLowScore, report.Rejections[0].Reason)
	assert.Equal(t, "score 94", report.Rejections[0].Detail)

	require.Len(t, report.Accepted, 1)
	res := report.Accepted[0]
	assert.Equal(t, 97, res.Score)
	assert.Equal(t, contracts.PriorityHigh, res.Priority)
	assert.Equal(t, contracts.StrategySwing, res.Strategy)
	assert.Equal(t, 1, res.Seq)
	assert.Equal(t, int64(97), res.StopLoss)
}

func TestRun_RejectionReasonsAndWaits(t *testing.T) {
	market := newFakeMarket()
	noQuote := contracts.Symbol{Code: "000009", Name: "없음"}
	compErr := market.add("000001", 5, 2, barsComputationError)
	panicky := market.add("000002", 5, 2, barsPanic)
	insufficient := market.add("000003", 5, 2, barsInsufficient)
	ok := market.add("000004", 5, 2, 150)

	sleeper := &recordingSleeper{}
	universe := []contracts.Symbol{noQuote, compErr, panicky, insufficient, ok}
	report := newTestPipeline(market, kvstore.NewMemory(), sleeper).
		Run(context.Background(), universe, nil)

	reasons := map[string]contracts.RejectReason{}
	for _, r := range report.Rejections {
		reasons[r.Symbol.Code] = r.Reason
	}
	assert.Equal(t, map[string]contracts.RejectReason{
		"000009": contracts.RejectNoQuote,
		"000001": contracts.RejectAnalysisError,
		"000002": contracts.RejectAnalysisError,
		"000003": contracts.RejectIndicatorFailure,
	}, reasons)
	require.Len(t, report.Accepted, 1)

	// every symbol, the last included, is followed by its wait
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
		time.Second,
		time.Second,
	}, sleeper.waits)
	assert.Equal(t, len(universe), report.Processed)
	assert.False(t, report.Cancelled)
}

func TestRun_ProgressMonotonic(t *testing.T) {
	market := newFakeMarket()
	var universe []contracts.Symbol
	for i := 0; i < 6; i++ {
		bars := 150
		if i%3 == 1 {
			bars = 10
		}
		universe = append(universe, market.add(fmt.Sprintf("%06d", i+1), float64(i), 2, bars))
	}
	universe = append(universe, contracts.Symbol{Code: "999999", Name: "없음"})

	progress := &progressLog{}
	report := newTestPipeline(market, kvstore.NewMemory(), &recordingSleeper{}).
		Run(context.Background(), universe, progress.add)

	last := 0
	for _, e := range progress.events {
		assert.GreaterOrEqual(t, e.Processed, last)
		assert.LessOrEqual(t, e.Processed-last, 1)
		last = e.Processed
		assert.Equal(t, len(universe), e.Total)
		assert.Equal(t, report.RunID, e.RunID)
		if e.State == contracts.StateRecord {
			require.NotNil(t, e.Outcome)
		} else {
			assert.Nil(t, e.Outcome)
		}
	}
	assert.Len(t, progress.records(), len(universe))
	assert.Equal(t, len(universe), last)
}

func TestRun_StateOrder(t *testing.T) {
	market := newFakeMarket()
	sym := market.add("000001", 5, 2, 150)

	progress := &progressLog{}
	newTestPipeline(market, kvstore.NewMemory(), &recordingSleeper{}).
		Run(context.Background(), []contracts.Symbol{sym}, progress.add)

	var states []contracts.ScanState
	for _, e := range progress.events {
		states = append(states, e.State)
	}
	assert.Equal(t, contracts.AllScanStates(), states)
}

func TestRun_AcceptedScoresInRangeAndSorted(t *testing.T) {
	market := newFakeMarket()
	universe := []contracts.Symbol{
		market.add("000001", 5, 2, 150), // 97
		market.add("000002", 5, 3, 150), // 100
		market.add("000003", 3, 2, 150), // 94
		market.add("000004", 5, 2, 150), // 97
		market.add("000005", 5, 3, 150), // 100
	}

	report := newTestPipeline(market, kvstore.NewMemory(), &recordingSleeper{}).
		Run(context.Background(), universe, nil)

	var codes []string
	for _, r := range report.Accepted {
		assert.GreaterOrEqual(t, r.Score, 95)
		assert.LessOrEqual(t, r.Score, 100)
		codes = append(codes, r.Code())
	}
	assert.Equal(t, []string{"000002", "000005", "000001", "000004"}, codes)
}

func TestRun_HistoryCachedPerDay(t *testing.T) {
	market := newFakeMarket()
	sym := market.add("000001", 5, 2, 150)
	short := market.add("000002", 5, 2, 80)
	store := kvstore.NewMemory()

	p := newTestPipeline(market, store, &recordingSleeper{})
	p.Run(context.Background(), []contracts.Symbol{sym, short}, nil)
	p.Run(context.Background(), []contracts.Symbol{sym, short}, nil)

	assert.Equal(t, 1, market.historyCalls["000001"])
	// short series are never cached
	assert.Equal(t, 2, market.historyCalls["000002"])

	_, ok := chartcache.New(store, logger.NewNop()).Get(context.Background(), "000001", "20240620")
	assert.True(t, ok)
}

func TestRun_CancelledBetweenSymbols(t *testing.T) {
	market := newFakeMarket()
	universe := []contracts.Symbol{
		market.add("000001", 5, 2, 150),
		market.add("000002", 5, 3, 150),
		market.add("000003", 5, 3, 150),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	report := newTestPipeline(market, kvstore.NewMemory(), &recordingSleeper{cancel: cancel}).
		Run(ctx, universe, nil)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Accepted, 1)
	assert.Equal(t, "000001", report.Accepted[0].Code())
}

func TestRun_CancelDuringFinalWaitCompletes(t *testing.T) {
	market := newFakeMarket()
	only := market.add("000001", 5, 2, 150)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeper := &recordingSleeper{cancel: cancel}
	report := newTestPipeline(market, kvstore.NewMemory(), sleeper).
		Run(ctx, []contracts.Symbol{only}, nil)

	assert.Equal(t, []time.Duration{time.Second}, sleeper.waits)
	assert.False(t, report.Cancelled)
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Accepted, 1)
}

func TestRun_AlreadyCancelled(t *testing.T) {
	market := newFakeMarket()
	sym := market.add("000001", 5, 2, 150)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestPipeline(market, kvstore.NewMemory(), &recordingSleeper{}).
		Run(ctx, []contracts.Symbol{sym}, nil)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, report.Processed)
	assert.Empty(t, report.Accepted)
	assert.NotNil(t, report.Accepted)
}

func TestRun_EmptyUniverse(t *testing.T) {
	report := newTestPipeline(newFakeMarket(), kvstore.NewMemory(), &recordingSleeper{}).
		Run(context.Background(), nil, nil)

	assert.Equal(t, 0, report.UniverseSize)
	assert.Empty(t, report.Accepted)
	assert.Empty(t, report.Rejections)
	assert.Equal(t, "20240620", report.TradingDay)
	assert.NotEmpty(t, report.RunID)
}

func TestRun_ProgressCallbackPanicIsContained(t *testing.T) {
	market := newFakeMarket()
	sym := market.add("000001", 5, 2, 150)

	report := newTestPipeline(market, kvstore.NewMemory(), &recordingSleeper{}).
		Run(context.Background(), []contracts.Symbol{sym}, func(contracts.Progress) { panic("ui gone") })

	require.Len(t, report.Accepted, 1)
}

func TestTimerSleeper(t *testing.T) {
	assert.NoError(t, TimerSleeper{}.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, TimerSleeper{}.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, TimerSleeper{}.Sleep(ctx, 0), context.Canceled)
}
