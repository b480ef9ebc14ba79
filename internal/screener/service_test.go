package screener

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/allocation"
	"github.com/wonny/aegis-screener/internal/chartcache"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/scan"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

var fixedNow = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

type staticUniverse []contracts.Symbol

func (u staticUniverse) Universe(context.Context) []contracts.Symbol { return u }

// fakeMarket quotes every symbol at 102 with a +5% change; gate blocks FetchQuote when set
type fakeMarket struct {
	gate chan struct{}
}

func (m *fakeMarket) FetchQuote(ctx context.Context, sym contracts.Symbol) *contracts.Quote {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil
		}
	}
	return &contracts.Quote{Symbol: sym, Price: 102, ChangePct: 5, Volume: 200, AvgVolume: 100}
}

func (m *fakeMarket) FetchHistory(context.Context, string) contracts.CandleSeries {
	series := make(contracts.CandleSeries, 150)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, contracts.KST)
	for i := range series {
		series[i] = contracts.PricePoint{Date: start.AddDate(0, 0, i), Close: 100, High: 101, Low: 99}
	}
	return series
}

// scenarioIndicators always yields a 97-point swing setup at price 102
type scenarioIndicators struct{}

func (scenarioIndicators) Compute(contracts.CandleSeries) (*contracts.IndicatorSet, error) {
	return &contracts.IndicatorSet{
		MA20: 100, MA60: 95, MA120: 90, RSI: 50,
		MACD:       contracts.MACD{MACD: 1, Signal: 0.5, Histogram: 0.2},
		Stochastic: contracts.Stochastic{K: 60, D: 50},
		Bollinger:  contracts.Bollinger{Upper: 110, Middle: 100, Lower: 90},
	}, nil
}

type noSleep struct{}

func (noSleep) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestService(market contracts.MarketData, store kvstore.Store, symbols ...contracts.Symbol) *Service {
	log := logger.NewNop()
	pipeline := scan.NewPipeline(market, chartcache.New(store, log), scenarioIndicators{},
		scan.Config{MinScore: 95}, log,
		scan.WithSleeper(noSleep{}),
		scan.WithClock(func() time.Time { return fixedNow }),
	)
	svc := NewService(staticUniverse(symbols), pipeline, allocation.New(allocation.DefaultTopN), store, log)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func symbols(codes ...string) []contracts.Symbol {
	out := make([]contracts.Symbol, 0, len(codes))
	for _, c := range codes {
		out = append(out, contracts.Symbol{Code: c, Name: "종목" + c})
	}
	return out
}

func TestScan(t *testing.T) {
	svc := newTestService(&fakeMarket{}, kvstore.NewMemory(), symbols("000001", "000002", "000003")...)

	report, err := svc.Scan(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, report.UniverseSize)
	assert.Len(t, report.Accepted, 3)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Equal(t, report.RunID, st.LastRunID)
	assert.Equal(t, "20240620", st.LastDay)
	assert.Equal(t, 3, st.Accepted)
	require.NotNil(t, st.Progress)
	assert.Equal(t, contracts.StateRecord, st.Progress.State)
	assert.Equal(t, 3, st.Progress.Processed)

	last, err := svc.LastReport(context.Background())
	require.NoError(t, err)
	assert.Same(t, report, last)
}

func TestScan_Limit(t *testing.T) {
	svc := newTestService(&fakeMarket{}, kvstore.NewMemory(), symbols("000001", "000002", "000003")...)

	report, err := svc.Scan(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UniverseSize)
}

func TestLastReport_PersistedAcrossServices(t *testing.T) {
	store := kvstore.NewMemory()
	first := newTestService(&fakeMarket{}, store, symbols("000001")...)
	report, err := first.Scan(context.Background(), 0)
	require.NoError(t, err)

	_, found, err := store.Get(context.Background(), ReportKey("20240620"))
	require.NoError(t, err)
	assert.True(t, found)

	second := newTestService(&fakeMarket{}, store)
	loaded, err := second.LastReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	require.Len(t, loaded.Accepted, 1)
	assert.Equal(t, 97, loaded.Accepted[0].Score)
}

func TestLastReport_NoScan(t *testing.T) {
	svc := newTestService(&fakeMarket{}, kvstore.NewMemory())

	_, err := svc.LastReport(context.Background())
	assert.True(t, errors.Is(err, ErrNoScan))

	_, err = svc.Allocate(context.Background(), 50_000_000)
	assert.True(t, errors.Is(err, ErrNoScan))
}

func TestLastReport_StaleDayIgnored(t *testing.T) {
	svc := newTestService(&fakeMarket{}, kvstore.NewMemory(), symbols("000001")...)
	_, err := svc.Scan(context.Background(), 0)
	require.NoError(t, err)

	svc.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	_, err = svc.LastReport(context.Background())
	assert.True(t, errors.Is(err, ErrNoScan))
}

func TestAllocate(t *testing.T) {
	svc := newTestService(&fakeMarket{}, kvstore.NewMemory(), symbols("000001", "000002")...)
	_, err := svc.Scan(context.Background(), 0)
	require.NoError(t, err)

	allocations, err := svc.Allocate(context.Background(), 20_000_000)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	// two swing picks of 20M nominal each → half of the budget apiece
	for _, a := range allocations {
		assert.Equal(t, int64(10_000_000), a.Amount)
		assert.Equal(t, int64(98_039), a.Quantity)
	}

	_, err = svc.Allocate(context.Background(), -1)
	assert.True(t, errors.Is(err, allocation.ErrInvalidBudget))
}

func TestStart_RefusesConcurrentScan(t *testing.T) {
	market := &fakeMarket{gate: make(chan struct{})}
	svc := newTestService(market, kvstore.NewMemory(), symbols("000001")...)

	require.NoError(t, svc.Start(0))
	assert.True(t, svc.Status().Running)

	_, err := svc.Scan(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrScanInProgress))
	assert.True(t, errors.Is(svc.Start(0), ErrScanInProgress))

	close(market.gate)
	require.Eventually(t, func() bool { return !svc.Status().Running }, 2*time.Second, 5*time.Millisecond)

	_, err = svc.Scan(context.Background(), 0)
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	market := &fakeMarket{gate: make(chan struct{})}
	svc := newTestService(market, kvstore.NewMemory(), symbols("000001", "000002")...)

	assert.False(t, svc.Cancel())
	require.NoError(t, svc.Start(0))
	assert.True(t, svc.Cancel())

	require.Eventually(t, func() bool { return !svc.Status().Running }, 2*time.Second, 5*time.Millisecond)

	report, err := svc.LastReport(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Empty(t, report.Accepted)
}

func TestSubscribe(t *testing.T) {
	svc := newTestService(&fakeMarket{}, kvstore.NewMemory(), symbols("000001")...)

	events, release := svc.Subscribe()
	defer release()

	_, err := svc.Scan(context.Background(), 0)
	require.NoError(t, err)

	var states []contracts.ScanState
	for len(states) < len(contracts.AllScanStates()) {
		select {
		case ev := <-events:
			states = append(states, ev.State)
		case <-time.After(time.Second):
			t.Fatal("missing progress events")
		}
	}
	assert.Equal(t, contracts.AllScanStates(), states)

	release()
	release()
	_, open := <-events
	assert.False(t, open)
}
