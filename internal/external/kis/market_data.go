package kis

import (
	"context"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// MarketData adapts Client to contracts.MarketData: every failure is logged and
// resolved to nil / empty so the scan handles it as data.
type MarketData struct {
	client *Client
	logger *logger.Logger
	now    func() time.Time
}

// NewMarketData wraps a KIS client
func NewMarketData(client *Client, log *logger.Logger) *MarketData {
	return &MarketData{
		client: client,
		logger: log,
		now:    time.Now,
	}
}

// FetchQuote returns nil when the quote is unavailable
func (m *MarketData) FetchQuote(ctx context.Context, sym contracts.Symbol) *contracts.Quote {
	quote, err := m.client.GetQuote(ctx, sym)
	if err != nil {
		m.logger.WithSymbol(sym.Code, sym.Name).WithError(err).Warn("Quote fetch failed")
		return nil
	}
	return quote
}

// FetchHistory returns an empty series when history is unavailable
func (m *MarketData) FetchHistory(ctx context.Context, code string) contracts.CandleSeries {
	series, err := m.client.GetDailyChart(ctx, code, m.now())
	if err != nil {
		m.logger.WithField("code", code).WithError(err).Warn("Daily chart fetch failed")
		return contracts.CandleSeries{}
	}
	return series
}

var _ contracts.MarketData = (*MarketData)(nil)
var _ contracts.RankingSource = (*Client)(nil)
