package contracts

import "context"

// MarketData fetches quotes and daily history from the brokerage
// ⭐ SSOT: 실패는 절대 에러로 전파하지 않음 (nil / 빈 시리즈)
type MarketData interface {
	FetchQuote(ctx context.Context, sym Symbol) *Quote
	FetchHistory(ctx context.Context, code string) CandleSeries
}

// RankingSource returns up to 30 ranked symbols
type RankingSource interface {
	Ranking(ctx context.Context) ([]Symbol, error)
}

// UniverseProvider produces the ordered scan universe; never fails
type UniverseProvider interface {
	Universe(ctx context.Context) []Symbol
}

// ProgressFunc receives scan progress events
type ProgressFunc func(Progress)
