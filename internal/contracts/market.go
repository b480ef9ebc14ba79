package contracts

import "time"

// Quote is a single evening snapshot of a symbol
type Quote struct {
	Symbol    Symbol  `json:"symbol"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"` // 전일대비 등락률 (%)
	Volume    int64   `json:"volume"`
	AvgVolume int64   `json:"avg_volume"` // 평균 거래량 (proxy)
	PER       float64 `json:"per"`
	PBR       float64 `json:"pbr"`
	ROE       float64 `json:"roe"` // 0 = unknown
}

// VolumeRatio returns Volume / AvgVolume, or 0 when AvgVolume is not positive
func (q *Quote) VolumeRatio() float64 {
	if q.AvgVolume <= 0 {
		return 0
	}
	return float64(q.Volume) / float64(q.AvgVolume)
}

// PricePoint is one daily OHLCV bar
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MinSeriesLength is the shortest history that can be scored
const MinSeriesLength = 120

// CandleSeries is a daily history ordered oldest → newest
type CandleSeries []PricePoint

// Valid reports whether the series is long enough for indicator computation
func (s CandleSeries) Valid() bool {
	return len(s) >= MinSeriesLength
}

// Closes returns the closing prices
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Highs returns the high prices
func (s CandleSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.High
	}
	return out
}

// Lows returns the low prices
func (s CandleSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Low
	}
	return out
}

// Last returns the most recent bar
func (s CandleSeries) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// MACD line values at the most recent bar
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Stochastic %K / %D at the most recent bar
type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// Bollinger bands at the most recent bar
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSet holds the tail value of every computed indicator series
// ⭐ SSOT: CandleSeries에서만 파생, 생성 후 변경 금지
type IndicatorSet struct {
	MA20       float64    `json:"ma20"`
	MA60       float64    `json:"ma60"`
	MA120      float64    `json:"ma120"`
	RSI        float64    `json:"rsi"`
	MACD       MACD       `json:"macd"`
	Stochastic Stochastic `json:"stochastic"`
	Bollinger  Bollinger  `json:"bollinger"`
}

// KST is the exchange time zone (UTC+9, no DST)
var KST = time.FixedZone("KST", 9*60*60)

// TradingDay returns the KST calendar day of t as yyyymmdd
func TradingDay(t time.Time) string {
	return t.In(KST).Format("20060102")
}
