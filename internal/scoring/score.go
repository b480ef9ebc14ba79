// Package scoring holds the pure evaluation stages of a scan: the weighted
// score, the strategy classifier and the result builder.
package scoring

import "github.com/wonny/aegis-screener/internal/contracts"

// MaxScore caps the final score
const MaxScore = 100

// Signal labels, in rule order
const (
	SignalFullAlignment  = "정배열"
	SignalMARising       = "이평선상승"
	SignalMA20Breakout   = "20일선돌파"
	SignalMACDStrong     = "MACD강세"
	SignalMACDGolden     = "MACD골든"
	SignalHistogramUp    = "히스토증가"
	SignalRSIOptimal     = "RSI최적"
	SignalRSINormal      = "RSI정상"
	SignalRSIExtreme     = "RSI과열"
	SignalStochGolden    = "스토골든"
	SignalStochRising    = "스토상승"
	SignalStrongRally    = "강력상승"
	SignalUptrend        = "상승세"
	SignalBuyZone        = "매수구간"
	SignalRisingZone     = "상승구간"
	SignalOversold       = "과매도"
	SignalOverbought     = "과매수"
	SignalVolumeSurge    = "거래량폭발"
	SignalVolumeIncrease = "거래량증가"
)

// Score evaluates the four additive rule groups and caps the sum at 100.
// Pure: identical inputs always give identical (score, signals).
// ⭐ SSOT: 점수 테이블은 여기서만
func Score(q *contracts.Quote, ind *contracts.IndicatorSet) (int, []string) {
	score := 0
	signals := make([]string, 0, 8)

	add := func(points int, label string) {
		score += points
		if label != "" {
			signals = append(signals, label)
		}
	}

	price := q.Price
	change := q.ChangePct
	volumeRatio := q.VolumeRatio()

	// 1. 추세 (≤45)
	switch {
	case price > ind.MA20 && ind.MA20 > ind.MA60 && ind.MA60 > ind.MA120:
		add(20, SignalFullAlignment)
	case price > ind.MA20 && ind.MA20 > ind.MA60:
		add(15, SignalMARising)
	case price > ind.MA20:
		add(10, SignalMA20Breakout)
	}

	switch {
	case ind.MACD.MACD > ind.MACD.Signal && ind.MACD.MACD > 0:
		add(20, SignalMACDStrong)
	case ind.MACD.MACD > ind.MACD.Signal:
		add(15, SignalMACDGolden)
	}
	if ind.MACD.Histogram > 0 {
		add(5, SignalHistogramUp)
	}

	// 2. 모멘텀 (≤35)
	switch {
	case ind.RSI >= 40 && ind.RSI <= 60:
		add(15, SignalRSIOptimal)
	case ind.RSI >= 30 && ind.RSI <= 70:
		add(10, SignalRSINormal)
	default:
		add(5, SignalRSIExtreme)
	}

	switch {
	case ind.Stochastic.K > ind.Stochastic.D && ind.Stochastic.K < 80:
		add(10, SignalStochGolden)
	case ind.Stochastic.K > ind.Stochastic.D:
		add(7, SignalStochRising)
	}

	switch {
	case change > 4:
		add(10, SignalStrongRally)
	case change > 2:
		add(7, SignalUptrend)
	case change > 0:
		add(3, "")
	}

	// 3. 변동성 (≤15)
	bb := ind.Bollinger
	switch {
	case price > bb.Lower && price < bb.Middle:
		add(15, SignalBuyZone)
	case price > bb.Middle && price < bb.Upper:
		add(10, SignalRisingZone)
	case price < bb.Lower:
		add(12, SignalOversold)
	default:
		add(5, SignalOverbought)
	}

	// 4. 거래량 (≤10)
	switch {
	case volumeRatio > 2.5:
		add(10, SignalVolumeSurge)
	case volumeRatio > 1.5:
		add(7, SignalVolumeIncrease)
	case volumeRatio > 1:
		add(3, "")
	}

	if score > MaxScore {
		score = MaxScore
	}
	return score, signals
}
