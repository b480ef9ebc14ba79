package scoring

import "github.com/wonny/aegis-screener/internal/contracts"

// Tallies returns the short-term and swing tallies behind Classify
func Tallies(q *contracts.Quote, ind *contracts.IndicatorSet) (shortTerm, swing int) {
	// 단타: 빠른 수익, 빠른 탈출
	if q.VolumeRatio() > 2.5 {
		shortTerm += 3
	}
	if q.ChangePct > 3 {
		shortTerm += 3
	}
	if ind.RSI > 60 && ind.RSI < 75 {
		shortTerm += 2
	}
	if ind.Stochastic.K > ind.Stochastic.D {
		shortTerm += 2
	}

	// 스윙: 안정적 상승, 추세 지속
	if ind.MA20 > ind.MA60 && ind.MA60 > ind.MA120 {
		swing += 4
	}
	if ind.MACD.Histogram > 0 && ind.MACD.MACD > ind.MACD.Signal {
		swing += 3
	}
	if ind.RSI > 45 && ind.RSI < 60 {
		swing += 2
	}
	if q.Price > ind.Bollinger.Lower && q.Price < ind.Bollinger.Middle {
		swing += 1
	}

	return shortTerm, swing
}

// Classify picks short-term only when its tally strictly exceeds swing's
func Classify(q *contracts.Quote, ind *contracts.IndicatorSet) contracts.Strategy {
	shortTerm, swing := Tallies(q, ind)
	if shortTerm > swing {
		return contracts.StrategyShortTerm
	}
	return contracts.StrategySwing
}
