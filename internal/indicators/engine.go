package indicators

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Indicator parameters
const (
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
	StochasticPeriod = 14
	StochasticSignal = 3
	BollingerPeriod  = 20
	BollingerWidth   = 2.0
)

var (
	// ErrInsufficientData is returned for series shorter than contracts.MinSeriesLength
	ErrInsufficientData = errors.New("indicators: insufficient data")
	// ErrComputation is returned when a computation yields no value or a non-finite value
	ErrComputation = errors.New("indicators: computation failed")
)

// Engine computes the IndicatorSet of a daily series
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a new indicator engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Compute returns the tail value of every indicator.
// len(series) < 120 is ErrInsufficientData; anything else that goes wrong wraps ErrComputation.
func (e *Engine) Compute(series contracts.CandleSeries) (*contracts.IndicatorSet, error) {
	if !series.Valid() {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(series), contracts.MinSeriesLength)
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	set := &contracts.IndicatorSet{}
	var err error

	if set.MA20, err = last("ma20", SMA(closes, 20)); err != nil {
		return nil, err
	}
	if set.MA60, err = last("ma60", SMA(closes, 60)); err != nil {
		return nil, err
	}
	if set.MA120, err = last("ma120", SMA(closes, 120)); err != nil {
		return nil, err
	}
	if set.RSI, err = last("rsi", RSI(closes, RSIPeriod)); err != nil {
		return nil, err
	}

	macdLine, signalLine := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if set.MACD.MACD, err = last("macd", macdLine); err != nil {
		return nil, err
	}
	if set.MACD.Signal, err = last("macd signal", signalLine); err != nil {
		return nil, err
	}
	set.MACD.Histogram = set.MACD.MACD - set.MACD.Signal

	k, d := Stochastic(highs, lows, closes, StochasticPeriod, StochasticSignal)
	if set.Stochastic.K, err = last("stochastic k", k); err != nil {
		return nil, err
	}
	if set.Stochastic.D, err = last("stochastic d", d); err != nil {
		return nil, err
	}

	upper, middle, lower := Bollinger(closes, BollingerPeriod, BollingerWidth)
	if set.Bollinger.Upper, err = last("bollinger upper", upper); err != nil {
		return nil, err
	}
	if set.Bollinger.Middle, err = last("bollinger middle", middle); err != nil {
		return nil, err
	}
	if set.Bollinger.Lower, err = last("bollinger lower", lower); err != nil {
		return nil, err
	}

	if !isFinite(set.MACD.Histogram) {
		return nil, fmt.Errorf("%w: macd histogram is not finite", ErrComputation)
	}

	e.logger.WithFields(map[string]interface{}{
		"bars":  len(series),
		"ma20":  set.MA20,
		"rsi":   set.RSI,
		"macd":  set.MACD.MACD,
		"stoch": set.Stochastic.K,
	}).Debug("Computed indicators")

	return set, nil
}

// last returns the final element of a computed series
func last(name string, values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: %s produced no values", ErrComputation, name)
	}
	v := values[len(values)-1]
	if !isFinite(v) {
		return 0, fmt.Errorf("%w: %s is not finite", ErrComputation, name)
	}
	return v, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
