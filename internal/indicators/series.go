package indicators

import "math"

// Each function returns a series aligned to the END of its input: the last
// element corresponds to the last input bar. Leading bars without a full
// window are omitted.

// SMA returns the simple moving average over period
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA returns the exponential moving average seeded with the SMA of the first window
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	k := 2.0 / float64(period+1)

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, ema)
	for _, v := range values[period:] {
		ema = (v-ema)*k + ema
		out = append(out, ema)
	}
	return out
}

// RSI returns the Wilder-smoothed relative strength index.
// The first average gain/loss is the simple mean of the first period changes.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		gain, loss := split(values[i] - values[i-1])
		gainSum += gain
		lossSum += loss
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)

	out := make([]float64, 0, len(values)-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(values); i++ {
		gain, loss := split(values[i] - values[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // flat
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the macd line (EMA fast − EMA slow) and its EMA signal line
func MACD(values []float64, fast, slow, signal int) (macdLine, signalLine []float64) {
	if fast >= slow {
		return nil, nil
	}

	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)
	if emaSlow == nil {
		return nil, nil
	}

	// align the fast EMA to the slow one
	offset := len(emaFast) - len(emaSlow)
	macdLine = make([]float64, len(emaSlow))
	for i := range emaSlow {
		macdLine[i] = emaFast[i+offset] - emaSlow[i]
	}

	return macdLine, EMA(macdLine, signal)
}

// Stochastic returns %K over period and %D as the SMA of %K.
// A flat range (high == low) yields %K = 50.
func Stochastic(highs, lows, closes []float64, period, signal int) (k, d []float64) {
	n := len(closes)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return nil, nil
	}

	k = make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		hi, lo := math.Inf(-1), math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			hi = math.Max(hi, highs[j])
			lo = math.Min(lo, lows[j])
		}

		if hi == lo {
			k = append(k, 50)
			continue
		}
		k = append(k, (closes[i]-lo)/(hi-lo)*100)
	}

	return k, SMA(k, signal)
}

// Bollinger returns bands of width standard deviations (population) around the SMA
func Bollinger(values []float64, period int, width float64) (upper, middle, lower []float64) {
	middle = SMA(values, period)
	if middle == nil {
		return nil, nil, nil
	}

	upper = make([]float64, len(middle))
	lower = make([]float64, len(middle))
	for i, mean := range middle {
		window := values[i : i+period]

		var sq float64
		for _, v := range window {
			sq += (v - mean) * (v - mean)
		}
		sd := math.Sqrt(sq / float64(period))

		upper[i] = mean + width*sd
		lower[i] = mean - width*sd
	}
	return upper, middle, lower
}
