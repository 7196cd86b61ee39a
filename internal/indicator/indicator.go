package indicator

import (
	"math"

	"argus/internal/domain"
)

const (
	RSIPeriod     = 14
	RSIOverbought = 70.0
	RSIOversold   = 30.0

	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9

	// Distances inside this band count as "at" the moving average.
	atThresholdPct = 0.5
)

// smaSeries computes a trailing simple mean. Output is aligned with the
// input; positions before the first full window are NaN.
func smaSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// emaSeries seeds the recurrence from the first sample but masks output
// until a full period has passed, so its warm-up matches smaSeries.
func emaSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	ema := values[0]
	for i := range values {
		if i > 0 {
			ema = alpha*values[i] + (1-alpha)*ema
		}
		if i >= period-1 {
			out[i] = ema
		}
	}
	return out
}

// emaSeeded is the unmasked recurrence, defined from the first sample on.
// MACD uses this variant.
func emaSeeded(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rsiSeries computes RSI from simple rolling means of gains and losses.
// The first period positions are NaN; a window with no losses reads 100,
// a completely flat window reads 50.
func rsiSeries(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}
	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}

	var gainSum, lossSum float64
	for i := 1; i < len(values); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		out[i] = rsiValue(gainSum/float64(period), lossSum/float64(period))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	default:
		rs := avgGain / avgLoss
		return 100 - 100/(1+rs)
	}
}

// macdSeries returns nil series when the input is shorter than slow+signal.
func macdSeries(values []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	if len(values) < slow+signal {
		return nil, nil, nil
	}
	fastEMA := emaSeeded(values, fast)
	slowEMA := emaSeeded(values, slow)
	macd = make([]float64, len(values))
	for i := range values {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig = emaSeeded(macd, signal)
	hist = make([]float64, len(values))
	for i := range values {
		hist[i] = macd[i] - sig[i]
	}
	return macd, sig, hist
}

// MAValues exposes the raw NaN-padded series for callers that compare
// against unrounded values, such as crossover detection.
func MAValues(closes []float64, period int, maType domain.MAType) []float64 {
	if maType == domain.MAExponential {
		return emaSeries(closes, period)
	}
	return smaSeries(closes, period)
}

func RSIValues(closes []float64, period int) []float64 {
	return rsiSeries(closes, period)
}

func MACDValues(closes []float64, fast, slow, signal int) (macd, sig, hist []float64) {
	return macdSeries(closes, fast, slow, signal)
}

// DistanceFromMA returns the percent distance of price from ma. The second
// return is false when the distance is undefined (ma missing or zero).
func DistanceFromMA(price, ma float64) (float64, bool) {
	if ma == 0 || math.IsNaN(ma) {
		return 0, false
	}
	return (price - ma) / ma * 100, true
}

func Classify(distancePct float64) domain.Position {
	if math.Abs(distancePct) < atThresholdPct {
		return domain.PositionAt
	}
	if distancePct > 0 {
		return domain.PositionAbove
	}
	return domain.PositionBelow
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func extractCloses(bars []domain.Bar) []float64 {
	values := make([]float64, len(bars))
	for i := range bars {
		values[i] = bars[i].Close
	}
	return values
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
