package indicator

import (
	"math"

	"argus/internal/domain"
)

// MovingAverage computes one weekly MA over daily bars. Values are rounded
// to two decimals at this edge; series are full precision internally.
func MovingAverage(bars []domain.Bar, label domain.MAPeriod, maType domain.MAType, includeSeries bool) domain.MAResult {
	period, _ := label.Days()
	return MovingAverageSampled(bars, label, period, maType, includeSeries)
}

// MovingAverageSampled computes the MA over an explicit sample count, for
// callers whose bars are not daily (a 20W average over weekly bars spans 20
// samples, not 100).
func MovingAverageSampled(bars []domain.Bar, label domain.MAPeriod, period int, maType domain.MAType, includeSeries bool) domain.MAResult {
	result := domain.MAResult{Period: period, Label: label, Type: maType}
	if period <= 0 || len(bars) == 0 {
		return result
	}

	closes := extractCloses(bars)
	var values []float64
	if maType == domain.MAExponential {
		values = emaSeries(closes, period)
	} else {
		values = smaSeries(closes, period)
	}

	if includeSeries {
		result.Series = buildSeries(bars, values, 2)
	}

	price := closes[len(closes)-1]
	result.CurrentPrice = ptr(roundTo(price, 2))
	if ma, ok := lastDefined(values); ok {
		result.CurrentValue = ptr(roundTo(ma, 2))
		if d, ok := DistanceFromMA(price, ma); ok {
			result.DistancePercent = ptr(roundTo(d, 2))
			result.Position = Classify(d)
		}
	}
	return result
}

func RelativeStrength(bars []domain.Bar, period int, includeSeries bool) domain.RSIResult {
	result := domain.RSIResult{Period: period}
	if len(bars) == 0 {
		return result
	}
	values := rsiSeries(extractCloses(bars), period)
	if includeSeries {
		result.Series = buildSeries(bars, values, 2)
	}
	if v, ok := lastDefined(values); ok {
		result.CurrentValue = ptr(roundTo(v, 2))
		result.IsOverbought = v > RSIOverbought
		result.IsOversold = v < RSIOversold
	}
	return result
}

// Convergence computes MACD(fast, slow, signal). The published histogram is
// the exact difference of the published (rounded) lines, so the identity
// histogram = macd - signal survives serialization.
func Convergence(bars []domain.Bar, fast, slow, signal int, includeSeries bool) domain.MACDResult {
	result := domain.MACDResult{FastPeriod: fast, SlowPeriod: slow, SignalPeriod: signal}
	macd, sig, _ := macdSeries(extractCloses(bars), fast, slow, signal)
	if macd == nil {
		return result
	}

	rounded := make([]float64, len(macd))
	roundedSig := make([]float64, len(sig))
	hist := make([]float64, len(macd))
	for i := range macd {
		rounded[i] = roundTo(macd[i], 4)
		roundedSig[i] = roundTo(sig[i], 4)
		hist[i] = roundTo(rounded[i]-roundedSig[i], 4)
	}

	if includeSeries {
		result.MACDLine = buildSeries(bars, rounded, -1)
		result.SignalLine = buildSeries(bars, roundedSig, -1)
		result.Histogram = buildSeries(bars, hist, -1)
	}
	last := len(macd) - 1
	result.CurrentMACD = ptr(rounded[last])
	result.CurrentSignal = ptr(roundedSig[last])
	result.CurrentHistogram = ptr(hist[last])
	return result
}

// buildSeries zips values onto bar timestamps, converting NaN to null.
// places < 0 leaves values as-is.
func buildSeries(bars []domain.Bar, values []float64, places int) domain.IndicatorSeries {
	out := make(domain.IndicatorSeries, len(bars))
	for i := range bars {
		out[i].Timestamp = bars[i].Timestamp
		if i < len(values) && !math.IsNaN(values[i]) {
			v := values[i]
			if places >= 0 {
				v = roundTo(v, places)
			}
			out[i].Value = ptr(v)
		}
	}
	return out
}

// LatestMA returns the most recent defined MA value, unrounded.
func LatestMA(bars []domain.Bar, label domain.MAPeriod, maType domain.MAType) (float64, bool) {
	period, ok := label.Days()
	if !ok || len(bars) == 0 {
		return 0, false
	}
	return lastDefined(MAValues(extractCloses(bars), period, maType))
}

func lastDefined(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

func ptr(v float64) *float64 {
	return &v
}
