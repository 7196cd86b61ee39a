package features

import (
	"math"

	"argus/internal/domain"
	"argus/internal/indicator"
)

// featureSpecVersion is stamped on every trained model. Bump it whenever
// the vector layout or any feature definition changes; models trained
// against an older spec must not score newer rows.
const featureSpecVersion = 1

const (
	rangeWindowDays = 252
	volWindowDays   = 20
)

func FeatureSpecVersion() int {
	return featureSpecVersion
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// BuildRows derives one feature row per bar once every lookback window is
// warm. Bars must be a single symbol's daily series in chronological order.
// The final bar's row has no forward return; it gets labeled on the next
// rebuild, after the following session closes.
func (e *Engine) BuildRows(symbol string, bars []domain.Bar) []domain.MLFeatureRow {
	if symbol == "" || len(bars) < rangeWindowDays {
		return nil
	}

	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}

	rsi := indicator.RSIValues(closes, indicator.RSIPeriod)
	macd, macdSig, macdHist := indicator.MACDValues(closes, indicator.MACDFastPeriod, indicator.MACDSlowPeriod, indicator.MACDSignalPeriod)
	if macd == nil {
		return nil
	}

	ma20wDays, _ := domain.MA20W.Days()
	ma50wDays, _ := domain.MA50W.Days()
	ma20w := indicator.MAValues(closes, ma20wDays, domain.MASimple)
	ma50w := indicator.MAValues(closes, ma50wDays, domain.MASimple)

	dailyRets := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		if closes[i-1] != 0 {
			dailyRets[i] = closes[i]/closes[i-1] - 1
		}
	}

	rows := make([]domain.MLFeatureRow, 0, len(bars)-rangeWindowDays+1)
	for i := rangeWindowDays - 1; i < len(bars); i++ {
		if closes[i] == 0 || closes[i-1] == 0 || closes[i-5] == 0 || closes[i-20] == 0 {
			continue
		}
		if math.IsNaN(rsi[i]) || math.IsNaN(ma20w[i]) || math.IsNaN(ma50w[i]) {
			continue
		}
		dist20, ok20 := indicator.DistanceFromMA(closes[i], ma20w[i])
		dist50, ok50 := indicator.DistanceFromMA(closes[i], ma50w[i])
		if !ok20 || !ok50 {
			continue
		}

		row := domain.MLFeatureRow{
			Symbol:        symbol,
			Day:           bars[i].Timestamp.UTC(),
			Close:         closes[i],
			Ret1D:         closes[i]/closes[i-1] - 1,
			Ret5D:         closes[i]/closes[i-5] - 1,
			Ret20D:        closes[i]/closes[i-20] - 1,
			Volatility20D: stddev(dailyRets[i-volWindowDays+1 : i+1]),
			VolumeZ20D:    volumeZScore(bars[i-volWindowDays+1 : i+1]),
			RSI14:         rsi[i],
			MACDLine:      macd[i],
			MACDSignal:    macdSig[i],
			MACDHist:      macdHist[i],
			MA20WDist:     dist20,
			MA50WDist:     dist50,
			RangePos52W:   rangePosition(bars[i-rangeWindowDays+1:i+1], closes[i]),
		}
		if i+1 < len(bars) {
			fwd := closes[i+1]/closes[i] - 1
			row.ForwardRet1D = &fwd
		}
		rows = append(rows, row)
	}
	return rows
}

// rangePosition places the last close inside the window's high/low band,
// clamped to [0,1]. A flat band reads as mid-range.
func rangePosition(window []domain.Bar, lastClose float64) float64 {
	if len(window) == 0 {
		return 0.5
	}
	hi := window[0].High
	lo := window[0].Low
	for _, b := range window[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	if hi <= lo {
		return 0.5
	}
	pos := (lastClose - lo) / (hi - lo)
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// volumeZScore standardizes the window's last volume against the window
// itself. Zero spread reads as zero.
func volumeZScore(window []domain.Bar) float64 {
	if len(window) == 0 {
		return 0
	}
	values := make([]float64, len(window))
	for i := range window {
		values[i] = window[i].Volume
	}
	mean, std := meanStd(values)
	if std == 0 {
		return 0
	}
	return (values[len(values)-1] - mean) / std
}

func stddev(values []float64) float64 {
	_, std := meanStd(values)
	return std
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}
