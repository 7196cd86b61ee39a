package signal

import (
	"math"
	"sort"
	"strings"
	"time"

	"argus/internal/domain"
	"argus/internal/indicator"
)

const (
	// CrossoverLookback is how many of the most recent bar pairs a
	// moving-average crossover scan inspects.
	CrossoverLookback = 2

	// Near52WThresholdPct is the band, in percent, that counts as "near"
	// a 52-week extreme.
	Near52WThresholdPct = 5.0
)

// Detector evaluates bar history against the rule catalog. All methods are
// pure and compare unrounded indicator values; persistence and
// deduplication live in the signal service.
type Detector struct {
	now func() time.Time
}

func NewDetector(now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{now: now}
}

// DetectAll runs every rule against the given daily history. The 52-week
// bounds are optional; when nil those rules are skipped.
func (d *Detector) DetectAll(symbol string, bars []domain.Bar, high52w, low52w *float64) []domain.Signal {
	normalized := normalizeBars(bars)
	if len(normalized) == 0 {
		return nil
	}

	out := make([]domain.Signal, 0, 4)
	for _, label := range domain.AllMAPeriods() {
		if s := d.DetectMACrossover(symbol, normalized, label, domain.MASimple, CrossoverLookback); s != nil {
			out = append(out, *s)
		}
	}
	if s := d.DetectRSISignal(symbol, normalized); s != nil {
		out = append(out, *s)
	}
	if s := d.DetectMACDSignal(symbol, normalized); s != nil {
		out = append(out, *s)
	}

	latest := normalized[len(normalized)-1]
	out = append(out, d.Detect52WSignals(symbol, latest, high52w, low52w)...)
	return out
}

// DetectMACrossover scans the last lookback bar pairs for the close moving
// through the given MA. Comparison is strict sign, not the screener's
// at-the-MA band. At most one signal is returned, the earliest hit.
func (d *Detector) DetectMACrossover(symbol string, bars []domain.Bar, label domain.MAPeriod, maType domain.MAType, lookback int) *domain.Signal {
	period, ok := label.Days()
	if !ok || lookback < 1 || len(bars) < period+lookback {
		return nil
	}

	closes := extractCloses(bars)
	values := indicator.MAValues(closes, period, maType)

	for i := len(bars) - lookback; i < len(bars); i++ {
		prevMA, currMA := values[i-1], values[i]
		if math.IsNaN(prevMA) || math.IsNaN(currMA) {
			continue
		}
		prevClose := closes[i-1]
		currClose := closes[i]

		var sigType domain.SignalType
		switch {
		case prevClose <= prevMA && currClose > currMA:
			sigType = domain.SignalMACrossoverBullish
		case prevClose >= prevMA && currClose < currMA:
			sigType = domain.SignalMACrossoverBearish
		default:
			continue
		}
		return d.newSignal(symbol, sigType, bars[i], map[string]any{
			"ma_period": string(label),
			"ma_value":  currMA,
		})
	}
	return nil
}

// DetectRSISignal fires only on the threshold being crossed between the two
// most recent readings, so repeated runs on unchanged data stay silent.
func (d *Detector) DetectRSISignal(symbol string, bars []domain.Bar) *domain.Signal {
	values := indicator.RSIValues(extractCloses(bars), indicator.RSIPeriod)
	prev, curr, ok := lastTwo(values)
	if !ok {
		return nil
	}

	latest := bars[len(bars)-1]
	if prev >= indicator.RSIOversold && curr < indicator.RSIOversold {
		return d.newSignal(symbol, domain.SignalRSIOversold, latest, map[string]any{
			"rsi_value": curr,
			"threshold": indicator.RSIOversold,
		})
	}
	if prev <= indicator.RSIOverbought && curr > indicator.RSIOverbought {
		return d.newSignal(symbol, domain.SignalRSIOverbought, latest, map[string]any{
			"rsi_value": curr,
			"threshold": indicator.RSIOverbought,
		})
	}
	return nil
}

func (d *Detector) DetectMACDSignal(symbol string, bars []domain.Bar) *domain.Signal {
	macd, sig, _ := indicator.MACDValues(extractCloses(bars), indicator.MACDFastPeriod, indicator.MACDSlowPeriod, indicator.MACDSignalPeriod)
	if len(macd) < 2 {
		return nil
	}

	prevMACD, currMACD := macd[len(macd)-2], macd[len(macd)-1]
	prevSig, currSig := sig[len(sig)-2], sig[len(sig)-1]

	latest := bars[len(bars)-1]
	details := map[string]any{"macd": currMACD, "signal": currSig}
	if prevMACD <= prevSig && currMACD > currSig {
		return d.newSignal(symbol, domain.SignalMACDBullishCross, latest, details)
	}
	if prevMACD >= prevSig && currMACD < currSig {
		return d.newSignal(symbol, domain.SignalMACDBearishCross, latest, details)
	}
	return nil
}

// Detect52WSignals compares the latest close against the 52-week range.
// It can emit one high-side and one low-side signal in the same call.
func (d *Detector) Detect52WSignals(symbol string, latest domain.Bar, high52w, low52w *float64) []domain.Signal {
	price := latest.Close
	out := make([]domain.Signal, 0, 2)

	if high52w != nil && *high52w > 0 {
		details := map[string]any{"high_52w": *high52w, "current": price}
		switch {
		case price >= *high52w:
			out = append(out, *d.newSignal(symbol, domain.SignalNew52WHigh, latest, details))
		case price >= *high52w*(1-Near52WThresholdPct/100):
			out = append(out, *d.newSignal(symbol, domain.SignalNear52WHigh, latest, details))
		}
	}
	if low52w != nil && *low52w > 0 {
		details := map[string]any{"low_52w": *low52w, "current": price}
		switch {
		case price <= *low52w:
			out = append(out, *d.newSignal(symbol, domain.SignalNew52WLow, latest, details))
		case price <= *low52w*(1+Near52WThresholdPct/100):
			out = append(out, *d.newSignal(symbol, domain.SignalNear52WLow, latest, details))
		}
	}
	return out
}

func (d *Detector) newSignal(symbol string, sigType domain.SignalType, bar domain.Bar, details map[string]any) *domain.Signal {
	ts := bar.Timestamp.UTC()
	if ts.IsZero() {
		ts = d.now().UTC()
	}
	for k, v := range details {
		if f, ok := v.(float64); ok {
			details[k] = roundTo(f, 4)
		}
	}
	return &domain.Signal{
		Symbol:    strings.ToUpper(symbol),
		Type:      sigType,
		Timestamp: ts,
		Price:     bar.Close,
		Details:   details,
	}
}

func normalizeBars(in []domain.Bar) []domain.Bar {
	out := make([]domain.Bar, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func extractCloses(bars []domain.Bar) []float64 {
	values := make([]float64, len(bars))
	for i := range bars {
		values[i] = bars[i].Close
	}
	return values
}

// lastTwo returns the final two defined values of a NaN-padded series.
func lastTwo(values []float64) (prev, curr float64, ok bool) {
	found := 0
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			continue
		}
		if found == 0 {
			curr = values[i]
		} else {
			prev = values[i]
			return prev, curr, true
		}
		found++
	}
	return 0, 0, false
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
