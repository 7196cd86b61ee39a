package common

import (
	"math"

	"argus/internal/domain"
)

// Model keys are stable registry identifiers; renaming one orphans its
// stored versions.
const (
	ModelKeyGBDT    = "gbdt_direction_1d"
	ModelKeyAnomaly = "iforest_anomaly"
)

// FeatureNames fixes the vector layout shared by training and inference.
// FeatureVector must append in exactly this order.
var FeatureNames = []string{
	"ret_1d",
	"ret_5d",
	"ret_20d",
	"volatility_20d",
	"volume_z_20d",
	"rsi_14",
	"macd_line",
	"macd_signal",
	"macd_hist",
	"ma_20w_dist",
	"ma_50w_dist",
	"range_pos_52w",
}

func FeatureVector(row domain.MLFeatureRow) []float64 {
	return []float64{
		row.Ret1D,
		row.Ret5D,
		row.Ret20D,
		row.Volatility20D,
		row.VolumeZ20D,
		row.RSI14,
		row.MACDLine,
		row.MACDSignal,
		row.MACDHist,
		row.MA20WDist,
		row.MA50WDist,
		row.RangePos52W,
	}
}

// TargetLabel maps a row's realized next-day return onto a binary up/down
// label. Rows without a forward return are unlabeled.
func TargetLabel(row domain.MLFeatureRow) (float64, bool) {
	if row.ForwardRet1D == nil {
		return 0, false
	}
	if *row.ForwardRet1D > 0 {
		return 1, true
	}
	return 0, true
}

func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func Confidence(probUp float64) float64 {
	return math.Abs(Clamp01(probUp)-0.5) * 2
}

func DirectionFromProb(probUp, longThreshold, shortThreshold float64) domain.PredictionDirection {
	probUp = Clamp01(probUp)
	if probUp >= longThreshold {
		return domain.PredictionUp
	}
	if probUp <= shortThreshold {
		return domain.PredictionDown
	}
	return domain.PredictionFlat
}
