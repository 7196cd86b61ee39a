package domain

import "time"

// MLFeatureRow is one symbol's engineered feature snapshot for a single
// trading day. All features are derived from daily bars only; Close is kept
// for labeling and signal pricing, not fed to the models. ForwardRet1D is
// nil until the next bar exists.
type MLFeatureRow struct {
	ID            int64     `json:"id"`
	Symbol        string    `json:"symbol"`
	Day           time.Time `json:"day"`
	Close         float64   `json:"close"`
	Ret1D         float64   `json:"ret_1d"`
	Ret5D         float64   `json:"ret_5d"`
	Ret20D        float64   `json:"ret_20d"`
	Volatility20D float64   `json:"volatility_20d"`
	VolumeZ20D    float64   `json:"volume_z_20d"`
	RSI14         float64   `json:"rsi_14"`
	MACDLine      float64   `json:"macd_line"`
	MACDSignal    float64   `json:"macd_signal"`
	MACDHist      float64   `json:"macd_hist"`
	MA20WDist     float64   `json:"ma_20w_dist"`
	MA50WDist     float64   `json:"ma_50w_dist"`
	RangePos52W   float64   `json:"range_pos_52w"`
	ForwardRet1D  *float64  `json:"forward_ret_1d,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MLModelVersion is one immutable trained artifact. At most one version per
// model key is active; promotion flips the flag inside a transaction.
type MLModelVersion struct {
	ID                 int64     `json:"id"`
	ModelKey           string    `json:"model_key"`
	Version            int       `json:"version"`
	FeatureSpecVersion int       `json:"feature_spec_version"`
	TrainedFrom        time.Time `json:"trained_from"`
	TrainedTo          time.Time `json:"trained_to"`
	HyperparamsJSON    string    `json:"hyperparams_json"`
	MetricsJSON        string    `json:"metrics_json"`
	ArtifactFormat     string    `json:"artifact_format"`
	ArtifactBlob       []byte    `json:"-"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

type PredictionDirection string

const (
	PredictionUp   PredictionDirection = "up"
	PredictionDown PredictionDirection = "down"
	PredictionFlat PredictionDirection = "flat"
)

// MLPrediction is a model's call for one symbol and feature day. Direction
// models target the close of the next trading session; TargetDay is the
// earliest day the prediction may resolve. Anomaly rows stay flat and are
// never resolved, they exist for audit and to link emitted signals.
type MLPrediction struct {
	ID           int64               `json:"id"`
	Symbol       string              `json:"symbol"`
	Day          time.Time           `json:"day"`
	TargetDay    time.Time           `json:"target_day"`
	ModelKey     string              `json:"model_key"`
	ModelVersion int                 `json:"model_version"`
	ProbUp       float64             `json:"prob_up"`
	Confidence   float64             `json:"confidence"`
	Direction    PredictionDirection `json:"direction"`
	SignalID     *int64              `json:"signal_id,omitempty"`
	DetailsJSON  string              `json:"details_json"`
	CreatedAt    time.Time           `json:"created_at"`
	ResolvedAt   *time.Time          `json:"resolved_at,omitempty"`
	ActualUp     *bool               `json:"actual_up,omitempty"`
	IsCorrect    *bool               `json:"is_correct,omitempty"`
	RealizedRet  *float64            `json:"realized_ret,omitempty"`
}
