package domain

import "time"

// Bar is one OHLCV sample. Timestamp is the bar's calendar date normalized
// to midnight UTC; series are ordered ascending with no duplicates.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type Timeframe string

const (
	TimeframeDaily  Timeframe = "daily"
	TimeframeWeekly Timeframe = "weekly"
)

func (t Timeframe) IsValid() bool {
	return t == TimeframeDaily || t == TimeframeWeekly
}

type MAType string

const (
	MASimple      MAType = "sma"
	MAExponential MAType = "ema"
)

func (m MAType) IsValid() bool {
	return m == MASimple || m == MAExponential
}

// MAPeriod labels a weekly moving average. Day counts are fixed trading-day
// approximations (5 per week), not calendar derived.
type MAPeriod string

const (
	MA20W  MAPeriod = "20W"
	MA50W  MAPeriod = "50W"
	MA100W MAPeriod = "100W"
	MA200W MAPeriod = "200W"
)

var maPeriodDays = map[MAPeriod]int{
	MA20W:  100,
	MA50W:  250,
	MA100W: 500,
	MA200W: 1000,
}

func (p MAPeriod) Days() (int, bool) {
	d, ok := maPeriodDays[p]
	return d, ok
}

// Weeks is the period in weekly samples, for series resampled to one bar
// per week.
func (p MAPeriod) Weeks() (int, bool) {
	d, ok := maPeriodDays[p]
	return d / 5, ok
}

func (p MAPeriod) IsValid() bool {
	_, ok := maPeriodDays[p]
	return ok
}

func AllMAPeriods() []MAPeriod {
	return []MAPeriod{MA20W, MA50W, MA100W, MA200W}
}

// IndicatorPoint carries one indicator sample. A nil Value means the
// indicator is not defined at that bar (warm-up or missing input).
type IndicatorPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value"`
}

// IndicatorSeries is aligned 1:1 with the bars it was computed from.
type IndicatorSeries []IndicatorPoint

func (s IndicatorSeries) Last() *float64 {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Value != nil {
			return s[i].Value
		}
	}
	return nil
}

func (s IndicatorSeries) Values() []*float64 {
	out := make([]*float64, len(s))
	for i := range s {
		out[i] = s[i].Value
	}
	return out
}

type Position string

const (
	PositionAbove Position = "above"
	PositionBelow Position = "below"
	PositionAt    Position = "at"
)

type MAResult struct {
	Period          int             `json:"period"`
	Label           MAPeriod        `json:"label"`
	Type            MAType          `json:"type"`
	Series          IndicatorSeries `json:"series,omitempty"`
	CurrentValue    *float64        `json:"current_value"`
	CurrentPrice    *float64        `json:"current_price"`
	DistancePercent *float64        `json:"distance_percent"`
	Position        Position        `json:"position,omitempty"`
}

type RSIResult struct {
	Period       int             `json:"period"`
	Series       IndicatorSeries `json:"series,omitempty"`
	CurrentValue *float64        `json:"current_value"`
	IsOverbought bool            `json:"is_overbought"`
	IsOversold   bool            `json:"is_oversold"`
}

type MACDResult struct {
	FastPeriod       int             `json:"fast_period"`
	SlowPeriod       int             `json:"slow_period"`
	SignalPeriod     int             `json:"signal_period"`
	MACDLine         IndicatorSeries `json:"macd_line,omitempty"`
	SignalLine       IndicatorSeries `json:"signal_line,omitempty"`
	Histogram        IndicatorSeries `json:"histogram,omitempty"`
	CurrentMACD      *float64        `json:"current_macd"`
	CurrentSignal    *float64        `json:"current_signal"`
	CurrentHistogram *float64        `json:"current_histogram"`
}

// IndicatorSnapshot is the per-symbol summary served by the indicators
// endpoint: every weekly MA plus RSI and MACD, series omitted.
type IndicatorSnapshot struct {
	Symbol    string      `json:"symbol"`
	Timeframe Timeframe   `json:"timeframe"`
	Price     *float64    `json:"price"`
	MAs       []MAResult  `json:"moving_averages"`
	RSI       *RSIResult  `json:"rsi"`
	MACD      *MACDResult `json:"macd"`
	AsOf      time.Time   `json:"as_of"`
}

type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	AvgVolume     *float64  `json:"avg_volume"`
	MarketCap     *float64  `json:"market_cap"`
	High52W       *float64  `json:"high_52w"`
	Low52W        *float64  `json:"low_52w"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type StockInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type UniverseEntry struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name"`
	Sector  string    `json:"sector,omitempty"`
	Active  bool      `json:"active"`
	AddedAt time.Time `json:"added_at,omitempty"`
}

type ConversationMessage struct {
	Role      string
	Content   string
	CreatedAt time.Time
}
