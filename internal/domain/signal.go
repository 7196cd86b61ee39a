package domain

import "time"

type SignalType string

const (
	SignalMACrossoverBullish SignalType = "ma_crossover_bullish"
	SignalMACrossoverBearish SignalType = "ma_crossover_bearish"
	SignalRSIOversold        SignalType = "rsi_oversold"
	SignalRSIOverbought      SignalType = "rsi_overbought"
	SignalMACDBullishCross   SignalType = "macd_bullish_cross"
	SignalMACDBearishCross   SignalType = "macd_bearish_cross"
	SignalNew52WHigh         SignalType = "new_52w_high"
	SignalNear52WHigh        SignalType = "near_52w_high"
	SignalNew52WLow          SignalType = "new_52w_low"
	SignalNear52WLow         SignalType = "near_52w_low"

	// SignalAnomaly is emitted by the anomaly model, not the rule detector.
	SignalAnomaly SignalType = "anomaly"
)

type SignalSentiment string

const (
	SentimentBullish SignalSentiment = "bullish"
	SentimentBearish SignalSentiment = "bearish"
	SentimentNeutral SignalSentiment = "neutral"
)

type signalMeta struct {
	description string
	sentiment   SignalSentiment
}

var signalCatalog = map[SignalType]signalMeta{
	SignalMACrossoverBullish: {"price crossed above a weekly moving average", SentimentBullish},
	SignalMACrossoverBearish: {"price crossed below a weekly moving average", SentimentBearish},
	SignalRSIOversold:        {"RSI(14) dropped below 30", SentimentBullish},
	SignalRSIOverbought:      {"RSI(14) rose above 70", SentimentBearish},
	SignalMACDBullishCross:   {"MACD line crossed above its signal line", SentimentBullish},
	SignalMACDBearishCross:   {"MACD line crossed below its signal line", SentimentBearish},
	SignalNew52WHigh:         {"price reached a new 52-week high", SentimentBullish},
	SignalNear52WHigh:        {"price within 5% of its 52-week high", SentimentBullish},
	SignalNew52WLow:          {"price reached a new 52-week low", SentimentBearish},
	SignalNear52WLow:         {"price within 5% of its 52-week low", SentimentBearish},
	SignalAnomaly:            {"bar pattern flagged as anomalous by the isolation forest", SentimentNeutral},
}

func (t SignalType) IsValid() bool {
	_, ok := signalCatalog[t]
	return ok
}

func (t SignalType) Description() string {
	return signalCatalog[t].description
}

func (t SignalType) Sentiment() SignalSentiment {
	if m, ok := signalCatalog[t]; ok {
		return m.sentiment
	}
	return SentimentNeutral
}

func AllSignalTypes() []SignalType {
	return []SignalType{
		SignalMACrossoverBullish,
		SignalMACrossoverBearish,
		SignalRSIOversold,
		SignalRSIOverbought,
		SignalMACDBullishCross,
		SignalMACDBearishCross,
		SignalNew52WHigh,
		SignalNear52WHigh,
		SignalNew52WLow,
		SignalNear52WLow,
		SignalAnomaly,
	}
}

// Signal is immutable once stored. Timestamp is the bar time the condition
// fired; CreatedAt is the detection wall clock and drives deduplication.
type Signal struct {
	ID        int64           `json:"id"`
	Symbol    string          `json:"symbol"`
	Type      SignalType      `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Price     float64         `json:"price"`
	Details   map[string]any  `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Image     *SignalImageRef `json:"image,omitempty"`
}

type SignalImageRef struct {
	ImageID   int64     `json:"image_id"`
	MimeType  string    `json:"mime_type"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignalImageData struct {
	Ref   SignalImageRef
	Bytes []byte
}

type SignalFilter struct {
	Types   []SignalType
	Symbols []string
	Since   time.Time
	Limit   int
}

// SignalOutcome records the realized forward move of a stored signal after
// a fixed trading-day horizon.
type SignalOutcome struct {
	SignalID    int64      `json:"signal_id"`
	Symbol      string     `json:"symbol"`
	Type        SignalType `json:"type"`
	HorizonDays int        `json:"horizon_days"`
	EntryPrice  float64    `json:"entry_price"`
	ExitPrice   float64    `json:"exit_price"`
	ReturnPct   float64    `json:"return_pct"`
	Correct     bool       `json:"correct"`
	ResolvedAt  time.Time  `json:"resolved_at"`
}

type TypeAccuracy struct {
	Type         SignalType `json:"type"`
	Resolved     int        `json:"resolved"`
	Correct      int        `json:"correct"`
	Accuracy     float64    `json:"accuracy"`
	AvgReturnPct float64    `json:"avg_return_pct"`
}
