package domain

import (
	"fmt"
	"time"
)

const (
	ScreenerDefaultDistancePct = 5.0
	ScreenerDefaultLimit       = 100
	ScreenerMaxLimit           = 500
)

var screenerSortFields = map[string]bool{
	"symbol":     true,
	"name":       true,
	"price":      true,
	"distance":   true,
	"market_cap": true,
	"change":     true,
}

// ScreenerRequest is a fully resolved request: callers apply their own
// defaulting before validation, so every field here is meaningful as-is.
type ScreenerRequest struct {
	MAFilter     MAPeriod `json:"ma_filter"`
	MAType       MAType   `json:"ma_type"`
	DistancePct  float64  `json:"distance_pct"`
	IncludeBelow bool     `json:"include_below"`
	IncludeAbove bool     `json:"include_above"`
	SortBy       string   `json:"sort_by"`
	SortOrder    string   `json:"sort_order"`
	Limit        int      `json:"limit"`
	Offset       int      `json:"offset"`
}

func DefaultScreenerRequest() ScreenerRequest {
	return ScreenerRequest{
		MAFilter:     MA20W,
		MAType:       MASimple,
		DistancePct:  ScreenerDefaultDistancePct,
		IncludeBelow: true,
		IncludeAbove: true,
		SortBy:       "distance",
		SortOrder:    "asc",
		Limit:        ScreenerDefaultLimit,
		Offset:       0,
	}
}

func (r ScreenerRequest) Validate() error {
	if !r.MAFilter.IsValid() {
		return fmt.Errorf("%w: unknown ma_filter %q", ErrInvalidRequest, string(r.MAFilter))
	}
	if !r.MAType.IsValid() {
		return fmt.Errorf("%w: unknown ma_type %q", ErrInvalidRequest, string(r.MAType))
	}
	if r.DistancePct < 0 || r.DistancePct > 100 {
		return fmt.Errorf("%w: distance_pct must be within [0,100]", ErrInvalidRequest)
	}
	if !screenerSortFields[r.SortBy] {
		return fmt.Errorf("%w: unknown sort_by %q", ErrInvalidRequest, r.SortBy)
	}
	if r.SortOrder != "asc" && r.SortOrder != "desc" {
		return fmt.Errorf("%w: sort_order must be asc or desc", ErrInvalidRequest)
	}
	if r.Limit < 1 || r.Limit > ScreenerMaxLimit {
		return fmt.Errorf("%w: limit must be within [1,%d]", ErrInvalidRequest, ScreenerMaxLimit)
	}
	if r.Offset < 0 {
		return fmt.Errorf("%w: offset must be >= 0", ErrInvalidRequest)
	}
	return nil
}

type ScreenerEntry struct {
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
	Sector          string   `json:"sector,omitempty"`
	Price           float64  `json:"price"`
	Change          float64  `json:"change"`
	ChangePercent   float64  `json:"change_percent"`
	MarketCap       *float64 `json:"market_cap"`
	MAValue         float64  `json:"ma_value"`
	MAPeriod        MAPeriod `json:"ma_period"`
	Distance        float64  `json:"distance"`
	DistancePercent float64  `json:"distance_percent"`
	Position        Position `json:"position"`
}

type ScreenerResponse struct {
	Results        []ScreenerEntry `json:"results"`
	Total          int             `json:"total"`
	SkippedCount   int             `json:"skipped_count"`
	MAFilter       MAPeriod        `json:"ma_filter"`
	MAType         MAType          `json:"ma_type"`
	DistancePct    float64         `json:"distance_pct"`
	Cached         bool            `json:"cached"`
	CacheTimestamp *time.Time      `json:"cache_timestamp,omitempty"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
