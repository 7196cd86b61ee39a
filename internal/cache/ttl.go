package cache

import (
	"time"

	"argus/internal/markethours"
)

// Class names a cached payload kind; each kind carries its own lifetime.
type Class string

const (
	ClassQuote       Class = "quote"
	ClassOHLCVDaily  Class = "ohlcv_daily"
	ClassOHLCVWeekly Class = "ohlcv_weekly"
	ClassIndicators  Class = "indicators"
	ClassScreener    Class = "screener"
	ClassUniverse    Class = "universe"
	ClassStockInfo   Class = "stock_info"
	ClassSearch      Class = "search"
)

// offHoursMultiplier stretches fast-moving lifetimes outside the regular
// session, when the underlying values cannot change.
const offHoursMultiplier = 12

var baseTTL = map[Class]time.Duration{
	ClassQuote:       300 * time.Second,
	ClassOHLCVDaily:  3600 * time.Second,
	ClassOHLCVWeekly: 86400 * time.Second,
	ClassIndicators:  300 * time.Second,
	ClassScreener:    300 * time.Second,
	ClassUniverse:    86400 * time.Second,
	ClassStockInfo:   86400 * time.Second,
	ClassSearch:      3600 * time.Second,
}

var marketSensitive = map[Class]bool{
	ClassQuote:      true,
	ClassIndicators: true,
	ClassScreener:   true,
}

// TTLFor resolves the lifetime for a class at the given wall-clock moment.
func TTLFor(class Class, at time.Time) time.Duration {
	ttl, ok := baseTTL[class]
	if !ok {
		return 300 * time.Second
	}
	if marketSensitive[class] && !markethours.IsOpen(at) {
		ttl *= offHoursMultiplier
	}
	return ttl
}
