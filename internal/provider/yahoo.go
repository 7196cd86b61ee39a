// Package provider fetches quotes and OHLCV history from Yahoo Finance's
// public chart API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"argus/internal/domain"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

type YahooProvider struct {
	client  *http.Client
	baseURL string
}

// NewYahooProvider builds a provider with the given request timeout. proxyURL
// may be empty.
func NewYahooProvider(timeout time.Duration, proxyURL string) *YahooProvider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooProvider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL: defaultBaseURL,
	}
}

// WithBaseURL points the provider at a different host. Tests use it.
func (p *YahooProvider) WithBaseURL(base string) *YahooProvider {
	p.baseURL = base
	return p
}

type chartMeta struct {
	Currency           string   `json:"currency"`
	Symbol             string   `json:"symbol"`
	FullExchangeName   string   `json:"fullExchangeName"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
	RegularMarketVol   *float64 `json:"regularMarketVolume"`
	FiftyTwoWeekHigh   *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    *float64 `json:"fiftyTwoWeekLow"`
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       chartMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v any) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, interval, rng string) ([]domain.Bar, *chartMeta, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		p.baseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: yahoo fetch: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: yahoo read body: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, fmt.Errorf("%w: unknown symbol %s", domain.ErrNotFound, symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: yahoo status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, nil, fmt.Errorf("%w: yahoo decode: %v", domain.ErrUpstream, err)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("%w: yahoo: %s", domain.ErrNotFound, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("%w: yahoo: empty result for %s", domain.ErrNotFound, symbol)
	}

	result := chart.Chart.Result[0]
	meta := result.Meta
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, &meta, nil
	}

	quote := result.Indicators.Quote[0]
	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bars on holidays etc.
		}
		bars = append(bars, domain.Bar{
			Timestamp: normalizeDay(ts),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, &meta, nil
}

// normalizeDay collapses the exchange-local session timestamp to the bar's
// calendar date at midnight UTC.
func normalizeDay(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dailyRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	default:
		return "10y"
	}
}

func weeklyRange(weeks int) string {
	switch {
	case weeks <= 26:
		return "6mo"
	case weeks <= 52:
		return "1y"
	case weeks <= 104:
		return "2y"
	case weeks <= 260:
		return "5y"
	default:
		return "10y"
	}
}

// FetchDailyBars returns up to days daily bars, oldest first.
func (p *YahooProvider) FetchDailyBars(ctx context.Context, symbol string, days int) ([]domain.Bar, error) {
	bars, _, err := p.fetchChart(ctx, symbol, "1d", dailyRange(days))
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// FetchWeeklyBars returns up to weeks weekly bars, oldest first.
func (p *YahooProvider) FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]domain.Bar, error) {
	bars, _, err := p.fetchChart(ctx, symbol, "1wk", weeklyRange(weeks))
	if err != nil {
		return nil, err
	}
	if len(bars) > weeks {
		bars = bars[len(bars)-weeks:]
	}
	return bars, nil
}

// FetchQuote builds a quote from the chart meta of a 1-day request. Average
// volume and market cap are not part of the chart payload and stay nil.
func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	bars, meta, err := p.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	if meta == nil || meta.RegularMarketPrice == nil {
		if len(bars) == 0 {
			return nil, fmt.Errorf("%w: yahoo: no price data for %s", domain.ErrNotFound, symbol)
		}
		last := bars[len(bars)-1]
		return &domain.Quote{
			Symbol:    symbol,
			Price:     last.Close,
			Volume:    last.Volume,
			UpdatedAt: time.Now().UTC(),
		}, nil
	}

	q := &domain.Quote{
		Symbol:    symbol,
		Price:     *meta.RegularMarketPrice,
		High52W:   meta.FiftyTwoWeekHigh,
		Low52W:    meta.FiftyTwoWeekLow,
		UpdatedAt: time.Now().UTC(),
	}
	if meta.RegularMarketVol != nil {
		q.Volume = *meta.RegularMarketVol
	}
	prev := meta.PreviousClose
	if prev == nil {
		prev = meta.ChartPreviousClose
	}
	if prev != nil && *prev != 0 {
		q.Change = q.Price - *prev
		q.ChangePercent = q.Change / *prev * 100
	}
	return q, nil
}

// FetchStockInfo reads descriptive fields from the chart meta.
func (p *YahooProvider) FetchStockInfo(ctx context.Context, symbol string) (*domain.StockInfo, error) {
	_, meta, err := p.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}
	info := &domain.StockInfo{Symbol: symbol}
	if meta != nil {
		info.Name = meta.LongName
		if info.Name == "" {
			info.Name = meta.ShortName
		}
		info.Exchange = meta.FullExchangeName
		info.Currency = meta.Currency
	}
	if info.Name == "" {
		info.Name = symbol
	}
	return info, nil
}
