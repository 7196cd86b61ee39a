// Package chart renders signal snapshot images: a daily candle pane with a
// type-specific overlay, plus an indicator strip underneath.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"argus/internal/domain"
	"argus/internal/indicator"
)

const (
	chartWidth  = 960
	chartHeight = 640

	// Roughly six months of sessions; longer histories are trimmed to the
	// newest window while indicators still compute over the full input.
	maxChartBars = 120
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colBull       = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colBear       = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colWick       = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colMarker     = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colPrimary    = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colSecondary  = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colVolume     = color.RGBA{R: 120, G: 139, B: 164, A: 255}
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) RenderSignalChart(bars []domain.Bar, sig domain.Signal) (*domain.SignalImageData, error) {
	all := normalizeBars(bars)
	if len(all) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to render chart")
	}
	offset := 0
	if len(all) > maxChartBars {
		offset = len(all) - maxChartBars
	}
	view := all[offset:]

	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, chartWidth-20, (chartHeight*72)/100)
	auxRect := image.Rect(60, mainRect.Max.Y+16, chartWidth-20, chartHeight-30)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, auxRect, 8, 3)

	minPrice, maxPrice := priceBounds(view)
	drawCandles(img, mainRect, view, minPrice, maxPrice)

	markerX := mapIndexToX(markerIndex(view, sig), len(view), mainRect)
	drawLine(img, markerX, mainRect.Min.Y, markerX, mainRect.Max.Y, colMarker)

	closes := extractCloses(all)
	switch sig.Type {
	case domain.SignalMACrossoverBullish, domain.SignalMACrossoverBearish:
		drawMAOverlay(img, mainRect, closes, offset, sig, minPrice, maxPrice)
		drawVolumeStrip(img, auxRect, view)
	case domain.SignalRSIOversold, domain.SignalRSIOverbought:
		drawRSIStrip(img, auxRect, closes, offset)
	case domain.SignalMACDBullishCross, domain.SignalMACDBearishCross:
		drawMACDStrip(img, auxRect, closes, offset)
	case domain.SignalNew52WHigh, domain.SignalNear52WHigh:
		drawLevel(img, mainRect, detailFloat(sig, "high_52w"), minPrice, maxPrice)
		drawVolumeStrip(img, auxRect, view)
	case domain.SignalNew52WLow, domain.SignalNear52WLow:
		drawLevel(img, mainRect, detailFloat(sig, "low_52w"), minPrice, maxPrice)
		drawVolumeStrip(img, auxRect, view)
	case domain.SignalAnomaly:
		drawVolumeZScoreStrip(img, auxRect, view)
	default:
		drawVolumeStrip(img, auxRect, view)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &domain.SignalImageData{
		Ref: domain.SignalImageRef{
			MimeType: "image/png",
			Width:    chartWidth,
			Height:   chartHeight,
		},
		Bytes: buf.Bytes(),
	}, nil
}

func normalizeBars(in []domain.Bar) []domain.Bar {
	out := append([]domain.Bar(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// markerIndex finds the bar the signal fired on; a miss marks the newest bar.
func markerIndex(view []domain.Bar, sig domain.Signal) int {
	for i := len(view) - 1; i >= 0; i-- {
		if view[i].Timestamp.Equal(sig.Timestamp) {
			return i
		}
	}
	return len(view) - 1
}

func priceBounds(bars []domain.Bar) (float64, float64) {
	minPrice := bars[0].Low
	maxPrice := bars[0].High
	for _, b := range bars {
		if b.Low < minPrice {
			minPrice = b.Low
		}
		if b.High > maxPrice {
			maxPrice = b.High
		}
	}
	if maxPrice <= minPrice {
		maxPrice = minPrice + 1
	}
	return minPrice, maxPrice
}

func drawCandles(img *image.RGBA, rect image.Rectangle, bars []domain.Bar, minPrice, maxPrice float64) {
	candleWidth := maxInt(3, (rect.Dx()-10)/len(bars)-1)
	for i, b := range bars {
		x := mapIndexToX(i, len(bars), rect)
		highY := mapValueToY(b.High, minPrice, maxPrice, rect)
		lowY := mapValueToY(b.Low, minPrice, maxPrice, rect)
		drawLine(img, x, highY, x, lowY, colWick)

		openY := mapValueToY(b.Open, minPrice, maxPrice, rect)
		closeY := mapValueToY(b.Close, minPrice, maxPrice, rect)
		top := minInt(openY, closeY)
		bottom := maxInt(openY, closeY)
		if bottom-top < 2 {
			bottom = top + 2
		}

		bodyRect := image.Rect(x-candleWidth/2, top, x+candleWidth/2+1, bottom+1)
		bodyColor := colBull
		if b.Close < b.Open {
			bodyColor = colBear
		}
		fillRect(img, bodyRect, bodyColor)
	}
}

// drawMAOverlay plots the crossed average on the price scale. The period
// comes from the signal's details; an unparseable detail just skips the
// overlay rather than failing the render.
func drawMAOverlay(img *image.RGBA, rect image.Rectangle, closes []float64, offset int, sig domain.Signal, minPrice, maxPrice float64) {
	label, ok := sig.Details["ma_period"].(string)
	if !ok {
		return
	}
	period, ok := domain.MAPeriod(label).Days()
	if !ok {
		return
	}
	values := indicator.MAValues(closes, period, domain.MASimple)
	drawSeries(img, rect, values[offset:], minPrice, maxPrice, colSecondary)
}

func drawLevel(img *image.RGBA, rect image.Rectangle, level float64, minPrice, maxPrice float64) {
	if level == 0 {
		return
	}
	drawHorizontalValueLine(img, rect, level, minPrice, maxPrice, colSecondary)
}

func drawRSIStrip(img *image.RGBA, rect image.Rectangle, closes []float64, offset int) {
	values := indicator.RSIValues(closes, indicator.RSIPeriod)
	if len(values) == 0 {
		return
	}
	drawHorizontalValueLine(img, rect, indicator.RSIOversold, 0, 100, colBand)
	drawHorizontalValueLine(img, rect, indicator.RSIOverbought, 0, 100, colBand)
	drawSeries(img, rect, values[offset:], 0, 100, colPrimary)
}

func drawMACDStrip(img *image.RGBA, rect image.Rectangle, closes []float64, offset int) {
	macd, sigLine, _ := indicator.MACDValues(closes, indicator.MACDFastPeriod, indicator.MACDSlowPeriod, indicator.MACDSignalPeriod)
	macd = macd[offset:]
	sigLine = sigLine[offset:]
	minM, maxM := finiteBounds(macd)
	minS, maxS := finiteBounds(sigLine)
	minV := math.Min(minM, minS)
	maxV := math.Max(maxM, maxS)
	if minV == maxV {
		maxV = minV + 1
	}
	drawHorizontalValueLine(img, rect, 0, minV, maxV, colBand)
	drawSeries(img, rect, macd, minV, maxV, colPrimary)
	drawSeries(img, rect, sigLine, minV, maxV, colSecondary)
}

func drawVolumeStrip(img *image.RGBA, rect image.Rectangle, bars []domain.Bar) {
	volumes := extractVolumes(bars)
	_, maxV := finiteBounds(volumes)
	drawBars(img, rect, volumes, 0, maxV, colVolume)
}

// drawVolumeZScoreStrip plots each session's volume in trailing-20-session
// standard deviations, the anomaly model's strongest visual tell.
func drawVolumeZScoreStrip(img *image.RGBA, rect image.Rectangle, bars []domain.Bar) {
	if len(bars) < 21 {
		drawVolumeStrip(img, rect, bars)
		return
	}
	volumes := extractVolumes(bars)
	zscores := make([]float64, len(volumes))
	for i := range zscores {
		zscores[i] = math.NaN()
		if i < 20 {
			continue
		}
		m, s := meanStd(volumes[i-20 : i])
		if s == 0 {
			continue
		}
		zscores[i] = (volumes[i] - m) / s
	}
	minV, maxV := finiteBounds(zscores)
	if minV > 0 {
		minV = 0
	}
	if maxV < 2 {
		maxV = 2
	}
	drawHorizontalValueLine(img, rect, 2.0, minV, maxV, colBand)
	drawBars(img, rect, zscores, minV, maxV, colVolume)
}

func detailFloat(sig domain.Signal, key string) float64 {
	v, _ := sig.Details[key].(float64)
	return v
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	barW := maxInt(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := minInt(y, zeroY)
		bottom := maxInt(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/maxInt(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/maxInt(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func extractCloses(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}

func extractVolumes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Volume
	}
	return out
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if len(values) == 1 {
		return mean, 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
