package tui

import (
	"fmt"
	"math"
	"strings"

	"argus/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// signalTypeShortLabels keeps signal-type chips and table cells narrow.
var signalTypeShortLabels = map[domain.SignalType]string{
	domain.SignalMACrossoverBullish: "MA+",
	domain.SignalMACrossoverBearish: "MA-",
	domain.SignalRSIOversold:        "RSI<30",
	domain.SignalRSIOverbought:      "RSI>70",
	domain.SignalMACDBullishCross:   "MACD+",
	domain.SignalMACDBearishCross:   "MACD-",
	domain.SignalNew52WHigh:         "52WH",
	domain.SignalNear52WHigh:        "n52WH",
	domain.SignalNew52WLow:          "52WL",
	domain.SignalNear52WLow:         "n52WL",
	domain.SignalAnomaly:            "ANOM",
}

// ShortSignalType returns a compact label for a signal type.
func ShortSignalType(t domain.SignalType) string {
	if label, ok := signalTypeShortLabels[t]; ok {
		return label
	}
	return strings.ToUpper(string(t))
}

func sentimentStyle(s domain.SignalSentiment) lipgloss.Style {
	switch s {
	case domain.SentimentBullish:
		return SentimentBullishStyle
	case domain.SentimentBearish:
		return SentimentBearishStyle
	}
	return SentimentNeutralStyle
}

// FormatScreenerEntry renders a screener result as a single line.
func FormatScreenerEntry(e domain.ScreenerEntry) string {
	changeStyle := PriceZeroStyle
	if e.ChangePercent > 0 {
		changeStyle = PriceUpStyle
	} else if e.ChangePercent < 0 {
		changeStyle = PriceDownStyle
	}

	sign := ""
	if e.ChangePercent > 0 {
		sign = "+"
	}

	posStyle := SentimentNeutralStyle
	if e.Position == domain.PositionAbove {
		posStyle = SentimentBullishStyle
	} else if e.Position == domain.PositionBelow {
		posStyle = SentimentBearishStyle
	}
	distSign := ""
	if e.DistancePercent > 0 {
		distSign = "+"
	}

	return fmt.Sprintf("%-6s %10s  %s  %s %s",
		e.Symbol,
		formatUSD(e.Price),
		changeStyle.Render(fmt.Sprintf("%s%.2f%%", sign, e.ChangePercent)),
		posStyle.Render(fmt.Sprintf("%s%.2f%%", distSign, e.DistancePercent)),
		SubtextStyle.Render(string(e.MAPeriod)+" "+string(e.Position)),
	)
}

// FormatSignal renders a signal as a single line, colored by sentiment.
func FormatSignal(s domain.Signal) string {
	style := sentimentStyle(s.Type.Sentiment())
	return fmt.Sprintf("#%-5d %-6s %s %10s  %s",
		s.ID,
		s.Symbol,
		style.Render(fmt.Sprintf("%-21s", string(s.Type))),
		formatUSD(s.Price),
		SubtextStyle.Render(s.Timestamp.Format("2006-01-02")),
	)
}

// RenderHeatMap renders a colored grid showing day change for each screened
// symbol.
func RenderHeatMap(entries []domain.ScreenerEntry, width int) string {
	if len(entries) == 0 {
		return SubtextStyle.Render("No screener data")
	}

	cellWidth := 8
	cols := width / cellWidth
	if cols < 1 {
		cols = 1
	}

	var rows []string
	var row []string
	for i, e := range entries {
		bg := HeatNeutral
		if e.ChangePercent > 0 {
			bg = heatColorScale(e.ChangePercent, 5, HeatGreen)
		} else if e.ChangePercent < 0 {
			bg = heatColorScale(-e.ChangePercent, 5, HeatRed)
		}

		cell := lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Width(cellWidth - 1).
			Align(lipgloss.Center).
			Render(e.Symbol)

		row = append(row, cell)
		if (i+1)%cols == 0 || i == len(entries)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return strings.Join(rows, "\n")
}

// RenderBarChart renders an ASCII bar chart of accuracy values.
func RenderBarChart(label string, accuracy float64, barWidth int) string {
	if barWidth <= 0 {
		barWidth = 20
	}
	filled := int(math.Round(accuracy * float64(barWidth)))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	// A direction call is a coin flip at 50%.
	style := AccuracyGoodStyle
	if accuracy < 0.5 {
		style = AccuracyBadStyle
	} else if accuracy < 0.6 {
		style = AccuracyOkStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) + SubtextStyle.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%-21s %s %.1f%%", label, bar, accuracy*100)
}

// heatColorScale produces a color scaled by magnitude.
func heatColorScale(magnitude, maxMagnitude float64, baseColor lipgloss.Color) lipgloss.Color {
	intensity := magnitude / maxMagnitude
	if intensity > 1 {
		intensity = 1
	}
	if intensity < 0.1 {
		return HeatNeutral
	}
	return baseColor
}

func formatUSD(v float64) string {
	if v >= 1000 {
		return "$" + addCommas(fmt.Sprintf("%.2f", v))
	}
	if v >= 1 {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("$%.4f", v)
}

func addCommas(s string) string {
	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
		fracPart = s[dot:]
	}
	n := len(intPart)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	result.WriteString(fracPart)
	return result.String()
}
