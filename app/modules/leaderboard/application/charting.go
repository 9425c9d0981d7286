package leaderboardservice

import (
	"bytes"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette holds the colors used by rendered charts.
type ChartPalette struct {
	Background  drawing.Color
	PrimaryLine drawing.Color
	AccentLine  drawing.Color
	TextColor   drawing.Color
}

// DefaultChartPalette is a dark theme matching the web client.
var DefaultChartPalette = ChartPalette{
	Background:  drawing.Color{R: 24, G: 26, B: 27, A: 255},
	PrimaryLine: drawing.Color{R: 76, G: 175, B: 80, A: 255},
	AccentLine:  drawing.Color{R: 255, G: 193, B: 7, A: 255},
	TextColor:   drawing.Color{R: 222, G: 226, B: 230, A: 255},
}

// GeneratePointsHistoryChart produces a PNG line chart of a user's total
// points over the league's standings snapshots.
func GeneratePointsHistoryChart(history []HistoryPointView, palette ChartPalette) ([]byte, error) {
	// go-chart needs at least two points to draw a line.
	if len(history) < 2 {
		return renderNoDataPlaceholder(palette)
	}

	xValues := make([]time.Time, len(history))
	yValues := make([]float64, len(history))
	for i, entry := range history {
		xValues[i] = entry.RecordedAt
		yValues[i] = float64(entry.TotalPoints)
	}

	mainSeries := chart.TimeSeries{
		Name:    "Total Points",
		XValues: xValues,
		YValues: yValues,
		Style: chart.Style{
			StrokeColor: palette.PrimaryLine,
			StrokeWidth: 2,
			DotWidth:    4,
			DotColor:    palette.AccentLine,
		},
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		YAxis: chart.YAxis{
			Name: "Points",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
		},
		Series: []chart.Series{mainSeries},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No points history found"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
