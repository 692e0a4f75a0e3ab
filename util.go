package forecaster

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aouyang1/chronos/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	historyColor  = "#000000"
	forecastColor = "#1f5fbf"

	// missing marks a gap in an echarts series
	missing = "-"
)

func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: missing}
	}
	return opts.LineData{Value: v}
}

func dateAxis(t []time.Time) []string {
	x := make([]string, len(t))
	for i, v := range t {
		x[i] = v.Format(time.DateOnly)
	}
	return x
}

func baseGlobalOptions(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Chronos Retail Forecaster",
			Width:     "1100px",
			Height:    "520px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
	}
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice. NaN values are
// drawn as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseGlobalOptions(title)...)

	line = line.SetXAxis(dateAxis(t))
	for i, series := range seriesName {
		if i >= len(y) {
			break
		}
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			lineData = append(lineData, lineValue(v))
		}
		line = line.AddSeries(series, lineData,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

// LineForecaster generates an echart line chart of the recent history as a solid line followed by
// the forecast as a dashed line with its confidence interval shaded between the lower and upper
// bounds.
func LineForecaster(history *timedataset.TimeDataset, res *Results) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseGlobalOptions(fmt.Sprintf("Sales forecast - next %d days", res.Len()))...)

	nHist := history.Len()
	n := nHist + res.Len()
	t := make([]time.Time, 0, n)
	if history != nil {
		t = append(t, history.T...)
	}
	t = append(t, res.T...)

	actual := make([]opts.LineData, 0, n)
	predicted := make([]opts.LineData, 0, n)
	lower := make([]opts.LineData, 0, n)
	band := make([]opts.LineData, 0, n)

	for i := 0; i < nHist; i++ {
		actual = append(actual, lineValue(history.Y[i]))
		predicted = append(predicted, opts.LineData{Value: missing})
		lower = append(lower, opts.LineData{Value: missing})
		band = append(band, opts.LineData{Value: missing})
	}
	for i := 0; i < res.Len(); i++ {
		actual = append(actual, opts.LineData{Value: missing})
		predicted = append(predicted, lineValue(res.Forecast[i]))
		lower = append(lower, lineValue(res.Lower[i]))
		// stacked on top of lower so the filled area spans lower to upper
		band = append(band, lineValue(res.Upper[i]-res.Lower[i]))
	}

	hidden := opts.LineStyle{Opacity: opts.Float(0)}
	line.SetXAxis(dateAxis(t)).
		AddSeries("History", actual,
			charts.WithLineStyleOpts(opts.LineStyle{Color: historyColor, Type: "solid"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: historyColor}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		).
		AddSeries("Forecast", predicted,
			charts.WithLineStyleOpts(opts.LineStyle{Color: forecastColor, Type: "dashed"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: forecastColor}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		).
		AddSeries("Lower", lower,
			charts.WithLineStyleOpts(hidden),
			charts.WithLineChartOpts(opts.LineChart{Stack: "interval", ShowSymbol: opts.Bool(false)}),
		).
		AddSeries("Confidence interval", band,
			charts.WithLineStyleOpts(hidden),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: forecastColor}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: forecastColor, Opacity: opts.Float(0.1)}),
			charts.WithLineChartOpts(opts.LineChart{Stack: "interval", ShowSymbol: opts.Bool(false)}),
		)
	return line
}

// PlotHistory renders a page with the line chart of a prepared series
func PlotHistory(w io.Writer, td *timedataset.TimeDataset) error {
	if td == nil {
		return ErrEmptyTimeDataset
	}
	page := components.NewPage()
	page.PageTitle = "Chronos Retail Forecaster"
	page.AddCharts(
		LineTSeries("Historical data", []string{"Value"}, td.T, [][]float64{td.Y}),
	)
	return page.Render(w)
}

// PlotForecast renders a page with the forecast chart
func PlotForecast(w io.Writer, history *timedataset.TimeDataset, res *Results) error {
	if res == nil {
		return ErrUntrainedModel
	}
	page := components.NewPage()
	page.PageTitle = "Chronos Retail Forecaster"
	page.AddCharts(LineForecaster(history, res))
	return page.Render(w)
}
