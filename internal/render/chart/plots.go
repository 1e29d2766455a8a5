package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/state-visit-map/internal/domain"
)

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// visitsByYearPlot draws one bar group per year with a bar per region.
func visitsByYearPlot(title string, pivot domain.VisitPivot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Visits"
	p.Y.Min = 0
	p.Legend.Top = true

	n := len(pivot.Regions)
	if n == 0 {
		return p, nil
	}
	width := groupBarWidth(n)
	for j, region := range pivot.Regions {
		values := make(plotter.Values, len(pivot.Years))
		xys := make(plotter.XYs, len(pivot.Years))
		labels := make([]string, len(pivot.Years))
		for i := range pivot.Years {
			values[i] = float64(pivot.Counts[i][j])
			xys[i] = plotter.XY{X: float64(i), Y: values[i]}
			labels[i] = strconv.Itoa(pivot.Counts[i][j])
		}

		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, fmt.Errorf("visits bars for %s: %w", region, err)
		}
		bars.Color = plotutil.Color(j)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(j)-float64(n-1)/2) * width
		p.Add(bars)
		p.Legend.Add(region, bars)

		lbl, err := barLabels(xys, labels, bars.Offset)
		if err != nil {
			return nil, err
		}
		p.Add(lbl)
	}

	years := make([]string, len(pivot.Years))
	for i, y := range pivot.Years {
		years[i] = strconv.Itoa(y)
	}
	p.NominalX(years...)
	padTop(p, maxCount(pivot))
	return p, nil
}

// totalDaysPlot draws one bar per region in the given (ascending) order.
func totalDaysPlot(title string, totals []domain.RegionTotal) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "State"
	p.Y.Label.Text = "Total days stayed"
	p.Y.Min = 0
	if len(totals) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(totals))
	names := make([]string, len(totals))
	xys := make(plotter.XYs, len(totals))
	labels := make([]string, len(totals))
	var top float64
	for i, t := range totals {
		values[i] = t.Days
		names[i] = t.Name
		xys[i] = plotter.XY{X: float64(i), Y: t.Days}
		labels[i] = formatValue(t.Days)
		top = math.Max(top, t.Days)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("total days bars: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	lbl, err := barLabels(xys, labels, 0)
	if err != nil {
		return nil, err
	}
	p.Add(lbl)

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	padTop(p, top)
	return p, nil
}

// averageDaysPlot draws one bar per year.
func averageDaysPlot(title string, averages []domain.YearAverage) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Average days stayed"
	p.Y.Min = 0
	if len(averages) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(averages))
	years := make([]string, len(averages))
	xys := make(plotter.XYs, len(averages))
	labels := make([]string, len(averages))
	var top float64
	for i, a := range averages {
		values[i] = a.Average
		years[i] = strconv.Itoa(a.Year)
		xys[i] = plotter.XY{X: float64(i), Y: a.Average}
		labels[i] = formatValue(a.Average)
		top = math.Max(top, a.Average)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, fmt.Errorf("average days bars: %w", err)
	}
	bars.Color = color.RGBA{R: 34, G: 139, B: 34, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	lbl, err := barLabels(xys, labels, 0)
	if err != nil {
		return nil, err
	}
	p.Add(lbl)

	p.NominalX(years...)
	padTop(p, top)
	return p, nil
}

// barLabels centers a value label just above each bar. xOffset matches the
// bar's own offset inside a group.
func barLabels(xys plotter.XYs, labels []string, xOffset vg.Length) (*plotter.Labels, error) {
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("bar labels: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = draw.XCenter
		lbl.TextStyle[i].Font.Size = vg.Points(9)
	}
	lbl.Offset = vg.Point{X: xOffset, Y: vg.Points(3)}
	return lbl, nil
}

func groupBarWidth(regions int) vg.Length {
	w := vg.Points(60) / vg.Length(regions)
	return max(w, vg.Points(3))
}

func maxCount(p domain.VisitPivot) float64 {
	var top int
	for _, row := range p.Counts {
		for _, c := range row {
			top = max(top, c)
		}
	}
	return float64(top)
}

// padTop leaves room above the tallest bar for its label.
func padTop(p *plot.Plot, top float64) {
	if top > 0 {
		p.Y.Max = top * 1.15
	}
}

func formatValue(v float64) string {
	return domain.FormatNumber(math.Round(v*100) / 100)
}

func renderPNG(p *plot.Plot, width, height vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
