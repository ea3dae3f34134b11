package cmd

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

const (
	pageWidth  = 8.5 * vg.Inch
	pageHeight = 11 * vg.Inch
	pdfMargin  = 0.75 * vg.Inch

	tableRowHeight = 0.28 * vg.Inch

	// overviewSeries caps the lines drawn together on the overview chart.
	overviewSeries = 8
)

// Summary table column offsets from the left margin.
const (
	colFirst  = 3.1 * vg.Inch
	colLatest = 3.7 * vg.Inch
	colChange = 4.3 * vg.Inch
	colTrend  = 5.0 * vg.Inch
)

var (
	chartBlue = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	mutedGray = color.Gray{Y: 100}
	ruleGray  = color.Gray{Y: 180}
)

var tableHeaders = []struct {
	x    vg.Length
	text string
}{
	{0, "Series"},
	{colFirst, "First"},
	{colLatest, "Latest"},
	{colChange, "Change"},
	{colTrend, "Trend"},
}

// The Liberation fonts bundled with vgpdf have no glyphs for these.
var pdfText = strings.NewReplacer("—", "-", "–", "-", "…", "...").Replace

// renderPDF writes the series to path. A single series gets one chart.
// Otherwise the document opens with an overview chart of the series with
// the highest latest values, then a summary table, then one chart per
// series.
func renderPDF(path, title string, series map[string][]dataPoint, years []string, singleEntity bool) error {
	names := sortedEntityNames(series)
	if len(names) == 0 {
		return errors.New("no series to draw")
	}
	title = pdfText(title)
	c := vgpdf.New(pageWidth, pageHeight)

	if singleEntity {
		if err := drawChart(c, title+" - "+pdfText(names[0]), series, names[:1], years); err != nil {
			return err
		}
	} else {
		top := rankByLatest(series, names, years)
		if len(top) > overviewSeries {
			top = top[:overviewSeries]
		}
		if err := drawChart(c, title, series, top, years); err != nil {
			return err
		}
		c.NextPage()
		drawSummaryTable(c, title, summarize(series, years), years)
		for _, name := range names {
			c.NextPage()
			if err := drawChart(c, pdfText(name), series, []string{name}, years); err != nil {
				return err
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sortedEntityNames(series map[string][]dataPoint) []string {
	names := make([]string, 0, len(series))
	for k := range series {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// rankByLatest orders names by their most recent value, highest first.
func rankByLatest(series map[string][]dataPoint, names, years []string) []string {
	latest := make(map[string]float64, len(names))
	for _, n := range names {
		v := lastNonNaN(alignValues(series[n], years))
		if math.IsNaN(v) {
			v = math.Inf(-1)
		}
		latest[n] = v
	}
	ranked := append([]string(nil), names...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return latest[ranked[i]] > latest[ranked[j]]
	})
	return ranked
}

// yearXYs places each point at the index of its year, dropping points
// whose year is not in years.
func yearXYs(points []dataPoint, years []string) plotter.XYs {
	idx := make(map[string]int, len(years))
	for i, y := range years {
		idx[y] = i
	}
	var xys plotter.XYs
	for _, p := range points {
		i, ok := idx[p.date]
		if !ok || math.IsNaN(p.value) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: p.value})
	}
	sort.Slice(xys, func(a, b int) bool { return xys[a].X < xys[b].X })
	return xys
}

// drawChart draws the named series as lines over the years on the current
// page. More than one series gets distinct colors and a legend.
func drawChart(c *vgpdf.Canvas, title string, series map[string][]dataPoint, names, years []string) error {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.Text = "%"
	p.Legend.Top = true
	p.Legend.TextStyle.Font.Size = vg.Points(7)
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, name := range names {
		xys := yearXYs(series[name], years)
		if len(xys) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		var clr color.Color = chartBlue
		if len(names) > 1 {
			clr = plotutil.Color(i)
		}
		line.Color = clr
		line.Width = vg.Points(1.5)
		points.Color = clr
		points.Radius = vg.Points(2.5)
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		if len(names) > 1 {
			p.Legend.Add(truncate(pdfText(name), 60), line, points)
		}
		drawn++
	}
	if drawn == 0 {
		return nil
	}

	p.X.Tick.Marker = yearTicks(years)
	p.X.Min = -0.5
	p.X.Max = float64(len(years)) - 0.5
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Tick.Marker = pctTicks{}

	p.Draw(draw.Crop(draw.New(c), pdfMargin, -pdfMargin, pdfMargin, -pdfMargin))
	return nil
}

// drawSummaryTable lists every series with its first and latest value, the
// change between them and a trend line, over as many pages as needed.
func drawSummaryTable(c *vgpdf.Canvas, title string, rows []seriesSummary, years []string) {
	for page, start := 0, 0; start < len(rows); page++ {
		if page > 0 {
			c.NextPage()
		}
		area := draw.Crop(draw.New(c), pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
		top := area.Max.Y

		heading := title
		if page > 0 {
			heading += " (continued)"
		}
		fillText(area, heading, vg.Points(12), area.Min.X, top-vg.Points(12), color.Black)
		fillText(area, yearSpan(years), vg.Points(9), area.Min.X, top-0.3*vg.Inch, mutedGray)

		headerY := top - 0.6*vg.Inch
		for _, h := range tableHeaders {
			fillText(area, h.text, vg.Points(9), area.Min.X+h.x, headerY, mutedGray)
		}
		ruleY := headerY - vg.Points(6)
		strokeHLine(area, area.Min.X, area.Max.X, ruleY, ruleGray)

		perPage := max(1, int((ruleY-area.Min.Y)/tableRowHeight))
		end := min(start+perPage, len(rows))
		for i, r := range rows[start:end] {
			drawSummaryRow(area, ruleY-vg.Length(i)*tableRowHeight, r)
		}
		start = end
	}
}

func drawSummaryRow(area draw.Canvas, rowTop vg.Length, r seriesSummary) {
	baseline := rowTop - tableRowHeight*0.65
	fillText(area, truncate(pdfText(r.name), 52), vg.Points(8), area.Min.X, baseline, color.Black)
	fillText(area, formatNum(r.first), vg.Points(8), area.Min.X+colFirst, baseline, color.Black)
	fillText(area, formatNum(r.latest), vg.Points(8), area.Min.X+colLatest, baseline, color.Black)
	fillText(area, r.change(), vg.Points(8), area.Min.X+colChange, baseline, color.Black)

	trend := draw.Canvas{
		Canvas: area.Canvas,
		Rectangle: vg.Rectangle{
			Min: vg.Point{X: area.Min.X + colTrend, Y: rowTop - tableRowHeight + vg.Points(2)},
			Max: vg.Point{X: area.Max.X, Y: rowTop - vg.Points(2)},
		},
	}
	drawTrend(trend, r.values)
}

// drawTrend draws vals as an axis-less line filling c.
func drawTrend(c draw.Canvas, vals []float64) {
	var xys plotter.XYs
	for i, v := range vals {
		if !math.IsNaN(v) {
			xys = append(xys, plotter.XY{X: float64(i), Y: v})
		}
	}
	if len(xys) < 2 {
		return
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(1.2)

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent
	p.Add(line)

	lo, hi, _ := valueRange(vals)
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.X.Min, p.X.Max = 0, float64(len(vals)-1)
	p.Y.Min, p.Y.Max = lo-pad, hi+pad
	p.Draw(c)
}

// yearTicks labels every year, or every nth one past a dozen.
type yearTicks []string

func (yt yearTicks) Ticks(_, _ float64) []plot.Tick {
	step := 1 + (len(yt)-1)/12
	ticks := make([]plot.Tick, len(yt))
	for i, y := range yt {
		ticks[i].Value = float64(i)
		if i%step == 0 {
			ticks[i].Label = y
		}
	}
	return ticks
}

type pctTicks struct{}

func (pctTicks) Ticks(lo, hi float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = formatCompact(ticks[i].Value)
		}
	}
	return ticks
}

func fillText(c draw.Canvas, txt string, size, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{Color: clr, Width: vg.Points(0.5)}, x0, y, x1, y)
}
