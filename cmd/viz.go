package cmd

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zalepa/educenso/config"
	"github.com/zalepa/educenso/output"
	"github.com/zalepa/educenso/parser"
)

type dataPoint struct {
	date  string
	value float64
}

// Filter values for the sex and age-band dimensions.
var validSexes = []string{"all", "masculino", "feminino"}

var validBands = []string{"all", "15-17", "18-24", "25-29"}

// query selects which motive records make up each plotted series.
//
// With no motive, there is one series per motive and each point is the sum
// of the cells matching sex and band. With a motive, the series split that
// motive by whichever of sex and band is "all".
type query struct {
	motive string
	sex    string
	band   string
}

func (q query) normalize() query {
	q.sex = strings.ToLower(strings.TrimSpace(q.sex))
	q.band = strings.ToLower(strings.TrimSpace(q.band))
	if !contains(validSexes, q.sex) {
		q.sex = "all"
	}
	if !contains(validBands, q.band) {
		q.band = "all"
	}
	q.motive = strings.TrimSpace(q.motive)
	return q
}

// singleEntity reports whether the query yields at most one series.
func (q query) singleEntity() bool {
	return q.motive != "" && q.sex != "all" && q.band != "all"
}

func (q query) title() string {
	subject := "Motivos"
	if q.motive != "" {
		subject = q.motive
	}
	return fmt.Sprintf("%s — %s, %s (%%)", subject, sexLabel(q.sex), bandLabel(q.band))
}

func sexLabel(s string) string {
	switch s {
	case "masculino":
		return parser.SexLabels[parser.Male]
	case "feminino":
		return parser.SexLabels[parser.Female]
	}
	return "Ambos os sexos"
}

func bandLabel(b string) string {
	switch b {
	case "15-17":
		return parser.AgeBandLabels[parser.Band15To17]
	case "18-24":
		return parser.AgeBandLabels[parser.Band18To24]
	case "25-29":
		return parser.AgeBandLabels[parser.Band25To29]
	}
	return "15 a 29 anos"
}

func (q query) matches(r parser.Record) bool {
	// Marginal rows would double count the joint cells.
	if r.Sex == parser.TotalLabel || r.AgeBand == parser.TotalLabel {
		return false
	}
	if q.sex != "all" && r.Sex != sexLabel(q.sex) {
		return false
	}
	if q.band != "all" && r.AgeBand != bandLabel(q.band) {
		return false
	}
	if q.motive != "" && !strings.Contains(parser.Fold(r.Category), parser.Fold(q.motive)) {
		return false
	}
	return true
}

func (q query) seriesKey(r parser.Record) string {
	switch {
	case q.motive == "":
		return r.Category
	case q.sex == "all" && q.band == "all":
		return r.Sex + ", " + r.AgeBand
	case q.sex == "all":
		return r.Sex
	case q.band == "all":
		return r.AgeBand
	}
	return r.Category
}

// buildSeries sums the matching records per series and year.
func buildSeries(recs []parser.Record, q query) (map[string][]dataPoint, map[string]bool) {
	sums := make(map[string]map[string]float64)
	allDates := make(map[string]bool)

	for _, r := range recs {
		date := strconv.Itoa(r.Year)
		allDates[date] = true
		if !q.matches(r) {
			continue
		}
		v, err := strconv.ParseFloat(r.Percentage, 64)
		if err != nil {
			continue
		}
		key := q.seriesKey(r)
		if sums[key] == nil {
			sums[key] = make(map[string]float64)
		}
		sums[key][date] += v
	}

	sorted := sortDates(allDates)
	series := make(map[string][]dataPoint, len(sums))
	for key, byDate := range sums {
		for _, d := range sorted {
			if v, ok := byDate[d]; ok {
				series[key] = append(series[key], dataPoint{date: d, value: v})
			}
		}
	}
	return series, allDates
}

// loadMotives reads motive records from the SQLite database when dbPath is
// set, otherwise from the CSV file at path.
func loadMotives(ctx context.Context, path, dbPath string) ([]parser.Record, error) {
	if dbPath == "" {
		return output.ReadMotives(path)
	}
	s, err := output.OpenStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Motives(ctx)
}

// defaultMotivesFile is the motives output of the configured batch.
func defaultMotivesFile() string {
	cfg, err := config.Load("")
	if err != nil {
		return output.MotivesFile
	}
	return cfg.OutputPath(output.MotivesFile)
}

// Viz implements the "viz" subcommand.
func Viz(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("viz", flag.ExitOnError)
	file := fs.String("file", "", "motives CSV written by process (default: configured output)")
	dbPath := fs.String("sqlite", "", "read the records from this SQLite database instead")
	motive := fs.String("motive", "", "motive filter (accent and case insensitive substring)")
	sex := fs.String("sex", "all", "sex: "+strings.Join(validSexes, ", "))
	band := fs.String("band", "all", "age band: "+strings.Join(validBands, ", "))
	pdfOut := fs.String("pdf", "", "output PDF file path (omit for terminal output)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: educenso viz [file] [flags]

Visualize the reasons for leaving school over the years.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  educenso viz input-csv/processed/ibge_motivos.csv
  educenso viz --motive "interesse" --sex feminino
  educenso viz --motive "gravidez" --sex feminino --band 15-17
  educenso viz --sqlite educenso.db --band 18-24 --pdf motivos.pdf
`)
	}
	// Reorder args so the first positional arg (file) comes after all flags.
	// Go's flag package stops parsing at the first non-flag argument.
	args = reorderArgs(args, "sqlite", "file", "motive", "sex", "band", "pdf")
	fs.Parse(args)

	if fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		*file = defaultMotivesFile()
	}

	if !contains(validSexes, strings.ToLower(*sex)) {
		fmt.Fprintf(os.Stderr, "invalid --sex %q; valid options: %s\n", *sex, strings.Join(validSexes, ", "))
		os.Exit(1)
	}
	if !contains(validBands, strings.ToLower(*band)) {
		fmt.Fprintf(os.Stderr, "invalid --band %q; valid options: %s\n", *band, strings.Join(validBands, ", "))
		os.Exit(1)
	}
	q := query{motive: *motive, sex: *sex, band: *band}.normalize()

	recs, err := loadMotives(ctx, *file, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading data: %v\n", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Fprintf(os.Stderr, "no records in %s\n", *file)
		os.Exit(1)
	}

	series, dates := buildSeries(recs, q)
	if len(series) == 0 {
		fmt.Fprintf(os.Stderr, "no data matched the given filters\n")
		os.Exit(1)
	}

	title := q.title()
	single := q.singleEntity() || len(series) == 1

	if *pdfOut != "" {
		if err := renderPDF(*pdfOut, title, series, sortDates(dates), single); err != nil {
			fmt.Fprintf(os.Stderr, "error writing PDF: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *pdfOut)
		return
	}

	if single {
		var name string
		var points []dataPoint
		for k, v := range series {
			name = k
			points = v
			break
		}
		renderChart(title+" — "+name, points)
	} else {
		renderTable(title, series, dates)
	}
}

// seriesSummary is one row of the terminal and PDF summary tables.
type seriesSummary struct {
	name   string
	values []float64
	first  float64
	latest float64
}

func summarize(series map[string][]dataPoint, years []string) []seriesSummary {
	names := sortedEntityNames(series)
	out := make([]seriesSummary, len(names))
	for i, n := range names {
		vals := alignValues(series[n], years)
		out[i] = seriesSummary{name: n, values: vals, first: firstNonNaN(vals), latest: lastNonNaN(vals)}
	}
	return out
}

// change is the latest value minus the first, in percentage points.
func (s seriesSummary) change() string {
	if math.IsNaN(s.first) || math.IsNaN(s.latest) {
		return "- -"
	}
	return fmt.Sprintf("%+.2f", s.latest-s.first)
}

func yearSpan(years []string) string {
	if len(years) == 0 {
		return "no data"
	}
	return fmt.Sprintf("%s to %s (%d years)", years[0], years[len(years)-1], len(years))
}

func renderTable(title string, series map[string][]dataPoint, dates map[string]bool) {
	years := sortDates(dates)
	rows := summarize(series, years)

	// Long motive names are cut so each row stays on one line.
	width := 10
	for _, r := range rows {
		width = max(width, utf8.RuneCountInString(r.name))
	}
	width = min(width, 60)

	fmt.Println(title)
	fmt.Printf("%s\n\n", yearSpan(years))

	rowFmt := fmt.Sprintf("%%-%ds  %%8s  %%8s  %%8s   %%s\n", width)
	fmt.Printf(rowFmt, "Series", "First", "Latest", "Change", "Trend")
	fmt.Println(strings.Repeat("─", width+33+len(years)))
	for _, r := range rows {
		fmt.Printf(rowFmt, truncate(r.name, width), formatNum(r.first), formatNum(r.latest), r.change(), sparkline(r.values))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// alignValues maps dataPoints to a slice aligned with sortedDates, filling gaps with NaN.
func alignValues(pts []dataPoint, sortedDates []string) []float64 {
	lookup := make(map[string]float64, len(pts))
	for _, p := range pts {
		lookup[p.date] = p.value
	}
	vals := make([]float64, len(sortedDates))
	for i, d := range sortedDates {
		if v, ok := lookup[d]; ok {
			vals[i] = v
		} else {
			vals[i] = math.NaN()
		}
	}
	return vals
}

func firstNonNaN(vals []float64) float64 {
	for _, v := range vals {
		if !math.IsNaN(v) {
			return v
		}
	}
	return math.NaN()
}

func lastNonNaN(vals []float64) float64 {
	for i := len(vals) - 1; i >= 0; i-- {
		if !math.IsNaN(vals[i]) {
			return vals[i]
		}
	}
	return math.NaN()
}

// valueRange returns the minimum and maximum of the non-NaN values; ok is
// false when there are none.
func valueRange(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}

// sparkline renders values as block characters scaled between their
// minimum and maximum. Gaps are blanks.
func sparkline(values []float64) string {
	levels := []rune("▁▂▃▄▅▆▇█")
	lo, hi, ok := valueRange(values)

	var sb strings.Builder
	for _, v := range values {
		switch {
		case !ok || math.IsNaN(v):
			sb.WriteRune(' ')
		case hi == lo:
			sb.WriteRune(levels[len(levels)/2])
		default:
			i := int((v - lo) / (hi - lo) * float64(len(levels)-1))
			sb.WriteRune(levels[min(i, len(levels)-1)])
		}
	}
	return sb.String()
}

// Terminal line chart size.
const (
	chartRows     = 15
	chartMaxWidth = 90
)

// renderChart draws one series as a terminal line chart with one column
// block per year.
func renderChart(title string, points []dataPoint) {
	fmt.Println(title)
	pts := make([]dataPoint, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.value) {
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		fmt.Println("(no data)")
		return
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].date < pts[j].date })
	fmt.Println()

	// Years are four characters; each block holds one plus a gap.
	colWidth := max(5, min(8, chartMaxWidth/len(pts)))
	width := colWidth * len(pts)
	center := func(i int) int { return i*colWidth + colWidth/2 }

	vals := make([]float64, len(pts))
	for i, p := range pts {
		vals[i] = p.value
	}
	lo, hi, _ := valueRange(vals)
	if hi == lo {
		lo -= 0.5
		hi += 0.5
	}
	rowOf := func(v float64) int {
		r := int(math.Round((v - lo) / (hi - lo) * (chartRows - 1)))
		return max(0, min(chartRows-1, r))
	}

	grid := make([][]rune, chartRows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	for i := range pts {
		row := rowOf(vals[i])
		grid[row][center(i)] = '●'
		if i+1 == len(pts) {
			break
		}
		next := rowOf(vals[i+1])
		from, to := center(i), center(i+1)
		for col := from + 1; col < to; col++ {
			t := float64(col-from) / float64(to-from)
			r := int(math.Round(float64(row) + t*float64(next-row)))
			if grid[r][col] == ' ' {
				grid[r][col] = '·'
			}
		}
	}

	labels := make(map[int]string, 5)
	for k := 0; k <= 4; k++ {
		r := int(math.Round(float64(k) / 4 * (chartRows - 1)))
		labels[r] = formatCompact(lo + float64(r)/(chartRows-1)*(hi-lo))
	}
	for r := chartRows - 1; r >= 0; r-- {
		fmt.Printf("%8s │%s\n", labels[r], string(grid[r]))
	}
	fmt.Printf("%8s └%s\n", "", strings.Repeat("─", width))

	axis := []rune(strings.Repeat(" ", width))
	for i, p := range pts {
		start := max(0, center(i)-len(p.date)/2)
		for j, c := range p.date {
			if start+j < width {
				axis[start+j] = c
			}
		}
	}
	fmt.Printf("%8s  %s\n", "", string(axis))
}

// formatNum renders a percentage with two decimals.
func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "- -"
	}
	return parser.FormatPercent(v)
}

func formatCompact(v float64) string {
	if math.Abs(v) >= 10 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// reorderArgs moves positional arguments to the end so that Go's flag package
// can parse all flags regardless of where a positional argument appears.
// valued names the flags that take a value; any other flag is boolean.
func reorderArgs(args []string, valued ...string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(args[i], "-") {
			positional = append(positional, args[i])
			continue
		}
		flags = append(flags, args[i])
		name := strings.TrimLeft(args[i], "-")
		if strings.Contains(name, "=") || !contains(valued, name) {
			continue
		}
		if i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return append(flags, positional...)
}

func sortDates(dates map[string]bool) []string {
	sorted := make([]string, 0, len(dates))
	for d := range dates {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)
	return sorted
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
