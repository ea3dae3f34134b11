package cmd

import (
	"math"
	"reflect"
	"testing"

	"github.com/zalepa/educenso/parser"
)

func cell(year int, motive, sex, band, pct string) parser.Record {
	return parser.Record{Year: year, Category: motive, Sex: sex, AgeBand: band, Percentage: pct}
}

func vizRecords() []parser.Record {
	return []parser.Record{
		cell(2016, "Trabalhava", "Masculino", "15 a 17 anos", "1.00"),
		cell(2016, "Trabalhava", "Masculino", "18 a 24 anos", "2.00"),
		cell(2016, "Trabalhava", "Feminino", "15 a 17 anos", "3.00"),
		cell(2016, "Trabalhava", "Total", "Total", "10.00"),
		cell(2016, "Por gravidez", "Feminino", "15 a 17 anos", "0.50"),
		cell(2019, "Trabalhava", "Masculino", "15 a 17 anos", "1.50"),
	}
}

func pointsOf(pts []dataPoint) map[string]float64 {
	m := make(map[string]float64, len(pts))
	for _, p := range pts {
		m[p.date] = p.value
	}
	return m
}

func TestBuildSeries_PerMotive(t *testing.T) {
	series, dates := buildSeries(vizRecords(), query{}.normalize())

	if !reflect.DeepEqual(sortDates(dates), []string{"2016", "2019"}) {
		t.Fatalf("dates = %v", sortDates(dates))
	}
	if got := sortedEntityNames(series); !reflect.DeepEqual(got, []string{"Por gravidez", "Trabalhava"}) {
		t.Fatalf("series = %v", got)
	}
	// The marginal Total row is not added to the joint cells.
	want := map[string]float64{"2016": 6, "2019": 1.5}
	if got := pointsOf(series["Trabalhava"]); !reflect.DeepEqual(got, want) {
		t.Errorf("Trabalhava = %v, want %v", got, want)
	}
}

func TestBuildSeries_MotiveBySex(t *testing.T) {
	q := query{motive: "trabalh", sex: "all", band: "15-17"}.normalize()
	series, _ := buildSeries(vizRecords(), q)

	if got := sortedEntityNames(series); !reflect.DeepEqual(got, []string{"Feminino", "Masculino"}) {
		t.Fatalf("series = %v", got)
	}
	if got := pointsOf(series["Masculino"]); !reflect.DeepEqual(got, map[string]float64{"2016": 1, "2019": 1.5}) {
		t.Errorf("Masculino = %v", got)
	}
	if got := pointsOf(series["Feminino"]); !reflect.DeepEqual(got, map[string]float64{"2016": 3}) {
		t.Errorf("Feminino = %v", got)
	}
}

func TestBuildSeries_MotiveByCell(t *testing.T) {
	q := query{motive: "TRABALHAVA"}.normalize()
	series, _ := buildSeries(vizRecords(), q)

	want := []string{"Feminino, 15 a 17 anos", "Masculino, 15 a 17 anos", "Masculino, 18 a 24 anos"}
	if got := sortedEntityNames(series); !reflect.DeepEqual(got, want) {
		t.Errorf("series = %v, want %v", got, want)
	}
}

func TestQuery_SingleEntity(t *testing.T) {
	q := query{motive: "gravidez", sex: "Feminino", band: "15-17"}.normalize()
	if !q.singleEntity() {
		t.Fatalf("expected a single series for %+v", q)
	}
	series, _ := buildSeries(vizRecords(), q)
	if len(series) != 1 {
		t.Fatalf("got %d series, want 1", len(series))
	}
	if _, ok := series["Por gravidez"]; !ok {
		t.Errorf("series = %v", sortedEntityNames(series))
	}
}

func TestQuery_Normalize(t *testing.T) {
	q := query{motive: "  gravidez ", sex: " FEMININO", band: "30-39"}.normalize()
	want := query{motive: "gravidez", sex: "feminino", band: "all"}
	if q != want {
		t.Errorf("normalize = %+v, want %+v", q, want)
	}
	if got := q.title(); got != "gravidez — Feminino, 15 a 29 anos (%)" {
		t.Errorf("title = %q", got)
	}
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{
			[]string{"motivos.csv", "--motive", "gravidez", "--pdf", "out.pdf"},
			[]string{"--motive", "gravidez", "--pdf", "out.pdf", "motivos.csv"},
		},
		{
			[]string{"--marginals", "motivos.csv"},
			[]string{"--marginals", "motivos.csv"},
		},
		{
			[]string{"--sex=feminino", "motivos.csv", "--band", "15-17"},
			[]string{"--sex=feminino", "--band", "15-17", "motivos.csv"},
		},
		{
			[]string{"--motive", "x", "--", "-odd.csv"},
			[]string{"--motive", "x", "-odd.csv"},
		},
	}
	for _, tt := range tests {
		got := reorderArgs(tt.args, "motive", "sex", "band", "pdf")
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("reorderArgs(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestSparkline(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		values []float64
		want   string
	}{
		{[]float64{0, nan, 7}, "▁ █"},
		{[]float64{2, 2}, "▅▅"},
		{[]float64{nan, nan}, "  "},
	}
	for _, tt := range tests {
		if got := sparkline(tt.values); got != tt.want {
			t.Errorf("sparkline(%v) = %q, want %q", tt.values, got, tt.want)
		}
	}
}

func TestAlignValues(t *testing.T) {
	vals := alignValues([]dataPoint{{"2016", 1}, {"2019", 2}}, []string{"2016", "2017", "2019"})
	if len(vals) != 3 || vals[0] != 1 || !math.IsNaN(vals[1]) || vals[2] != 2 {
		t.Errorf("alignValues = %v", vals)
	}
	if got := lastNonNaN([]float64{1, 2, math.NaN()}); got != 2 {
		t.Errorf("lastNonNaN = %v, want 2", got)
	}
}

func TestFormatNum(t *testing.T) {
	if got := formatNum(math.NaN()); got != "- -" {
		t.Errorf("formatNum(NaN) = %q", got)
	}
	if got := formatNum(1.5); got != "1.50" {
		t.Errorf("formatNum(1.5) = %q", got)
	}
	if got := formatCompact(12.3); got != "12" {
		t.Errorf("formatCompact(12.3) = %q", got)
	}
	if got := formatCompact(1.26); got != "1.3" {
		t.Errorf("formatCompact(1.26) = %q", got)
	}
}
