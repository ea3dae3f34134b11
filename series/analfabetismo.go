package series

import (
	"context"
	"strconv"
	"strings"

	"github.com/zalepa/educenso/geo"
	"github.com/zalepa/educenso/parser"
	"github.com/zalepa/educenso/source"
)

// AnalfabetismoRecord is a region's illiteracy rate attributed to one of
// its UFs.
type AnalfabetismoRecord struct {
	Year   string `json:"year" csv:"ano"`
	Region string `json:"region" csv:"regiao"`
	UF     string `json:"uf" csv:"uf"`
	Rate   string `json:"rate" csv:"taxa_analfabetismo"`
}

// RegionRates reads the national and regional rates of an IBGE illiteracy
// table. A row counts when its first cell names Brasil or a region; its
// rate is the first non-empty cell after the label. Later rows for the
// same name overwrite earlier ones.
func RegionRates(table parser.RawTable) map[string]float64 {
	rates := make(map[string]float64)
	for _, row := range table {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		name := strings.ReplaceAll(strings.TrimSpace(row[0]), "  ", " ")
		if strings.HasPrefix(name, geo.Country) {
			name = geo.Country
		}
		if name != geo.Country && !geo.IsRegion(name) {
			continue
		}
		for _, c := range row[1:] {
			if c = strings.TrimSpace(c); c != "" {
				rates[name] = parser.ParseNumber(c)
				break
			}
		}
	}
	return rates
}

// ExpandRegions attributes each region's rate to its UFs, regions in
// publication order and UFs sorted. Regions without a rate are left out.
func ExpandRegions(year int, rates map[string]float64) []AnalfabetismoRecord {
	var out []AnalfabetismoRecord
	y := strconv.Itoa(year)
	for _, region := range geo.Regions() {
		rate, ok := rates[region]
		if !ok {
			continue
		}
		for _, uf := range geo.UFs(region) {
			out = append(out, AnalfabetismoRecord{
				Year:   y,
				Region: region,
				UF:     uf,
				Rate:   parser.FormatPercent(rate),
			})
		}
	}
	return out
}

// Analfabetismo reads the yearly illiteracy tables and expands them to
// UFs, years ascending. When several files carry the same year the last
// one in files wins. Unreadable files are logged and skipped.
func Analfabetismo(ctx context.Context, files []source.YearFile, opts Options) ([]AnalfabetismoRecord, error) {
	files = lastPerYear(files)
	results := make([][]AnalfabetismoRecord, len(files))

	err := forEachTable(ctx, files, opts, func(i int, f source.YearFile, table parser.RawTable) {
		results[i] = ExpandRegions(f.Year, RegionRates(table))
	})
	if err != nil {
		return nil, err
	}

	var out []AnalfabetismoRecord
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

// lastPerYear keeps, for each year, the last file listed for it. Order is
// otherwise preserved.
func lastPerYear(files []source.YearFile) []source.YearFile {
	last := make(map[int]int, len(files))
	for i, f := range files {
		last[f.Year] = i
	}
	var out []source.YearFile
	for i, f := range files {
		if last[f.Year] == i {
			out = append(out, f)
		}
	}
	return out
}
