package series

import (
	"fmt"
	"strings"

	"github.com/zalepa/educenso/geo"
	"github.com/zalepa/educenso/parser"
)

// INEP column names.
const (
	colYear       = "NU_ANO_CENSO"
	colUnit       = "UNIDGEO"
	colLocation   = "NO_CATEGORIA"
	colDependency = "NO_DEPENDENCIA"
)

// Education levels.
const (
	LevelFundamental = "Fundamental"
	LevelMedio       = "Medio"
)

// RendimentoRecord is one UF's pass, fail and dropout rates for a school
// administration and level.
type RendimentoRecord struct {
	Year       string `json:"year" csv:"ano"`
	Region     string `json:"region" csv:"regiao"`
	UF         string `json:"uf" csv:"uf"`
	Dependency string `json:"dependency" csv:"dependencia"`
	Level      string `json:"level" csv:"nivel"`
	Approval   string `json:"approval" csv:"taxa_aprovacao"`
	Failure    string `json:"failure" csv:"taxa_reprovacao"`
	Dropout    string `json:"dropout" csv:"taxa_abandono"`
}

// DistorcaoRecord is one UF's age-grade distortion rate for a school
// administration and level.
type DistorcaoRecord struct {
	Year       string `json:"year" csv:"ano"`
	Region     string `json:"region" csv:"regiao"`
	UF         string `json:"uf" csv:"uf"`
	Dependency string `json:"dependency" csv:"dependencia"`
	Level      string `json:"level" csv:"nivel"`
	Distortion string `json:"distortion" csv:"taxa_distorcao"`
}

var rendimentoColumns = []string{
	colYear, colUnit, colLocation, colDependency,
	"1_CAT_FUN", "2_CAT_FUN", "3_CAT_FUN",
	"1_CAT_MED", "2_CAT_MED", "3_CAT_MED",
}

var distorcaoColumns = []string{
	colYear, colUnit, colLocation, colDependency,
	"FUN_CAT_0", "MED_CAT_0",
}

// Rendimento reads an INEP "taxas de rendimento" table. Only rows for the
// whole location ("Total") of a UF are kept; a level whose three rates are
// all zero is not emitted.
func Rendimento(table parser.RawTable) []RendimentoRecord {
	var out []RendimentoRecord
	for _, r := range ufRows(table, rendimentoColumns) {
		for _, lv := range []struct{ name, suffix string }{
			{LevelFundamental, "FUN"},
			{LevelMedio, "MED"},
		} {
			aprov := parser.ParseNumber(r.get("1_CAT_" + lv.suffix))
			reprov := parser.ParseNumber(r.get("2_CAT_" + lv.suffix))
			aband := parser.ParseNumber(r.get("3_CAT_" + lv.suffix))
			if aprov == 0 && reprov == 0 && aband == 0 {
				continue
			}
			out = append(out, RendimentoRecord{
				Year:       r.year,
				Region:     geo.Region(r.uf),
				UF:         r.uf,
				Dependency: r.dependency,
				Level:      lv.name,
				Approval:   parser.FormatPercent(aprov),
				Failure:    parser.FormatPercent(reprov),
				Dropout:    parser.FormatPercent(aband),
			})
		}
	}
	return out
}

// Distorcao reads an INEP "taxa de distorção idade-série" table with the
// same row selection as Rendimento. Zero rates are not emitted.
func Distorcao(table parser.RawTable) []DistorcaoRecord {
	var out []DistorcaoRecord
	for _, r := range ufRows(table, distorcaoColumns) {
		for _, lv := range []struct{ name, col string }{
			{LevelFundamental, "FUN_CAT_0"},
			{LevelMedio, "MED_CAT_0"},
		} {
			v := parser.ParseNumber(r.get(lv.col))
			if v == 0 {
				continue
			}
			out = append(out, DistorcaoRecord{
				Year:       r.year,
				Region:     geo.Region(r.uf),
				UF:         r.uf,
				Dependency: r.dependency,
				Level:      lv.name,
				Distortion: parser.FormatPercent(v),
			})
		}
	}
	return out
}

// ufRow is a data row of an INEP table whose unit is a UF.
type ufRow struct {
	cells      []string
	header     map[string]int
	year       string
	uf         string
	dependency string
}

func (r ufRow) get(col string) string {
	idx, ok := r.header[col]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// ufRows returns the "Total" location rows of UFs, read against the first
// header row that carries every required column. Rows before that header
// are ignored.
func ufRows(table parser.RawTable, required []string) []ufRow {
	header, at := findHeader(table, required)
	if header == nil {
		return nil
	}
	var out []ufRow
	for _, cells := range table[at+1:] {
		r := ufRow{cells: cells, header: header}
		if r.get(colLocation) != "Total" {
			continue
		}
		code, ok := geo.UFCode(r.get(colUnit))
		if !ok {
			continue
		}
		r.year = r.get(colYear)
		r.uf = code
		r.dependency = r.get(colDependency)
		out = append(out, r)
	}
	return out
}

func findHeader(table parser.RawTable, required []string) (map[string]int, int) {
	for i, row := range table {
		header := make(map[string]int, len(row))
		for j, c := range row {
			name := strings.TrimSpace(c)
			if _, dup := header[name]; !dup {
				header[name] = j
			}
		}
		if _, ok := header[colYear]; !ok {
			continue
		}
		if missing := missingColumns(header, required); len(missing) > 0 {
			continue
		}
		return header, i
	}
	return nil, -1
}

func missingColumns(header map[string]int, required []string) []string {
	var missing []string
	for _, c := range required {
		if _, ok := header[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// CheckHeader reports which required columns a table lacks, so callers can
// tell a misshapen export from one with no UF rows.
func CheckHeader(table parser.RawTable, kind string) error {
	var required []string
	switch kind {
	case "rendimento":
		required = rendimentoColumns
	case "distorcao":
		required = distorcaoColumns
	default:
		return fmt.Errorf("unknown INEP table kind %q", kind)
	}
	if header, _ := findHeader(table, required); header != nil {
		return nil
	}
	var best []string
	for _, row := range table {
		header := make(map[string]int, len(row))
		for j, c := range row {
			header[strings.TrimSpace(c)] = j
		}
		if _, ok := header[colYear]; ok {
			best = missingColumns(header, required)
			break
		}
	}
	if best == nil {
		return fmt.Errorf("%s: no header row with %s", kind, colYear)
	}
	return fmt.Errorf("%s: header lacks columns %s", kind, strings.Join(best, ", "))
}
