package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalepa/educenso/config"
	"github.com/zalepa/educenso/output"
	"github.com/zalepa/educenso/parser"
	"github.com/zalepa/educenso/source"
)

// tableReport is what parse writes for one table: where the block was
// found, how each kept row was classified, the marginals and the records.
type tableReport struct {
	Path      string          `json:"path"`
	Year      int             `json:"year"`
	Found     bool            `json:"found"`
	Scan      *parser.Scan    `json:"scan,omitempty"`
	Marginals []marginalsJSON `json:"marginals,omitempty"`
	Records   []parser.Record `json:"records"`
}

type marginalsJSON struct {
	Category string     `json:"category"`
	Total    float64    `json:"total"`
	Sex      [2]float64 `json:"sex"`
	Age      [3]float64 `json:"age"`
}

// Parse implements the "parse" subcommand: run the motives pipeline on one
// table (or every table of a directory) and write a JSON report plus the
// records CSV next to each input.
func Parse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file (default educenso.yaml when present)")
	jsonOut := fs.String("json", "", "output JSON file path (single file mode only)")
	csvOut := fs.String("csv", "", "output CSV file path (single file mode only)")
	year := fs.Int("year", 0, "census year (single file mode; default: digits of the file name)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: educenso parse <table | directory> [--json out.json] [--csv out.csv]\n\n")
		fmt.Fprintf(os.Stderr, "If a directory is given, all Tabela* files in it are parsed and output\nfiles are written alongside each table.\n\n")
		fs.PrintDefaults()
	}
	args = reorderArgs(args, "config", "json", "csv", "year")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	opts := source.Options{
		Encoding:  cfg.Input.Encoding,
		Delimiter: cfg.Delimiter(),
		Anchor:    cfg.Input.Anchor,
	}
	emit := parser.EmitOptions{Marginals: cfg.Processing.Marginals}

	inputPath := fs.Arg(0)
	info, err := os.Stat(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if info.IsDir() {
		files, err := source.Discover(inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error listing directory: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Fprintf(os.Stderr, "no Tabela* files found in %s\n", inputPath)
			os.Exit(1)
		}
		for _, f := range files {
			parseSingleTable(f, opts, emit, "", "")
		}
		return
	}

	y := *year
	if y == 0 {
		var ok bool
		if y, ok = source.YearFromName(inputPath); !ok {
			y = source.FallbackYear
		}
	}
	parseSingleTable(source.YearFile{Year: y, Path: inputPath}, opts, emit, *jsonOut, *csvOut)
}

func parseSingleTable(f source.YearFile, opts source.Options, emit parser.EmitOptions, jsonOut, csvOut string) {
	name := filepath.Base(f.Path)
	dir := filepath.Dir(f.Path)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if jsonOut == "" {
		jsonOut = filepath.Join(dir, base+".json")
	}
	if csvOut == "" {
		csvOut = filepath.Join(dir, base+".records.csv")
	}

	table, err := source.ReadTable(f.Path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: error reading table: %v\n", name, err)
		return
	}
	report := buildReport(f, table, opts.Anchor, emit)

	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: error marshaling JSON: %v\n", name, err)
		return
	}
	if err := os.WriteFile(jsonOut, jsonData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "%s: error writing JSON: %v\n", name, err)
		return
	}
	if err := output.WriteCSV(csvOut, report.Records); err != nil {
		fmt.Fprintf(os.Stderr, "%s: error writing CSV: %v\n", name, err)
		return
	}

	if !report.Found {
		fmt.Fprintf(os.Stderr, "%s: %d rows, anchor or header not found → %s\n", name, len(table), filepath.Base(jsonOut))
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %d rows, %d categories, %d records → %s\n",
		name, len(table), len(report.Scan.Categories), len(report.Records), filepath.Base(jsonOut))
}

func buildReport(f source.YearFile, table parser.RawTable, anchor string, emit parser.EmitOptions) tableReport {
	report := tableReport{Path: f.Path, Year: f.Year, Records: []parser.Record{}}
	s, ok := parser.ScanTable(table, anchor)
	if !ok {
		return report
	}
	report.Found = true
	report.Scan = &s

	ms := parser.ExtractMarginals(s)
	for _, m := range ms {
		report.Marginals = append(report.Marginals, marginalsJSON{
			Category: m.Category.Name,
			Total:    m.Total,
			Sex:      m.Sex,
			Age:      m.Age,
		})
	}
	if recs := parser.Emit(f.Year, ms, emit); recs != nil {
		report.Records = recs
	}
	return report
}
