package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalepa/educenso/config"
	"github.com/zalepa/educenso/logging"
	"github.com/zalepa/educenso/output"
	"github.com/zalepa/educenso/parser"
	"github.com/zalepa/educenso/series"
	"github.com/zalepa/educenso/source"
)

// Series names accepted by -series.
const (
	seriesMotivos       = "motivos"
	seriesRendimento    = "rendimento"
	seriesDistorcao     = "distorcao"
	seriesAnalfabetismo = "analfabetismo"
)

var allSeries = []string{seriesMotivos, seriesRendimento, seriesDistorcao, seriesAnalfabetismo}

// Process implements the "process" subcommand: read every input table of
// the selected series and write the normalized CSV files (and optionally a
// SQLite database).
func Process(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file (default educenso.yaml when present)")
	seriesFlag := fs.String("series", "all", "comma-separated series: "+strings.Join(allSeries, ", "))
	inputDir := fs.String("input", "", "input directory (overrides config)")
	outputDir := fs.String("output", "", "output directory (overrides config)")
	sqlitePath := fs.String("sqlite", "", "also write every series to this SQLite database")
	workers := fs.Int("workers", 0, "files read in parallel (overrides config)")
	marginals := fs.Bool("marginals", false, "also emit the motive totals and one-dimensional breakdowns")
	dedupe := fs.Bool("dedupe", false, "detect motive names that changed spelling across years and offer to merge them")
	yes := fs.Bool("yes", false, "with --dedupe, accept every merge without prompting")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: educenso process [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Reads the census tables under the input directory and writes one\nsemicolon-delimited CSV per series to the output directory.\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *inputDir != "" {
		cfg.Paths.InputDir = *inputDir
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}
	if *sqlitePath != "" {
		cfg.Paths.SQLite = *sqlitePath
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}
	if *marginals {
		cfg.Processing.Marginals = true
	}

	log, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	selected, err := parseSeriesList(*seriesFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	p := &processor{
		cfg:       cfg,
		log:       log,
		dedupe:    *dedupe,
		acceptAll: *yes,
		in:        os.Stdin,
		out:       os.Stderr,
	}
	results, err := p.run(ctx, selected)
	for _, r := range results {
		if r.skipped != "" {
			fmt.Fprintf(os.Stderr, "%s: skipped (%s)\n", r.name, r.skipped)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %d files, %d records → %s\n", r.name, r.files, r.records, r.path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseSeriesList validates a -series value. "all" or "" selects every
// series; order follows allSeries.
func parseSeriesList(s string) (map[string]bool, error) {
	selected := make(map[string]bool)
	if s == "" || s == "all" {
		for _, name := range allSeries {
			selected[name] = true
		}
		return selected, nil
	}
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !contains(allSeries, name) {
			return nil, fmt.Errorf("unknown series %q; valid options: %s", name, strings.Join(allSeries, ", "))
		}
		selected[name] = true
	}
	if len(selected) == 0 {
		return nil, errors.New("no series selected")
	}
	return selected, nil
}

type seriesResult struct {
	name    string
	files   int
	records int
	path    string
	skipped string
}

// processor runs the selected series with one configuration.
type processor struct {
	cfg       *config.Config
	log       *slog.Logger
	dedupe    bool
	acceptAll bool
	in        io.Reader
	out       io.Writer
}

func (p *processor) options() series.Options {
	return series.Options{
		Source: source.Options{
			Encoding:  p.cfg.Input.Encoding,
			Delimiter: p.cfg.Delimiter(),
			Anchor:    p.cfg.Input.Anchor,
		},
		Emit:    parser.EmitOptions{Marginals: p.cfg.Processing.Marginals},
		Workers: p.cfg.Processing.Workers,
		Logger:  p.log,
	}
}

func (p *processor) run(ctx context.Context, selected map[string]bool) ([]seriesResult, error) {
	var store *output.Store
	if p.cfg.Paths.SQLite != "" {
		s, err := output.OpenStore(p.cfg.Paths.SQLite)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		store = s
	}

	steps := []struct {
		name string
		fn   func(context.Context, *output.Store) (seriesResult, error)
	}{
		{seriesMotivos, p.motivos},
		{seriesRendimento, p.rendimento},
		{seriesDistorcao, p.distorcao},
		{seriesAnalfabetismo, p.analfabetismo},
	}

	var results []seriesResult
	for _, st := range steps {
		if !selected[st.name] {
			continue
		}
		r, err := st.fn(ctx, store)
		if err != nil {
			return results, fmt.Errorf("%s: %w", st.name, err)
		}
		r.name = st.name
		results = append(results, r)
	}
	return results, nil
}

func (p *processor) motivos(ctx context.Context, store *output.Store) (seriesResult, error) {
	files, err := source.DiscoverOrFallback(
		p.cfg.InputPath(p.cfg.Paths.MotivesDir),
		p.cfg.InputPath(p.cfg.Paths.MotivesFallback))
	if err != nil {
		return seriesResult{}, err
	}
	if len(files) == 0 {
		return seriesResult{skipped: "no input files"}, nil
	}

	recs, err := series.Motives(ctx, files, p.options())
	if err != nil {
		return seriesResult{}, err
	}
	if p.dedupe {
		harmonizeMotives(recs, p.in, p.out, p.acceptAll)
	}

	path := p.cfg.OutputPath(output.MotivesFile)
	if err := output.WriteCSV(path, recs); err != nil {
		return seriesResult{}, err
	}
	if store != nil {
		if err := store.ReplaceMotives(ctx, recs); err != nil {
			return seriesResult{}, err
		}
	}
	return seriesResult{files: len(files), records: len(recs), path: path}, nil
}

func (p *processor) analfabetismo(ctx context.Context, store *output.Store) (seriesResult, error) {
	files, err := source.DiscoverOrFallback(
		p.cfg.InputPath(p.cfg.Paths.AnalfabetismoDir),
		p.cfg.InputPath(p.cfg.Paths.AnalfabetismoFallback),
		".csv")
	if err != nil {
		return seriesResult{}, err
	}
	if len(files) == 0 {
		return seriesResult{skipped: "no input files"}, nil
	}

	recs, err := series.Analfabetismo(ctx, files, p.options())
	if err != nil {
		return seriesResult{}, err
	}
	path := p.cfg.OutputPath(output.AnalfabetismoFile)
	if err := output.WriteCSV(path, recs); err != nil {
		return seriesResult{}, err
	}
	if store != nil {
		if err := store.ReplaceAnalfabetismo(ctx, recs); err != nil {
			return seriesResult{}, err
		}
	}
	return seriesResult{files: len(files), records: len(recs), path: path}, nil
}

func (p *processor) rendimento(ctx context.Context, store *output.Store) (seriesResult, error) {
	table, skipped, err := p.readINEP(p.cfg.Paths.RendimentoFile, seriesRendimento)
	if err != nil || skipped != "" {
		return seriesResult{skipped: skipped}, err
	}
	recs := series.Rendimento(table)

	path := p.cfg.OutputPath(output.RendimentoFile)
	if err := output.WriteCSV(path, recs); err != nil {
		return seriesResult{}, err
	}
	if store != nil {
		if err := store.ReplaceRendimento(ctx, recs); err != nil {
			return seriesResult{}, err
		}
	}
	return seriesResult{files: 1, records: len(recs), path: path}, nil
}

func (p *processor) distorcao(ctx context.Context, store *output.Store) (seriesResult, error) {
	table, skipped, err := p.readINEP(p.cfg.Paths.DistorcaoFile, seriesDistorcao)
	if err != nil || skipped != "" {
		return seriesResult{skipped: skipped}, err
	}
	recs := series.Distorcao(table)

	path := p.cfg.OutputPath(output.DistorcaoFile)
	if err := output.WriteCSV(path, recs); err != nil {
		return seriesResult{}, err
	}
	if store != nil {
		if err := store.ReplaceDistorcao(ctx, recs); err != nil {
			return seriesResult{}, err
		}
	}
	return seriesResult{files: 1, records: len(recs), path: path}, nil
}

// readINEP reads a single INEP export. A missing file is not an error: the
// series is reported as skipped.
func (p *processor) readINEP(name, kind string) (parser.RawTable, string, error) {
	path := p.cfg.InputPath(name)
	table, err := source.ReadTable(path, p.options().Source)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "input missing: " + filepath.Base(path), nil
	}
	if err != nil {
		return nil, "", err
	}
	if err := series.CheckHeader(table, kind); err != nil {
		p.log.Warn("unexpected INEP layout", "path", path, "error", err)
	}
	return table, "", nil
}
