// Package series turns the year files of each published series into
// output records. Motives runs the section-aware motives pipeline; the
// other three series are flat INEP and IBGE tables keyed by UF.
package series

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zalepa/educenso/parser"
	"github.com/zalepa/educenso/source"
)

// DefaultWorkers bounds how many files are read at once.
const DefaultWorkers = 4

// Options configures a multi-file series run.
type Options struct {
	Source  source.Options
	Emit    parser.EmitOptions
	Workers int
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return DefaultWorkers
	}
	return o.Workers
}

// Motives runs the motives pipeline over every file and returns the
// records in file order. Files are processed concurrently; a file that
// cannot be read or that has no motives block yields no records and does
// not stop the batch. The only error is ctx's.
func Motives(ctx context.Context, files []source.YearFile, opts Options) ([]parser.Record, error) {
	log := opts.logger()
	results := make([][]parser.Record, len(files))

	err := forEachTable(ctx, files, opts, func(i int, f source.YearFile, table parser.RawTable) {
		recs, ok := parser.ProcessTable(f.Year, table, opts.Source.Anchor, opts.Emit)
		if !ok {
			log.Info("table skipped", "path", f.Path, "year", f.Year, "reason", "no anchor or header row")
			return
		}
		log.Debug("table processed", "path", f.Path, "year", f.Year, "records", len(recs))
		results[i] = recs
	})
	if err != nil {
		return nil, err
	}

	var out []parser.Record
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

// forEachTable reads files concurrently and hands each successfully read
// table to fn along with its index. fn may run on several goroutines at
// once but never twice for the same index.
func forEachTable(ctx context.Context, files []source.YearFile, opts Options, fn func(int, source.YearFile, parser.RawTable)) error {
	log := opts.logger()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := source.ReadTable(f.Path, opts.Source)
			if err != nil {
				log.Warn("cannot read table", "path", f.Path, "error", err)
				return nil
			}
			fn(i, f, table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
