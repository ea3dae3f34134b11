// Package output writes series records to semicolon-delimited CSV files
// and to an optional SQLite database.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/zalepa/educenso/parser"
)

// Comma is the field delimiter of every output file.
const Comma = ';'

// File names of the four series inside the output directory.
const (
	MotivesFile       = "ibge_motivos.csv"
	RendimentoFile    = "inep_rendimento.csv"
	DistorcaoFile     = "inep_distorcao.csv"
	AnalfabetismoFile = "ibge_analfabetismo.csv"
)

// WriteCSV writes records, a slice of structs with csv tags, to path. The
// header row comes from the tags. Parent directories are created.
func WriteCSV(path string, records any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = Comma
	w.UseCRLF = true
	if err := gocsv.MarshalCSV(records, w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadMotives loads a motives file written by WriteCSV.
func ReadMotives(path string) ([]parser.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = Comma
	var recs []parser.Record
	if err := gocsv.UnmarshalCSV(r, &recs); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}
