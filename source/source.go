// Package source reads census tables from disk into parser.RawTable values
// and discovers the year-coded files of a series.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zalepa/educenso/parser"
)

// ErrUnsupportedFormat is returned for files whose extension has no reader.
var ErrUnsupportedFormat = errors.New("unsupported table format")

// Options tunes how tables are read.
type Options struct {
	// Encoding of CSV files: "auto" (UTF-8 when valid, else Windows-1252),
	// "utf-8", "latin1" or "windows-1252".
	Encoding string
	// Delimiter of CSV files. Zero means ','.
	Delimiter rune
	// Anchor, when set, picks the spreadsheet sheet whose text contains it.
	Anchor string
}

// Extensions lists the file extensions ReadTable understands.
var Extensions = []string{".csv", ".xlsx", ".pdf"}

// ReadTable reads a table, choosing the reader by file extension.
func ReadTable(path string, opts Options) (parser.RawTable, error) {
	var (
		t   parser.RawTable
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err = ReadCSV(path, opts)
	case ".xlsx":
		t, err = ReadXLSX(path, opts.Anchor)
	case ".pdf":
		t, err = ReadPDF(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}
