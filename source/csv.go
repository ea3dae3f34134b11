package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/zalepa/educenso/parser"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ReadCSV reads a delimited-text table. Rows may have any number of
// fields and stray quotes are tolerated, as census exports are hand made.
func ReadCSV(path string, opts Options) (parser.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err = decodeText(data, opts.Encoding)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return parser.RawTable(rows), nil
}

// decodeText strips a UTF-8 byte order mark and converts the bytes to
// UTF-8 from the named encoding.
func decodeText(data []byte, name string) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var enc encoding.Encoding
	switch strings.ToLower(name) {
	case "", "auto":
		if utf8.Valid(data) {
			return data, nil
		}
		enc = charmap.Windows1252
	case "utf-8", "utf8":
		return data, nil
	case "latin1", "iso-8859-1":
		enc = charmap.ISO8859_1
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}
