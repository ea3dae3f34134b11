package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zalepa/educenso/parser"
)

// ReadXLSX reads a workbook table. With an anchor, the first sheet whose
// text contains it is used; otherwise, or when no sheet matches, the first
// sheet that has any rows.
func ReadXLSX(path, anchor string) (parser.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var first [][]string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		if first == nil {
			first = rows
		}
		if anchor != "" && sheetContains(rows, anchor) {
			return parser.RawTable(rows), nil
		}
	}
	return parser.RawTable(first), nil
}

func sheetContains(rows [][]string, s string) bool {
	for _, row := range rows {
		if strings.Contains(strings.Join(row, ","), s) {
			return true
		}
	}
	return false
}
