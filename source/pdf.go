package source

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/zalepa/educenso/parser"
)

// page is one PDF page's decoded content stream and the ToUnicode maps of
// the fonts its resources declare, keyed by resource name.
type page struct {
	content []byte
	fonts   map[string]CMap
}

// ReadPDF reads a table published as PDF. Every page's text is split into
// lines and each line becomes one row (see layoutLine).
func ReadPDF(path string) (parser.RawTable, error) {
	pages, err := readPages(path)
	if err != nil {
		return nil, err
	}
	var table parser.RawTable
	for _, p := range pages {
		for _, line := range groupIntoLines(extractTextItems(p.content, p.fonts)) {
			table = append(table, layoutLine(line))
		}
	}
	return table, nil
}

func readPages(path string) ([]page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	ctx, err := pdfcpu.Read(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := pdfcpu.OptimizeXRefTable(ctx); err != nil {
		return nil, fmt.Errorf("optimize xref: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	var pages []page
	for i := 1; i <= ctx.PageCount; i++ {
		pageDict, _, _, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d dict: %w", i, err)
		}
		obj, found := pageDict.Find("Contents")
		if !found {
			continue
		}
		content, err := streamContent(ctx, obj)
		if err != nil {
			return nil, fmt.Errorf("page %d content stream: %w", i, err)
		}
		pages = append(pages, page{content: content, fonts: pageFonts(ctx, pageDict)})
	}
	return pages, nil
}

// streamContent dereferences and decodes a stream object, or the
// concatenation of an array of them.
func streamContent(ctx *model.Context, obj types.Object) ([]byte, error) {
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}
	switch v := obj.(type) {
	case types.StreamDict:
		if err := v.Decode(); err != nil {
			return nil, fmt.Errorf("decode stream: %w", err)
		}
		return v.Content, nil
	case types.Array:
		var buf bytes.Buffer
		for _, item := range v {
			data, err := streamContent(ctx, item)
			if err != nil {
				return nil, err
			}
			buf.Write(data)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unexpected stream type: %T", obj)
}

// pageFonts collects the ToUnicode maps of the page's fonts. Fonts without
// one, or whose map cannot be decoded, are left out; their hex strings fall
// back to raw bytes.
func pageFonts(ctx *model.Context, pageDict types.Dict) map[string]CMap {
	fonts := make(map[string]CMap)
	res, ok := dictEntry(ctx, pageDict, "Resources")
	if !ok {
		return fonts
	}
	fontDict, ok := dictEntry(ctx, res, "Font")
	if !ok {
		return fonts
	}
	for name := range fontDict {
		fd, ok := dictEntry(ctx, fontDict, name)
		if !ok {
			continue
		}
		obj, found := fd.Find("ToUnicode")
		if !found {
			continue
		}
		data, err := streamContent(ctx, obj)
		if err != nil {
			continue
		}
		fonts[name] = ParseCMap(data)
	}
	return fonts
}

func dictEntry(ctx *model.Context, d types.Dict, key string) (types.Dict, bool) {
	obj, found := d.Find(key)
	if !found {
		return nil, false
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil, false
	}
	sub, ok := obj.(types.Dict)
	return sub, ok
}

// groupIntoLines splits text items into lines on the empty-string
// line-break markers. Runs of markers collapse into one break.
func groupIntoLines(items []string) [][]string {
	var lines [][]string
	var current []string
	for _, item := range items {
		s := strings.TrimSpace(item)
		if s == "" {
			if len(current) > 0 {
				lines = append(lines, current)
				current = nil
			}
			continue
		}
		current = append(current, s)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// layoutLine places the items of one text line into table columns, so
// that PDF tables read like their CSV exports:
//
//   - a line ending in numbers becomes [label, "", numbers...], the label
//     being the leading text items joined by spaces;
//   - a line of numbers only, or of several text items, becomes
//     ["", "", items...], the shape of a header row;
//   - a single text item stays a one-cell row.
func layoutLine(items []string) []string {
	split := len(items)
	for split > 0 && isNumericItem(items[split-1]) {
		split--
	}
	switch {
	case split == len(items) && len(items) == 1:
		return []string{items[0]}
	case split == len(items) || split == 0:
		return append([]string{"", ""}, items...)
	}
	row := []string{strings.Join(items[:split], " "), ""}
	return append(row, items[split:]...)
}

// isNumericItem reports whether s is a value cell: digits with optional
// sign, separators and percent sign, or a missing-value marker.
func isNumericItem(s string) bool {
	switch s {
	case "-", "--", "- -", "...", "X":
		return true
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',' || r == '%':
		case (r == '-' || r == '+') && i == 0:
		default:
			return false
		}
	}
	return digits > 0
}
