package parser

import "strings"

// firstCategoryColumn is the lowest column that may hold a category.
// Columns 0 and 1 carry row labels.
const firstCategoryColumn = 2

// Scan is the result of locating the block of interest inside a table.
type Scan struct {
	AnchorRow  int         `json:"anchorRow"`
	HeaderRow  int         `json:"headerRow"`
	StartCol   int         `json:"startCol"`
	Categories []Category  `json:"categories"`
	Rows       []TaggedRow `json:"rows"`
}

// scanState is the row classifier's state: the open section and whether
// the overall total row was already taken.
type scanState struct {
	section   Section
	totalSeen bool
}

// ScanTable locates the anchor phrase, the header row of category names
// and the tagged rows that follow it. ok is false when the table has no
// anchor, no header after it, or no category column; such a table carries
// no data and is skipped by callers.
func ScanTable(table RawTable, anchor string) (Scan, bool) {
	anchorRow := findAnchor(table, anchor)
	if anchorRow < 0 {
		return Scan{}, false
	}

	headerRow := -1
	for i := anchorRow + 1; i < len(table); i++ {
		if !isBlank(table[i]) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return Scan{}, false
	}

	header := table[headerRow]
	startCol := -1
	for i := firstCategoryColumn; i < len(header); i++ {
		if strings.TrimSpace(header[i]) != "" {
			startCol = i
			break
		}
	}
	if startCol < 0 {
		return Scan{}, false
	}

	s := Scan{
		AnchorRow:  anchorRow,
		HeaderRow:  headerRow,
		StartCol:   startCol,
		Categories: categories(header, startCol),
	}

	var st scanState
	for i := headerRow + 1; i < len(table); i++ {
		var tr TaggedRow
		var keep bool
		st, tr, keep = step(st, table[i])
		if keep {
			tr.Index = i
			s.Rows = append(s.Rows, tr)
		}
	}
	return s, true
}

// step is the row classifier's transition function. It returns the next
// state and, when keep is true, the row tagged with the section it belongs
// to.
func step(st scanState, row []string) (next scanState, tr TaggedRow, keep bool) {
	if isBlank(row) {
		return st, TaggedRow{}, false
	}
	label := ClassifyLabel(row[0])
	switch label {
	case LabelTotal:
		if st.totalSeen {
			return st, TaggedRow{}, false
		}
		st.totalSeen = true
		return st, TaggedRow{Section: SectionTotal, Label: label, Cells: row}, true
	case LabelSexHeader:
		st.section = SectionSex
		return st, TaggedRow{}, false
	case LabelAgeHeader:
		st.section = SectionAge
		return st, TaggedRow{}, false
	case LabelClosing:
		st.section = SectionOther
		return st, TaggedRow{}, false
	}
	if st.section == SectionSex || st.section == SectionAge {
		return st, TaggedRow{Section: st.section, Label: label, Cells: row}, true
	}
	return st, TaggedRow{}, false
}

// findAnchor returns the first row whose cells, joined with commas,
// contain the anchor phrase, or -1.
func findAnchor(table RawTable, anchor string) int {
	if anchor == "" {
		return -1
	}
	for i, row := range table {
		if len(row) == 0 {
			continue
		}
		if strings.Contains(strings.Join(row, ","), anchor) {
			return i
		}
	}
	return -1
}

// categories lists the named header cells from startCol on. A repeated
// name keeps its first position but reads from the last column carrying
// it.
func categories(header []string, startCol int) []Category {
	var cats []Category
	pos := make(map[string]int)
	for col := startCol; col < len(header); col++ {
		name := strings.TrimSpace(header[col])
		if name == "" {
			continue
		}
		if i, ok := pos[name]; ok {
			cats[i].Column = col
			continue
		}
		pos[name] = len(cats)
		cats = append(cats, Category{Name: name, Column: col})
	}
	return cats
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
