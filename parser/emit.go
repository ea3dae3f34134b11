package parser

// EmitOptions controls which records Emit produces.
type EmitOptions struct {
	// Marginals also emits, after a category's six joint cells, the
	// overall total and the two one-dimensional breakdowns, with "Total"
	// in the dimension that is not broken down.
	Marginals bool
}

// Emit flattens the marginals of one year into records. Categories come in
// column order; within a category the joint cells come as male×(15–17,
// 18–24, 25–29) then female×(15–17, 18–24, 25–29). Categories whose total
// is not positive produce nothing.
func Emit(year int, ms []Marginals, opts EmitOptions) []Record {
	var out []Record
	for _, m := range ms {
		if !(m.Total > 0) {
			continue
		}
		j := Allocate(m.Total, m.Sex, m.Age)
		for s := range SexLabels {
			for b := range AgeBandLabels {
				out = append(out, record(year, m.Category.Name, SexLabels[s], AgeBandLabels[b], j[s][b]))
			}
		}
		if !opts.Marginals {
			continue
		}
		out = append(out, record(year, m.Category.Name, TotalLabel, TotalLabel, m.Total))
		for s := range SexLabels {
			out = append(out, record(year, m.Category.Name, SexLabels[s], TotalLabel, m.Sex[s]))
		}
		for b := range AgeBandLabels {
			out = append(out, record(year, m.Category.Name, TotalLabel, AgeBandLabels[b], m.Age[b]))
		}
	}
	return out
}

func record(year int, category, sex, band string, v float64) Record {
	return Record{
		Year:       year,
		Category:   category,
		Sex:        sex,
		AgeBand:    band,
		Percentage: FormatPercent(v),
	}
}

// ProcessTable runs the whole per-table pipeline: scan, extract marginals,
// allocate and emit. A table without the anchor or a header row yields no
// records and ok=false.
func ProcessTable(year int, table RawTable, anchor string, opts EmitOptions) (records []Record, ok bool) {
	s, ok := ScanTable(table, anchor)
	if !ok {
		return nil, false
	}
	return Emit(year, ExtractMarginals(s), opts), true
}
