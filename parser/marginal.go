package parser

// ExtractMarginals reads each category's overall total and its sex and
// age-band breakdowns from a scan. The result follows category order.
//
// Only the first row carrying a given breakdown label is used for each
// category; later repeats are ignored. Rows of a sex section whose label
// is not male/female, and rows of an age section whose label is not one of
// the three known bands, are dropped.
func ExtractMarginals(s Scan) []Marginals {
	out := make([]Marginals, len(s.Categories))
	sexSeen := make([][2]bool, len(s.Categories))
	ageSeen := make([][3]bool, len(s.Categories))
	for i, c := range s.Categories {
		out[i].Category = c
	}

	for _, tr := range s.Rows {
		switch tr.Section {
		case SectionTotal:
			for i, c := range s.Categories {
				out[i].Total = ParseNumber(cell(tr.Cells, c.Column))
			}

		case SectionSex:
			idx, ok := tr.Label.SexIndex()
			if !ok {
				continue
			}
			for i, c := range s.Categories {
				if sexSeen[i][idx] {
					continue
				}
				sexSeen[i][idx] = true
				out[i].Sex[idx] = ParseNumber(cell(tr.Cells, c.Column))
			}

		case SectionAge:
			idx, ok := tr.Label.BandIndex()
			if !ok {
				continue
			}
			for i, c := range s.Categories {
				if ageSeen[i][idx] {
					continue
				}
				ageSeen[i][idx] = true
				out[i].Age[idx] = ParseNumber(cell(tr.Cells, c.Column))
			}
		}
	}
	return out
}
