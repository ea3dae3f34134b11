package parser

// RawTable is one source table: ordered rows of ordered text cells, as
// produced by a delimited-text, spreadsheet or PDF reader.
type RawTable [][]string

// Category is one column of the header row (a "motive").
type Category struct {
	Name   string `json:"name"`
	Column int    `json:"column"`
}

// Section tags a run of rows after the header row.
type Section int

const (
	SectionNone Section = iota
	SectionTotal
	SectionSex
	SectionAge
	SectionOther
)

func (s Section) String() string {
	switch s {
	case SectionTotal:
		return "total"
	case SectionSex:
		return "sex"
	case SectionAge:
		return "age"
	case SectionOther:
		return "other"
	}
	return "none"
}

func (s Section) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TaggedRow is a row the scanner kept, with the section it belongs to and
// the classification of its first cell.
type TaggedRow struct {
	Index   int      `json:"index"`
	Section Section  `json:"section"`
	Label   Label    `json:"label"`
	Cells   []string `json:"cells"`
}

// Sex and age-band indexes into Marginals and Joint.
const (
	Male = iota
	Female
)

const (
	Band15To17 = iota
	Band18To24
	Band25To29
)

// Canonical output labels.
var (
	SexLabels     = [2]string{"Masculino", "Feminino"}
	AgeBandLabels = [3]string{"15 a 17 anos", "18 a 24 anos", "25 a 29 anos"}
)

// TotalLabel fills the sex or age-band field of marginal records.
const TotalLabel = "Total"

// Marginals holds one category's overall total and its two one-dimensional
// breakdowns.
type Marginals struct {
	Category Category
	Total    float64
	Sex      [2]float64
	Age      [3]float64
}

// Joint is the estimated sex × age-band table of one category, indexed
// [Male|Female][Band15To17|Band18To24|Band25To29].
type Joint [2][3]float64

// Record is one output row of the motives series.
type Record struct {
	Year       int    `json:"year" csv:"ano"`
	Category   string `json:"category" csv:"motivo"`
	Sex        string `json:"sex" csv:"sexo"`
	AgeBand    string `json:"ageBand" csv:"faixa_etaria"`
	Percentage string `json:"percentage" csv:"percentual"`
}
