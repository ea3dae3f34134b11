package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Label is the classification of a row's first cell.
type Label int

const (
	LabelUnknown Label = iota
	LabelBlank
	LabelTotal
	LabelSexHeader
	LabelAgeHeader
	LabelClosing
	LabelMale
	LabelFemale
	LabelAge15To17
	LabelAge18To24
	LabelAge25To29
)

var labelNames = map[Label]string{
	LabelUnknown:   "unknown",
	LabelBlank:     "blank",
	LabelTotal:     "total",
	LabelSexHeader: "sex-header",
	LabelAgeHeader: "age-header",
	LabelClosing:   "closing",
	LabelMale:      "male",
	LabelFemale:    "female",
	LabelAge15To17: "15-17",
	LabelAge18To24: "18-24",
	LabelAge25To29: "25-29",
}

func (l Label) String() string {
	if s, ok := labelNames[l]; ok {
		return s
	}
	return "unknown"
}

func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// closingPrefixes are the folded first-cell prefixes of sections whose rows
// are never part of a marginal. Anything that starts one of these ends an
// open sex or age-band section.
var closingPrefixes = []string{
	"cor ou raca",
	"condicao de atividade",
	"condicao de ocupacao",
	"condicao no domicilio",
	"condicao de estudante",
	"situacao do domicilio",
	"localizacao",
	"classes de percentual",
	"classes de rendimento",
	"nivel de instrucao",
	"grandes regioes",
	"fonte",
	"nota",
	"(1)",
	"(2)",
	"(3)",
	"*",
}

var (
	malePrefixes   = []string{"homens", "masculino"}
	femalePrefixes = []string{"mulheres", "feminino"}
)

// ageBandPrefixes lists the only age bands a breakdown may carry, in band
// order. Other ranges are ignored even when they look valid.
var ageBandPrefixes = []struct {
	prefix string
	label  Label
}{
	{"15 a 17", LabelAge15To17},
	{"18 a 24", LabelAge18To24},
	{"25 a 29", LabelAge25To29},
}

// ClassifyLabel classifies a first cell. Matching is done on the folded
// text (see Fold) by prefix, so "Homens" and "Masculino" both map to
// LabelMale and "Cor ou raça" closes a section like "Cor ou raca".
func ClassifyLabel(cell string) Label {
	l := Fold(cell)
	switch {
	case l == "":
		return LabelBlank
	case strings.HasPrefix(l, "total"):
		return LabelTotal
	case strings.HasPrefix(l, "sexo"):
		return LabelSexHeader
	case strings.HasPrefix(l, "grupos de idade"):
		return LabelAgeHeader
	case hasAnyPrefix(l, closingPrefixes):
		return LabelClosing
	case hasAnyPrefix(l, malePrefixes):
		return LabelMale
	case hasAnyPrefix(l, femalePrefixes):
		return LabelFemale
	}
	for _, b := range ageBandPrefixes {
		if strings.HasPrefix(l, b.prefix) {
			return b.label
		}
	}
	return LabelUnknown
}

// SexIndex maps a sex label to Male or Female.
func (l Label) SexIndex() (int, bool) {
	switch l {
	case LabelMale:
		return Male, true
	case LabelFemale:
		return Female, true
	}
	return 0, false
}

// BandIndex maps an age-band label to its band index.
func (l Label) BandIndex() (int, bool) {
	switch l {
	case LabelAge15To17:
		return Band15To17, true
	case LabelAge18To24:
		return Band18To24, true
	case LabelAge25To29:
		return Band25To29, true
	}
	return 0, false
}

// Fold lower-cases s, strips diacritics and collapses runs of whitespace
// (including non-breaking spaces) into single spaces.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
