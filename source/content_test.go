package source

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func TestExtractTextItems_TJKerning(t *testing.T) {
	// (8)0(8) stays together; -4704.6 is a column gap.
	stream := []byte(`BT
[(8)0(8)-4704.6(2)0(3)]TJ
ET`)

	got := nonEmpty(extractTextItems(stream, nil))
	want := []string{"88", "23"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractTextItems_LineBreaks(t *testing.T) {
	stream := []byte(`BT
(Motivos de ter parado de frequentar escola \(%\))Tj
0 -12 TD
(Sexo)Tj
T*
(Homens)Tj
ET`)

	items := extractTextItems(stream, nil)
	lines := groupIntoLines(items)
	want := [][]string{
		{"Motivos de ter parado de frequentar escola (%)"},
		{"Sexo"},
		{"Homens"},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got %v, want %v", lines, want)
	}
}

func TestExtractTextItems_SmallKerningConcatenates(t *testing.T) {
	stream := []byte(`BT
[(H)-50(o)-30(m)(e)(ns)]TJ
ET`)

	got := nonEmpty(extractTextItems(stream, nil))
	if len(got) != 1 || got[0] != "Homens" {
		t.Errorf("got %v, want [Homens]", got)
	}
}

func TestExtractTextItems_LargeCharSpacingSplitsGlyphs(t *testing.T) {
	stream := []byte(`BT
0.8 Tc
(123)Tj
ET`)

	got := nonEmpty(extractTextItems(stream, nil))
	want := []string{"1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractTextItems_HexStringsUseFontCMap(t *testing.T) {
	fonts := map[string]CMap{
		"F1": {0x0003: " ", 0x0024: "A", 0x0025: "B"},
	}
	stream := []byte(`BT
/F1 9 Tf
<00240025>Tj
/F2 9 Tf
<4142>Tj
ET`)

	got := nonEmpty(extractTextItems(stream, fonts))
	want := []string{"AB", "AB"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractTextItems_EscapesAndOctal(t *testing.T) {
	stream := []byte(`BT
(Ra\347a)Tj
ET`)

	got := nonEmpty(extractTextItems(stream, nil))
	assert.Equal(t, []string{"Raça"}, got)
}

func TestExtractTextItems_SkipsDictionaries(t *testing.T) {
	stream := []byte(`/Span << /MCID 0 >> BDC
BT
(Total)Tj
ET
EMC`)

	got := nonEmpty(extractTextItems(stream, nil))
	assert.Equal(t, []string{"Total"}, got)
}

func TestParseCMap(t *testing.T) {
	data := []byte(`/CIDInit /ProcSet findresource begin
2 beginbfchar
<0003> <0020>
<0011> <00E7>
endbfchar
2 beginbfrange
<0024> <0026> <0041>
<0050> <0051> [<0061> <00660069>]
endbfrange
endcmap`)

	cm := ParseCMap(data)
	assert.Equal(t, " ", cm[0x0003])
	assert.Equal(t, "ç", cm[0x0011])
	assert.Equal(t, "A", cm[0x0024])
	assert.Equal(t, "B", cm[0x0025])
	assert.Equal(t, "C", cm[0x0026])
	assert.Equal(t, "a", cm[0x0050])
	assert.Equal(t, "fi", cm[0x0051])

	assert.Equal(t, "AB C", DecodeHexString("0024 0025 0003 0026", cm))
	assert.Equal(t, "A", DecodeHexString("00249999", cm))
}

func TestLayoutLine(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{"anchor", []string{"Motivos de ter parado (%)"}, []string{"Motivos de ter parado (%)"}},
		{"header", []string{"Motivo A", "Motivo B"}, []string{"", "", "Motivo A", "Motivo B"}},
		{"data", []string{"Homens", "6,0", "4,5"}, []string{"Homens", "", "6,0", "4,5"}},
		{"split label", []string{"15 a 17", "anos", "5,0", "-"}, []string{"15 a 17 anos", "", "5,0", "-"}},
		{"values only", []string{"1,0", "2,0"}, []string{"", "", "1,0", "2,0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layoutLine(tt.items))
		})
	}
}

func TestGroupIntoLines(t *testing.T) {
	items := []string{"", "A", "B", "", "C", "", "", "D", " ", "E", ""}
	got := groupIntoLines(items)
	want := [][]string{{"A", "B"}, {"C"}, {"D"}, {"E"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
