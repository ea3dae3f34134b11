package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zalepa/educenso/parser"
)

func TestMotiveKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Não tinha interesse em estudar", "nao tinha interesse em estudar"},
		{"Nao tinha interesse em estudar.", "nao tinha interesse em estudar"},
		{"  Tinha  que cuidar de afazeres domésticos, pessoas ou crianças ", "tinha que cuidar de afazeres domesticos pessoas ou criancas"},
		{"Por gravidez (1)", "por gravidez 1"},
		{"...", ""},
	}
	for _, tt := range tests {
		got := motiveKey(tt.input)
		if got != tt.want {
			t.Errorf("motiveKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func rec(year int, motive string) parser.Record {
	return parser.Record{Year: year, Category: motive, Sex: "Masculino", AgeBand: "15 a 17 anos", Percentage: "1.00"}
}

func TestFindDuplicates_NoOverlap(t *testing.T) {
	// The accented spelling appears from 2019 on, the plain one before.
	recs := []parser.Record{
		rec(2016, "Nao tinha interesse em estudar"),
		rec(2017, "Nao tinha interesse em estudar"),
		rec(2019, "Não tinha interesse em estudar"),
		rec(2022, "Não tinha interesse em estudar"),
	}

	candidates := findDuplicates(recs)
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	// Keeper should be the accented spelling (more recent data).
	if c.nameA != "Não tinha interesse em estudar" {
		t.Errorf("nameA = %q, want the accented spelling", c.nameA)
	}
	if c.nameB != "Nao tinha interesse em estudar" {
		t.Errorf("nameB = %q, want the plain spelling", c.nameB)
	}
	if got := formatYearRange(c.yearsA); got != "2019 to 2022 (2 years)" {
		t.Errorf("yearsA = %q", got)
	}
}

func TestFindDuplicates_WithOverlap(t *testing.T) {
	// Both spellings appear in 2018; the table treats them as distinct.
	recs := []parser.Record{
		rec(2017, "Trabalhava"),
		rec(2018, "Trabalhava"),
		rec(2018, "Trabalhava."),
		rec(2019, "Trabalhava."),
	}
	if candidates := findDuplicates(recs); len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestFindDuplicates_DifferentMotives(t *testing.T) {
	recs := []parser.Record{
		rec(2016, "Trabalhava"),
		rec(2019, "Procurava trabalho"),
	}
	if candidates := findDuplicates(recs); len(candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(candidates))
	}
}

func TestHarmonizeMotives_AcceptAll(t *testing.T) {
	recs := []parser.Record{
		rec(2016, "Por gravidez"),
		rec(2017, "Por gravidez."),
		rec(2019, "POR GRAVIDEZ"),
	}

	var out bytes.Buffer
	n := harmonizeMotives(recs, strings.NewReader(""), &out, true)
	if n != 2 {
		t.Fatalf("renamed %d records, want 2", n)
	}
	for _, r := range recs {
		if r.Category != "POR GRAVIDEZ" {
			t.Errorf("year %d: category = %q, want the most recent spelling", r.Year, r.Category)
		}
	}
}

func TestHarmonizeMotives_Prompt(t *testing.T) {
	recs := []parser.Record{
		rec(2016, "Trabalhava"),
		rec(2019, "trabalhava"),
		rec(2016, "Outro motivo"),
		rec(2019, "Outro motivo."),
	}

	var out bytes.Buffer
	// First candidate ("Outro motivo." keeper) is declined, second accepted.
	n := harmonizeMotives(recs, strings.NewReader("n\ny\n"), &out, false)
	if n != 1 {
		t.Fatalf("renamed %d records, want 1", n)
	}
	if recs[0].Category != "trabalhava" {
		t.Errorf("recs[0].Category = %q, want trabalhava", recs[0].Category)
	}
	if recs[2].Category != "Outro motivo" {
		t.Errorf("recs[2].Category = %q, want unchanged", recs[2].Category)
	}
	if !strings.Contains(out.String(), "[y/N/a(ll)]") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestResolveMerge(t *testing.T) {
	merges := map[string]string{"a": "b", "b": "c"}
	if got, ok := resolveMerge(merges, "a"); !ok || got != "c" {
		t.Errorf("resolveMerge(a) = %q, %v; want c, true", got, ok)
	}
	if _, ok := resolveMerge(merges, "c"); ok {
		t.Errorf("resolveMerge(c) reported a merge")
	}
}
