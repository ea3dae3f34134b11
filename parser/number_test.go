package parser

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"10.00", 10},
		{"12,5", 12.5},
		{" 12,5 ", 12.5},
		{"1.234,56", 1234.56},
		{"1.234.567,8", 1234567.8},
		{"1,234.56", 1234.56},
		{"1 234,5", 1234.5},
		{"45,3%", 45.3},
		{"-2,5", -2.5},
		{"", 0},
		{"NA", 0},
		{"null", 0},
		{"-", 0},
		{"...", 0},
		{"abc", 0},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.00"},
		{1.7999999999999998, "1.80"},
		{10.0 / 6, "1.67"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
