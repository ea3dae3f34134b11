package parser

import (
	"math"
	"strconv"
	"strings"
)

// missingValues are the placeholders census exports use for "no value".
var missingValues = map[string]bool{
	"":     true,
	"NA":   true,
	"NULL": true,
	"-":    true,
	"--":   true,
	"- -":  true,
	"...":  true,
	"X":    true,
}

// ParseNumber converts a census cell to a float. It never fails: missing
// markers and unparseable text yield 0.
//
// Both the point and the comma decimal conventions are accepted. When a
// cell carries both separators the last one is the decimal mark, so
// "1.234,56" and "1,234.56" both read as 1234.56; a lone comma is a
// decimal comma.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if missingValues[strings.ToUpper(s)] {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatPercent renders v with exactly two decimals.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
