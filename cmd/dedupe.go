package cmd

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/zalepa/educenso/parser"
)

// motiveKey reduces a motive name to the form used to detect spelling
// variants: folded case and accents, punctuation dropped, whitespace
// collapsed. "Não tinha interesse em estudar." and "Nao tinha interesse
// em estudar" share a key.
func motiveKey(name string) string {
	folded := parser.Fold(name)
	var sb strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

type duplicateCandidate struct {
	nameA  string // keeper (more recent data)
	nameB  string // to be renamed
	yearsA []int
	yearsB []int
}

// findDuplicates detects motive names that likely refer to the same motive.
// It groups names by motiveKey, then checks whether the two variants ever
// co-occur in the same year. If they don't overlap, they're flagged as a
// candidate merge.
func findDuplicates(recs []parser.Record) []duplicateCandidate {
	// key -> actualName -> years
	groups := make(map[string]map[string]map[int]bool)

	for _, r := range recs {
		key := motiveKey(r.Category)
		if key == "" {
			continue
		}
		if groups[key] == nil {
			groups[key] = make(map[string]map[int]bool)
		}
		if groups[key][r.Category] == nil {
			groups[key][r.Category] = make(map[int]bool)
		}
		groups[key][r.Category][r.Year] = true
	}

	var candidates []duplicateCandidate
	for _, nameMap := range groups {
		if len(nameMap) < 2 {
			continue
		}
		names := make([]string, 0, len(nameMap))
		for n := range nameMap {
			names = append(names, n)
		}
		sort.Strings(names)

		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				yearsA, yearsB := nameMap[names[i]], nameMap[names[j]]

				// If they co-occur in any year, the table lists them as
				// distinct motives.
				hasOverlap := false
				for y := range yearsA {
					if yearsB[y] {
						hasOverlap = true
						break
					}
				}
				if hasOverlap {
					continue
				}

				a, b := names[i], names[j]
				yA, yB := sortedYears(yearsA), sortedYears(yearsB)
				if yB[len(yB)-1] > yA[len(yA)-1] {
					a, b = b, a
					yA, yB = yB, yA
				}

				candidates = append(candidates, duplicateCandidate{
					nameA:  a,
					nameB:  b,
					yearsA: yA,
					yearsB: yB,
				})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].nameA != candidates[j].nameA {
			return candidates[i].nameA < candidates[j].nameA
		}
		return candidates[i].nameB < candidates[j].nameB
	})
	return candidates
}

func sortedYears(m map[int]bool) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func formatYearRange(years []int) string {
	switch len(years) {
	case 0:
		return "no data"
	case 1:
		return fmt.Sprintf("%d (1 year)", years[0])
	}
	return fmt.Sprintf("%d to %d (%d years)", years[0], years[len(years)-1], len(years))
}

// harmonizeMotives finds motive name variants across years and prompts on
// out/in to merge them, or merges all of them when acceptAll is set.
// Merges are applied in place and the number of renamed records is
// returned.
func harmonizeMotives(recs []parser.Record, in io.Reader, out io.Writer, acceptAll bool) int {
	candidates := findDuplicates(recs)
	if len(candidates) == 0 {
		return 0
	}

	merges := make(map[string]string)
	scanner := bufio.NewScanner(in)
	for _, c := range candidates {
		if _, done := merges[c.nameB]; done {
			continue
		}
		if acceptAll {
			fmt.Fprintf(out, "  %q → %q: %d + %d years\n", c.nameB, c.nameA, len(c.yearsB), len(c.yearsA))
			merges[c.nameB] = c.nameA
			continue
		}

		fmt.Fprintf(out, "\nPotential duplicate motive:\n")
		fmt.Fprintf(out, "  %-50s %s\n", c.nameA, formatYearRange(c.yearsA))
		fmt.Fprintf(out, "  %-50s %s\n", c.nameB, formatYearRange(c.yearsB))
		fmt.Fprintf(out, "Merge %q → %q? [y/N/a(ll)]: ", c.nameB, c.nameA)

		if !scanner.Scan() {
			break
		}
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		switch answer {
		case "a", "all":
			acceptAll = true
			merges[c.nameB] = c.nameA
		case "y", "yes":
			merges[c.nameB] = c.nameA
		}
	}

	if len(merges) == 0 {
		return 0
	}

	applied := 0
	for i := range recs {
		if newName, ok := resolveMerge(merges, recs[i].Category); ok {
			recs[i].Category = newName
			applied++
		}
	}
	fmt.Fprintf(out, "dedupe: renamed %d records\n", applied)
	return applied
}

// resolveMerge follows merge chains (a → b → c) to the final keeper.
func resolveMerge(merges map[string]string, name string) (string, bool) {
	target, ok := merges[name]
	if !ok {
		return name, false
	}
	for i := 0; i < len(merges); i++ {
		next, ok := merges[target]
		if !ok || next == name {
			break
		}
		target = next
	}
	return target, true
}
