package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// YearFile is one input table and the year its name encodes.
type YearFile struct {
	Year int
	Path string
}

// FallbackYear is the year assigned to a series' single legacy file.
const FallbackYear = 2023

// Discover lists the "Tabela*" files of dir with one of the given
// extensions (all readable ones when none are given). The year is the
// digits of the file stem; names whose digits are not exactly four long
// are skipped. The result is sorted by year, then path.
func Discover(dir string, exts ...string) ([]YearFile, error) {
	if len(exts) == 0 {
		exts = Extensions
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []YearFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "Tabela") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !containsString(exts, ext) {
			continue
		}
		year, ok := YearFromName(e.Name())
		if !ok {
			continue
		}
		files = append(files, YearFile{Year: year, Path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Year != files[j].Year {
			return files[i].Year < files[j].Year
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// DiscoverOrFallback is Discover, except that a missing dir falls back to
// the single file fallback, read as FallbackYear. When neither exists the
// result is empty.
func DiscoverOrFallback(dir, fallback string, exts ...string) ([]YearFile, error) {
	files, err := Discover(dir, exts...)
	if err == nil {
		return files, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if fallback == "" {
		return nil, nil
	}
	if _, err := os.Stat(fallback); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return []YearFile{{Year: FallbackYear, Path: fallback}}, nil
}

// YearFromName extracts the year from a file name such as
// "Tabela2016.csv".
func YearFromName(name string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var digits strings.Builder
	for _, r := range stem {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return year, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
