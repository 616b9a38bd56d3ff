package ranking

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/corpsite/corpsite-api/internal/investor"
)

var yearDigits = regexp.MustCompile(`\d{4}`)

// FiscalYears returns the distinct non-empty year tags of documents, most
// recent first. Tags are ordered by their first four-digit number ("2023-24"
// and "FY2023" both start in 2023); tags without one sort last.
func FiscalYears(documents []investor.Document) []string {
	seen := map[string]bool{}
	years := []string{}
	for _, d := range documents {
		y := d.Year
		if strings.TrimSpace(y) == "" || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	slices.SortFunc(years, func(a, b string) int {
		ya, okA := startYear(a)
		yb, okB := startYear(b)
		switch {
		case okA && okB && ya != yb:
			return yb - ya
		case okA && !okB:
			return -1
		case !okA && okB:
			return 1
		}
		return strings.Compare(b, a)
	})
	return years
}

// DefaultYear is the selection a year picker starts with: the most recent tag,
// or "" when no document carries one.
func DefaultYear(documents []investor.Document) string {
	if ys := FiscalYears(documents); len(ys) > 0 {
		return ys[0]
	}
	return ""
}

func startYear(tag string) (int, bool) {
	m := yearDigits.FindString(tag)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}
