package sheets

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// isoDateRe matches the only date shape the pipeline accepts.
var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISODate reports whether s is a YYYY-MM-DD string.
func IsISODate(s string) bool { return isoDateRe.MatchString(s) }

// normalizeSeparators strips Brazilian thousands separators and converts the
// decimal comma: "1.234,56" -> "1234.56".
func normalizeSeparators(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", ".")
}

// ParseIntSafe converts a sheet cell to an int. Blank cells and the "-"
// placeholder are 0, and any failed parse is 0. Total: never panics, never
// returns a sentinel.
func ParseIntSafe(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	f, err := strconv.ParseFloat(normalizeSeparators(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

// ParseBrazilianNumber converts a Brazilian-formatted numeric cell to a
// float64. ISO-date strings map to 0: some sheet tools render an empty
// numeric cell as an epoch date like "1899-12-30". Total like ParseIntSafe.
func ParseBrazilianNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	if isoDateRe.MatchString(s) {
		return 0
	}
	f, err := strconv.ParseFloat(normalizeSeparators(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
