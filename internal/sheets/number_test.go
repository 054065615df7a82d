package sheets

import (
	"math"
	"testing"
)

func TestParseBrazilianNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"1234,56", 1234.56},
		{"100", 100},
		{"0,5", 0.5},
		{"", 0},
		{"-", 0},
		{"  ", 0},
		{"abc", 0},
		{"1899-12-30", 0}, // sheet artifact: empty numeric cell rendered as epoch date
		{"2025-01-15", 0},
		{"R$100", 0},
		{"-10,5", -10.5},
	}
	for _, c := range cases {
		got := ParseBrazilianNumber(c.in)
		if got != c.want {
			t.Errorf("ParseBrazilianNumber(%q) = %v, want %v", c.in, got, c.want)
		}
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("ParseBrazilianNumber(%q) not finite: %v", c.in, got)
		}
	}
}

func TestParseIntSafe(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"1234", 1234},
		{"1.234", 1234}, // thousands separator
		{"1.234,56", 1234},
		{"", 0},
		{"-", 0},
		{"abc", 0},
		{"12,7", 12},
		{"-5", -5},
	}
	for _, c := range cases {
		if got := ParseIntSafe(c.in); got != c.want {
			t.Errorf("ParseIntSafe(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestIsISODate(t *testing.T) {
	if !IsISODate("2025-01-15") {
		t.Error("expected 2025-01-15 to match")
	}
	for _, s := range []string{"15/01/2025", "2025-1-5", "total", "", "2025-01-15T00:00:00"} {
		if IsISODate(s) {
			t.Errorf("expected %q not to match", s)
		}
	}
}
