package sheets

import (
	"reflect"
	"testing"
)

func TestParseCSVQuotedComma(t *testing.T) {
	rows := ParseCSV(`a,"b,c",d`)
	want := [][]string{{"a", "b,c", "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestParseCSVEscapedQuote(t *testing.T) {
	rows := ParseCSV(`a,"b""c",d`)
	want := [][]string{{"a", `b"c`, "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestParseCSVBlankLinesSkipped(t *testing.T) {
	rows := ParseCSV("a,b\n\n\nc,d\n")
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestParseCSVCRLF(t *testing.T) {
	rows := ParseCSV("a,b\r\nc,d\r\n")
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestParseCSVTrimsFields(t *testing.T) {
	rows := ParseCSV("  a , b \nc,  d")
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestParseCSVEmptyFieldsKept(t *testing.T) {
	rows := ParseCSV("a,,c\n")
	want := [][]string{{"a", "", "c"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestParseCSVNoTrailingNewline(t *testing.T) {
	rows := ParseCSV("a,b")
	want := [][]string{{"a", "b"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}

func TestParseCSVNewlineInsideQuotes(t *testing.T) {
	rows := ParseCSV("a,\"b\nc\",d")
	want := [][]string{{"a", "b\nc", "d"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
}
