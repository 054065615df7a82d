package sheets

import "strings"

// ParseCSV tokenizes raw CSV text into rows of trimmed fields. Commas inside
// double-quoted fields are literal, "" inside quotes emits one quote, and
// blank lines are skipped rather than emitted as empty rows. Spreadsheet
// exports are messy, so malformed quoting never errors; the state machine
// just keeps consuming.
func ParseCSV(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, strings.TrimSpace(field.String()))
		field.Reset()
	}
	endRow := func() {
		endField()
		if len(row) == 1 && row[0] == "" {
			row = nil // blank line
			return
		}
		rows = append(rows, row)
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			endField()
		case c == '\n' && !inQuotes:
			endRow()
		case c == '\r' && !inQuotes:
			// swallowed; the following \n (if any) ends the row
		default:
			field.WriteRune(c)
		}
	}
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}
	return rows
}
