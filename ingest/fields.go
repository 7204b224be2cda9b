package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a scalar cell that could not be turned into its typed
// field value.
type ParseError struct {
	Field string
	Raw   string
}

func (e *ParseError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("%s must not be empty", e.Field)
	}
	return fmt.Sprintf("%s must be a valid number: %q", e.Field, e.Raw)
}

// Accepted spellings per logical field, in lookup order. Input written by
// different exporters cases these differently.
var fieldAliases = map[string][]string{
	"p_id":     {"P_ID", "p_id", "PID", "pid"},
	"date":     {"Date", "date", "DATE"},
	"stage":    {"Stage", "stage", "STAGE"},
	"time":     {"Time", "time", "TIME"},
	"vel_mean": {"Vel_mean", "vel_mean", "VEL_MEAN", "velocity"},
	"acc_mean": {"Acc_mean", "acc_mean", "ACC_MEAN", "acceleration"},
}

// lookupField returns the first alias present in row with a non-nil value,
// stringified and trimmed, else "".
func lookupField(row map[string]any, field string) string {
	for _, name := range fieldAliases[field] {
		if v, ok := row[name]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}

func parseNumber(raw, field string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ParseError{Field: field}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Raw: raw}
	}
	return v, nil
}

// splitLine splits one delimited line on commas, treating a double quote as
// a toggle for quoted state so commas inside quotes survive. Escaped quotes
// are not interpreted; the quote characters themselves are dropped.
func splitLine(line string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	out = append(out, cur.String())
	return out
}

// normalizeDelimiters rewrites tab-separated text to comma-separated when
// the first line holds tabs but no commas.
func normalizeDelimiters(text string) string {
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Contains(firstLine, "\t") && !strings.Contains(firstLine, ",") {
		return strings.ReplaceAll(text, "\t", ",")
	}
	return text
}
