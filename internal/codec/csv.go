package codec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ToCSV serializes flat records under the given header fields. The first row
// is the header; values containing a comma, quote, or newline are wrapped in
// double quotes with embedded quotes doubled (RFC 4180, as encoding/csv
// writes). Objects are JSON-stringified before escaping. An empty record
// list yields just the header; unknown fields yield the empty string.
func ToCSV(records []map[string]any, fields []string) string {
	if len(fields) == 0 {
		return ""
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // writes to bytes.Buffer never fail
	w.Write(fields)
	for _, rec := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = cellString(rec[f])
		}
		//nolint:errcheck
		w.Write(row)
	}
	w.Flush()

	return buf.String()
}

// ParseCSV parses CSV text into one record map per data row. The first
// non-blank line is the header; quoted fields with doubled-quote escaping
// are honored; rows shorter than the header are padded with empty strings.
// Malformed input degrades to however many rows parsed cleanly.
func ParseCSV(text string) []map[string]any {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1 // rows may be shorter than the header

	header, err := r.Read()
	if err != nil {
		return nil
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []map[string]any
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		rec := make(map[string]any, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// cellString renders one value for a CSV cell. Objects and arrays become
// their compact JSON encoding; times become RFC 3339; nil becomes "".
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
