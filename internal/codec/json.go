package codec

import (
	"encoding/json"
	"strings"

	"github.com/pkordes/lendstation/backend/internal/domain"
)

// ToJSON serializes flat records as a pretty-printed JSON array with
// two-space indentation. An empty or nil record list yields "[]".
func ToJSON(records []map[string]any) string {
	if records == nil {
		records = []map[string]any{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		// Flat records come from Flatten and contain only JSON-encodable
		// values; a marshal failure would mean a programming error upstream.
		return "[]"
	}
	return string(b)
}

// ParseJSON parses JSON text into record maps. A bare object is wrapped into
// a singleton list. Malformed JSON yields an empty list — parse errors never
// reach the caller; the validator reports an empty batch instead.
func ParseJSON(text string) []map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(text), &records); err == nil {
		return records
	}

	var single map[string]any
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		return []map[string]any{single}
	}
	return nil
}

// Parse dispatches to ParseCSV or ParseJSON based on the format.
// Unknown formats yield an empty list, mirroring the malformed-input rule.
func Parse(text string, format domain.Format) []map[string]any {
	switch format {
	case domain.FormatCSV:
		return ParseCSV(text)
	case domain.FormatJSON:
		return ParseJSON(text)
	default:
		return nil
	}
}
