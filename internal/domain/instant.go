package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// InstantKind tags the recognized shapes a date-like document value can take.
type InstantKind int

// Recognized instant shapes. Anything else is InstantInvalid and converts
// to the empty string rather than being probed further.
const (
	InstantInvalid InstantKind = iota
	// InstantNative is a Go time.Time (or *time.Time).
	InstantNative
	// InstantStoreTimestamp is a serialized store timestamp object of the
	// form {"seconds": n} with an optional "nanos" component.
	InstantStoreTimestamp
	// InstantISO is a string in RFC 3339 or one of the common date layouts
	// found in legacy exports.
	InstantISO
)

// Instant is the tagged-union representation of a date-like value pulled out
// of a raw document. It replaces duck-typed shape probing with one exhaustive
// conversion: parse once, then format or compare the held time.
type Instant struct {
	Kind InstantKind
	Time time.Time
}

// stringLayouts are tried in order when parsing an ISO-ish string.
// Zoneless layouts are interpreted as UTC.
var stringLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant classifies v into an Instant. Unrecognized shapes yield an
// Instant with Kind InstantInvalid.
func ParseInstant(v any) Instant {
	switch t := v.(type) {
	case time.Time:
		return Instant{Kind: InstantNative, Time: t}
	case *time.Time:
		if t == nil {
			return Instant{}
		}
		return Instant{Kind: InstantNative, Time: *t}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return Instant{}
		}
		for _, layout := range stringLayouts {
			if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return Instant{Kind: InstantISO, Time: parsed}
			}
		}
		return Instant{}
	case map[string]any:
		sec, ok := asInt64(t["seconds"])
		if !ok {
			return Instant{}
		}
		nanos, _ := asInt64(t["nanos"])
		return Instant{Kind: InstantStoreTimestamp, Time: time.Unix(sec, nanos).UTC()}
	default:
		return Instant{}
	}
}

// Valid reports whether the instant holds a recognized value.
func (i Instant) Valid() bool { return i.Kind != InstantInvalid }

// ISO returns the canonical RFC 3339 UTC representation, or the empty string
// for an invalid instant.
func (i Instant) ISO() string {
	if !i.Valid() {
		return ""
	}
	return i.Time.UTC().Format(time.RFC3339)
}

// ToInstant converts any recognized date-like value to its canonical
// RFC 3339 UTC string. Unrecognized shapes yield the empty string.
func ToInstant(v any) string { return ParseInstant(v).ISO() }

// IsDateField reports whether a field name designates a date-like value.
// By convention those names contain "Date", "At", or "Time"
// (borrowDate, createdAt, startTime, ...).
func IsDateField(name string) bool {
	return strings.Contains(name, "Date") ||
		strings.Contains(name, "At") ||
		strings.Contains(name, "Time")
}

// asInt64 extracts an integer from the numeric types a JSON decode or a
// store client can produce for timestamp components.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
