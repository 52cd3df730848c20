package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseInstant_Native(t *testing.T) {
	at := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	got := ParseInstant(at)
	assert.Equal(t, InstantNative, got.Kind)
	assert.True(t, got.Time.Equal(at))

	got = ParseInstant(&at)
	assert.Equal(t, InstantNative, got.Kind)

	var nilTime *time.Time
	assert.Equal(t, InstantInvalid, ParseInstant(nilTime).Kind)
}

func TestParseInstant_Strings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"rfc3339", "2026-03-10T14:30:00Z", "2026-03-10T14:30:00Z"},
		{"rfc3339 with offset", "2026-03-10T14:30:00+02:00", "2026-03-10T12:30:00Z"},
		{"zoneless datetime is UTC", "2026-03-10T14:30:00", "2026-03-10T14:30:00Z"},
		{"space separator", "2026-03-10 14:30:00", "2026-03-10T14:30:00Z"},
		{"bare date", "2026-03-10", "2026-03-10T00:00:00Z"},
		{"surrounding whitespace", "  2026-03-10  ", "2026-03-10T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInstant(tt.in)
			assert.Equal(t, InstantISO, got.Kind)
			assert.Equal(t, tt.want, got.ISO())
		})
	}
}

func TestParseInstant_StoreTimestamp(t *testing.T) {
	got := ParseInstant(map[string]any{"seconds": float64(1767998400)})
	assert.Equal(t, InstantStoreTimestamp, got.Kind)
	assert.Equal(t, "2026-01-09T22:40:00Z", got.ISO())

	// nanos are optional and additive.
	withNanos := ParseInstant(map[string]any{"seconds": int64(0), "nanos": int64(500000000)})
	assert.Equal(t, InstantStoreTimestamp, withNanos.Kind)
	assert.Equal(t, int64(500), withNanos.Time.UnixMilli())

	// A map without a numeric seconds component is not a timestamp.
	assert.Equal(t, InstantInvalid, ParseInstant(map[string]any{"name": "tripod"}).Kind)
}

func TestParseInstant_Unrecognized(t *testing.T) {
	for _, v := range []any{nil, "", "not a date", 42, true, []any{"2026-03-10"}} {
		got := ParseInstant(v)
		assert.Equal(t, InstantInvalid, got.Kind, "value %v", v)
		assert.Equal(t, "", got.ISO())
	}
}

func TestToInstant(t *testing.T) {
	assert.Equal(t, "2026-03-10T00:00:00Z", ToInstant("2026-03-10"))
	assert.Equal(t, "", ToInstant("garbage"))
	assert.Equal(t, "", ToInstant(nil))
}

func TestIsDateField(t *testing.T) {
	for _, name := range []string{"borrowDate", "expectedReturnDate", "createdAt", "returnedAt", "startTime", "endTime"} {
		assert.True(t, IsDateField(name), name)
	}
	for _, name := range []string{"status", "notes", "userName", "category"} {
		assert.False(t, IsDateField(name), name)
	}
}
