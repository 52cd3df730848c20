// Package codec converts raw family documents into their export-ready flat
// shape and serializes them to CSV or JSON. It also parses both formats back
// into record maps for import. No business logic lives here — only
// projection, conversion, and escaping.
package codec

import (
	"github.com/pkordes/lendstation/backend/internal/domain"
)

// snapshotFallbacks maps export fields to the denormalized snapshot objects
// a value may live in when it is absent at the top level of a document
// (e.g. equipmentName is often only present as equipmentSnapshot.name).
var snapshotFallbacks = map[string][2]string{
	"equipmentName": {"equipmentSnapshot", "name"},
	"userName":      {"userSnapshot", "name"},
}

// Flatten projects a raw record onto its family's fixed export schema.
// For each declared field the value is pulled from the document, falling
// back to the known snapshot objects; date-like fields are converted to
// canonical RFC 3339 strings (nil when the value has no recognized shape).
func Flatten(rec domain.Record, family domain.Family) map[string]any {
	fields := family.ExportFields()
	flat := make(map[string]any, len(fields))

	for _, field := range fields {
		if field == "id" {
			flat[field] = rec.ID
			continue
		}

		v, ok := rec.Data[field]
		if !ok || v == nil {
			v = snapshotValue(rec.Data, field)
		}

		if domain.IsDateField(field) {
			if iso := domain.ToInstant(v); iso != "" {
				flat[field] = iso
			} else {
				flat[field] = nil
			}
			continue
		}
		flat[field] = v
	}
	return flat
}

// snapshotValue resolves a field through its snapshot fallback, if one is
// declared and the document carries the nested object.
func snapshotValue(data map[string]any, field string) any {
	fb, ok := snapshotFallbacks[field]
	if !ok {
		return nil
	}
	nested, ok := data[fb[0]].(map[string]any)
	if !ok {
		return nil
	}
	return nested[fb[1]]
}
