// Package domain contains the core data types for the Lendstation data
// management service. This package has zero external dependencies beyond
// the standard library and is imported by every other internal package
// (codec, validate, repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Family identifies one of the three record kinds managed by this service.
// Each family maps to its own collection (table) and carries a fixed schema
// for export, import validation, and date-range filtering.
type Family string

// The three source-of-truth record families.
const (
	FamilyLoans        Family = "loans"
	FamilyReservations Family = "reservations"
	FamilyEquipment    Family = "equipment"
)

// Families lists every known family in canonical order.
var Families = []Family{FamilyLoans, FamilyReservations, FamilyEquipment}

// ParseFamily converts a string into a Family.
// Unknown values return a wrapped ErrValidation.
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FamilyLoans, FamilyReservations, FamilyEquipment:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown record family %q", ErrValidation, s)
}

// Collection returns the collection (table) name that stores this family.
func (f Family) Collection() string { return string(f) }

// Label returns the fixed uppercase token used in delete confirmation
// phrases: LOANS, RESERVATIONS, or EQUIPMENT.
func (f Family) Label() string { return strings.ToUpper(string(f)) }

// DateAnchor returns the per-family field used for date-range filtering in
// export and delete collection.
func (f Family) DateAnchor() string {
	switch f {
	case FamilyLoans:
		return "borrowDate"
	case FamilyReservations:
		return "startTime"
	default:
		return "createdAt"
	}
}

// exportFields is the fixed per-family export schema. The field order is the
// de facto wire format for CSV/JSON interchange and must stay stable for
// round-trip compatibility with previously exported files. The id field is
// always first.
var exportFields = map[Family][]string{
	FamilyLoans: {
		"id", "equipmentId", "equipmentName", "userId", "userName",
		"borrowDate", "expectedReturnDate", "returnedAt", "status",
		"notes", "createdAt",
	},
	FamilyReservations: {
		"id", "equipmentId", "equipmentName", "userId", "userName",
		"startTime", "endTime", "status", "purpose", "createdAt",
	},
	FamilyEquipment: {
		"id", "name", "category", "serialNumber", "status", "location",
		"description", "isActive", "createdAt", "updatedAt",
	},
}

// requiredFields is the fixed per-family set of fields an imported record
// must carry.
var requiredFields = map[Family][]string{
	FamilyLoans:        {"equipmentId", "userId", "borrowDate", "expectedReturnDate"},
	FamilyReservations: {"equipmentId", "userId", "startTime", "endTime"},
	FamilyEquipment:    {"name", "category"},
}

// ExportFields returns the ordered export schema for the family.
// The returned slice is shared; callers must not mutate it.
func (f Family) ExportFields() []string { return exportFields[f] }

// RequiredFields returns the required import fields for the family.
// The returned slice is shared; callers must not mutate it.
func (f Family) RequiredFields() []string { return requiredFields[f] }

// DefaultStatus returns the status stamped onto imported records that carry
// none: "available" for equipment, "pending" for loans and reservations.
func (f Family) DefaultStatus() string {
	if f == FamilyEquipment {
		return "available"
	}
	return "pending"
}

// ConfirmationPhrase builds the expected delete confirmation phrase for the
// given family list, e.g. "DELETE LOANS, RESERVATIONS". Label order follows
// the order the families were given.
func ConfirmationPhrase(families []Family) string {
	labels := make([]string, len(families))
	for i, f := range families {
		labels[i] = f.Label()
	}
	return "DELETE " + strings.Join(labels, ", ")
}

// Format selects the serialization used for export and import payloads.
type Format string

// Supported interchange formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat converts a string into a Format.
// Unknown values return a wrapped ErrValidation.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrValidation, s)
}

// DateRange is an inclusive [Start, End] filter applied to a family's date
// anchor field. A range with Start after End matches nothing; that case is
// handled by the store query, not rejected upfront.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
