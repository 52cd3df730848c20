// Package validate performs per-family required-field and structural checks
// on records about to be imported. It is pure: no I/O, no store access.
package validate

import (
	"fmt"
	"strings"

	"github.com/pkordes/lendstation/backend/internal/domain"
)

// BatchResult partitions an input batch into valid and invalid records.
// IsValid is true iff ErrorCount is zero.
type BatchResult struct {
	IsValid      bool                 `json:"isValid"`
	ValidRecords []map[string]any     `json:"validRecords"`
	Errors       []domain.RecordError `json:"errors"`
	TotalRecords int                  `json:"totalRecords"`
	ValidCount   int                  `json:"validCount"`
	ErrorCount   int                  `json:"errorCount"`
}

// Record validates a single record against its family's schema, returning
// one message per violation. An empty slice means the record is valid.
func Record(rec map[string]any, family domain.Family) []string {
	var errs []string

	for _, field := range family.RequiredFields() {
		if blank(rec[field]) {
			errs = append(errs, fmt.Sprintf("missing required field: %s", field))
		}
	}

	switch family {
	case domain.FamilyLoans:
		errs = append(errs, checkDateOrder(rec, "borrowDate", "expectedReturnDate")...)
	case domain.FamilyReservations:
		errs = append(errs, checkDateOrder(rec, "startTime", "endTime")...)
	}

	return errs
}

// Batch runs Record over every element, partitioning valid from invalid.
// A nil input (the parser produced nothing list-shaped) short-circuits to a
// single global error with zero valid records.
func Batch(records []map[string]any, family domain.Family) BatchResult {
	if records == nil {
		return BatchResult{
			Errors: []domain.RecordError{
				{Index: 0, Errors: []string{"input is not a list of records"}},
			},
			ErrorCount: 1,
		}
	}

	result := BatchResult{TotalRecords: len(records)}
	for i, rec := range records {
		if errs := Record(rec, family); len(errs) > 0 {
			result.Errors = append(result.Errors, domain.RecordError{
				Index:  i,
				Record: rec,
				Errors: errs,
			})
			continue
		}
		result.ValidRecords = append(result.ValidRecords, rec)
	}

	result.ValidCount = len(result.ValidRecords)
	result.ErrorCount = len(result.Errors)
	result.IsValid = result.ErrorCount == 0
	return result
}

// checkDateOrder verifies that both date fields parse to recognized instants
// and that end is strictly after start. Checks are skipped for fields that
// are absent — the required-field pass already reported those.
func checkDateOrder(rec map[string]any, startField, endField string) []string {
	var errs []string

	start := domain.ParseInstant(rec[startField])
	if !blank(rec[startField]) && !start.Valid() {
		errs = append(errs, fmt.Sprintf("%s is not a valid date", startField))
	}

	end := domain.ParseInstant(rec[endField])
	if !blank(rec[endField]) && !end.Valid() {
		errs = append(errs, fmt.Sprintf("%s is not a valid date", endField))
	}

	if start.Valid() && end.Valid() && !end.Time.After(start.Time) {
		errs = append(errs, fmt.Sprintf("%s must be after %s", endField, startField))
	}

	return errs
}

// blank reports whether a value counts as missing: nil, or a string that is
// empty after trimming.
func blank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
