package domain

import "time"

// ExportRequest describes one export operation: which family, which format,
// and the optional date-range/status/category filters.
type ExportRequest struct {
	Family    Family     `json:"dataType"`
	Format    Format     `json:"format"`
	DateRange *DateRange `json:"dateRange,omitempty"`
	Status    string     `json:"status,omitempty"`
	Category  string     `json:"category,omitempty"`
}

// ExportSummary aggregates what an export contained. Loans and reservations
// report a status breakdown; equipment reports a category breakdown.
type ExportSummary struct {
	TotalRecords      int            `json:"totalRecords"`
	DateRange         *DateRange     `json:"dateRange,omitempty"`
	StatusBreakdown   map[string]int `json:"statusBreakdown,omitempty"`
	CategoryBreakdown map[string]int `json:"categoryBreakdown,omitempty"`
}

// ExportResult is the immutable outcome of one export operation.
// On failure Success is false, Error carries the message, and RecordCount
// is zero; the operation never raises past the service boundary.
type ExportResult struct {
	Success        bool           `json:"success"`
	SerializedData string         `json:"serializedData,omitempty"`
	RecordCount    int            `json:"recordCount"`
	Format         Format         `json:"format"`
	DataType       Family         `json:"dataType"`
	Summary        *ExportSummary `json:"summary,omitempty"`
	ExportedAt     time.Time      `json:"exportedAt"`
	Error          string         `json:"error,omitempty"`
}
