package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkordes/lendstation/backend/internal/codec"
	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/internal/repo"
)

// ExportService filters records, projects them onto their family's export
// schema, and serializes them to CSV or JSON.
type ExportService struct {
	records repo.RecordStore
	audit   repo.AuditRepo
	mirror  Mirror
	log     *slog.Logger
}

// NewExportService constructs an ExportService. mirror may be nil to disable
// offsite copies of export payloads.
func NewExportService(records repo.RecordStore, audit repo.AuditRepo, mirror Mirror, log *slog.Logger) *ExportService {
	return &ExportService{records: records, audit: audit, mirror: mirror, log: log}
}

// Export runs one export operation on behalf of actorID. Store failures
// degrade to a failure result with zero records; nothing is ever raised to
// the caller.
func (s *ExportService) Export(ctx context.Context, req domain.ExportRequest, actorID string) domain.ExportResult {
	fail := func(msg string) domain.ExportResult {
		return domain.ExportResult{
			Format:     req.Format,
			DataType:   req.Family,
			ExportedAt: time.Now().UTC(),
			Error:      msg,
		}
	}

	equality := map[string]string{}
	if req.Status != "" {
		equality["status"] = req.Status
	}
	if req.Category != "" {
		equality["category"] = req.Category
	}

	records, err := s.records.Query(ctx, req.Family, req.DateRange, equality)
	if err != nil {
		return fail(fmt.Sprintf("export query failed: %v", err))
	}

	flat := make([]map[string]any, len(records))
	for i, rec := range records {
		flat[i] = codec.Flatten(rec, req.Family)
	}

	var data string
	switch req.Format {
	case domain.FormatCSV:
		data = codec.ToCSV(flat, req.Family.ExportFields())
	case domain.FormatJSON:
		data = codec.ToJSON(flat)
	default:
		return fail(fmt.Sprintf("unsupported export format %q", req.Format))
	}

	now := time.Now().UTC()
	result := domain.ExportResult{
		Success:        true,
		SerializedData: data,
		RecordCount:    len(records),
		Format:         req.Format,
		DataType:       req.Family,
		Summary:        buildSummary(req, flat),
		ExportedAt:     now,
	}

	appendAudit(ctx, s.log, s.audit, domain.AuditEntry{
		Operation: domain.AuditExport,
		Actor:     actorID,
		Details: map[string]any{
			"dataType":    string(req.Family),
			"format":      string(req.Format),
			"recordCount": len(records),
			"dateRange":   req.DateRange,
		},
	})

	s.mirrorExport(ctx, req, now, data)
	return result
}

// buildSummary computes the export report: total records, the echoed date
// range, and a status breakdown (loans, reservations) or category breakdown
// (equipment). Blank values are bucketed as "unknown".
func buildSummary(req domain.ExportRequest, flat []map[string]any) *domain.ExportSummary {
	summary := &domain.ExportSummary{
		TotalRecords: len(flat),
		DateRange:    req.DateRange,
	}

	field := "status"
	if req.Family == domain.FamilyEquipment {
		field = "category"
	}

	breakdown := map[string]int{}
	for _, rec := range flat {
		key, _ := rec[field].(string)
		if key == "" {
			key = "unknown"
		}
		breakdown[key]++
	}

	if req.Family == domain.FamilyEquipment {
		summary.CategoryBreakdown = breakdown
	} else {
		summary.StatusBreakdown = breakdown
	}
	return summary
}

// mirrorExport uploads the serialized payload offsite when a mirror is
// configured. Never fatal: the export already succeeded.
func (s *ExportService) mirrorExport(ctx context.Context, req domain.ExportRequest, at time.Time, data string) {
	if s.mirror == nil {
		return
	}
	key := fmt.Sprintf("exports/%s-%s.%s", req.Family, at.Format("20060102T150405Z"), req.Format)
	if err := s.mirror.Upload(ctx, key, []byte(data)); err != nil {
		s.log.WarnContext(ctx, "offsite export copy failed", "key", key, "error", err)
	}
}
