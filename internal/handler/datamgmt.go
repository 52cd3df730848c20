// datamgmt.go implements the /admin/data endpoints: export, import with
// preview and rollback, confirmation-gated delete, backup restore, and the
// audit trail. Engine results carry their own success/error shape, so every
// engine call answers HTTP 200 with the result body; non-2xx statuses are
// reserved for requests rejected before reaching an engine.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/lendstation/backend/internal/domain"
)

// dateRangeRequest carries an inclusive day range. Bounds are calendar
// dates; the end date covers its whole day, so a record stamped at
// 23:59:59 on the end date is still inside the range.
type dateRangeRequest struct {
	Start openapi_types.Date `json:"start"`
	End   openapi_types.Date `json:"end"`
}

// toDomain widens the day range to instants: start-of-day for Start,
// end-of-day for End.
func (d *dateRangeRequest) toDomain() *domain.DateRange {
	if d == nil {
		return nil
	}
	sy, sm, sd := d.Start.Date()
	ey, em, ed := d.End.Date()
	return &domain.DateRange{
		Start: time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC),
		End:   time.Date(ey, em, ed, 23, 59, 59, 999999999, time.UTC),
	}
}

// exportRequest is the body of POST /admin/data/export.
type exportRequest struct {
	DataType  string            `json:"dataType"`
	Format    string            `json:"format"`
	DateRange *dateRangeRequest `json:"dateRange,omitempty"`
	Status    string            `json:"status,omitempty"`
	Category  string            `json:"category,omitempty"`
}

// postExport handles POST /admin/data/export.
func (s *Server) postExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	family, err := domain.ParseFamily(req.DataType)
	if err != nil {
		unprocessable(w, err.Error())
		return
	}
	format, err := domain.ParseFormat(req.Format)
	if err != nil {
		unprocessable(w, err.Error())
		return
	}

	result := s.export.Export(r.Context(), domain.ExportRequest{
		Family:    family,
		Format:    format,
		DateRange: req.DateRange.toDomain(),
		Status:    req.Status,
		Category:  req.Category,
	}, actorID(r))
	writeJSON(w, http.StatusOK, result)
}

// importRequest is the body of POST /admin/data/import and /import/preview.
type importRequest struct {
	DataType string `json:"dataType"`
	Format   string `json:"format"`
	Content  string `json:"content"`
}

// parse validates the shared import request fields.
func (req importRequest) parse() (domain.Family, domain.Format, string, bool) {
	family, err := domain.ParseFamily(req.DataType)
	if err != nil {
		return "", "", err.Error(), false
	}
	format, err := domain.ParseFormat(req.Format)
	if err != nil {
		return "", "", err.Error(), false
	}
	if req.Content == "" {
		return "", "", "content is required", false
	}
	return family, format, "", true
}

// postImportPreview handles POST /admin/data/import/preview.
func (s *Server) postImportPreview(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	family, format, msg, ok := req.parse()
	if !ok {
		unprocessable(w, msg)
		return
	}

	preview := s.imports.Preview(r.Context(), req.Content, format, family)
	writeJSON(w, http.StatusOK, preview)
}

// postImport handles POST /admin/data/import.
func (s *Server) postImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	family, format, msg, ok := req.parse()
	if !ok {
		unprocessable(w, msg)
		return
	}

	result := s.imports.Import(r.Context(), req.Content, format, family, actorID(r))
	writeJSON(w, http.StatusOK, result)
}

// postRollback handles POST /admin/data/import/rollback/{id}.
func (s *Server) postRollback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result := s.imports.ExecuteRollback(r.Context(), id, actorID(r))
	writeJSON(w, http.StatusOK, result)
}

// deleteRequest is the body of POST /admin/data/delete.
type deleteRequest struct {
	DataTypes          []string          `json:"dataTypes"`
	DateRange          *dateRangeRequest `json:"dateRange,omitempty"`
	CreateBackup       bool              `json:"createBackup"`
	ConfirmationPhrase string            `json:"confirmationPhrase"`
}

// postDelete handles POST /admin/data/delete.
func (s *Server) postDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	families := make([]domain.Family, 0, len(req.DataTypes))
	for _, dt := range req.DataTypes {
		family, err := domain.ParseFamily(dt)
		if err != nil {
			unprocessable(w, err.Error())
			return
		}
		families = append(families, family)
	}

	result := s.deletes.DeleteData(r.Context(), domain.DeleteRequest{
		DataTypes:          families,
		DateRange:          req.DateRange.toDomain(),
		CreateBackup:       req.CreateBackup,
		ConfirmationPhrase: req.ConfirmationPhrase,
	}, actorID(r))
	writeJSON(w, http.StatusOK, result)
}

// postRestore handles POST /admin/data/backups/{id}/restore.
func (s *Server) postRestore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result := s.deletes.RestoreFromBackup(r.Context(), id, actorID(r))
	writeJSON(w, http.StatusOK, result)
}

// getAudit handles GET /admin/data/audit.
// Supports ?limit= (default 50, capped by the repo).
func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.audit.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "audit trail unavailable")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
