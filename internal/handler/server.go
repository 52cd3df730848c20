// Package handler implements the HTTP handlers for the Lendstation admin
// data API. All handlers are methods on Server. Methods are split into
// concern-specific files (health.go, datamgmt.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/lendstation/backend/internal/domain"
	"github.com/pkordes/lendstation/backend/spec"
)

// ExportServicer defines the export operations the handler depends on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type ExportServicer interface {
	Export(ctx context.Context, req domain.ExportRequest, actorID string) domain.ExportResult
}

// ImportServicer defines the import operations the handler depends on.
type ImportServicer interface {
	Preview(ctx context.Context, content string, format domain.Format, family domain.Family) domain.ImportPreview
	Import(ctx context.Context, content string, format domain.Format, family domain.Family, actorID string) domain.ImportResult
	ExecuteRollback(ctx context.Context, rollbackID, actorID string) domain.RollbackResult
}

// DeleteServicer defines the delete/restore operations the handler depends on.
type DeleteServicer interface {
	DeleteData(ctx context.Context, req domain.DeleteRequest, actorID string) domain.DeleteResult
	RestoreFromBackup(ctx context.Context, archiveID, actorID string) domain.RestoreResult
}

// AuditLister defines the audit-trail read the handler depends on.
type AuditLister interface {
	List(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	export  ExportServicer
	imports ImportServicer
	deletes DeleteServicer
	audit   AuditLister
}

// NewServer constructs the Server with all its dependencies.
func NewServer(export ExportServicer, imports ImportServicer, deletes DeleteServicer, audit AuditLister) *Server {
	return &Server{export: export, imports: imports, deletes: deletes, audit: audit}
}

// Routes returns the router for the full API surface. Middleware is applied
// by the caller (main.go), not here, so tests can exercise routes bare.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.getHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(spec.OpenAPI) //nolint:errcheck
	})

	r.Route("/admin/data", func(r chi.Router) {
		r.Post("/export", s.postExport)
		r.Post("/import/preview", s.postImportPreview)
		r.Post("/import", s.postImport)
		r.Post("/import/rollback/{id}", s.postRollback)
		r.Post("/delete", s.postDelete)
		r.Post("/backups/{id}/restore", s.postRestore)
		r.Get("/audit", s.getAudit)
	})

	return r
}

// actorID extracts the opaque admin identity the upstream auth layer sets on
// every forwarded request. Authentication and authorization are that layer's
// responsibility; this service only records who acted.
func actorID(r *http.Request) string {
	if actor := r.Header.Get("X-Admin-User"); actor != "" {
		return actor
	}
	return "unknown"
}
