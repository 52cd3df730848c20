package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. unknown record family, malformed date range).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a resource is in a state that forbids the
// requested transition (e.g. restoring an archive that was already restored,
// or executing a rollback manifest a second time).
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")
