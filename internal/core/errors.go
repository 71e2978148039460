package core

import "errors"

// Error kinds for the service. Every failure surfaced by the save and file
// management paths wraps exactly one of these, so the web layer can map it to
// a status code with errors.Is. Ingestion failures are never surfaced; the
// cache keeps serving the last good snapshot.
var (
	// ErrNotFound marks a missing file or sheet.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks a path outside the configured allow-list.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput marks a bad row index, blank/unknown/conflicting
	// column names, an unsupported file type, or an empty change set.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict marks an optimistic-concurrency mismatch: the row a client
	// edited is no longer the row it loaded.
	ErrConflict = errors.New("conflict")

	// ErrLocked marks a save that could not replace the target file because
	// another process holds it open for writing.
	ErrLocked = errors.New("locked")

	// ErrInternal marks an unexpected I/O or parse failure.
	ErrInternal = errors.New("internal error")
)
