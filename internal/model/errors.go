package model

import "github.com/rotisserie/eris"

// Error kinds surfaced by the engine. Producers wrap these with eris and
// consumers test with errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrNotFound marks a reference to an entity that does not exist
	// within the project scope.
	ErrNotFound = eris.New("not found")

	// ErrValidation marks input rejected at a boundary.
	ErrValidation = eris.New("validation failed")

	// ErrInvalidState marks a transition attempted from a status that
	// does not admit it, or a malformed stored status.
	ErrInvalidState = eris.New("invalid state")

	// ErrConflict marks a write beaten by a concurrent writer. Callers
	// retry against a fresh snapshot.
	ErrConflict = eris.New("conflict")
)
