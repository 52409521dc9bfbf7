package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so callers can branch with errors.Is:
// - ErrConflict: a generated key collided with an existing one
// - ErrUnavailable: a backing service could not be reached
//
// Lookups that simply find nothing report absence with a bool, not an error.
var (
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
