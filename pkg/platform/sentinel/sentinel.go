package sentinel

import "errors"

// Sentinel errors for persistence facts. Stores return these (optionally wrapped)
// and the engine or services translate them into coded domain errors:
//   - ErrNotFound: the row does not exist
//   - ErrConflict: a compare-and-swap lost against a concurrent writer
//   - ErrAlreadyUsed: a uniqueness constraint rejected the write (email, donor/template pair)
//   - ErrUnavailable: a backing service (lock, broker) could not be reached in time
//
// Input validation does not belong here; use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
