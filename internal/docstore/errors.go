package docstore

import "errors"

// Error kinds surfaced by the store and the repositories. The repositories
// convert these into the operation response's error string; nothing here is
// expected to escape past that boundary.
var (
	// ErrBackendUnavailable covers any failed read or write against the
	// blob backend, including timeouts.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrCorruptDocument means the stored bytes did not parse as a document.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrNotFound means the operation's target id is absent from its
	// collection.
	ErrNotFound = errors.New("not found")

	// ErrTripNotFound means an assign operation referenced a nonexistent
	// trip.
	ErrTripNotFound = errors.New("trip not found")

	// ErrValidation means a required field was missing or blank.
	ErrValidation = errors.New("validation failed")

	// ErrConflict means a compare-and-save lost the race to a concurrent
	// writer. The operation was not applied; the caller may retry.
	ErrConflict = errors.New("document modified concurrently")
)
