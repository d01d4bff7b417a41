package schema

import "errors"

var (
	// ErrNoTabs indicates navigation was initialised without tabs.
	ErrNoTabs = errors.New("no tabs")
	// ErrTabNotFound indicates a requested tab is not registered.
	ErrTabNotFound = errors.New("tab not found")
	// ErrDuplicateTab indicates the same tab id was registered twice.
	ErrDuplicateTab = errors.New("duplicate tab")
	// ErrInvalidTab indicates an empty or malformed tab id.
	ErrInvalidTab = errors.New("invalid tab")
	// ErrNotInitialized indicates the navigator has not been initialised.
	ErrNotInitialized = errors.New("navigation not initialized")
	// ErrInvariantViolation indicates a popped stack id had no matching history entry.
	ErrInvariantViolation = errors.New("history invariant violation")
	// ErrInvalidUser indicates an invalid user identifier.
	ErrInvalidUser = errors.New("invalid user")
)
