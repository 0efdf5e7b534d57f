package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrTransientFetch marks network, timeout and 5xx/429 failures. The item
	// is counted as failed and retried on the next run.
	ErrTransientFetch = errors.New("transient fetch failure")
	// ErrExtractionMiss means a page loaded but the wanted field was absent.
	ErrExtractionMiss = errors.New("extraction miss")
	// ErrAmbiguousResolution means several provider candidates matched and
	// none could be chosen without guessing.
	ErrAmbiguousResolution = errors.New("ambiguous resolution")
	// ErrIdentityConflict means the resolved external id already belongs to
	// another local record.
	ErrIdentityConflict = errors.New("identity conflict")
	// ErrFatalSession aborts the current step; the next step still runs.
	ErrFatalSession = errors.New("fatal session failure")
	// ErrCapabilityUnavailable is returned by steps whose optional runtime
	// dependency is missing.
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)
