package domain

import "errors"

var (
	// ErrNotConfigured is returned by remote operations when the runtime
	// settings carry no endpoint or no credential. It is a routing
	// decision, not a failure: callers serve from the local store.
	ErrNotConfigured = errors.New("remote backend not configured")

	// ErrRelationMissing is returned when the backend schema has no table
	// for the requested entity. The feature is unavailable remotely and
	// callers must fall back to the local store without retrying.
	ErrRelationMissing = errors.New("remote relation not provisioned")

	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrLocalPersistence is returned when the local store could not save
	// and no remote write succeeded, so the operation made no progress.
	ErrLocalPersistence = errors.New("local persistence unavailable")

	// ErrValidation is returned for malformed caller input, e.g. a backup
	// envelope without a data field. Never silently defaulted.
	ErrValidation = errors.New("validation failed")
)
