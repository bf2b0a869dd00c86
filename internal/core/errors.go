package core

import "errors"

// Import errors abort the whole load; no partial batch is kept.
var (
	ErrMalformedInput = errors.New("malformed input")
	ErrFileTooLarge   = errors.New("file too large")
)

// Staging errors are caller-usage errors on a single record.
var (
	ErrUnknownIndex = errors.New("unknown record index")
	ErrRecordLocked = errors.New("record locked by in-flight submission")
	ErrUnknownField = errors.New("unknown field")
	ErrBatchLocked  = errors.New("batch has records in flight")
)

// ErrSubmissionUnavailable is returned when the inventory call fails as a whole.
// Every in-flight record has been reverted to staged when it is returned.
var ErrSubmissionUnavailable = errors.New("submission unavailable")

// ErrSessionNotFound is returned for unknown or expired import sessions.
var ErrSessionNotFound = errors.New("import session not found")
