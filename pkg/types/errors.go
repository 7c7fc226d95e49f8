package types

import "errors"

// Store operation errors.
var (
	ErrNotFound    = errors.New("post not found")
	ErrStoreClosed = errors.New("store is closed")
	ErrLockTimeout = errors.New("timed out waiting for database lock")
	ErrMissingDB   = errors.New("mirror database does not exist")
)
