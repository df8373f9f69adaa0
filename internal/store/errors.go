package store

import "errors"

var (
	// ErrNotFound means no report exists under the requested key. Callers
	// treat it as "run the evaluation".
	ErrNotFound = errors.New("report not found")

	// ErrMalformedReport means a file exists under the key but cannot be
	// decoded or fails validation. This is never treated as a miss: silently
	// recomputing would hide corruption.
	ErrMalformedReport = errors.New("malformed report")
)
