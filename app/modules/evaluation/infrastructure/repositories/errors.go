package evaldb

import "errors"

// Sentinel errors for the repository layer. These signal database state, not
// business outcomes; the service layer maps them to failure reason codes.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoRowsAffected indicates an UPDATE matched no active rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
