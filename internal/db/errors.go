package db

import "errors"

// ErrKeyNotFound is returned when a key does not exist or has expired.
var ErrKeyNotFound = errors.New("db: key not found")

// Op constants map to Valkey/Redis command names for error context.
const (
	OpPing   = "PING"
	OpGet    = "GET"
	OpSet    = "SET"
	OpDel    = "DEL"
	OpExists = "EXISTS"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
