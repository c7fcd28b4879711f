package storage

import "errors"

// ErrNotFound is returned by any gateway operation when no record matches the requested criteria.
var ErrNotFound = errors.New("record not found")
