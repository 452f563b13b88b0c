package store

import "errors"

// ErrNotFound is returned by update and delete methods that matched no row.
// Lookups return nil, nil instead.
var ErrNotFound = errors.New("record not found")
