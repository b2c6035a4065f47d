package jsonstore

import "errors"

// ErrEmptyDataDir is returned when a collection is created without a
// data directory.
var ErrEmptyDataDir = errors.New("jsonstore: data directory is required")
