package table

import "errors"

// ErrInvalidArgument is returned by ChangeOptions when it is asked to
// change the comparator mid-build (spec §7: invalid argument).
var ErrInvalidArgument = errors.New("table: invalid argument")

// ErrClosed is returned when an operation is attempted on a builder that
// has already been closed via Finish or Abandon.
var ErrClosed = errors.New("table: builder already closed")

// ErrCorruption is the error family a reader returns on malformed input.
// The builder never produces it; it is reserved for table/reader.go.
var ErrCorruption = errors.New("table: corruption")

// ErrNotFound is returned by Reader.Get when the requested key is absent.
var ErrNotFound = errors.New("table: not found")
