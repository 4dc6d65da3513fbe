// Package errs defines the sentinel error kinds shared by the segment and
// changelog packages, in the style of the teacher's dberrors package: a flat
// var block callers match with errors.Is, rather than a taxonomy of exported
// struct types.
package errs

import "errors"

var (
	// ErrUnknownFormatVersion is returned when a record's version byte does
	// not match any version this build understands.
	ErrUnknownFormatVersion = errors.New("raftlog: unknown record format version")

	// ErrCorruptedData is returned for duplicate indices, non-contiguous
	// indices within a segment, or an unparseable segment filename.
	ErrCorruptedData = errors.New("raftlog: corrupted data")

	// ErrChecksumMismatch is returned when a record's blob does not hash to
	// its stored checksum.
	ErrChecksumMismatch = errors.New("raftlog: checksum mismatch")

	// ErrLogical is returned when a caller violates a precondition, such as
	// calling Append before Recover or WriteAt on an unknown index.
	ErrLogical = errors.New("raftlog: logical error")

	// ErrIO wraps an underlying filesystem failure.
	ErrIO = errors.New("raftlog: io error")
)
