package raftlog

import "raftlog/internal/errs"

// Sentinel errors re-exported from internal/errs so callers can use
// errors.Is against raftlog.Err* without importing an internal package.
var (
	ErrUnknownFormatVersion = errs.ErrUnknownFormatVersion
	ErrCorruptedData        = errs.ErrCorruptedData
	ErrChecksumMismatch     = errs.ErrChecksumMismatch
	ErrLogical              = errs.ErrLogical
	ErrIO                   = errs.ErrIO
)
