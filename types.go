package raftlog

import "raftlog/internal/logentry"

// LogIndex, Term, ValueType, and LogEntry are re-exported aliases of the
// leaf types internal/changelog is built on, so callers never need to
// import an internal package to hold a raftlog value.
type (
	LogIndex  = logentry.LogIndex
	Term      = logentry.Term
	ValueType = logentry.ValueType
	LogEntry  = logentry.LogEntry
)

// Sentinel returns the term-0 entry with an 8-byte zero blob used as
// LastEntry's result on an empty changelog.
func Sentinel() LogEntry {
	return logentry.Sentinel()
}
