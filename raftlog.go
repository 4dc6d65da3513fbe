// Package raftlog implements a persistent, segmented, append-mostly
// changelog suitable for backing a Raft-style consensus module: strictly
// monotonic indexes, per-record checksums, crash recovery by replay, and
// prefix compaction. The binary format and recovery algorithm live in
// internal/segment and internal/changelog; this package is the public
// entry point that callers outside the module import.
package raftlog

import (
	"raftlog/internal/changelog"
)

// Log is a changelog opened on one directory. It owns the on-disk segment
// files under that directory for as long as it is open.
type Log struct {
	mgr *changelog.Manager
}

// Open creates or opens a changelog directory and replays it from
// fromLogIdx, returning a Log ready to accept Append/WriteAt calls.
// rotateInterval is the fixed number of entries each segment reserves.
func Open(dir string, rotateInterval int, fromLogIdx LogIndex) (*Log, error) {
	mgr, err := changelog.New(dir, rotateInterval)
	if err != nil {
		return nil, err
	}
	if err := mgr.Recover(fromLogIdx); err != nil {
		return nil, err
	}
	return &Log{mgr: mgr}, nil
}

// Append writes entry at index, which must equal NextIndex.
func (l *Log) Append(index LogIndex, entry LogEntry, sync bool) error {
	return l.mgr.Append(index, entry, sync)
}

// WriteAt overwrites the entry at index, discarding every entry at or after
// it, including any entries in later segments.
func (l *Log) WriteAt(index LogIndex, entry LogEntry, sync bool) error {
	return l.mgr.WriteAt(index, entry, sync)
}

// Compact drops every entry at or below upTo and removes any segment file
// whose entire range lies at or below upTo.
func (l *Log) Compact(upTo LogIndex) error {
	return l.mgr.Compact(upTo)
}

// EntriesBetween returns entries for [from, to), with a nil element for any
// index that is not live.
func (l *Log) EntriesBetween(from, to LogIndex) []*LogEntry {
	return l.mgr.EntriesBetween(from, to)
}

// EntryAt returns the entry at index and whether it is live.
func (l *Log) EntryAt(index LogIndex) (LogEntry, bool) {
	return l.mgr.EntryAt(index)
}

// NextIndex is the index the next Append call must use.
func (l *Log) NextIndex() LogIndex {
	return l.mgr.NextIndex()
}

// LastEntry returns the most recently appended entry, or the sentinel entry
// if the changelog is empty.
func (l *Log) LastEntry() LogEntry {
	return l.mgr.LastEntry()
}

// Flush fsyncs the currently open segment.
func (l *Log) Flush() error {
	return l.mgr.Flush()
}

// Close flushes and closes the currently open segment, swallowing and
// logging any failure rather than returning it, matching the propagation
// policy for shutdown paths.
func (l *Log) Close() {
	l.mgr.Close()
}

// ApplySerializedBatch decodes buf, produced by SerializeBatch, and applies
// its entries starting at baseIndex: WriteAt for the first entry if
// baseIndex is already live (a retried or overlapping batch), Append
// otherwise, then Append for the rest.
func (l *Log) ApplySerializedBatch(baseIndex LogIndex, buf []byte, sync bool) error {
	entries, err := decodeBatch(buf)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		idx := baseIndex + LogIndex(i)
		if i == 0 {
			if _, live := l.mgr.EntryAt(idx); live {
				if err := l.mgr.WriteAt(idx, entry, sync); err != nil {
					return err
				}
				continue
			}
		}
		if err := l.mgr.Append(idx, entry, sync); err != nil {
			return err
		}
	}
	return nil
}
