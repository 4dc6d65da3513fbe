// Package logentry holds the data model shared across the segment,
// changelog, and public raftlog packages: the log index and term types and
// the opaque LogEntry payload. Keeping these in their own leaf package
// mirrors the teacher's pkg/types package, and lets internal/segment and
// internal/changelog depend on the data model without importing the public
// raftlog package, which would create an import cycle.
package logentry

import (
	"encoding/binary"
	"fmt"
)

// LogIndex is a 1-based, strictly increasing log position. Index 0 is
// reserved as the "no entry" sentinel.
type LogIndex uint64

// Term is a Raft consensus epoch, opaque to this package beyond being
// stored and compared.
type Term uint64

// ValueType is an opaque tag supplied by the caller; this package does not
// interpret it.
type ValueType uint32

// LogEntry is the opaque triple the changelog stores: a term, a value-type
// tag, and a possibly-empty blob. Payload interpretation lives outside this
// module.
type LogEntry struct {
	Term      Term
	ValueType ValueType
	Blob      []byte
}

// Clone returns a LogEntry whose Blob does not alias e.Blob, so that the
// changelog and its caller can never observe each other's mutations.
func (e LogEntry) Clone() LogEntry {
	if e.Blob == nil {
		return e
	}
	blob := make([]byte, len(e.Blob))
	copy(blob, e.Blob)
	return LogEntry{Term: e.Term, ValueType: e.ValueType, Blob: blob}
}

// sentinelBlobSize is the size of the sentinel's fixed zero blob: a machine
// pointer on the architectures this module targets.
const sentinelBlobSize = 8

// Sentinel is the well-known "no real last entry" value returned by
// LastEntry on an empty log. Term 0 is conventional for "not a real entry".
func Sentinel() LogEntry {
	return LogEntry{Term: 0, ValueType: 0, Blob: make([]byte, sentinelBlobSize)}
}

// entryHeaderSize is the fixed width of Marshal's encoding before the blob:
// 8 bytes term, 4 bytes value type, 8 bytes blob length.
const entryHeaderSize = 8 + 4 + 8

// Marshal encodes the entry using the minimal fixed little-endian format
// this module defines for serialize_batch/apply_serialized_batch. The wire
// format of a single entry is explicitly outside the changelog's core
// concern (spec §1); this is the concrete encoding this port supplies so
// batch ingest is testable end to end.
func (e LogEntry) Marshal() []byte {
	buf := make([]byte, entryHeaderSize+len(e.Blob))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.Term))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(e.ValueType))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(len(e.Blob)))
	copy(buf[20:], e.Blob)
	return buf
}

// Unmarshal decodes a LogEntry previously produced by Marshal.
func Unmarshal(buf []byte) (LogEntry, error) {
	if len(buf) < entryHeaderSize {
		return LogEntry{}, fmt.Errorf("logentry: buffer too short for header: %d bytes", len(buf))
	}
	term := Term(binary.LittleEndian.Uint64(buf[0:8]))
	valueType := ValueType(binary.LittleEndian.Uint32(buf[8:12]))
	blobLen := binary.LittleEndian.Uint64(buf[12:20])
	if uint64(len(buf)-entryHeaderSize) != blobLen {
		return LogEntry{}, fmt.Errorf("logentry: blob length mismatch: header says %d, have %d", blobLen, len(buf)-entryHeaderSize)
	}
	blob := make([]byte, blobLen)
	copy(blob, buf[entryHeaderSize:])
	return LogEntry{Term: term, ValueType: valueType, Blob: blob}, nil
}

// EncodeBatch implements the wire format from spec §6: int32 count followed
// by count occurrences of (int32 size, size bytes of Marshal output).
func EncodeBatch(entries []LogEntry) []byte {
	size := 4
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		encoded[i] = e.Marshal()
		size += 4 + len(encoded[i])
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(entries)))
	off := 4
	for _, enc := range encoded {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(enc)))
		off += 4
		copy(buf[off:], enc)
		off += len(enc)
	}
	return buf
}

// DecodeBatch parses a buffer produced by EncodeBatch.
func DecodeBatch(buf []byte) ([]LogEntry, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("logentry: batch buffer too short for count")
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	entries := make([]LogEntry, 0, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+4 > len(buf) {
			return nil, fmt.Errorf("logentry: batch truncated before entry %d size", i)
		}
		size := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		if off+int(size) > len(buf) {
			return nil, fmt.Errorf("logentry: batch truncated before entry %d body", i)
		}
		entry, err := Unmarshal(buf[off : off+int(size)])
		if err != nil {
			return nil, fmt.Errorf("logentry: decode batch entry %d: %w", i, err)
		}
		entries = append(entries, entry)
		off += int(size)
	}
	return entries, nil
}
