package raftlog

import "raftlog/internal/logentry"

// SerializeBatch encodes entries using the batch wire format: int32 count
// followed by count occurrences of (int32 size, size bytes of a single
// entry's encoding).
func SerializeBatch(entries []LogEntry) []byte {
	return logentry.EncodeBatch(entries)
}

func decodeBatch(buf []byte) ([]LogEntry, error) {
	return logentry.DecodeBatch(buf)
}
