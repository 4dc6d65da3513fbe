package segment

import (
	"testing"

	"raftlog/internal/logentry"
)

func TestRecordEncodeDecodeRoundTrip(t *testing.T) {
	entry := logentry.LogEntry{Term: 7, ValueType: 3, Blob: []byte("hello world")}
	rec := NewRecord(42, entry)

	encoded := rec.Encode()
	if len(encoded) != headerSize+len(entry.Blob) {
		t.Fatalf("unexpected encoded length: got %d, want %d", len(encoded), headerSize+len(entry.Blob))
	}

	decoded, err := decodeHeader(encoded[:headerSize])
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	decoded.Blob = encoded[headerSize:]

	if decoded.Index != 42 || decoded.Term != 7 || decoded.ValueType != 3 {
		t.Fatalf("unexpected decoded header: %+v", decoded)
	}
	if checksumBlob(decoded.Blob) != rec.Checksum {
		t.Fatalf("checksum mismatch after round trip")
	}
}

func TestDecodeHeaderRejectsUnknownVersion(t *testing.T) {
	entry := logentry.LogEntry{Term: 1, Blob: []byte("x")}
	rec := NewRecord(1, entry)
	buf := rec.Encode()
	buf[0] = Version0 + 1

	if _, err := decodeHeader(buf[:headerSize]); err == nil {
		t.Fatal("expected error for unknown format version")
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	entry := logentry.LogEntry{Term: 1, Blob: []byte("payload")}
	rec := NewRecord(1, entry)
	buf := rec.Encode()

	buf[len(buf)-1] ^= 0xff

	decoded, err := decodeHeader(buf[:headerSize])
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	decoded.Blob = buf[headerSize:]
	if checksumBlob(decoded.Blob) == decoded.Checksum {
		t.Fatal("expected checksum mismatch after blob corruption")
	}
}
