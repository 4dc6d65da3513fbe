package segment

import (
	"os"
	"path/filepath"
	"testing"

	"raftlog/internal/logentry"
)

func mustWriteEntries(t *testing.T, path string, startIndex logentry.LogIndex, blobs []string) {
	t.Helper()
	w, err := NewWriter(path, ModeRewrite, startIndex)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	for i, blob := range blobs {
		entry := logentry.LogEntry{Term: 1, ValueType: 0, Blob: []byte(blob)}
		rec := NewRecord(startIndex+logentry.LogIndex(i), entry)
		if _, err := w.AppendRecord(rec, true); err != nil {
			t.Fatalf("AppendRecord: %v", err)
		}
	}
}

func TestReadSegmentRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelog_1_3.bin")
	mustWriteEntries(t, path, 1, []string{"a", "bb", "ccc"})

	result, err := NewReader(path).ReadSegment(1)
	if err != nil {
		t.Fatalf("ReadSegment: %v", err)
	}
	if result.Err {
		t.Fatal("unexpected error flag set on clean segment")
	}
	if result.EntriesRead != 3 {
		t.Fatalf("EntriesRead = %d, want 3", result.EntriesRead)
	}
	if len(result.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(result.Entries))
	}
	if string(result.Entries[2].Blob) != "bb" {
		t.Fatalf("entry 2 blob = %q, want %q", result.Entries[2].Blob, "bb")
	}
}

func TestReadSegmentFiltersBelowStartIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelog_1_3.bin")
	mustWriteEntries(t, path, 1, []string{"a", "bb", "ccc"})

	result, err := NewReader(path).ReadSegment(2)
	if err != nil {
		t.Fatalf("ReadSegment: %v", err)
	}
	if result.EntriesRead != 3 {
		t.Fatalf("EntriesRead = %d, want 3 (counts entries below startLogIdx too)", result.EntriesRead)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(result.Entries))
	}
	if _, ok := result.Entries[1]; ok {
		t.Fatal("entry below startLogIdx should not be materialized")
	}
}

func TestReadSegmentDetectsTornTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelog_1_3.bin")
	mustWriteEntries(t, path, 1, []string{"a", "bb", "ccc"})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	result, err := NewReader(path).ReadSegment(1)
	if err != nil {
		t.Fatalf("ReadSegment: %v", err)
	}
	if !result.Err {
		t.Fatal("expected torn tail to set Err")
	}
	if result.EntriesRead != 2 {
		t.Fatalf("EntriesRead = %d, want 2", result.EntriesRead)
	}
}

func TestWriterTruncateToProducesExactLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelog_1_3.bin")

	w, err := NewWriter(path, ModeRewrite, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	entry := logentry.LogEntry{Term: 1, Blob: []byte("abc")}
	offset, err := w.AppendRecord(NewRecord(1, entry), true)
	if err != nil {
		t.Fatalf("AppendRecord: %v", err)
	}
	if _, err := w.AppendRecord(NewRecord(2, entry), true); err != nil {
		t.Fatalf("AppendRecord: %v", err)
	}

	if err := w.TruncateTo(offset); err != nil {
		t.Fatalf("TruncateTo: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != offset {
		t.Fatalf("file size = %d, want %d", info.Size(), offset)
	}
}

func TestWriterFlushIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelog_1_3.bin")

	w, err := NewWriter(path, ModeRewrite, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	entry := logentry.LogEntry{Term: 1, Blob: []byte("abc")}
	if _, err := w.AppendRecord(NewRecord(1, entry), false); err != nil {
		t.Fatalf("AppendRecord: %v", err)
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("first Flush: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
}
