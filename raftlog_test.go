package raftlog

import "testing"

func TestOpenAppendAndReopen(t *testing.T) {
	dir := t.TempDir()

	log, err := Open(dir, 4, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := 1; i <= 5; i++ {
		entry := LogEntry{Term: Term(i), Blob: []byte{byte(i)}}
		if err := log.Append(LogIndex(i), entry, true); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	log.Close()

	reopened, err := Open(dir, 4, 1)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if got := reopened.NextIndex(); got != 6 {
		t.Fatalf("NextIndex() = %d, want 6", got)
	}
	entry, ok := reopened.EntryAt(3)
	if !ok || entry.Term != 3 {
		t.Fatalf("EntryAt(3) = %+v, ok=%v, want term 3", entry, ok)
	}
}

func TestSerializeBatchAndApply(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(dir, 4, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	for i := 1; i <= 5; i++ {
		entry := LogEntry{Term: Term(i), Blob: []byte{byte(i)}}
		if err := log.Append(LogIndex(i), entry, false); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	entries := log.EntriesBetween(1, 6)
	toSerialize := make([]LogEntry, len(entries))
	for i, e := range entries {
		toSerialize[i] = *e
	}
	buf := SerializeBatch(toSerialize)

	freshDir := t.TempDir()
	fresh, err := Open(freshDir, 4, 1)
	if err != nil {
		t.Fatalf("Open fresh: %v", err)
	}
	defer fresh.Close()

	if err := fresh.ApplySerializedBatch(1, buf, false); err != nil {
		t.Fatalf("ApplySerializedBatch: %v", err)
	}

	for i := 1; i <= 5; i++ {
		got, ok := fresh.EntryAt(LogIndex(i))
		if !ok || got.Term != Term(i) {
			t.Fatalf("EntryAt(%d) = %+v, ok=%v, want term %d", i, got, ok, i)
		}
	}
}

func TestEntryAtMissingIndexIsNotLive(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(dir, 4, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer log.Close()

	if _, ok := log.EntryAt(1); ok {
		t.Fatal("expected empty changelog to have no live entries")
	}
	if got := log.LastEntry(); got.Term != 0 {
		t.Fatalf("LastEntry().Term = %d, want 0 (sentinel)", got.Term)
	}
}
