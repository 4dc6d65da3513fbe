package changelog

import (
	"os"
	"path/filepath"
	"testing"

	"raftlog/internal/logentry"
)

func TestParseSegmentFileNameToleratesExtraFragments(t *testing.T) {
	desc, err := parseSegmentFileName("/data", "changelog_1_3_extra_tag.bin")
	if err != nil {
		t.Fatalf("parseSegmentFileName: %v", err)
	}
	if desc.From != 1 || desc.To != 3 {
		t.Fatalf("unexpected range: %+v", desc)
	}
}

func TestParseSegmentFileNameRejectsUnparseable(t *testing.T) {
	if _, err := parseSegmentFileName("/data", "notasegment.bin"); err == nil {
		t.Fatal("expected error for unparseable filename")
	}
}

func TestScanDirectoryRejectsToBeforeFrom(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "changelog_5_2.bin"), nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := New(dir, 3); err == nil {
		t.Fatal("expected error for TO < FROM")
	}
}

func TestSegmentFileNameFormat(t *testing.T) {
	got := segmentFileName("changelog", logentry.LogIndex(1), logentry.LogIndex(3))
	if got != "changelog_1_3.bin" {
		t.Fatalf("segmentFileName = %q, want changelog_1_3.bin", got)
	}
}
