package segment

import (
	"fmt"
	"io"
	"os"

	"raftlog/internal/errs"
	"raftlog/internal/logentry"
)

// Mode selects how NewWriter opens its file.
type Mode int

const (
	// ModeRewrite creates the file or truncates it to zero length.
	ModeRewrite Mode = iota
	// ModeAppend opens the file for appending, creating it if missing.
	ModeAppend
)

const filePerm = 0644

// Writer owns one open segment file at a time: it appends framed records
// sequentially and can truncate and reposition its write cursor for crash
// recovery and write_at.
type Writer struct {
	path           string
	file           *os.File
	startIndex     logentry.LogIndex
	entriesWritten int
}

// NewWriter opens path in the given mode. startIndex is the segment's FROM,
// recorded for callers that need to know which segment is being written
// without re-deriving it from the filename.
func NewWriter(path string, mode Mode, startIndex logentry.LogIndex) (*Writer, error) {
	flags := os.O_CREATE | os.O_RDWR
	switch mode {
	case ModeRewrite:
		flags |= os.O_TRUNC
	case ModeAppend:
		flags |= os.O_APPEND
	default:
		return nil, fmt.Errorf("%w: unknown segment writer mode %d", errs.ErrLogical, mode)
	}

	file, err := os.OpenFile(path, flags, filePerm)
	if err != nil {
		return nil, fmt.Errorf("%w: open segment %s: %v", errs.ErrIO, path, err)
	}
	return &Writer{path: path, file: file, startIndex: startIndex}, nil
}

// AppendRecord writes rec at the current end of file and returns the byte
// offset where it began. If sync is true the file is durably flushed
// before returning.
func (w *Writer) AppendRecord(rec Record, sync bool) (int64, error) {
	offset, err := w.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: seek end of segment %s: %v", errs.ErrIO, w.path, err)
	}
	if _, err := w.file.Write(rec.Encode()); err != nil {
		return 0, fmt.Errorf("%w: write record to segment %s: %v", errs.ErrIO, w.path, err)
	}
	if sync {
		if err := w.file.Sync(); err != nil {
			return 0, fmt.Errorf("%w: fsync segment %s: %v", errs.ErrIO, w.path, err)
		}
	}
	w.entriesWritten++
	return offset, nil
}

// TruncateTo flushes, truncates the file to length bytes, and repositions
// the write cursor at length. Used by crash recovery and by write_at.
func (w *Writer) TruncateTo(length int64) error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("%w: fsync before truncate of %s: %v", errs.ErrIO, w.path, err)
	}
	if err := w.file.Truncate(length); err != nil {
		return fmt.Errorf("%w: truncate %s to %d: %v", errs.ErrIO, w.path, length, err)
	}
	if _, err := w.file.Seek(length, io.SeekStart); err != nil {
		return fmt.Errorf("%w: reposition %s to %d: %v", errs.ErrIO, w.path, length, err)
	}
	return nil
}

// Flush fsyncs the file.
func (w *Writer) Flush() error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("%w: fsync segment %s: %v", errs.ErrIO, w.path, err)
	}
	return nil
}

// Close releases the underlying file descriptor.
func (w *Writer) Close() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: close segment %s: %v", errs.ErrIO, w.path, err)
	}
	return nil
}

// EntriesWritten reports how many records have been written into this
// segment since it was opened (reset on recovery reopen via
// SetEntriesWritten).
func (w *Writer) EntriesWritten() int {
	return w.entriesWritten
}

// SetEntriesWritten overrides the records-written counter. Used when
// reopening a segment during recovery or a write_at cross-segment rollback,
// where the counter must reflect on-disk content rather than this
// writer instance's own history.
func (w *Writer) SetEntriesWritten(n int) {
	w.entriesWritten = n
}

// StartIndex returns the segment's FROM.
func (w *Writer) StartIndex() logentry.LogIndex {
	return w.startIndex
}

// Path returns the file path this writer owns.
func (w *Writer) Path() string {
	return w.path
}
