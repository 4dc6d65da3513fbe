// Package changelog implements the segmented, append-mostly changelog that
// backs the raftlog façade. It owns segment rotation, crash recovery,
// cross-segment rollback on write_at, and prefix compaction; the byte-level
// framing lives one level down in internal/segment.
package changelog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"raftlog/internal/errs"
	"raftlog/internal/logentry"
	"raftlog/internal/segment"
)

// Manager owns one changelog directory: its in-memory indexes, its segment
// descriptors, and the single writer open on the newest segment.
type Manager struct {
	dir            string
	prefix         string
	rotateInterval int

	entries  *entryMap
	offsets  *offsetMap
	segments *segmentMap

	startIndex logentry.LogIndex
	writer     *segment.Writer
	recovered  bool
}

// New opens dir (creating it if missing), scans it for existing segments,
// and returns a Manager ready for Recover. It does not itself replay any
// segment content.
func New(dir string, rotateInterval int) (*Manager, error) {
	if rotateInterval <= 0 {
		return nil, fmt.Errorf("%w: rotate interval must be positive, got %d", errs.ErrLogical, rotateInterval)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create changelog dir %s: %v", errs.ErrIO, dir, err)
	}

	m := &Manager{
		dir:            dir,
		prefix:         defaultPrefix,
		rotateInterval: rotateInterval,
		entries:        newEntryMap(),
		offsets:        newOffsetMap(),
		segments:       newSegmentMap(),
	}
	if err := m.scanDirectory(); err != nil {
		return nil, err
	}
	if first, ok := firstDescriptor(m.segments); ok {
		m.prefix = first.Prefix
	}
	return m, nil
}

func firstDescriptor(sm *segmentMap) (*descriptor, bool) {
	var found *descriptor
	sm.Range(func(_ logentry.LogIndex, d *descriptor) bool {
		found = d
		return false
	})
	return found, found != nil
}

// firstEntryIndex returns the smallest key in em. Range over a skip list
// visits keys in ascending order, so the first callback invocation carries
// the minimum.
func firstEntryIndex(em *entryMap) logentry.LogIndex {
	var first logentry.LogIndex
	em.Range(func(idx logentry.LogIndex, _ logentry.LogEntry) bool {
		first = idx
		return false
	})
	return first
}

// Recover replays every segment from fromLogIdx onward, following spec
// §4.3.2: entries below fromLogIdx still count toward each segment's
// completeness check but are discarded from the in-memory indexes, a short
// (torn) segment is detected by comparing entries actually read against
// the segment's reserved capacity, everything after the first short or
// missing segment is deleted, and the tail is left ready to accept new
// writes either by reopening the short segment in append mode or by
// rotating into a brand new one.
func (m *Manager) Recover(fromLogIdx logentry.LogIndex) error {
	if m.recovered {
		return fmt.Errorf("%w: changelog already recovered", errs.ErrLogical)
	}

	start := fromLogIdx
	if start == 0 {
		start = 1
	}

	var (
		totalRead  int
		lastDesc   *descriptor
		lastResult *segment.Result
		lastShort  bool
		incomplete *logentry.LogIndex
	)

	m.segments.Range(func(from logentry.LogIndex, desc *descriptor) bool {
		if desc.To < fromLogIdx {
			return true
		}

		result, err := segment.NewReader(desc.Path).ReadSegment(start)
		if err != nil {
			incomplete = &desc.From
			return false
		}

		for idx, entry := range result.Entries {
			m.entries.Store(idx, entry)
		}
		for idx, off := range result.Offsets {
			m.offsets.Store(idx, off)
		}
		totalRead += result.EntriesRead

		lastDesc = desc
		lastResult = result

		if result.EntriesRead < desc.capacity() {
			lastShort = true
			incomplete = &desc.From
			return false
		}
		return true
	})

	if incomplete != nil {
		m.deleteSegmentsAfter(*incomplete)
	}

	if lastDesc != nil && lastShort {
		writer, err := segment.NewWriter(lastDesc.Path, segment.ModeAppend, lastDesc.From)
		if err != nil {
			return err
		}
		writer.SetEntriesWritten(lastResult.EntriesRead)
		if lastResult.Err {
			if err := writer.TruncateTo(lastResult.LastPosition); err != nil {
				return err
			}
		}
		m.writer = writer
		m.segments.Store(lastDesc.From, lastDesc)
	} else {
		if err := m.rotate(start + logentry.LogIndex(totalRead)); err != nil {
			return err
		}
	}

	if m.entries.Len() > 0 {
		m.startIndex = firstEntryIndex(m.entries)
	} else {
		m.startIndex = start
	}

	m.recovered = true
	return nil
}

// deleteSegmentsAfter removes every segment descriptor (and its file)
// beginning strictly after incomplete, since nothing past a torn or
// unreadable segment can be trusted.
func (m *Manager) deleteSegmentsAfter(incomplete logentry.LogIndex) {
	var stale []*descriptor
	m.segments.Range(func(from logentry.LogIndex, desc *descriptor) bool {
		if desc.From > incomplete {
			stale = append(stale, desc)
		}
		return true
	})
	for _, desc := range stale {
		if err := os.Remove(desc.Path); err != nil && !os.IsNotExist(err) {
			slog.Warn("changelog: failed removing stale segment", "path", desc.Path, "error", err)
		}
		m.segments.Delete(desc.From)
	}
}

// rotate closes the current writer, if any, and opens a fresh segment
// starting at newStart.
func (m *Manager) rotate(newStart logentry.LogIndex) error {
	if m.writer != nil {
		if err := m.writer.Flush(); err != nil {
			return err
		}
		if err := m.writer.Close(); err != nil {
			return err
		}
	}

	to := newStart + logentry.LogIndex(m.rotateInterval) - 1
	name := segmentFileName(m.prefix, newStart, to)
	path := filepath.Join(m.dir, name)

	writer, err := segment.NewWriter(path, segment.ModeRewrite, newStart)
	if err != nil {
		return err
	}

	m.segments.Store(newStart, &descriptor{Prefix: m.prefix, From: newStart, To: to, Path: path})
	m.writer = writer
	return nil
}

// Append writes entry at index, which must be exactly NextIndex.
func (m *Manager) Append(index logentry.LogIndex, entry logentry.LogEntry, sync bool) error {
	if err := m.requireRecovered(); err != nil {
		return err
	}
	if index != m.NextIndex() {
		return fmt.Errorf("%w: append index %d does not match next index %d", errs.ErrLogical, index, m.NextIndex())
	}

	if m.entries.Len() == 0 {
		m.startIndex = index
	}
	if m.writer.EntriesWritten() >= m.rotateInterval {
		if err := m.rotate(index); err != nil {
			return err
		}
	}

	rec := segment.NewRecord(index, entry)
	offset, err := m.writer.AppendRecord(rec, sync)
	if err != nil {
		return err
	}

	if _, dup := m.offsets.LoadOrStore(index, offset); dup {
		return fmt.Errorf("%w: index %d already has a recorded offset", errs.ErrLogical, index)
	}
	m.entries.Store(index, entry.Clone())
	return nil
}

// WriteAt overwrites the entry at index, discarding every entry at or after
// it (including in segments after the one containing index) and reopening
// the writer on the correct segment before delegating to Append. This is
// the cross-segment rollback path from spec §4.3.3.
func (m *Manager) WriteAt(index logentry.LogIndex, entry logentry.LogEntry, sync bool) error {
	if err := m.requireRecovered(); err != nil {
		return err
	}
	if _, live := m.offsets.Load(index); !live {
		return fmt.Errorf("%w: write_at index %d is not a live entry", errs.ErrLogical, index)
	}

	needRollback := index < m.writer.StartIndex()
	if needRollback {
		desc, ok := m.findSegmentContaining(index)
		if !ok {
			return fmt.Errorf("%w: no segment contains index %d", errs.ErrLogical, index)
		}
		newWriter, err := segment.NewWriter(desc.Path, segment.ModeAppend, desc.From)
		if err != nil {
			return err
		}
		newWriter.SetEntriesWritten(desc.capacity())

		if err := m.writer.Close(); err != nil {
			return err
		}
		m.writer = newWriter
	}

	offset, _ := m.offsets.Load(index)
	if err := m.writer.TruncateTo(offset); err != nil {
		return err
	}

	if needRollback {
		var stale []*descriptor
		m.segments.Range(func(from logentry.LogIndex, desc *descriptor) bool {
			if desc.From > index {
				stale = append(stale, desc)
			}
			return true
		})
		for _, desc := range stale {
			if err := os.Remove(desc.Path); err != nil && !os.IsNotExist(err) {
				slog.Warn("changelog: failed removing superseded segment", "path", desc.Path, "error", err)
			}
			m.segments.Delete(desc.From)
		}
	}

	// Every record physically remaining in the truncated segment falls
	// between its FROM and index-1; everything from index onward, in any
	// segment, is no longer live.
	m.writer.SetEntriesWritten(int(index - m.writer.StartIndex()))

	var dropped []logentry.LogIndex
	m.entries.Range(func(idx logentry.LogIndex, _ logentry.LogEntry) bool {
		if idx >= index {
			dropped = append(dropped, idx)
		}
		return true
	})
	for _, idx := range dropped {
		m.entries.Delete(idx)
		m.offsets.Delete(idx)
	}

	return m.Append(index, entry, sync)
}

// findSegmentContaining returns the descriptor whose [From, To] range
// contains index, resolving spec Open Question Q1 by direct containment
// rather than a lower-bound search over FROM values (a lower bound can
// land one segment too far back when index falls inside a gap).
func (m *Manager) findSegmentContaining(index logentry.LogIndex) (*descriptor, bool) {
	var found *descriptor
	m.segments.Range(func(_ logentry.LogIndex, desc *descriptor) bool {
		if desc.contains(index) {
			found = desc
			return false
		}
		return true
	})
	return found, found != nil
}

// Compact drops every entry with index <= upTo and deletes any segment file
// whose entire range falls at or below upTo. It stops at the first missing
// index inside a segment's range rather than guessing the segment is fully
// present.
func (m *Manager) Compact(upTo logentry.LogIndex) error {
	if err := m.requireRecovered(); err != nil {
		return err
	}

	var toDelete []*descriptor
	m.segments.Range(func(from logentry.LogIndex, desc *descriptor) bool {
		if desc.To <= upTo {
			toDelete = append(toDelete, desc)
		}
		return true
	})

	for _, desc := range toDelete {
		for idx := desc.From; idx <= desc.To; idx++ {
			if _, ok := m.offsets.Load(idx); !ok {
				break
			}
			m.offsets.Delete(idx)
		}
		if err := os.Remove(desc.Path); err != nil && !os.IsNotExist(err) {
			slog.Warn("changelog: failed removing compacted segment", "path", desc.Path, "error", err)
		}
		m.segments.Delete(desc.From)
	}

	var toDrop []logentry.LogIndex
	m.entries.Range(func(idx logentry.LogIndex, _ logentry.LogEntry) bool {
		if idx <= upTo {
			toDrop = append(toDrop, idx)
		}
		return true
	})
	for _, idx := range toDrop {
		m.entries.Delete(idx)
	}

	if upTo+1 > m.startIndex {
		m.startIndex = upTo + 1
	}
	return nil
}

// EntriesBetween returns entries for [from, to), with a nil element for any
// index that is not live.
func (m *Manager) EntriesBetween(from, to logentry.LogIndex) []*logentry.LogEntry {
	if to <= from {
		return nil
	}
	out := make([]*logentry.LogEntry, 0, to-from)
	for idx := from; idx < to; idx++ {
		entry, ok := m.entries.Load(idx)
		if !ok {
			out = append(out, nil)
			continue
		}
		cloned := entry.Clone()
		out = append(out, &cloned)
	}
	return out
}

// EntryAt returns the entry at index and whether it is live.
func (m *Manager) EntryAt(index logentry.LogIndex) (logentry.LogEntry, bool) {
	entry, ok := m.entries.Load(index)
	if !ok {
		return logentry.LogEntry{}, false
	}
	return entry.Clone(), true
}

// NextIndex is the index that the next Append call must use.
func (m *Manager) NextIndex() logentry.LogIndex {
	return m.startIndex + logentry.LogIndex(m.entries.Len())
}

// LastEntry returns the most recently appended entry, or the sentinel entry
// if the changelog is empty.
func (m *Manager) LastEntry() logentry.LogEntry {
	if m.entries.Len() == 0 {
		return logentry.Sentinel()
	}
	entry, _ := m.entries.Load(m.NextIndex() - 1)
	return entry.Clone()
}

// Flush fsyncs the currently open segment.
func (m *Manager) Flush() error {
	if m.writer == nil {
		return nil
	}
	return m.writer.Flush()
}

// Close flushes and closes the currently open segment, logging rather than
// propagating any failure since callers typically invoke Close during
// shutdown where there is nothing left to roll back to.
func (m *Manager) Close() {
	if m.writer == nil {
		return
	}
	if err := m.writer.Flush(); err != nil {
		slog.Error("changelog: flush on close failed", "error", err)
	}
	if err := m.writer.Close(); err != nil {
		slog.Error("changelog: close failed", "error", err)
	}
}

func (m *Manager) requireRecovered() error {
	if !m.recovered {
		return fmt.Errorf("%w: changelog has not completed recovery", errs.ErrLogical)
	}
	return nil
}
