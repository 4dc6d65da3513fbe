// Package raftstorage adapts raftlog.Log to go.etcd.io/etcd/raft/v3's
// Storage interface, the module's concrete demonstration that the
// changelog is a valid backing store for a real Raft engine. It is
// grounded on the teacher's pkg/raftadapter.Node, which wired a real
// raft.Node on top of raft.MemoryStorage; here the MemoryStorage is
// replaced by the durable changelog.
package raftstorage

import (
	"sync"

	"go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"

	"raftlog"
)

// Storage implements raft.Storage on top of a *raftlog.Log. etcd/raft may
// call it from its own goroutine, so every method takes mu, matching the
// teacher's pattern of a single mutex guarding calls into the underlying
// store from the raft node's event loop.
type Storage struct {
	mu    sync.Mutex
	log   *raftlog.Log
	hs    raftpb.HardState
	conf  raftpb.ConfState
}

// New wraps log with the initial hard state and configuration state raft
// should see on startup.
func New(log *raftlog.Log, hs raftpb.HardState, conf raftpb.ConfState) *Storage {
	return &Storage{log: log, hs: hs, conf: conf}
}

// SetHardState records the latest hard state, called whenever raft reports
// one via Ready.HardState.
func (s *Storage) SetHardState(hs raftpb.HardState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hs = hs
}

// InitialState returns the hard state and configuration state supplied at
// construction; this module does not persist either one itself (spec.md
// non-goal: no replication/cluster-membership storage), so the caller is
// responsible for restoring them from its own bookkeeping before Ready.
func (s *Storage) InitialState() (raftpb.HardState, raftpb.ConfState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hs, s.conf, nil
}

// Entries returns entries in [lo, hi), trimmed to maxSize total bytes
// (always keeping at least the first entry), matching raft.Storage's
// contract.
func (s *Storage) Entries(lo, hi, maxSize uint64) ([]raftpb.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.log.EntriesBetween(raftlog.LogIndex(lo), raftlog.LogIndex(hi))
	out := make([]raftpb.Entry, 0, len(raw))
	var size uint64
	for i, entry := range raw {
		if entry == nil {
			return nil, raft.ErrUnavailable
		}
		pe := toRaftpbEntry(lo+uint64(i), *entry)
		size += uint64(pe.Size())
		if len(out) > 0 && size > maxSize {
			break
		}
		out = append(out, pe)
	}
	return out, nil
}

// Term returns the term of the entry at i.
func (s *Storage) Term(i uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.log.EntryAt(raftlog.LogIndex(i))
	if !ok {
		return 0, raft.ErrUnavailable
	}
	return uint64(entry.Term), nil
}

// LastIndex is the index of the most recently appended entry.
func (s *Storage) LastIndex() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(s.log.NextIndex()) - 1, nil
}

// FirstIndex is the lowest index still retained (the next index above the
// most recent compaction).
func (s *Storage) FirstIndex() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.log.EntriesBetween(0, s.log.NextIndex())
	for i, e := range entries {
		if e != nil {
			return uint64(i), nil
		}
	}
	return uint64(s.log.NextIndex()), nil
}

// Snapshot always reports unavailable: this module does not implement
// snapshotting, matching how etcd/raft callers handle nodes with no
// snapshot support.
func (s *Storage) Snapshot() (raftpb.Snapshot, error) {
	return raftpb.Snapshot{}, raft.ErrSnapshotTemporarilyUnavailable
}

// Append durably records entries on the leader's own proposals (sync=true)
// and non-durably when fast-following (sync=false), then truncates any
// conflicting tail exactly as raft.MemoryStorage.Append does in the
// teacher's handleReady, except against the durable changelog instead of
// an in-memory ring buffer.
func (s *Storage) Append(entries []raftpb.Entry, sync bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pe := range entries {
		entry := raftlog.LogEntry{
			Term:      raftlog.Term(pe.Term),
			ValueType: raftlog.ValueType(pe.Type),
			Blob:      pe.Data,
		}
		idx := raftlog.LogIndex(pe.Index)
		if idx < s.log.NextIndex() {
			if err := s.log.WriteAt(idx, entry, sync); err != nil {
				return err
			}
			continue
		}
		if err := s.log.Append(idx, entry, sync); err != nil {
			return err
		}
	}
	return nil
}

func toRaftpbEntry(index uint64, e raftlog.LogEntry) raftpb.Entry {
	return raftpb.Entry{
		Index: index,
		Term:  uint64(e.Term),
		Type:  raftpb.EntryType(e.ValueType),
		Data:  e.Blob,
	}
}
