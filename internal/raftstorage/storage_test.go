package raftstorage

import (
	"testing"

	"go.etcd.io/etcd/raft/v3/raftpb"

	"raftlog"
)

func openLog(t *testing.T) *raftlog.Log {
	t.Helper()
	dir := t.TempDir()
	log, err := raftlog.Open(dir, 4, 1)
	if err != nil {
		t.Fatalf("raftlog.Open: %v", err)
	}
	t.Cleanup(log.Close)
	return log
}

func TestStorageAppendAndEntries(t *testing.T) {
	log := openLog(t)
	s := New(log, raftpb.HardState{}, raftpb.ConfState{Voters: []uint64{1}})

	entries := []raftpb.Entry{
		{Index: 1, Term: 1, Data: []byte("a")},
		{Index: 2, Term: 1, Data: []byte("b")},
		{Index: 3, Term: 2, Data: []byte("c")},
	}
	if err := s.Append(entries, true); err != nil {
		t.Fatalf("Append: %v", err)
	}

	last, err := s.LastIndex()
	if err != nil || last != 3 {
		t.Fatalf("LastIndex() = %d, err = %v, want 3", last, err)
	}

	got, err := s.Entries(1, 4, 1<<20)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Entries returned %d, want 3", len(got))
	}
	if got[2].Term != 2 || string(got[2].Data) != "c" {
		t.Fatalf("unexpected third entry: %+v", got[2])
	}
}

func TestStorageTerm(t *testing.T) {
	log := openLog(t)
	s := New(log, raftpb.HardState{}, raftpb.ConfState{Voters: []uint64{1}})

	if err := s.Append([]raftpb.Entry{{Index: 1, Term: 5, Data: []byte("x")}}, true); err != nil {
		t.Fatalf("Append: %v", err)
	}

	term, err := s.Term(1)
	if err != nil || term != 5 {
		t.Fatalf("Term(1) = %d, err = %v, want 5", term, err)
	}
}

func TestStorageSnapshotUnavailable(t *testing.T) {
	log := openLog(t)
	s := New(log, raftpb.HardState{}, raftpb.ConfState{})

	if _, err := s.Snapshot(); err == nil {
		t.Fatal("expected Snapshot to report unavailable")
	}
}

func TestStorageInitialState(t *testing.T) {
	log := openLog(t)
	wantConf := raftpb.ConfState{Voters: []uint64{1, 2, 3}}
	s := New(log, raftpb.HardState{Term: 4, Vote: 1, Commit: 2}, wantConf)

	hs, conf, err := s.InitialState()
	if err != nil {
		t.Fatalf("InitialState: %v", err)
	}
	if hs.Term != 4 || hs.Vote != 1 || hs.Commit != 2 {
		t.Fatalf("unexpected hard state: %+v", hs)
	}
	if len(conf.Voters) != 3 {
		t.Fatalf("unexpected conf state: %+v", conf)
	}
}
