// raftlogd runs a single raft node backed by the durable changelog and
// serves a read-only introspection API over it. It plays the role the
// teacher's cmd/demo played for the LSM-DB cluster demo, trimmed to this
// module's single-process, no-replication-transport scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"

	"raftlog"
	"raftlog/internal/config"
	"raftlog/internal/debugapi"
	"raftlog/internal/raftstorage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	config.InitLogger(cfg.Logger)

	if err := run(cfg); err != nil {
		slog.Error("raftlogd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	log, err := raftlog.Open(cfg.Changelog.Directory, cfg.Changelog.RotateInterval, 1)
	if err != nil {
		return fmt.Errorf("open changelog: %w", err)
	}
	defer log.Close()

	confState := raftpb.ConfState{Voters: []uint64{cfg.Raft.ID}}
	for _, p := range cfg.Raft.Peers {
		confState.Voters = append(confState.Voters, p.ID)
	}

	storage := raftstorage.New(log, raftpb.HardState{}, confState)

	raftCfg := &raft.Config{
		ID:                        cfg.Raft.ID,
		ElectionTick:              cfg.Raft.ElectionTick,
		HeartbeatTick:             cfg.Raft.HeartbeatTick,
		Storage:                   storage,
		MaxSizePerMsg:             cfg.Raft.MaxSizePerMsg,
		MaxCommittedSizePerReady:  cfg.Raft.MaxCommittedSizePerReady,
		MaxUncommittedEntriesSize: cfg.Raft.MaxUncommittedEntriesSize,
		MaxInflightMsgs:           cfg.Raft.MaxInflightMsgs,
		CheckQuorum:               cfg.Raft.CheckQuorum,
		PreVote:                   cfg.Raft.PreVote,
	}

	peers := []raft.Peer{{ID: cfg.Raft.ID}}
	for _, p := range cfg.Raft.Peers {
		peers = append(peers, raft.Peer{ID: p.ID, Context: []byte(p.Address)})
	}

	node := raft.StartNode(raftCfg, peers)
	defer node.Stop()

	debugSrv := debugapi.NewServer(log, fmt.Sprintf(":%d", cfg.HTTP.Port))
	if err := debugSrv.Start(); err != nil {
		return fmt.Errorf("start debug api: %w", err)
	}
	defer debugSrv.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("raftlogd started", "id", cfg.Raft.ID, "changelog_dir", cfg.Changelog.Directory)
	return driveRaft(ctx, node, storage, cfg.Raft.ID)
}

// driveRaft is the event loop, grounded on the teacher's
// pkg/raftadapter.Node.Run/handleReady: tick on a fixed interval, persist
// and acknowledge each Ready, log committed entries. Once leader, it also
// proposes a periodic heartbeat command so the changelog sees continuous
// traffic even with no external caller proposing application commands yet.
func driveRaft(ctx context.Context, node raft.Node, storage *raftstorage.Storage, selfID uint64) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	heartbeat := time.NewTicker(5 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("raftlogd shutting down")
			return nil
		case <-ticker.C:
			node.Tick()
		case <-heartbeat.C:
			if node.Status().Lead == selfID {
				proposeHeartbeat(ctx, node)
			}
		case rd := <-node.Ready():
			if err := handleReady(node, storage, rd); err != nil {
				return err
			}
		}
	}
}

func proposeHeartbeat(ctx context.Context, node raft.Node) {
	cmd := raftstorage.NewCmd([]byte("heartbeat"))
	data, err := cmd.Marshal()
	if err != nil {
		slog.Warn("raftlogd: marshal heartbeat command", "error", err)
		return
	}
	if err := node.Propose(ctx, data); err != nil {
		slog.Warn("raftlogd: propose heartbeat", "cmd_id", cmd.ID, "error", err)
	}
}

func handleReady(node raft.Node, storage *raftstorage.Storage, rd raft.Ready) error {
	if !raft.IsEmptyHardState(rd.HardState) {
		storage.SetHardState(rd.HardState)
	}
	if err := storage.Append(rd.Entries, true); err != nil {
		return fmt.Errorf("append entries: %w", err)
	}
	for _, entry := range rd.CommittedEntries {
		if entry.Type == raftpb.EntryNormal && len(entry.Data) > 0 {
			if cmd, err := raftstorage.UnmarshalCmd(entry.Data); err == nil {
				slog.Debug("raftlogd: committed entry", "index", entry.Index, "term", entry.Term, "cmd_id", cmd.ID)
			}
		}
	}
	node.Advance()
	return nil
}
