// Package config defines raftlogd's YAML configuration, in the style of
// the teacher's pkg/config.Config: yaml tags, a Default baseline, no
// separate validation library since the teacher carries none either.
package config

// Config is the root of raftlogd's configuration file.
type Config struct {
	Changelog ChangelogConfig `yaml:"changelog"`
	Raft      RaftConfig      `yaml:"raft"`
	Logger    LoggerConfig    `yaml:"logger"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// ChangelogConfig controls where the segmented log lives on disk and how
// big each segment is allowed to grow before rotating.
type ChangelogConfig struct {
	Directory      string `yaml:"directory"`
	RotateInterval int    `yaml:"rotate_interval"`
	SegmentPrefix  string `yaml:"segment_prefix"`
}

// RaftConfig mirrors the fields the teacher's pkg/raftadapter.toRaftConfig
// forwards into raft.Config, plus this node's identity and peer list.
type RaftConfig struct {
	ID                        uint64     `yaml:"id"`
	Peers                     []RaftPeer `yaml:"peers"`
	ElectionTick              int        `yaml:"election_tick"`
	HeartbeatTick             int        `yaml:"heartbeat_tick"`
	MaxSizePerMsg             uint64     `yaml:"max_size_per_msg"`
	MaxCommittedSizePerReady  uint64     `yaml:"max_committed_size_per_ready"`
	MaxUncommittedEntriesSize uint64     `yaml:"max_uncommitted_entries_size"`
	MaxInflightMsgs           int        `yaml:"max_inflight_msgs"`
	CheckQuorum               bool       `yaml:"check_quorum"`
	PreVote                   bool       `yaml:"pre_vote"`
}

// RaftPeer names one member of the raft group.
type RaftPeer struct {
	ID      uint64 `yaml:"id"`
	Address string `yaml:"address"`
}

// LoggerConfig selects slog's output format and level.
type LoggerConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HTTPConfig configures the read-only debug API.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Default returns a baseline single-node configuration suitable for local
// development, the same role the teacher's config.Default plays for
// cmd/init.go.
func Default() Config {
	return Config{
		Changelog: ChangelogConfig{
			Directory:      "./data/changelog",
			RotateInterval: 10000,
			SegmentPrefix:  "changelog",
		},
		Raft: RaftConfig{
			ID:                        1,
			ElectionTick:              10,
			HeartbeatTick:             1,
			MaxSizePerMsg:             1024 * 1024,
			MaxCommittedSizePerReady:  1024 * 1024,
			MaxUncommittedEntriesSize: 1 << 30,
			MaxInflightMsgs:           256,
			CheckQuorum:               true,
			PreVote:                   true,
		},
		Logger: LoggerConfig{
			Level: "INFO",
			JSON:  false,
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
	}
}
