package raftstorage

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Cmd is the envelope proposed to the raft group for any data that isn't a
// raw changelog entry, carrying a correlation ID the same way the
// teacher's pkg/raftadapter.Cmd does for its proposals.
type Cmd struct {
	ID   uuid.UUID `json:"id"`
	Data []byte    `json:"data"`
}

// NewCmd wraps data with a fresh correlation ID.
func NewCmd(data []byte) Cmd {
	return Cmd{ID: uuid.New(), Data: data}
}

// Marshal encodes the command for Node.Propose.
func (c Cmd) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalCmd decodes a command previously produced by Marshal.
func UnmarshalCmd(buf []byte) (Cmd, error) {
	var c Cmd
	if err := json.Unmarshal(buf, &c); err != nil {
		return Cmd{}, err
	}
	return c, nil
}
