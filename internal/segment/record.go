// Package segment implements the on-disk record frame and the per-file
// Writer/Reader that the changelog manager orchestrates. This is the
// "hard part" leaf of the module: a binary format with per-record
// checksums, built on *os.File directly rather than the teacher's
// bufio.Writer-backed WAL (pkg/wal.WAL, pkg/memtable.WAL), because
// TruncateTo must land the file at an exact byte length and that is only
// guaranteed when there is no buffered writer holding unflushed bytes.
package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/spaolacci/murmur3"

	"raftlog/internal/errs"
	"raftlog/internal/logentry"
)

// Version0 is the only record format version this build understands.
const Version0 byte = 0

// headerSize is the fixed width of a record's header, matching the spec
// table: 1 (version) + 8 (index) + 8 (term) + 4 (value_type) + 8
// (blob_size) + 16 (checksum) = 45 bytes.
const headerSize = 1 + 8 + 8 + 4 + 8 + 16

// Record is the on-disk frame for a single log entry.
type Record struct {
	Version   byte
	Index     logentry.LogIndex
	Term      logentry.Term
	ValueType logentry.ValueType
	BlobSize  uint64
	Checksum  [16]byte
	Blob      []byte
}

// NewRecord builds the on-disk frame for entry at index, computing its
// checksum from the blob bytes.
func NewRecord(index logentry.LogIndex, entry logentry.LogEntry) Record {
	return Record{
		Version:   Version0,
		Index:     index,
		Term:      entry.Term,
		ValueType: entry.ValueType,
		BlobSize:  uint64(len(entry.Blob)),
		Checksum:  checksumBlob(entry.Blob),
		Blob:      entry.Blob,
	}
}

// checksumBlob hashes blob with a 128-bit murmur3, the nearest 128-bit hash
// family available in the retrieval pack to the CityHash-128 variant the
// spec names (see DESIGN.md); byte-identical interop with the original
// on-disk format is not a goal of this port.
func checksumBlob(blob []byte) [16]byte {
	h1, h2 := murmur3.Sum128(blob)
	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], h1)
	binary.LittleEndian.PutUint64(out[8:16], h2)
	return out
}

// Entry extracts the LogEntry carried by this record.
func (r Record) Entry() logentry.LogEntry {
	return logentry.LogEntry{Term: r.Term, ValueType: r.ValueType, Blob: r.Blob}
}

// Encode serializes the record's header and blob with the fixed
// little-endian layout from the spec's record table.
func (r Record) Encode() []byte {
	buf := make([]byte, headerSize+len(r.Blob))
	buf[0] = r.Version
	binary.LittleEndian.PutUint64(buf[1:9], uint64(r.Index))
	binary.LittleEndian.PutUint64(buf[9:17], uint64(r.Term))
	binary.LittleEndian.PutUint32(buf[17:21], uint32(r.ValueType))
	binary.LittleEndian.PutUint64(buf[21:29], r.BlobSize)
	copy(buf[29:45], r.Checksum[:])
	copy(buf[45:], r.Blob)
	return buf
}

// decodeHeader parses a headerSize-length buffer into a Record with no
// Blob yet attached. It does not validate the checksum; that happens once
// the blob bytes are available.
func decodeHeader(buf []byte) (Record, error) {
	if len(buf) < headerSize {
		return Record{}, fmt.Errorf("segment: header buffer too short: %d bytes", len(buf))
	}
	version := buf[0]
	if version != Version0 {
		return Record{}, fmt.Errorf("%w: got version %d", errs.ErrUnknownFormatVersion, version)
	}
	r := Record{
		Version:   version,
		Index:     logentry.LogIndex(binary.LittleEndian.Uint64(buf[1:9])),
		Term:      logentry.Term(binary.LittleEndian.Uint64(buf[9:17])),
		ValueType: logentry.ValueType(binary.LittleEndian.Uint32(buf[17:21])),
		BlobSize:  binary.LittleEndian.Uint64(buf[21:29]),
	}
	copy(r.Checksum[:], buf[29:45])
	return r, nil
}
