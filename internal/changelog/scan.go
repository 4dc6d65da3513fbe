package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"raftlog/internal/errs"
	"raftlog/internal/logentry"
)

// defaultPrefix is used for newly rotated segments. Existing files with any
// prefix are accepted on recovery as long as their three underscore fields
// parse (spec §4.3.1).
const defaultPrefix = "changelog"

// scanDirectory enumerates m.dir and populates m.segments from filenames of
// the shape prefix_FROM_TO[...].bin. No files are opened for writing here.
func (m *Manager) scanDirectory() error {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("%w: read changelog dir %s: %v", errs.ErrIO, m.dir, err)
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		desc, err := parseSegmentFileName(m.dir, f.Name())
		if err != nil {
			return err
		}
		m.segments.Store(desc.From, desc)
	}

	return m.validateSegmentRanges()
}

// parseSegmentFileName splits the stem on "_" into [prefix, FROM, TO, ...];
// extra underscored fragments are tolerated but only the first three are
// used (spec §4.3.1).
func parseSegmentFileName(dir, name string) (*descriptor, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: unparseable segment filename %q", errs.ErrCorruptedData, name)
	}

	from, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: segment filename %q has non-numeric FROM: %v", errs.ErrCorruptedData, name, err)
	}

	toField := strings.TrimSuffix(parts[2], ".bin")
	to, err := strconv.ParseUint(toField, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: segment filename %q has non-numeric TO: %v", errs.ErrCorruptedData, name, err)
	}

	return &descriptor{
		Prefix: parts[0],
		From:   logentry.LogIndex(from),
		To:     logentry.LogIndex(to),
		Path:   filepath.Join(dir, name),
	}, nil
}

// validateSegmentRanges answers spec Open Question Q3: directory scanning
// does not by itself verify disjointness or TO >= FROM, so a malformed
// directory could describe overlapping segments. This rejects that case at
// startup instead of silently misbehaving later.
func (m *Manager) validateSegmentRanges() error {
	var prevTo logentry.LogIndex
	havePrev := false
	var rangeErr error

	m.segments.Range(func(from logentry.LogIndex, desc *descriptor) bool {
		if desc.To < desc.From {
			rangeErr = fmt.Errorf("%w: segment %s has TO < FROM", errs.ErrCorruptedData, desc.Path)
			return false
		}
		if havePrev && desc.From <= prevTo {
			rangeErr = fmt.Errorf("%w: segment %s overlaps the previous segment", errs.ErrCorruptedData, desc.Path)
			return false
		}
		prevTo = desc.To
		havePrev = true
		return true
	})

	return rangeErr
}
