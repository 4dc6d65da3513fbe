package changelog

import (
	"fmt"

	"github.com/zhangyunhao116/skipmap"

	"raftlog/internal/logentry"
)

// descriptor describes one segment file on disk. It is the changelog's
// equivalent of the teacher's persistance.TableInfo, sized down to what a
// segment needs: no level, no size bookkeeping, just its reserved range
// and path.
type descriptor struct {
	Prefix string
	From   logentry.LogIndex
	To     logentry.LogIndex
	Path   string
}

func (d *descriptor) capacity() int {
	return int(d.To-d.From) + 1
}

func (d *descriptor) contains(index logentry.LogIndex) bool {
	return d.From <= index && index <= d.To
}

// indexLess is the ordering predicate shared by every skipmap keyed on
// LogIndex, in the style of the teacher's pkg/memtable.Memtable, which
// builds its skip list with skipmap.NewFunc and a custom less function
// rather than relying on a built-in key type.
func indexLess(a, b logentry.LogIndex) bool {
	return a < b
}

type entryMap = skipmap.FuncMap[logentry.LogIndex, logentry.LogEntry]
type offsetMap = skipmap.FuncMap[logentry.LogIndex, int64]
type segmentMap = skipmap.FuncMap[logentry.LogIndex, *descriptor]

func newEntryMap() *entryMap {
	return skipmap.NewFunc[logentry.LogIndex, logentry.LogEntry](indexLess)
}

func newOffsetMap() *offsetMap {
	return skipmap.NewFunc[logentry.LogIndex, int64](indexLess)
}

func newSegmentMap() *segmentMap {
	return skipmap.NewFunc[logentry.LogIndex, *descriptor](indexLess)
}

// segmentFileName builds a filename of the shape prefix_FROM_TO.bin.
func segmentFileName(prefix string, from, to logentry.LogIndex) string {
	return fmt.Sprintf("%s_%d_%d.bin", prefix, from, to)
}
