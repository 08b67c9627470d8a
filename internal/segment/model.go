package segment

import (
	"os"
	"sync"

	"github.com/kraytos17/kv-db/pkg/seginfo"
	"go.uber.org/zap"
)

// Segment represents one immutable, key-sorted on-disk run. It supports
// sequential reads, positional seeks, and append-only writes, and exposes
// the creation timestamp encoded in its filename.
//
// A Segment being written to (during a flush or a merge) and a Segment
// being read from (during a point lookup or as merge input) use the same
// type; the engine is responsible for never appending to a segment that
// has already been added to the live, read-only set.
type Segment struct {
	mu  sync.Mutex
	log *zap.SugaredLogger

	file      *os.File
	path      string
	timestamp seginfo.Timestamp

	size        int64 // total committed bytes
	writeOffset int64 // next byte offset AddEntry will write to
	readOffset  int64 // next byte offset ReadEntry will read from

	hasLastWritten bool
	lastWrittenKey string

	closed bool
}

// lineRecord is the single-key-dictionary wire format: one line, one JSON
// object, exactly one field, the field name is the
// entry's key and the field value is the entry's value.
type lineRecord = map[string]string
