// Package seginfo provides utilities for naming, discovering, and ordering
// segment files in the storage engine's data directory.
//
// Filename Format: <seconds>.<fraction>.txt
//
// Where:
//   - seconds: the Unix second at which the segment was created.
//   - fraction: a monotonically increasing counter, unique within this
//     process, used to order segments created within the same wall-clock
//     second and to break ties during merge (larger fraction is more
//     recent for a given second).
//   - .txt: a fixed extension; segment contents are newline-delimited
//     JSON objects (see internal/segment).
//
// Example filenames:
//
//	1714000000.1.txt
//	1714000000.2.txt
//	1714000003.1.txt
package seginfo

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/kraytos17/kv-db/pkg/filesys"
)

// namePattern matches the on-disk segment filename contract: two
// non-negative integers separated by a dot, with a .txt suffix.
var namePattern = regexp.MustCompile(`^(\d+)\.(\d+)\.txt$`)

// Timestamp orders segments both for on-disk sort order and for merge-time
// recency comparisons. A larger Timestamp is more recent.
type Timestamp struct {
	Seconds  int64
	Fraction int64
}

// Compare returns a negative number if t is older than o, zero if equal,
// and a positive number if t is more recent than o.
func (t Timestamp) Compare(o Timestamp) int {
	if t.Seconds != o.Seconds {
		return int(t.Seconds - o.Seconds)
	}
	return int(t.Fraction - o.Fraction)
}

// IsZero reports whether t is the zero-value timestamp, which is what a
// segment whose filename does not match the naming contract is assigned.
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Fraction == 0
}

// String renders the timestamp as it appears in a segment filename,
// without the extension.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%d", t.Seconds, t.Fraction)
}

var fractionCounter atomic.Int64

// NewTimestamp produces a Timestamp for a segment being created right now.
// The fractional component is a process-wide monotonically increasing
// counter, guaranteeing that timestamps are strictly increasing across
// flushes within one process even when wall-clock resolution can't tell
// two creations apart.
func NewTimestamp() Timestamp {
	return Timestamp{Seconds: time.Now().Unix(), Fraction: fractionCounter.Add(1)}
}

// GenerateName builds the on-disk filename for a segment created at ts.
func GenerateName(ts Timestamp) string {
	return ts.String() + ".txt"
}

// ParseTimestamp extracts the creation timestamp encoded in a segment
// filename. If filename does not match the naming contract, it returns
// the zero Timestamp and false rather than an error, so a file with no
// parseable timestamp suffix degrades to timestamp 0 instead of failing.
func ParseTimestamp(filename string) (Timestamp, bool) {
	base := filepath.Base(filename)
	matches := namePattern.FindStringSubmatch(base)
	if matches == nil {
		return Timestamp{}, false
	}

	seconds, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return Timestamp{}, false
	}
	fraction, err := strconv.ParseInt(matches[2], 10, 64)
	if err != nil {
		return Timestamp{}, false
	}

	return Timestamp{Seconds: seconds, Fraction: fraction}, true
}

// ListSegmentFiles returns the full paths of every file in dir whose name
// matches the segment naming contract, sorted by parsed Timestamp
// ascending (oldest first). Files that do not match the contract are
// skipped.
func ListSegmentFiles(dir string) ([]string, error) {
	candidates, err := filesys.ReadDir(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}

	type dated struct {
		path string
		ts   Timestamp
	}

	dateds := make([]dated, 0, len(candidates))
	for _, path := range candidates {
		ts, ok := ParseTimestamp(path)
		if !ok {
			continue
		}
		dateds = append(dateds, dated{path: path, ts: ts})
	}

	slices.SortFunc(dateds, func(a, b dated) int { return a.ts.Compare(b.ts) })

	paths := make([]string, len(dateds))
	for i, d := range dateds {
		paths[i] = d.path
	}
	return paths, nil
}
