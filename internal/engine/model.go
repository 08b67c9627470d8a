package engine

import (
	"sync"
	"sync/atomic"

	"github.com/kraytos17/kv-db/internal/bloom"
	"github.com/kraytos17/kv-db/internal/index"
	"github.com/kraytos17/kv-db/internal/memtable"
	"github.com/kraytos17/kv-db/internal/segment"
	"github.com/kraytos17/kv-db/pkg/options"
	"github.com/kraytos17/kv-db/pkg/seginfo"
	"go.uber.org/zap"
)

// Engine is the central coordinator of the storage system. It owns the
// live MemTable, the set of on-disk segments, the sparse index built over
// them, and the bloom filter used to short-circuit misses. Every public
// operation (Insert, Get, Delete) goes through the Engine so it can
// enforce a single-writer, many-readers concurrency model.
type Engine struct {
	mu sync.RWMutex

	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool

	mem *memtable.MemTable

	// segments is the live, read-only on-disk segment set, keyed by
	// creation timestamp so the sparse index's Locators can resolve a
	// timestamp back to an open handle without the index needing to hold
	// a segment pointer directly, avoiding a cyclic ownership between the
	// index and the segment set.
	segments map[seginfo.Timestamp]*segment.Segment
	order    []seginfo.Timestamp // segment timestamps, ascending (oldest first)

	idx    *index.Index
	filter *bloom.Filter
}

// Config holds everything needed to construct an Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
