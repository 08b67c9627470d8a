// Package engine provides the core database engine implementation for the
// storage system.
//
// The engine serves as the central coordinator and entry point for all
// database operations. It orchestrates the interaction between the
// MemTable, the on-disk segment set, the sparse index, the merge engine,
// and the bloom filter, presenting a single asynchronous, cooperatively
// scheduled API to its caller.
package engine

import (
	"context"
	stdErrors "errors"
	"path/filepath"

	"github.com/kraytos17/kv-db/internal/bloom"
	"github.com/kraytos17/kv-db/internal/index"
	"github.com/kraytos17/kv-db/internal/kv"
	"github.com/kraytos17/kv-db/internal/memtable"
	"github.com/kraytos17/kv-db/internal/merge"
	"github.com/kraytos17/kv-db/internal/segment"
	"github.com/kraytos17/kv-db/pkg/errors"
	"github.com/kraytos17/kv-db/pkg/filesys"
	"github.com/kraytos17/kv-db/pkg/options"
	"github.com/kraytos17/kv-db/pkg/seginfo"
	"go.uber.org/zap"
)

const bloomFilterFileName = "bloom.filter"

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")
)

// New creates and initializes a new Engine instance with the provided
// configuration. It performs the full recovery sequence on startup:
// create the data directory if absent, enumerate and open existing
// segments in creation order, rebuild the sparse index over them, and
// populate the bloom filter — from a persisted snapshot when one
// validates, or by replaying every key otherwise.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "engine configuration is incomplete")
	}

	opts := config.Options
	log := config.Logger

	log.Infow("Initializing storage engine", "basePath", opts.BasePath, "maxInMemorySize", opts.MaxInMemorySize, "mergeThreshold", opts.MergeThreshold)

	if err := filesys.CreateDir(opts.BasePath, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, opts.BasePath)
	}

	paths, err := seginfo.ListSegmentFiles(opts.BasePath)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to enumerate segment files").WithPath(opts.BasePath)
	}

	segments := make(map[seginfo.Timestamp]*segment.Segment, len(paths))
	order := make([]seginfo.Timestamp, 0, len(paths))
	segsAsc := make([]*segment.Segment, 0, len(paths))

	for _, path := range paths {
		seg, err := segment.Open(path, log)
		if err != nil {
			return nil, err
		}
		segments[seg.Timestamp()] = seg
		order = append(order, seg.Timestamp())
		segsAsc = append(segsAsc, seg)
	}

	idx, err := index.Build(ctx, segsAsc, opts.SparseOffset, log)
	if err != nil {
		return nil, err
	}

	filterPath := filepath.Join(opts.BasePath, bloomFilterFileName)
	filter, err := loadOrReplayBloomFilter(filterPath, segsAsc, opts, log)
	if err != nil {
		return nil, err
	}

	for _, seg := range segsAsc {
		if err := seg.Seek(0); err != nil {
			return nil, err
		}
	}

	log.Infow("Storage engine initialized", "liveSegments", len(segments), "sampledKeys", idx.Len())

	return &Engine{
		options:  opts,
		log:      log,
		mem:      memtable.New(opts.MaxInMemorySize),
		segments: segments,
		order:    order,
		idx:      idx,
		filter:   filter,
	}, nil
}

// loadOrReplayBloomFilter tries to load a previously persisted bloom filter
// snapshot; if none exists or it fails to validate, it builds a fresh
// filter and replays every key currently on disk into it.
func loadOrReplayBloomFilter(path string, segsAsc []*segment.Segment, opts *options.Options, log *zap.SugaredLogger) (*bloom.Filter, error) {
	if exists, _ := filesys.Exists(path); exists {
		loaded, err := bloom.Load(path, log)
		if err == nil {
			return loaded, nil
		}
		log.Errorw("Persisted bloom filter failed to validate, rebuilding from segments", "path", path, "error", err)
	}

	filter := bloom.New(opts.BloomExpectedItems, opts.BloomFalsePositiveRate, log)
	for _, seg := range segsAsc {
		if err := seg.Seek(0); err != nil {
			return nil, err
		}
		for {
			entry, ok, err := seg.ReadEntry()
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			filter.Add(entry.Key)
		}
	}
	return filter, nil
}

// Insert validates and stores key -> value. If the
// MemTable is at capacity, it is flushed to a new segment first (and a
// merge runs if the live segment count now meets the threshold) before
// the new entry is recorded.
func (e *Engine) Insert(ctx context.Context, key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if !kv.ValidateKey(key) {
		return errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "key must be non-empty and not whitespace-only").
			WithField("key").WithRule("required").WithProvided(key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mem.CapacityReached() {
		if err := e.flushLocked(ctx); err != nil {
			return err
		}
	}

	e.mem.Insert(key, value)
	e.filter.Add(key)
	return nil
}

// Delete marks key as deleted; equivalent to Insert(ctx, key, kv.Tombstone).
func (e *Engine) Delete(ctx context.Context, key string) error {
	return e.Insert(ctx, key, kv.Tombstone)
}

// Get retrieves the current value for key: the MemTable first, then the
// bloom filter to short-circuit a definite miss, then a sparse-index-
// assisted segment scan in descending recency order, falling back to a
// full scan of every segment from offset 0, newest first, whenever the
// index yields no candidate or none of its locators finds the key.
func (e *Engine) Get(ctx context.Context, key string) (string, bool, error) {
	if e.closed.Load() {
		return "", false, ErrEngineClosed
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if value, ok := e.mem.Get(key); ok {
		if kv.IsTombstone(value) {
			return "", false, nil
		}
		return value, true, nil
	}

	if !e.filter.MightContain(key) {
		return "", false, nil
	}

	if sample, ok := e.idx.Floor(key); ok {
		locs, _ := e.idx.Locators(sample)
		for _, loc := range locs {
			if err := ctx.Err(); err != nil {
				return "", false, context.Canceled
			}

			seg, ok := e.segments[loc.SegmentTimestamp]
			if !ok {
				continue
			}

			value, found, stop, err := scanFrom(seg, loc.Offset, key)
			if err != nil {
				return "", false, err
			}
			if found {
				return value, !kv.IsTombstone(value), nil
			}
			if stop {
				continue
			}
		}
	}

	for i := len(e.order) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return "", false, context.Canceled
		}

		seg := e.segments[e.order[i]]
		value, found, _, err := scanFrom(seg, 0, key)
		if err != nil {
			return "", false, err
		}
		if found {
			return value, !kv.IsTombstone(value), nil
		}
	}

	return "", false, nil
}

// scanFrom scans seg forward from offset looking for key, via
// ReadEntryAt so that concurrent lookups against the same segment never
// share (and race on) a single read cursor. found reports an exact match
// (value is its current value, possibly a tombstone). stop reports that
// the scan passed key's ordinal position without finding it, meaning it
// is absent from this segment specifically.
func scanFrom(seg *segment.Segment, offset int64, key string) (value string, found bool, stop bool, err error) {
	for {
		entry, next, ok, err := seg.ReadEntryAt(offset)
		if err != nil {
			return "", false, false, err
		}
		if !ok {
			return "", false, false, nil
		}
		if entry.Key == key {
			return entry.Value, true, false, nil
		}
		if entry.Key > key {
			return "", false, true, nil
		}
		offset = next
	}
}

// flushLocked writes the current MemTable contents to a new segment,
// clears the MemTable, rebuilds the sparse index, and runs a merge if the
// live segment count has reached the configured threshold. Callers must
// hold e.mu for writing.
func (e *Engine) flushLocked(ctx context.Context) error {
	entries := e.mem.All()
	if len(entries) == 0 {
		return nil
	}

	ts := seginfo.NewTimestamp()
	seg, err := segment.Create(e.options.BasePath, ts, e.log)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := seg.AddEntry(entry); err != nil {
			_ = seg.Remove()
			return err
		}
	}
	if err := seg.Close(); err != nil {
		return err
	}
	seg, err = segment.Open(seg.Path(), e.log)
	if err != nil {
		return err
	}

	e.segments[ts] = seg
	e.order = append(e.order, ts)
	e.mem.Clear()

	e.log.Infow("Flushed MemTable to new segment", "path", seg.Path(), "entries", len(entries), "liveSegments", len(e.order))

	if err := e.rebuildIndexLocked(ctx); err != nil {
		return err
	}

	if len(e.order) >= e.options.MergeThreshold {
		if err := e.mergeLocked(ctx); err != nil {
			return err
		}
	}

	return nil
}

// mergeLocked runs a single merge pass over every live segment and
// installs the outputs in place of the inputs. Callers must hold e.mu for
// writing.
func (e *Engine) mergeLocked(ctx context.Context) error {
	segsAsc := make([]*segment.Segment, len(e.order))
	for i, ts := range e.order {
		segsAsc[i] = e.segments[ts]
	}

	outputs, err := merge.Merge(ctx, segsAsc, merge.Options{SegmentSize: e.options.SegmentSize, OutputDir: e.options.BasePath}, e.log)
	if err != nil {
		return err
	}

	for _, seg := range segsAsc {
		if err := seg.Remove(); err != nil {
			e.log.Errorw("Failed to remove superseded segment after merge", "path", seg.Path(), "error", err)
		}
	}

	newSegments := make(map[seginfo.Timestamp]*segment.Segment, len(outputs))
	newOrder := make([]seginfo.Timestamp, len(outputs))
	for i, seg := range outputs {
		newSegments[seg.Timestamp()] = seg
		newOrder[i] = seg.Timestamp()
	}

	e.segments = newSegments
	e.order = newOrder

	e.log.Infow("Merge pass replaced live segment set", "inputSegments", len(segsAsc), "outputSegments", len(outputs))

	return e.rebuildIndexLocked(ctx)
}

// rebuildIndexLocked rebuilds the sparse index over the current live
// segment set. Callers must hold e.mu.
func (e *Engine) rebuildIndexLocked(ctx context.Context) error {
	segsAsc := make([]*segment.Segment, len(e.order))
	for i, ts := range e.order {
		segsAsc[i] = e.segments[ts]
	}

	idx, err := index.Build(ctx, segsAsc, e.options.SparseOffset, e.log)
	if err != nil {
		return err
	}

	for _, seg := range segsAsc {
		if err := seg.Seek(0); err != nil {
			return err
		}
	}

	e.idx = idx
	return nil
}

// Close flushes the MemTable so pending writes survive, closes every
// segment handle, and — if configured to persist segments — writes the
// bloom filter snapshot to disk; otherwise every segment file is removed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.flushLocked(context.Background()); err != nil {
		e.log.Errorw("Failed to flush MemTable on close", "error", err)
	}

	if !e.options.PersistSegments {
		for _, seg := range e.segments {
			if err := seg.Remove(); err != nil {
				e.log.Errorw("Failed to remove segment on close", "path", seg.Path(), "error", err)
			}
		}
		return nil
	}

	for _, seg := range e.segments {
		if err := seg.Close(); err != nil {
			e.log.Errorw("Failed to close segment on close", "path", seg.Path(), "error", err)
		}
	}

	filterPath := filepath.Join(e.options.BasePath, bloomFilterFileName)
	if err := e.filter.Persist(filterPath); err != nil {
		e.log.Errorw("Failed to persist bloom filter on close", "error", err)
	}

	return nil
}
