// Package index provides the in-memory sparse index for the storage
// engine: a sorted map from sampled keys to the {segment, offset}
// locators that point at them. It is intentionally
// rebuilt in full after any change to the live segment set rather than
// incrementally maintained — the cost is bounded by the segment byte
// size, and a full rebuild avoids subtle staleness.
package index

import (
	"context"
	"sort"

	"github.com/kraytos17/kv-db/internal/segment"
	"github.com/kraytos17/kv-db/pkg/errors"
	"go.uber.org/zap"
)

// Build walks segments in ascending timestamp order (oldest first) and
// records a Locator for every stride-th entry read, using a counter
// shared across the whole segment set rather than reset per segment.
// Segments must be positioned for a full scan from the start; Build seeks
// each one to offset 0 before reading and leaves it at EOF afterward.
func Build(ctx context.Context, segments []*segment.Segment, stride int, log *zap.SugaredLogger) (*Index, error) {
	if stride <= 0 {
		stride = 1
	}

	ix := &Index{
		log:      log,
		stride:   stride,
		locators: make(map[string][]Locator),
	}

	var counter int
	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := seg.Seek(0); err != nil {
			return nil, errors.NewIndexError(err, errors.ErrorCodeIndexCorrupted, "failed to seek segment for index rebuild").
				WithOperation("Build")
		}

		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			offset := seg.Position()
			entry, ok, err := seg.ReadEntry()
			if err != nil {
				// A corrupt line is skipped during an index rebuild (unlike
				// during a merge, where it aborts).
				if errors.GetErrorCode(err) == errors.ErrorCodeSegmentCorrupted {
					log.Errorw("Skipping corrupt segment line during index rebuild", "path", seg.Path(), "offset", offset, "error", err)
					continue
				}
				return nil, err
			}
			if !ok {
				break
			}

			counter++
			if counter%stride == 0 {
				ix.record(entry.Key, Locator{SegmentTimestamp: seg.Timestamp(), Offset: offset})
			}
		}
	}

	ix.sortedKeys = make([]string, 0, len(ix.locators))
	for key := range ix.locators {
		ix.sortedKeys = append(ix.sortedKeys, key)
	}
	sort.Strings(ix.sortedKeys)

	log.Infow("Sparse index rebuilt", "sampledKeys", len(ix.sortedKeys), "segments", len(segments), "stride", stride)
	return ix, nil
}

// record adds a locator for key, keeping locators for a shared key in
// descending offset-discovery order: the most recently processed segment
// (which, since segments are walked oldest-first, is also the newest) is
// considered first by readers.
func (ix *Index) record(key string, loc Locator) {
	ix.locators[key] = append([]Locator{loc}, ix.locators[key]...)
}

// Locators returns the locators recorded for key, newest segment first.
func (ix *Index) Locators(key string) ([]Locator, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	locs, ok := ix.locators[key]
	return locs, ok
}

// Floor returns the greatest sampled key that is ordinally less than or
// equal to key, for starting a forward scan from the nearest sample
// point.
func (ix *Index) Floor(key string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	i := sort.Search(len(ix.sortedKeys), func(i int) bool { return ix.sortedKeys[i] > key })
	if i == 0 {
		return "", false
	}
	return ix.sortedKeys[i-1], true
}

// Len returns the number of distinct sampled keys in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.sortedKeys)
}
