// Package merge reconciles a set of overlapping, immutable segment files
// into a smaller set of new segments holding only the most recent value
// for each key, via a k-way merge over segments sorted by creation time.
package merge

import (
	"container/heap"
	"context"

	"github.com/kraytos17/kv-db/internal/segment"
	"github.com/kraytos17/kv-db/pkg/errors"
	"github.com/kraytos17/kv-db/pkg/seginfo"
	"go.uber.org/zap"
)

// Merge performs a single pass over segments, producing new, key-sorted
// output segments that together contain exactly one entry per key: the
// value written by the segment with the greatest creation timestamp.
// Tombstones are carried through unconditionally; neither Merge nor the
// engine ever drops them.
//
// Each output segment is closed (synced to disk) once complete and returned
// as a freshly reopened handle, ready to be read.
//
// segments must be positioned at offset 0; Merge reads each sequentially
// to exhaustion. It does not close or remove the input segments — that
// is the caller's responsibility once it has confirmed the merge
// succeeded.
func Merge(ctx context.Context, segments []*segment.Segment, opts Options, log *zap.SugaredLogger) ([]*segment.Segment, error) {
	if opts.SegmentSize <= 0 {
		opts.SegmentSize = 1
	}

	h := make(entryHeap, 0, len(segments))
	for _, seg := range segments {
		if err := seg.Seek(0); err != nil {
			return nil, errors.NewMergeError(err, errors.ErrorCodeMergeCorruptSegment, "failed to seek input segment").
				WithOffendingTimestamp(seg.Timestamp().String())
		}
		if err := pushNext(&h, seg); err != nil {
			return nil, err
		}
	}
	heap.Init(&h)

	var outputs []*segment.Segment
	var current *segment.Segment
	var currentCount int
	var lastKey string
	var hasLastKey bool

	cleanup := func() {
		if current != nil {
			_ = current.Remove()
		}
		for _, out := range outputs {
			_ = out.Remove()
		}
	}

	rollOutput := func() error {
		if current != nil {
			if err := current.Close(); err != nil {
				return err
			}
			reopened, err := segment.Open(current.Path(), log)
			if err != nil {
				return err
			}
			outputs = append(outputs, reopened)
		}

		ts := seginfo.NewTimestamp()
		newSeg, err := segment.Create(opts.OutputDir, ts, log)
		if err != nil {
			return errors.NewMergeError(err, errors.ErrorCodeMergeCorruptSegment, "failed to create merge output segment")
		}

		current = newSeg
		currentCount = 0
		return nil
	}

	emitted := 0
	for h.Len() > 0 {
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, context.Canceled
		}

		item := heap.Pop(&h).(heapItem)

		// Duplicates for the same key arrive in descending-timestamp order;
		// only the first (newest) copy is kept, per Variant A merge resolution.
		if !hasLastKey || item.entry.Key != lastKey {
			// The first entry of all lazily creates the initial output
			// segment, so a merge over exhausted/empty inputs that never
			// reaches this branch creates no output segment at all.
			if current == nil || currentCount >= opts.SegmentSize {
				if err := rollOutput(); err != nil {
					cleanup()
					return nil, err
				}
			}

			if err := current.AddEntry(item.entry); err != nil {
				cleanup()
				return nil, errors.NewMergeError(err, errors.ErrorCodeMergeCorruptSegment, "failed to write merged entry").
					WithOffendingTimestamp(item.timestamp.String())
			}

			currentCount++
			emitted++
			lastKey = item.entry.Key
			hasLastKey = true
		}

		if err := pushNext(&h, item.source); err != nil {
			cleanup()
			return nil, err
		}
	}

	if emitted > 0 && current != nil {
		if err := current.Close(); err != nil {
			cleanup()
			return nil, err
		}
		reopened, err := segment.Open(current.Path(), log)
		if err != nil {
			cleanup()
			return nil, err
		}
		outputs = append(outputs, reopened)
	}

	log.Infow("Merge pass complete", "inputSegments", len(segments), "outputSegments", len(outputs), "entriesEmitted", emitted)

	return outputs, nil
}

// pushNext reads the next entry from src, if any, and pushes it onto h.
func pushNext(h *entryHeap, src *segment.Segment) error {
	entry, ok, err := src.ReadEntry()
	if err != nil {
		if code := errors.GetErrorCode(err); code == errors.ErrorCodeSegmentCorrupted {
			return errors.NewMergeError(err, errors.ErrorCodeMergeCorruptSegment, "input segment contains a corrupt line").
				WithOffendingTimestamp(src.Timestamp().String())
		}
		return err
	}
	if !ok {
		return nil
	}

	heap.Push(h, heapItem{entry: entry, timestamp: src.Timestamp(), source: src})
	return nil
}
