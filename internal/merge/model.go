package merge

import (
	"github.com/kraytos17/kv-db/internal/kv"
	"github.com/kraytos17/kv-db/internal/segment"
	"github.com/kraytos17/kv-db/pkg/seginfo"
)

// heapItem is one in-flight candidate entry in the k-way merge, tagged
// with which input segment it came from so the merge can pull the next
// entry from that same segment once the item is popped.
type heapItem struct {
	entry     kv.Entry
	timestamp seginfo.Timestamp // creation timestamp of the segment the entry came from
	source    *segment.Segment
}

// entryHeap is a min-heap of heapItems ordered for "Variant A" merge
// resolution: ascending key first, and among equal
// keys, descending segment timestamp, so the newest segment's entry for
// a given key is always popped first.
type entryHeap []heapItem

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].entry.Key != h[j].entry.Key {
		return h[i].entry.Key < h[j].entry.Key
	}
	return h[i].timestamp.Compare(h[j].timestamp) > 0
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(heapItem)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Options controls a single merge pass.
type Options struct {
	// SegmentSize bounds each output segment to at most this many entries
	// before the merge rolls over to a new output segment.
	SegmentSize int

	// OutputDir is the directory new output segments are created in.
	OutputDir string
}
