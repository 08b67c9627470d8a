package index

import (
	"sync"

	"github.com/kraytos17/kv-db/pkg/seginfo"
	"go.uber.org/zap"
)

// Locator identifies exactly where a sampled key's entry begins: which
// segment (by its unique creation timestamp) and at what byte offset
// within that segment.
type Locator struct {
	SegmentTimestamp seginfo.Timestamp
	Offset           int64
}

// Index is the in-memory sparse index: a sorted map from sampled keys to
// the locators that point at them, rebuilt wholesale after any change to
// the live segment set.
type Index struct {
	mu sync.RWMutex

	log    *zap.SugaredLogger
	stride int

	sortedKeys []string
	locators   map[string][]Locator
}
