package options

const (
	// DefaultMaxInMemorySize is the default MemTable capacity, in entries,
	// before it is flushed to a new segment.
	DefaultMaxInMemorySize = 1000

	// DefaultSparseOffset is the default sparse index sampling stride:
	// every Nth entry written or scanned gets an index locator.
	DefaultSparseOffset = 300

	// DefaultSegmentSize is the default maximum entry count for a single
	// output segment produced by a merge.
	DefaultSegmentSize = 50

	// DefaultMergeThreshold is the default live segment count that
	// triggers a merge.
	DefaultMergeThreshold = 3

	// DefaultPersistSegments controls whether segments survive Close.
	DefaultPersistSegments = true

	// DefaultBasePath is the default data directory.
	DefaultBasePath = "sst_data"

	// DefaultBloomExpectedItems sizes the bloom filter's bit array.
	DefaultBloomExpectedItems uint64 = 10_000

	// DefaultBloomFalsePositiveRate is the target false-positive rate used
	// to size the bloom filter's bit array and hash function count.
	DefaultBloomFalsePositiveRate = 0.01

	// MinMergeThreshold is the smallest allowed merge threshold: a merge
	// of fewer than two segments can never reduce the segment count.
	MinMergeThreshold = 2
)

// defaultOptions holds the baseline configuration applied before any
// OptionFunc overrides are applied.
var defaultOptions = Options{
	MaxInMemorySize:        DefaultMaxInMemorySize,
	SparseOffset:           DefaultSparseOffset,
	SegmentSize:            DefaultSegmentSize,
	MergeThreshold:         DefaultMergeThreshold,
	PersistSegments:        DefaultPersistSegments,
	BasePath:               DefaultBasePath,
	BloomExpectedItems:     DefaultBloomExpectedItems,
	BloomFalsePositiveRate: DefaultBloomFalsePositiveRate,
}

// NewDefaultOptions returns a fresh copy of the baseline configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
