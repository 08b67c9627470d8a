// Package options provides data structures and functions for configuring
// the storage engine. It defines the parameters that control MemTable
// capacity, segment and merge behavior, the sparse index sampling stride,
// the bloom filter's sizing, and the data directory.
package options

import "strings"

// Options defines the configuration surface for a storage engine instance.
type Options struct {
	// MaxInMemorySize is the MemTable capacity, in entries, before it is
	// flushed to a new segment.
	MaxInMemorySize int `json:"maxInMemorySize"`

	// SparseOffset is the sparse index sampling stride: every Nth entry
	// written or scanned is recorded in the index.
	SparseOffset int `json:"sparseOffset"`

	// SegmentSize is the maximum entry count for a single output segment
	// produced by a merge.
	SegmentSize int `json:"segmentSize"`

	// MergeThreshold is the live segment count that triggers a merge.
	MergeThreshold int `json:"mergeThreshold"`

	// PersistSegments controls whether segment files survive Close. When
	// false, flushes still happen during the session, but Close discards
	// the segments instead of leaving them for the next Open.
	PersistSegments bool `json:"persistSegments"`

	// BasePath is the directory where segment files (and, if persisted,
	// the bloom filter) are stored. Created if absent.
	BasePath string `json:"basePath"`

	// BloomExpectedItems is the expected number of distinct keys, used to
	// size the bloom filter's bit array.
	BloomExpectedItems uint64 `json:"bloomExpectedItems"`

	// BloomFalsePositiveRate is the target false-positive rate, used
	// together with BloomExpectedItems to size the bit array and choose
	// the hash function count.
	BloomFalsePositiveRate float64 `json:"bloomFalsePositiveRate"`
}

// OptionFunc is a function type that modifies the engine's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions resets every field to its default value.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithBasePath sets the data directory.
func WithBasePath(path string) OptionFunc {
	return func(o *Options) {
		path = strings.TrimSpace(path)
		if path != "" {
			o.BasePath = path
		}
	}
}

// WithMaxInMemorySize sets the MemTable capacity, in entries.
func WithMaxInMemorySize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.MaxInMemorySize = size
		}
	}
}

// WithSparseOffset sets the sparse index sampling stride.
func WithSparseOffset(stride int) OptionFunc {
	return func(o *Options) {
		if stride > 0 {
			o.SparseOffset = stride
		}
	}
}

// WithSegmentSize sets the maximum entry count for a merge output segment.
func WithSegmentSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.SegmentSize = size
		}
	}
}

// WithMergeThreshold sets the live segment count that triggers a merge.
func WithMergeThreshold(threshold int) OptionFunc {
	return func(o *Options) {
		if threshold >= MinMergeThreshold {
			o.MergeThreshold = threshold
		}
	}
}

// WithPersistSegments controls whether segments survive Close.
func WithPersistSegments(persist bool) OptionFunc {
	return func(o *Options) {
		o.PersistSegments = persist
	}
}

// WithBloomExpectedItems sets the expected distinct-key count used to size
// the bloom filter.
func WithBloomExpectedItems(items uint64) OptionFunc {
	return func(o *Options) {
		if items > 0 {
			o.BloomExpectedItems = items
		}
	}
}

// WithBloomFalsePositiveRate sets the bloom filter's target false-positive rate.
func WithBloomFalsePositiveRate(rate float64) OptionFunc {
	return func(o *Options) {
		if rate > 0 && rate < 1 {
			o.BloomFalsePositiveRate = rate
		}
	}
}
