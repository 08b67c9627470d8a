package bloom

import (
	"sync"

	"go.uber.org/zap"
)

// Filter is a standard bit-array Bloom filter used to answer "is this key
// definitely absent from the segment set" without touching disk. A
// negative answer is certain; a positive answer may be a false positive,
// at a rate bounded by the filter's configured size.
type Filter struct {
	mu  sync.RWMutex
	log *zap.SugaredLogger

	bits  []uint64 // bit array, 64 bits packed per word
	m     uint64   // number of bits
	k     uint64   // number of hash functions
	n     uint64   // number of items added so far
	seeds []uint32 // one independent seed per hash function

	expectedItems     uint64
	falsePositiveRate float64
}

// persistedFilter is the on-disk representation written by Persist and
// read back by Load. Its fields are named independently of Filter's so
// that the wire format can evolve without coupling to in-memory layout.
type persistedFilter struct {
	Bits              []uint64 `json:"bits"`
	M                 uint64   `json:"m"`
	K                 uint64   `json:"k"`
	N                 uint64   `json:"n"`
	Seeds             []uint32 `json:"seeds"`
	ExpectedItems     uint64   `json:"expectedItems"`
	FalsePositiveRate float64  `json:"falsePositiveRate"`
}
