// Package bloom implements a Bloom filter used by the engine to short-
// circuit point lookups for keys that are definitely not present,
// avoiding a segment scan in the common miss case.
package bloom

import (
	"encoding/json"
	"math"

	"github.com/kraytos17/kv-db/pkg/errors"
	"github.com/kraytos17/kv-db/pkg/filesys"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"
)

// New sizes a filter for expectedItems entries at the target false
// positive rate, using the standard optimal-size formulas:
//
//	m = ceil(-n * ln(p) / (ln 2)^2)
//	k = ceil(m / n * ln 2)
func New(expectedItems uint64, falsePositiveRate float64, log *zap.SugaredLogger) *Filter {
	if expectedItems == 0 {
		expectedItems = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	n := float64(expectedItems)
	m := math.Ceil(-n * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2))
	k := uint64(math.Ceil(m / n * math.Ln2))
	if k < 1 {
		k = 1
	}

	bitCount := uint64(m)
	words := (bitCount + 63) / 64
	seeds := deriveSeeds(k)

	log.Infow("Sized bloom filter", "expectedItems", expectedItems, "falsePositiveRate", falsePositiveRate, "bits", bitCount, "hashes", k)

	return &Filter{
		log:               log,
		bits:              make([]uint64, words),
		m:                 bitCount,
		k:                 k,
		seeds:             seeds,
		expectedItems:     expectedItems,
		falsePositiveRate: falsePositiveRate,
	}
}

// deriveSeeds produces k distinct 32-bit seeds, one per hash function, by
// taking successive multiples of the golden-ratio constant 2^32/phi — the
// same constant Go's own map implementation uses to spread hash seeds —
// so each seed perturbs the MurmurHash3 finalizer independently of the
// others.
func deriveSeeds(k uint64) []uint32 {
	const goldenGamma uint32 = 0x9e3779b9
	seeds := make([]uint32, k)
	for i := range seeds {
		seeds[i] = goldenGamma * uint32(i+1)
	}
	return seeds
}

// HashCount returns the number of independent seeded hash functions the
// filter probes per operation.
func (f *Filter) HashCount() uint64 {
	return f.k
}

// Add records key's membership in the filter by setting the bit each of
// the k seeded hashes selects.
func (f *Filter) Add(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := []byte(key)
	for _, seed := range f.seeds {
		bit := uint64(murmur3.Sum32WithSeed(data, seed)) % f.m
		f.bits[bit/64] |= 1 << (bit % 64)
	}
	f.n++
}

// MightContain reports whether key could be present. false is a certain
// answer: the key has definitely never been added. true may be a false
// positive.
func (f *Filter) MightContain(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data := []byte(key)
	for _, seed := range f.seeds {
		bit := uint64(murmur3.Sum32WithSeed(data, seed)) % f.m
		if f.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// Persist writes the filter's full state to path as JSON.
func (f *Filter) Persist(path string) error {
	f.mu.RLock()
	snapshot := persistedFilter{
		Bits:              append([]uint64(nil), f.bits...),
		M:                 f.m,
		K:                 f.k,
		N:                 f.n,
		Seeds:             append([]uint32(nil), f.seeds...),
		ExpectedItems:     f.expectedItems,
		FalsePositiveRate: f.falsePositiveRate,
	}
	f.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to encode bloom filter").WithPath(path)
	}
	if err := filesys.WriteFile(path, 0644, data); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write bloom filter file").WithPath(path)
	}
	return nil
}

// Load reads back a filter persisted by Persist, rejecting a file whose
// stored parameters are internally inconsistent rather than silently
// truncating or padding the bit array.
func Load(path string, log *zap.SugaredLogger) (*Filter, error) {
	data, err := filesys.ReadFile(path)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read bloom filter file").WithPath(path)
	}

	var snapshot persistedFilter
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeBloomCorrupted, "failed to decode bloom filter file").WithPath(path)
	}

	wantWords := int((snapshot.M + 63) / 64)
	if snapshot.M == 0 || snapshot.K == 0 ||
		len(snapshot.Bits) != wantWords ||
		uint64(len(snapshot.Seeds)) != snapshot.K ||
		snapshot.ExpectedItems == 0 ||
		snapshot.FalsePositiveRate <= 0 || snapshot.FalsePositiveRate >= 1 {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeBloomCorrupted, "bloom filter file parameters are inconsistent").
			WithPath(path).
			WithDetail("m", snapshot.M).
			WithDetail("k", snapshot.K).
			WithDetail("wantWords", wantWords).
			WithDetail("gotWords", len(snapshot.Bits)).
			WithDetail("gotSeeds", len(snapshot.Seeds))
	}

	log.Infow("Loaded bloom filter", "path", path, "bits", snapshot.M, "hashes", snapshot.K, "items", snapshot.N)

	return &Filter{
		log:               log,
		bits:              snapshot.Bits,
		m:                 snapshot.M,
		k:                 snapshot.K,
		n:                 snapshot.N,
		seeds:             snapshot.Seeds,
		expectedItems:     snapshot.ExpectedItems,
		falsePositiveRate: snapshot.FalsePositiveRate,
	}, nil
}
