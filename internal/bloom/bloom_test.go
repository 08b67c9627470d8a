package bloom_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kraytos17/kv-db/internal/bloom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

func TestAddAndMightContain(t *testing.T) {
	f := bloom.New(1000, 0.01, testLogger(t))

	keys := []string{"alpha", "beta", "gamma", "delta"}
	for _, k := range keys {
		f.Add(k)
	}

	for _, k := range keys {
		assert.True(t, f.MightContain(k))
	}
}

func TestMightContainNeverFalseNegatives(t *testing.T) {
	f := bloom.New(500, 0.01, testLogger(t))

	for i := 0; i < 500; i++ {
		f.Add(fmt.Sprintf("present-%d", i))
	}

	for i := 0; i < 500; i++ {
		assert.True(t, f.MightContain(fmt.Sprintf("present-%d", i)))
	}

	absent := 0
	for i := 0; i < 500; i++ {
		if !f.MightContain(fmt.Sprintf("absent-%d", i)) {
			absent++
		}
	}
	// Some absent keys may collide (false positives are allowed), but most
	// should correctly report absence at a low configured false positive rate.
	assert.Greater(t, absent, 400)
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	log := testLogger(t)

	f := bloom.New(100, 0.01, log)
	f.Add("one")
	f.Add("two")
	f.Add("three")

	path := filepath.Join(dir, "filter.json")
	require.NoError(t, f.Persist(path))

	loaded, err := bloom.Load(path, log)
	require.NoError(t, err)

	assert.True(t, loaded.MightContain("one"))
	assert.True(t, loaded.MightContain("two"))
	assert.True(t, loaded.MightContain("three"))
}

func TestLoadRejectsInconsistentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bits":[0],"m":128,"k":3,"n":1,"seeds":[1,2,3],"expectedItems":10,"falsePositiveRate":0.01}`), 0644))

	_, err := bloom.Load(path, testLogger(t))
	require.Error(t, err)
}

func TestLoadRejectsFileWithMissingSeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad-seeds.json")
	// m=128 needs two 64-bit words and k=3 hash functions, but the seeds
	// slice only carries one entry: an internally inconsistent file that
	// must be rejected rather than silently padded.
	require.NoError(t, os.WriteFile(path, []byte(`{"bits":[0,0],"m":128,"k":3,"n":1,"seeds":[1],"expectedItems":10,"falsePositiveRate":0.01}`), 0644))

	_, err := bloom.Load(path, testLogger(t))
	require.Error(t, err)
}

func TestSizingRoundsHashCountUpToCeiling(t *testing.T) {
	// At p=0.1, m/n*ln2 ≈ 3.32, which must round up to k=4 hash functions,
	// not down to 3.
	f := bloom.New(1000, 0.1, testLogger(t))
	assert.Equal(t, uint64(4), f.HashCount())
}
