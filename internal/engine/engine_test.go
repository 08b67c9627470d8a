package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/kraytos17/kv-db/internal/engine"
	"github.com/kraytos17/kv-db/pkg/options"
	"github.com/kraytos17/kv-db/pkg/seginfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

func newTestEngine(t *testing.T, opts options.Options) *engine.Engine {
	t.Helper()
	eng, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: testLogger(t)})
	require.NoError(t, err)
	return eng
}

// Scenario A: basic put/get/delete.
func TestBasicPutGetDelete(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir

	eng := newTestEngine(t, opts)
	ctx := context.Background()

	require.NoError(t, eng.Insert(ctx, "k1", "v1"))
	require.NoError(t, eng.Insert(ctx, "k2", "v2"))
	require.NoError(t, eng.Insert(ctx, "k3", "v3"))

	v, ok, err := eng.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	require.NoError(t, eng.Delete(ctx, "k2"))
	_, ok, err = eng.Get(ctx, "k2")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = eng.Get(ctx, "k3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v3", v)
}

// Scenario B: MemTable flush preserves earlier keys.
func TestMemTableFlushPreservesEarlierKeys(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir
	opts.MaxInMemorySize = 10
	opts.MergeThreshold = 100 // avoid merging interfering with this scenario

	eng := newTestEngine(t, opts)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		require.NoError(t, eng.Insert(ctx, fmt.Sprintf("key%d", i), fmt.Sprintf("value%d", i)))
	}

	v, ok, err := eng.Get(ctx, "key5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value5", v)

	v, ok, err = eng.Get(ctx, "key20")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value20", v)
}

// Scenario C: merge keeps the most recent value and collapses segments.
func TestMergeKeepsRecencyAndCollapsesSegments(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir
	opts.MaxInMemorySize = 5
	opts.MergeThreshold = 3

	eng := newTestEngine(t, opts)
	ctx := context.Background()

	fillAndFlush := func(value string) {
		require.NoError(t, eng.Insert(ctx, "k", value))
		for i := 0; i < 4; i++ {
			require.NoError(t, eng.Insert(ctx, fmt.Sprintf("filler-%s-%d", value, i), "x"))
		}
	}

	fillAndFlush("A")
	fillAndFlush("B")
	fillAndFlush("C")

	// The MemTable is at capacity again after fillAndFlush("C") but the
	// flush for C's batch only happens lazily, on the *next* insert. This
	// one final insert forces that flush, bringing the live segment count
	// to the merge threshold and triggering the merge pass.
	require.NoError(t, eng.Insert(ctx, "zzz-trigger", "flush-trigger"))

	v, ok, err := eng.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "C", v)

	files, err := seginfo.ListSegmentFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "the three pre-merge segments should have collapsed into one merged output")
}

// Scenario D: a delete survives a subsequent merge.
func TestDeleteAcrossSegmentsSurvivesMerge(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir
	opts.MaxInMemorySize = 2
	opts.MergeThreshold = 2

	eng := newTestEngine(t, opts)
	ctx := context.Background()

	require.NoError(t, eng.Insert(ctx, "k", "x"))
	require.NoError(t, eng.Insert(ctx, "filler1", "1"))

	require.NoError(t, eng.Delete(ctx, "k"))
	require.NoError(t, eng.Insert(ctx, "filler2", "2"))

	_, ok, err := eng.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, eng.Insert(ctx, "filler3", "3"))
	require.NoError(t, eng.Insert(ctx, "filler4", "4"))

	_, ok, err = eng.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Scenario E: a restart observes everything acknowledged before Close.
func TestRestartObservesPriorWrites(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir
	opts.MaxInMemorySize = 1000

	ctx := context.Background()
	eng := newTestEngine(t, opts)

	for i := 0; i < 26; i++ {
		key := string(rune('a' + i))
		value := fmt.Sprintf("%d", i+1)
		require.NoError(t, eng.Insert(ctx, key, value))
	}
	require.NoError(t, eng.Close())

	reopened := newTestEngine(t, opts)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "m")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "13", v)

	_, ok, err = reopened.Get(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

// Scenario F: a key never inserted is reported absent without a
// segment scan — here verified indirectly: an engine with
// zero live segments must answer "absent" purely from the bloom filter.
func TestNeverInsertedKeyIsAbsentWithNoSegments(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir

	eng := newTestEngine(t, opts)
	ctx := context.Background()

	_, ok, err := eng.Get(ctx, "never-written")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertRejectsEmptyAndWhitespaceKeys(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir

	eng := newTestEngine(t, opts)
	ctx := context.Background()

	assert.Error(t, eng.Insert(ctx, "", "v"))
	assert.Error(t, eng.Insert(ctx, "   ", "v"))
}

func TestCancellationDuringGetReturnsCancelled(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir
	opts.MaxInMemorySize = 1

	eng := newTestEngine(t, opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The MemTable fast path is checked before any cancellation point, so a
	// key still resident there is returned even on a cancelled context;
	// cancellation only interrupts the segment-scan path. The second insert
	// flushes "k" to a segment so the lookup has to reach that path.
	require.NoError(t, eng.Insert(context.Background(), "k", "v"))
	require.NoError(t, eng.Insert(context.Background(), "k2", "v2"))

	_, _, err := eng.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOperationsAfterCloseReturnEngineClosed(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.BasePath = dir

	eng := newTestEngine(t, opts)
	require.NoError(t, eng.Close())

	err := eng.Insert(context.Background(), "k", "v")
	assert.ErrorIs(t, err, engine.ErrEngineClosed)

	_, _, err = eng.Get(context.Background(), "k")
	assert.ErrorIs(t, err, engine.ErrEngineClosed)
}
