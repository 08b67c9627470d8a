package merge_test

import (
	"context"
	"testing"

	"github.com/kraytos17/kv-db/internal/kv"
	"github.com/kraytos17/kv-db/internal/merge"
	"github.com/kraytos17/kv-db/internal/segment"
	"github.com/kraytos17/kv-db/pkg/seginfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

func makeSegment(t *testing.T, dir string, ts seginfo.Timestamp, entries ...kv.Entry) *segment.Segment {
	t.Helper()
	seg, err := segment.Create(dir, ts, testLogger(t))
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, seg.AddEntry(e))
	}
	require.NoError(t, seg.Seek(0))
	return seg
}

func readAll(t *testing.T, seg *segment.Segment) []kv.Entry {
	t.Helper()
	require.NoError(t, seg.Seek(0))

	var out []kv.Entry
	for {
		e, ok, err := seg.ReadEntry()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}

func TestMergeKeepsNewestValuePerKey(t *testing.T) {
	dir := t.TempDir()

	older := makeSegment(t, dir, seginfo.Timestamp{Seconds: 1, Fraction: 0},
		kv.Entry{Key: "a", Value: "old-a"},
		kv.Entry{Key: "b", Value: "old-b"},
	)
	newer := makeSegment(t, dir, seginfo.Timestamp{Seconds: 2, Fraction: 0},
		kv.Entry{Key: "a", Value: "new-a"},
		kv.Entry{Key: "c", Value: "new-c"},
	)

	outDir := t.TempDir()
	outputs, err := merge.Merge(
		context.Background(),
		[]*segment.Segment{older, newer},
		merge.Options{SegmentSize: 10, OutputDir: outDir},
		testLogger(t),
	)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	got := readAll(t, outputs[0])
	assert.Equal(t, []kv.Entry{
		{Key: "a", Value: "new-a"},
		{Key: "b", Value: "old-b"},
		{Key: "c", Value: "new-c"},
	}, got)
}

func TestMergeRollsOverAtSegmentSize(t *testing.T) {
	dir := t.TempDir()

	seg := makeSegment(t, dir, seginfo.Timestamp{Seconds: 1, Fraction: 0},
		kv.Entry{Key: "a", Value: "1"},
		kv.Entry{Key: "b", Value: "2"},
		kv.Entry{Key: "c", Value: "3"},
		kv.Entry{Key: "d", Value: "4"},
	)

	outDir := t.TempDir()
	outputs, err := merge.Merge(
		context.Background(),
		[]*segment.Segment{seg},
		merge.Options{SegmentSize: 2, OutputDir: outDir},
		testLogger(t),
	)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Len(t, readAll(t, outputs[0]), 2)
	assert.Len(t, readAll(t, outputs[1]), 2)
}

func TestMergePassesThroughTombstones(t *testing.T) {
	dir := t.TempDir()

	older := makeSegment(t, dir, seginfo.Timestamp{Seconds: 1, Fraction: 0},
		kv.Entry{Key: "a", Value: "1"},
	)
	newer := makeSegment(t, dir, seginfo.Timestamp{Seconds: 2, Fraction: 0},
		kv.Entry{Key: "a", Value: kv.Tombstone},
	)

	outDir := t.TempDir()
	outputs, err := merge.Merge(
		context.Background(),
		[]*segment.Segment{older, newer},
		merge.Options{SegmentSize: 10, OutputDir: outDir},
		testLogger(t),
	)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	got := readAll(t, outputs[0])
	require.Len(t, got, 1)
	assert.True(t, kv.IsTombstone(got[0].Value))
}

func TestMergeOfEmptySegmentsProducesNoOutput(t *testing.T) {
	dir := t.TempDir()

	empty1 := makeSegment(t, dir, seginfo.Timestamp{Seconds: 1, Fraction: 0})
	empty2 := makeSegment(t, dir, seginfo.Timestamp{Seconds: 2, Fraction: 0})

	outDir := t.TempDir()
	outputs, err := merge.Merge(
		context.Background(),
		[]*segment.Segment{empty1, empty2},
		merge.Options{SegmentSize: 10, OutputDir: outDir},
		testLogger(t),
	)
	require.NoError(t, err)
	assert.Empty(t, outputs)

	entries, err := seginfo.ListSegmentFiles(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no entries flowed through the merge, so no output segment file should exist")
}

func TestMergeCancellationCleansUpPartialOutput(t *testing.T) {
	dir := t.TempDir()

	seg := makeSegment(t, dir, seginfo.Timestamp{Seconds: 1, Fraction: 0},
		kv.Entry{Key: "a", Value: "1"},
		kv.Entry{Key: "b", Value: "2"},
	)

	outDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outputs, err := merge.Merge(ctx, []*segment.Segment{seg}, merge.Options{SegmentSize: 10, OutputDir: outDir}, testLogger(t))
	require.Error(t, err)
	assert.Nil(t, outputs)

	entries, err := seginfo.ListSegmentFiles(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
