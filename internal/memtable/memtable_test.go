package memtable_test

import (
	"testing"

	"github.com/kraytos17/kv-db/internal/kv"
	"github.com/kraytos17/kv-db/internal/memtable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGet(t *testing.T) {
	m := memtable.New(10)

	m.Insert("b", "2")
	m.Insert("a", "1")

	value, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", value)

	value, ok = m.Get("b")
	require.True(t, ok)
	assert.Equal(t, "2", value)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestInsertOverwrites(t *testing.T) {
	m := memtable.New(10)

	m.Insert("k", "first")
	m.Insert("k", "second")

	value, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestTombstoneIsStillPresent(t *testing.T) {
	m := memtable.New(10)

	m.Insert("k", kv.Tombstone)

	assert.True(t, m.Contains("k"))
	value, ok := m.Get("k")
	require.True(t, ok)
	assert.True(t, kv.IsTombstone(value))
}

func TestCapacityReached(t *testing.T) {
	m := memtable.New(3)

	assert.False(t, m.CapacityReached())
	m.Insert("a", "1")
	m.Insert("b", "2")
	assert.False(t, m.CapacityReached())
	m.Insert("c", "3")
	assert.True(t, m.CapacityReached())
}

func TestClear(t *testing.T) {
	m := memtable.New(10)
	m.Insert("a", "1")
	m.Insert("b", "2")

	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Contains("a"))
}

func TestAllIsSortedAscending(t *testing.T) {
	m := memtable.New(10)
	m.Insert("charlie", "3")
	m.Insert("alpha", "1")
	m.Insert("bravo", "2")

	entries := m.All()
	require.Len(t, entries, 3)
	assert.Equal(t, []kv.Entry{
		{Key: "alpha", Value: "1"},
		{Key: "bravo", Value: "2"},
		{Key: "charlie", Value: "3"},
	}, entries)
}
