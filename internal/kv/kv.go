// Package kv defines the core data model shared by every subsystem of the
// storage engine: the key/value entry and the tombstone sentinel that marks
// an entry as deleted.
package kv

import (
	"strings"

	"github.com/google/uuid"
)

// Entry is a single key/value pair as it flows through the MemTable,
// segment files, and the merge engine. Value may be Tombstone, signalling
// that Key has been deleted.
type Entry struct {
	Key   string
	Value string
}

// tombstoneNamespace is a fixed, arbitrary namespace UUID used only to
// derive Tombstone deterministically. It has no meaning beyond that.
var tombstoneNamespace = uuid.MustParse("3f5a9c2e-3b1d-4e9a-8d2f-6b7e4a1c9d0e")

// Tombstone is the distinguished sentinel value that marks a key as
// deleted. It is derived from a fixed namespace UUID and a fixed label so
// that every process computes the exact same value, letting two engine
// instances that open the same data directory agree on what "deleted"
// means without ever persisting the sentinel itself to disk.
var Tombstone = uuid.NewSHA1(tombstoneNamespace, []byte("kvdb.tombstone")).String()

// IsTombstone reports whether value is the deletion sentinel.
func IsTombstone(value string) bool {
	return value == Tombstone
}

// ValidateKey rejects empty and whitespace-only keys, the only two key
// shapes the engine disallows.
func ValidateKey(key string) bool {
	return strings.TrimSpace(key) != ""
}
